// Package admin содержит операции сопровождения, которые не доступны через HTTP API:
// создание администраторов и смену ролей.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
	"github.com/iudanet/filmapi/internal/validation"
	"github.com/iudanet/filmapi/pkg/api"
)

// ErrInvalidRole возвращается для роли, отличной от user и admin
var ErrInvalidRole = errors.New("invalid role")

// Account описывает пользователя, которого нужно создать или обновить
type Account struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// Provision создает пользователя с заданной ролью. Если пользователь уже есть,
// меняется только роль (и пароль, если он передан). created сообщает, был ли
// пользователь создан.
func Provision(ctx context.Context, users storage.UserStorage, hasher auth.Hasher, acc Account) (user *models.User, created bool, err error) {
	if !acc.Role.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidRole, acc.Role)
	}

	existing, err := users.GetUserByUsername(ctx, acc.Username)
	switch {
	case err == nil:
		return update(ctx, users, hasher, existing, acc)
	case !errors.Is(err, storage.ErrUserNotFound):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := validation.Register(api.RegisterRequest{
		Username: acc.Username,
		Password: acc.Password,
		Email:    acc.Email,
	}); err != nil {
		return nil, false, err
	}

	digest, err := hasher.Hash(acc.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user = &models.User{
		ID:             uuid.New().String(),
		Username:       acc.Username,
		PasswordDigest: digest,
		Email:          acc.Email,
		Role:           acc.Role,
		FavoriteMovies: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}

func update(ctx context.Context, users storage.UserStorage, hasher auth.Hasher, user *models.User, acc Account) (*models.User, bool, error) {
	user.Role = acc.Role
	if acc.Password != "" {
		digest, err := hasher.Hash(acc.Password)
		if err != nil {
			return nil, false, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordDigest = digest
	}
	if acc.Email != "" {
		user.Email = acc.Email
	}
	user.UpdatedAt = time.Now().UTC()

	if err := users.UpdateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to update user: %w", err)
	}
	return user, false, nil
}
