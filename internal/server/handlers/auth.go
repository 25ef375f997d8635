package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
	"github.com/iudanet/filmapi/internal/validation"
	"github.com/iudanet/filmapi/pkg/api"
)

// AuthHandler обрабатывает регистрацию и вход
type AuthHandler struct {
	responder
	userStorage storage.UserStorage
	hasher      auth.Hasher
	credentials auth.Strategy[auth.Credentials]
	tokens      *auth.TokenService
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	userStorage storage.UserStorage,
	hasher auth.Hasher,
	credentials auth.Strategy[auth.Credentials],
	tokens *auth.TokenService,
) *AuthHandler {
	return &AuthHandler{
		responder:   responder{logger: logger},
		userStorage: userStorage,
		hasher:      hasher,
		credentials: credentials,
		tokens:      tokens,
	}
}

// Register обрабатывает POST /users
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := validation.Register(req); err != nil {
		h.logger.WarnContext(ctx, "invalid registration request", slog.String("username", req.Username))
		h.fail(ctx, w, "register", err)
		return
	}

	birthday, err := validation.ParseDate(req.Birthday)
	if err != nil {
		h.fail(ctx, w, "register", auth.NewError(auth.KindValidationError, err))
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.fail(ctx, w, "hash password", err)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:             uuid.New().String(),
		Username:       req.Username,
		PasswordDigest: digest,
		Email:          req.Email,
		Birthday:       birthday,
		Role:           models.RoleUser,
		FavoriteMovies: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Уникальность username гарантирует хранилище, предварительной проверки нет
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("username", req.Username))
			h.fail(ctx, w, "register", auth.NewError(auth.KindDuplicateResource,
				fmt.Errorf("%s already exists", req.Username)))
			return
		}
		h.fail(ctx, w, "create user", err)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	h.sendJSON(w, newUserResponse(user), http.StatusCreated)
}

// Login обрабатывает POST /login
// Проверяет пароль и выдает access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Пустые поля отвечают тем же 401, что и неверный пароль
	if err := validation.Login(req); err != nil {
		h.fail(ctx, w, "login", auth.ErrInvalidCredentials)
		return
	}

	id, err := h.credentials.ResolveIdentity(ctx, auth.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if auth.KindOf(err) == auth.KindInvalidCredentials {
			h.logger.WarnContext(ctx, "login failed", slog.String("username", req.Username))
		}
		h.fail(ctx, w, "login", err)
		return
	}

	token, err := h.tokens.Issue(id)
	if err != nil {
		h.fail(ctx, w, "issue token", err)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, id.ID)
	if err != nil {
		h.fail(ctx, w, "load user", err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", id.Username),
		slog.String("user_id", id.ID))

	h.sendJSON(w, api.LoginResponse{
		User:  newUserResponse(user),
		Token: token,
	}, http.StatusOK)
}
