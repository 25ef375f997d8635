package storage

import (
	"context"

	"github.com/iudanet/filmapi/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage.
	// Username uniqueness is enforced by the storage itself:
	// returns ErrUserAlreadyExists if username is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username (exact match)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// ListUsers returns all users ordered by username
	ListUsers(ctx context.Context) ([]*models.User, error)

	// UpdateUser updates email, password digest, birthday and role
	// Returns ErrUserNotFound if user doesn't exist
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser deletes user by ID together with the favorites list
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error

	// AddFavorite appends movieID to the user's favorites (no-op if already present)
	// Returns ErrUserNotFound if user doesn't exist
	AddFavorite(ctx context.Context, userID, movieID string) error

	// RemoveFavorite removes movieID from the user's favorites (no-op if absent)
	// Returns ErrUserNotFound if user doesn't exist
	RemoveFavorite(ctx context.Context, userID, movieID string) error
}
