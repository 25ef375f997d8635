package boltdb

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

// CreateUser stores the user and claims its username in one transaction,
// so two concurrent registrations of the same name cannot both succeed.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []string{}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		if users.Get([]byte(user.ID)) != nil {
			return storage.ErrUserAlreadyExists
		}

		ok, err := claimKey(tx.Bucket(bucketUsernames), user.Username, user.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrUserAlreadyExists
		}

		return putDoc(users, user.ID, user)
	})
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		id, ok := lookupKey(tx.Bucket(bucketUsernames), username)
		if !ok {
			return storage.ErrUserNotFound
		}
		var err error
		user, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func getUser(tx *bbolt.Tx, id string) (*models.User, error) {
	user := &models.User{}
	found, err := getDoc(tx.Bucket(bucketUsers), id, user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns all users ordered by username
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		users, err = listDocs(tx.Bucket(bucketUsers), func(a, b *models.User) bool {
			return a.Username < b.Username
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser updates mutable user fields; username and ID are kept
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	return s.updateUser(user.ID, func(stored *models.User) {
		stored.PasswordDigest = user.PasswordDigest
		stored.Email = user.Email
		stored.Birthday = user.Birthday
		stored.Role = user.Role
		stored.UpdatedAt = user.UpdatedAt
	})
}

// DeleteUser deletes user by ID and releases the username
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketUsernames).Delete([]byte(user.Username)); err != nil {
			return fmt.Errorf("failed to update index: %w", err)
		}
		if err := tx.Bucket(bucketUsers).Delete([]byte(userID)); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// AddFavorite appends movieID to the user's favorites
func (s *Storage) AddFavorite(ctx context.Context, userID, movieID string) error {
	return s.updateUser(userID, func(stored *models.User) {
		if !stored.HasFavorite(movieID) {
			stored.FavoriteMovies = append(stored.FavoriteMovies, movieID)
		}
	})
}

// RemoveFavorite removes movieID from the user's favorites
func (s *Storage) RemoveFavorite(ctx context.Context, userID, movieID string) error {
	return s.updateUser(userID, func(stored *models.User) {
		kept := stored.FavoriteMovies[:0]
		for _, id := range stored.FavoriteMovies {
			if id != movieID {
				kept = append(kept, id)
			}
		}
		stored.FavoriteMovies = kept
	})
}

// updateUser applies mutate to the stored document inside a write transaction
func (s *Storage) updateUser(userID string, mutate func(*models.User)) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		mutate(user)
		return putDoc(tx.Bucket(bucketUsers), userID, user)
	})
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return err
}
