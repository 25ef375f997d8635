package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

const userColumns = `id, username, password_digest, email, birthday, role, created_at, updated_at`

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var birthday sql.NullTime
	var role string

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordDigest,
		&user.Email,
		&birthday,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.Birthday = fromNullTime(birthday)
	user.Role = models.Role(role)
	return user, nil
}

// CreateUser creates a new user in the storage.
// Uniqueness of username relies on idx_users_username, not on a prior lookup.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordDigest,
		user.Email,
		toNullTime(user.Birthday),
		string(role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.Role = role
	return nil
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return s.getUser(ctx, query, username)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.getUser(ctx, query, userID)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	favorites, err := s.favorites(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.FavoriteMovies = favorites

	return user, nil
}

// ListUsers returns all users ordered by username
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	// Избранное загружаем после закрытия курсора: соединение всего одно
	_ = rows.Close()
	for _, user := range users {
		favorites, err := s.favorites(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.FavoriteMovies = favorites
	}

	return users, nil
}

// UpdateUser updates user information
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET password_digest = ?, email = ?, birthday = ?, role = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		user.PasswordDigest,
		user.Email,
		toNullTime(user.Birthday),
		string(user.Role),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectRows(result, storage.ErrUserNotFound)
}

// DeleteUser deletes user by ID; favorites are removed by ON DELETE CASCADE
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectRows(result, storage.ErrUserNotFound)
}

// AddFavorite appends movieID to the user's favorites
func (s *Storage) AddFavorite(ctx context.Context, userID, movieID string) error {
	if err := s.userExists(ctx, userID); err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO user_favorites (user_id, movie_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM user_favorites WHERE user_id = ?))
	`
	if _, err := s.db.ExecContext(ctx, query, userID, movieID, userID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	return nil
}

// RemoveFavorite removes movieID from the user's favorites
func (s *Storage) RemoveFavorite(ctx context.Context, userID, movieID string) error {
	if err := s.userExists(ctx, userID); err != nil {
		return err
	}

	query := `DELETE FROM user_favorites WHERE user_id = ? AND movie_id = ?`
	if _, err := s.db.ExecContext(ctx, query, userID, movieID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	return nil
}

func (s *Storage) userExists(ctx context.Context, userID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to check user: %w", err)
	}
	return nil
}

func (s *Storage) favorites(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT movie_id FROM user_favorites WHERE user_id = ? ORDER BY position`
	return s.queryIDs(ctx, query, userID)
}

// queryIDs runs a single-column query and collects the values
func (s *Storage) queryIDs(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}

// expectRows maps "no rows affected" to notFound
func expectRows(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
