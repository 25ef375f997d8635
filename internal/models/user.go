package models

import "time"

// Role определяет уровень доступа пользователя
type Role string

const (
	// RoleUser обычный пользователь, доступ только к своим данным
	RoleUser Role = "user"
	// RoleAdmin администратор, может просматривать и удалять любых пользователей
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет пользователя в системе.
// PasswordDigest сериализуется только в хранилище, наружу пользователь
// отдается через api.UserResponse.
type User struct {
	CreatedAt      time.Time  `json:"created_at"`         // время создания
	UpdatedAt      time.Time  `json:"updated_at"`         // время последнего обновления
	Birthday       *time.Time `json:"birthday,omitempty"` // дата рождения (опционально)
	ID             string     `json:"id"`                 // UUID пользователя
	Username       string     `json:"username"`           // уникальный username
	PasswordDigest string     `json:"password_digest"`    // bcrypt хеш пароля
	Email          string     `json:"email"`              // email пользователя
	Role           Role       `json:"role"`               // роль (user | admin)
	FavoriteMovies []string   `json:"favorite_movies"`    // ID избранных фильмов
}

// HasFavorite reports whether movieID is already in the favorites list.
func (u *User) HasFavorite(movieID string) bool {
	for _, id := range u.FavoriteMovies {
		if id == movieID {
			return true
		}
	}
	return false
}
