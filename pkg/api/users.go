package api

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// UpdateUserRequest представляет запрос на изменение своего профиля
type UpdateUserRequest struct {
	Password string `json:"password"`           // новый пароль, 5+ символов
	Email    string `json:"email"`              // новый email
	Birthday string `json:"birthday,omitempty"` // YYYY-MM-DD (опционально)
}

// UserResponse is the public view of a user. It has no password field: the
// server copies it from the stored user field by field.
type UserResponse struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Birthday       string    `json:"birthday,omitempty"`
	Role           string    `json:"role"`
	FavoriteMovies []string  `json:"favorite_movies"`
}
