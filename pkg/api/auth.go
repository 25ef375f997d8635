package api

// RegisterRequest представляет запрос на регистрацию нового пользователя.
// Ключи JSON совпадают без учета регистра, так что "Username" тоже принимается.
type RegisterRequest struct {
	Username string `json:"username"`           // 5+ символов, только буквы и цифры
	Password string `json:"password"`           // пароль в открытом виде (хешируется на сервере)
	Email    string `json:"email"`              // email пользователя
	Birthday string `json:"birthday,omitempty"` // дата рождения YYYY-MM-DD (опционально)
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"` // JWT access token
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Fields  map[string]string `json:"fields,omitempty"`  // ошибки валидации по полям
	Error   string            `json:"error"`             // описание ошибки
	Message string            `json:"message,omitempty"` // дополнительное сообщение
}
