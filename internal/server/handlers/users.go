package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/server/storage"
	"github.com/iudanet/filmapi/internal/validation"
	"github.com/iudanet/filmapi/pkg/api"
)

// UserHandler обрабатывает запросы к профилям пользователей.
// Проверка прав выполняется middleware до вызова методов.
type UserHandler struct {
	responder
	userStorage  storage.UserStorage
	movieStorage storage.MovieStorage
	hasher       auth.Hasher
}

// NewUserHandler создает handler пользователей
func NewUserHandler(logger *slog.Logger, userStorage storage.UserStorage, movieStorage storage.MovieStorage, hasher auth.Hasher) *UserHandler {
	return &UserHandler{
		responder:    responder{logger: logger},
		userStorage:  userStorage,
		movieStorage: movieStorage,
		hasher:       hasher,
	}
}

// List обрабатывает GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStorage.ListUsers(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list users", err)
		return
	}
	h.sendJSON(w, newUserResponses(users), http.StatusOK)
}

// Get обрабатывает GET /users/{username}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStorage.GetUserByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(r.Context(), w, "get user", err)
		return
	}
	h.sendJSON(w, newUserResponse(user), http.StatusOK)
}

// Update обрабатывает PUT /users/{username}
// Меняет пароль (с повторным хешированием), email и дату рождения
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identity(r)
	if !ok {
		h.fail(ctx, w, "update user", auth.ErrUnauthenticated)
		return
	}

	var req api.UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.UpdateUser(req); err != nil {
		h.fail(ctx, w, "update user", err)
		return
	}
	birthday, err := validation.ParseDate(req.Birthday)
	if err != nil {
		h.fail(ctx, w, "update user", auth.NewError(auth.KindValidationError, err))
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, id.ID)
	if err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "load user", err)
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.fail(ctx, w, "hash password", err)
		return
	}

	user.PasswordDigest = digest
	user.Email = req.Email
	if birthday != nil {
		user.Birthday = birthday
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "update user", err)
		return
	}

	h.logger.InfoContext(ctx, "user updated", slog.String("user_id", user.ID))
	h.sendJSON(w, newUserResponse(user), http.StatusOK)
}

// Delete обрабатывает DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	if err := h.userStorage.DeleteUser(ctx, userID); err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "delete user", err)
		return
	}

	h.logger.InfoContext(ctx, "user deleted", slog.String("user_id", userID))
	h.sendJSON(w, map[string]string{"message": userID + " was deleted."}, http.StatusOK)
}

// AddFavorite обрабатывает POST /users/{username}/movies/{movieID}
func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := r.PathValue("movieID")

	if _, err := h.movieStorage.GetMovieByID(ctx, movieID); err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "get movie", err)
		return
	}

	h.changeFavorites(w, r, func(userID string) error {
		return h.userStorage.AddFavorite(ctx, userID, movieID)
	})
}

// RemoveFavorite обрабатывает DELETE /users/{username}/movies/{movieID}
func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := r.PathValue("movieID")

	h.changeFavorites(w, r, func(userID string) error {
		return h.userStorage.RemoveFavorite(ctx, userID, movieID)
	})
}

// changeFavorites применяет изменение к избранному текущего пользователя
// и возвращает обновленный профиль
func (h *UserHandler) changeFavorites(w http.ResponseWriter, r *http.Request, change func(userID string) error) {
	ctx := r.Context()

	id, ok := identity(r)
	if !ok {
		h.fail(ctx, w, "favorites", auth.ErrUnauthenticated)
		return
	}

	if err := change(id.ID); err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "update favorites", err)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, id.ID)
	if err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "load user", err)
		return
	}

	h.sendJSON(w, newUserResponse(user), http.StatusOK)
}
