package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/server/storage"
	"github.com/iudanet/filmapi/internal/validation"
	"github.com/iudanet/filmapi/pkg/api"
)

// maxBodyBytes ограничивает размер JSON тела запроса
const maxBodyBytes = 1 << 20

// responder содержит общие для всех handlers методы ответа
type responder struct {
	logger *slog.Logger
}

// decode читает JSON тело запроса в dst
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request body", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// fail переводит ошибку в HTTP ответ по таксономии auth.Kind.
// Детали ошибок хранилища пишутся только в лог.
func (h responder) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if fields, ok := validation.Fields(err); ok {
		h.sendJSON(w, api.ErrorResponse{
			Error:   http.StatusText(http.StatusUnprocessableEntity),
			Message: "validation failed",
			Fields:  fields,
		}, http.StatusUnprocessableEntity)
		return
	}

	switch auth.KindOf(err) {
	case auth.KindInvalidCredentials:
		h.sendError(w, "incorrect username or password", http.StatusUnauthorized)
	case auth.KindUnauthenticated:
		h.sendError(w, "authentication required", http.StatusUnauthorized)
	case auth.KindPermissionDenied:
		h.sendError(w, "permission denied", http.StatusForbidden)
	case auth.KindDuplicateResource:
		h.sendError(w, errorMessage(err, "resource already exists"), http.StatusBadRequest)
	case auth.KindValidationError:
		h.sendError(w, errorMessage(err, "validation failed"), http.StatusUnprocessableEntity)
	default:
		h.logger.ErrorContext(ctx, op+" failed", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// errorMessage returns the cause of a classified error for client-safe kinds
func errorMessage(err error, fallback string) string {
	var e *auth.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return fallback
}

// notFound отправляет 404 если err — одна из ошибок "не найдено"
func (h responder) notFound(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		h.sendError(w, "user not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrMovieNotFound):
		h.sendError(w, "movie not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrActorNotFound):
		h.sendError(w, "actor not found", http.StatusNotFound)
	default:
		return false
	}
	return true
}

// identity возвращает пользователя, привязанного AuthMiddleware
func identity(r *http.Request) (auth.Identity, bool) {
	return auth.IdentityFromContext(r.Context())
}
