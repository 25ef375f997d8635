package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// pingTimeout ограничивает проверку хранилища в health check
const pingTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	store   Pinger
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, store Pinger, version string) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		store:     store,
		version:   version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /health
// Возвращает 503 если хранилище недоступно
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: h.version}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "storage ping failed", slog.Any("error", err))
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	h.sendJSON(w, resp, status)
}

// Welcome обрабатывает GET /
func (h *HealthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Welcome to the film API!\n")); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write welcome response", slog.Any("error", err))
	}
}
