package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/models"
)

// TokenResolver проверяет bearer token и возвращает его владельца
type TokenResolver interface {
	ResolveIdentity(ctx context.Context, token string) (auth.Identity, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Все причины отказа (нет заголовка, неверный формат, плохая подпись,
// истекший срок, удаленный пользователь) дают одинаковый 401.
func AuthMiddleware(logger *slog.Logger, tokens TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.WarnContext(ctx, "authentication failed", slog.Any("error", err))
				writeError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			id, err := tokens.ResolveIdentity(ctx, raw)
			if err != nil {
				if auth.KindOf(err) == auth.KindStoreUnavailable {
					logger.ErrorContext(ctx, "failed to resolve token subject", slog.Any("error", err))
					writeError(w, "internal server error", http.StatusInternalServerError)
					return
				}
				logger.WarnContext(ctx, "authentication failed", slog.Any("error", err))
				writeError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(ctx, "user authenticated",
				slog.String("user_id", id.ID),
				slog.String("username", id.Username))

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, id)))
		})
	}
}

// Rule решает, может ли identity выполнить запрос r
type Rule func(id auth.Identity, r *http.Request) error

// SelfByUsername разрешает доступ только владельцу ресурса {param}
func SelfByUsername(param string) Rule {
	return func(id auth.Identity, r *http.Request) error {
		return auth.Authorize(id, r.PathValue(param))
	}
}

// SelfOrAdminByUsername разрешает доступ владельцу ресурса {param} или администратору
func SelfOrAdminByUsername(param string) Rule {
	return func(id auth.Identity, r *http.Request) error {
		return auth.AuthorizeOrAdmin(id, r.PathValue(param))
	}
}

// SelfOrAdminByID то же, что SelfOrAdminByUsername, но {param} содержит ID пользователя
func SelfOrAdminByID(param string) Rule {
	return func(id auth.Identity, r *http.Request) error {
		return auth.AuthorizeIDOrAdmin(id, r.PathValue(param))
	}
}

// AdminOnly разрешает доступ только администраторам
func AdminOnly() Rule {
	return func(id auth.Identity, _ *http.Request) error {
		return auth.RequireRole(id, models.RoleAdmin)
	}
}

// Authorize создает middleware проверки прав. Должен стоять после AuthMiddleware.
func Authorize(logger *slog.Logger, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok := auth.IdentityFromContext(ctx)
			if !ok {
				writeError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			if err := rule(id, r); err != nil {
				logger.WarnContext(ctx, "permission denied",
					slog.String("user_id", id.ID),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				writeError(w, "permission denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
