// Package server собирает HTTP API: маршруты, цепочку middleware и
// жизненный цикл http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/config"
	"github.com/iudanet/filmapi/internal/server/handlers"
	"github.com/iudanet/filmapi/internal/server/middleware"
	"github.com/iudanet/filmapi/internal/server/storage"
)

// Server HTTP сервер каталога фильмов
type Server struct {
	httpServer      *http.Server
	limiter         *middleware.PathLimiter
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// Options зависимости сервера
type Options struct {
	Config *config.Config
	Store  storage.Store
	Hasher auth.Hasher
	Tokens *auth.TokenService
	Logger *slog.Logger
	// AccessLogger пишет access-лог; если nil, используется Logger
	AccessLogger *slog.Logger
	Version      string
}

// New создает сервер и регистрирует маршруты
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Store == nil || opts.Hasher == nil || opts.Tokens == nil || opts.Logger == nil {
		return nil, errors.New("server: missing dependency")
	}
	cfg := opts.Config
	logger := opts.Logger
	accessLogger := opts.AccessLogger
	if accessLogger == nil {
		accessLogger = logger
	}

	credentials, err := auth.NewCredentialStrategy(opts.Store, opts.Hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential strategy: %w", err)
	}
	tokenStrategy := auth.NewTokenStrategy(opts.Store, opts.Tokens)

	authHandler := handlers.NewAuthHandler(logger, opts.Store, opts.Hasher, credentials, opts.Tokens)
	userHandler := handlers.NewUserHandler(logger, opts.Store, opts.Store, opts.Hasher)
	catalogHandler := handlers.NewCatalogHandler(logger, opts.Store, opts.Store)
	healthHandler := handlers.NewHealthHandler(logger, opts.Store, opts.Version)

	authn := middleware.AuthMiddleware(logger, tokenStrategy)
	protect := func(h http.HandlerFunc, rules ...middleware.Rule) http.Handler {
		var next http.Handler = h
		for i := len(rules) - 1; i >= 0; i-- {
			next = middleware.Authorize(logger, rules[i])(next)
		}
		return authn(next)
	}

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /{$}", healthHandler.Welcome)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /users", authHandler.Register)

	// Users
	mux.Handle("GET /users", protect(userHandler.List, middleware.AdminOnly()))
	mux.Handle("GET /users/{username}", protect(userHandler.Get, middleware.SelfOrAdminByUsername("username")))
	mux.Handle("PUT /users/{username}", protect(userHandler.Update, middleware.SelfByUsername("username")))
	mux.Handle("DELETE /users/{id}", protect(userHandler.Delete, middleware.SelfOrAdminByID("id")))
	mux.Handle("POST /users/{username}/movies/{movieID}",
		protect(userHandler.AddFavorite, middleware.SelfByUsername("username")))
	mux.Handle("DELETE /users/{username}/movies/{movieID}",
		protect(userHandler.RemoveFavorite, middleware.SelfByUsername("username")))

	// Catalog
	mux.Handle("GET /movies", protect(catalogHandler.ListMovies))
	mux.Handle("POST /movies", protect(catalogHandler.CreateMovie))
	mux.Handle("GET /movies/{title}", protect(catalogHandler.GetMovie))
	mux.Handle("GET /movies/directorname/{title}", protect(catalogHandler.GetDirector))
	mux.Handle("GET /movies/genre/{title}", protect(catalogHandler.GetGenre))
	mux.Handle("POST /movies/{title}/actors/{actorID}", protect(catalogHandler.AddMovieActor))
	mux.Handle("GET /actors", protect(catalogHandler.ListActors))
	mux.Handle("POST /actors", protect(catalogHandler.CreateActor))

	limiter := middleware.NewPathLimiter(logger, cfg.RateLimit.TrustProxy,
		middleware.RouteLimit{Method: http.MethodPost, Path: "/login", Rate: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window},
		middleware.RouteLimit{Method: http.MethodPost, Path: "/users", Rate: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window},
	)

	// Порядок: request id -> access log -> recovery -> CORS -> rate limit -> mux
	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = middleware.CORS(logger, cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	handler = middleware.LoggingWithSkip(accessLogger, []string{"/health"})(handler)
	handler = middleware.RequestID(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		limiter:         limiter,
		logger:          logger,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// Handler возвращает корневой http.Handler (для тестов)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run слушает адрес из конфигурации до отмены ctx, затем выполняет graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает ln до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return <-errCh
}
