package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/config"
	"github.com/iudanet/filmapi/internal/server/storage/boltdb"
	"github.com/iudanet/filmapi/pkg/api"
)

type testEnv struct {
	srv  *Server
	http *httptest.Server
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	return setupServerWith(t, nil)
}

func setupServerWith(t *testing.T, configure func(*config.Config)) *testEnv {
	t.Helper()

	store, err := boltdb.New(t.Context(), filepath.Join(t.TempDir(), "film.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.CORS.AllowedOrigins = []string{"https://films.example.com"}
	cfg.RateLimit.Requests = 100
	if configure != nil {
		configure(cfg)
	}

	srv, err := New(Options{
		Config:  cfg,
		Store:   store,
		Hasher:  auth.NewBcryptHasher(4),
		Tokens:  tokens,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version: "test",
	})
	require.NoError(t, err)
	t.Cleanup(srv.limiter.Stop)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, http: ts}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, e.http.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) register(t *testing.T, username string) api.UserResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/users", "", api.RegisterRequest{
		Username: username,
		Password: "secret123",
		Email:    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.UserResponse](t, resp)
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/login", "", api.LoginRequest{Username: username, Password: "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[api.LoginResponse](t, resp).Token
}

func TestServer_UserFlow(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/users", "", api.RegisterRequest{
		Username: "alice01",
		Password: "secret123",
		Email:    "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "alice01", raw["username"])
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "password_digest")

	env.register(t, "bob02")

	// повторная регистрация
	resp = env.do(t, http.MethodPost, "/users", "", api.RegisterRequest{
		Username: "alice01", Password: "other", Email: "alice2@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "alice01 already exists", decode[api.ErrorResponse](t, resp).Message)

	token := env.login(t, "alice01")

	update := api.UpdateUserRequest{Password: "newsecret", Email: "alice@films.example.com"}
	resp = env.do(t, http.MethodPut, "/users/alice01", token, update)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@films.example.com", decode[api.UserResponse](t, resp).Email)

	resp = env.do(t, http.MethodPut, "/users/bob02", token, update)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/users/alice01", "", update)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/users", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// старый пароль больше не подходит
	resp = env.do(t, http.MethodPost, "/login", "", api.LoginRequest{Username: "alice01", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_CatalogAndFavorites(t *testing.T) {
	env := setupServer(t)
	alice := env.register(t, "alice01")
	token := env.login(t, "alice01")

	resp := env.do(t, http.MethodGet, "/movies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/movies", token, api.MovieRequest{
		Title:    "Jaws",
		Year:     1975,
		Genre:    api.GenreRequest{Name: "Thriller"},
		Director: api.DirectorRequest{Name: "Steven Spielberg", Birth: "1946-12-18"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var movie struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movie))

	resp = env.do(t, http.MethodGet, "/movies/directorname/Jaws", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Steven Spielberg", decode[api.DirectorResponse](t, resp).Director.Name)

	resp = env.do(t, http.MethodPost, "/users/alice01/movies/"+movie.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{movie.ID}, decode[api.UserResponse](t, resp).FavoriteMovies)

	resp = env.do(t, http.MethodDelete, "/users/alice01/movies/"+movie.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[api.UserResponse](t, resp).FavoriteMovies)

	resp = env.do(t, http.MethodDelete, "/users/"+alice.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// токен удаленного пользователя больше не принимается
	resp = env.do(t, http.MethodGet, "/movies", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Middleware(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, env.http.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = env.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequestWithContext(t.Context(), http.MethodGet, env.http.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://films.example.com")
	req.Header.Set("X-Request-ID", "req-42")
	resp2, err := env.http.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "https://films.example.com", resp2.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-42", resp2.Header.Get("X-Request-ID"))
}

func TestServer_LoginRateLimit_IgnoresForwardedFor(t *testing.T) {
	env := setupServerWith(t, func(cfg *config.Config) {
		cfg.RateLimit.Requests = 5
	})

	throttled := 0
	for i := 0; i < 10; i++ {
		data, err := json.Marshal(api.LoginRequest{Username: "nobody1", Password: "wrong"})
		require.NoError(t, err)
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, env.http.URL+"/login", bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		resp, err := env.http.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Equal(t, 5, throttled)
}

func TestServer_Serve_Shutdown(t *testing.T) {
	env := setupServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- env.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(Options{Config: config.Default()})
	assert.Error(t, err)
}
