package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

// mockStore is an in-memory implementation of the user, movie and actor storages
type mockStore struct {
	users   map[string]*models.User // id -> User
	movies  map[string]*models.Movie
	actors  map[string]*models.Actor
	err     error // returned by most methods when set
	pingErr error
	mu      sync.Mutex
}

func newMockStore() *mockStore {
	return &mockStore{
		users:  make(map[string]*models.User),
		movies: make(map[string]*models.Movie),
		actors: make(map[string]*models.Actor),
	}
}

func (m *mockStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	cp.FavoriteMovies = append([]string{}, u.FavoriteMovies...)
	return &cp, nil
}

func (m *mockStore) ListUsers(_ context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockStore) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockStore) AddFavorite(_ context.Context, userID, movieID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	if !u.HasFavorite(movieID) {
		u.FavoriteMovies = append(u.FavoriteMovies, movieID)
	}
	return nil
}

func (m *mockStore) RemoveFavorite(_ context.Context, userID, movieID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	kept := []string{}
	for _, id := range u.FavoriteMovies {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	u.FavoriteMovies = kept
	return nil
}

func (m *mockStore) CreateMovie(_ context.Context, movie *models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, mv := range m.movies {
		if mv.Title == movie.Title {
			return storage.ErrMovieAlreadyExists
		}
	}
	cp := *movie
	m.movies[movie.ID] = &cp
	return nil
}

func (m *mockStore) ListMovies(_ context.Context) ([]*models.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Movie
	for _, mv := range m.movies {
		cp := *mv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *mockStore) GetMovieByTitle(_ context.Context, title string) (*models.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, mv := range m.movies {
		if mv.Title == title {
			cp := *mv
			return &cp, nil
		}
	}
	return nil, storage.ErrMovieNotFound
}

func (m *mockStore) GetMovieByID(_ context.Context, id string) (*models.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	mv, ok := m.movies[id]
	if !ok {
		return nil, storage.ErrMovieNotFound
	}
	cp := *mv
	cp.Actors = append([]string{}, mv.Actors...)
	return &cp, nil
}

func (m *mockStore) AddMovieActor(_ context.Context, movieID, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.movies[movieID]
	if !ok {
		return storage.ErrMovieNotFound
	}
	if !mv.HasActor(actorID) {
		mv.Actors = append(mv.Actors, actorID)
	}
	return nil
}

func (m *mockStore) CreateActor(_ context.Context, actor *models.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range m.actors {
		if a.Name == actor.Name {
			return storage.ErrActorAlreadyExists
		}
	}
	cp := *actor
	m.actors[actor.ID] = &cp
	return nil
}

func (m *mockStore) ListActors(_ context.Context) ([]*models.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Actor
	for _, a := range m.actors {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStore) GetActorByID(_ context.Context, id string) (*models.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.actors[id]
	if !ok {
		return nil, storage.ErrActorNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockStore) Ping(context.Context) error {
	return m.pingErr
}

// addUser stores a user with a real bcrypt digest of password
func (m *mockStore) addUser(t *testing.T, id, username, password string, role models.Role) *models.User {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &models.User{
		ID:             id,
		Username:       username,
		PasswordDigest: string(digest),
		Email:          username + "@example.com",
		Role:           role,
		FavoriteMovies: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.users[id] = u
	return u
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a JSON request; identity and path values are optional
func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withIdentity(req *http.Request, u *models.User) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.IdentityFromUser(u)))
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
