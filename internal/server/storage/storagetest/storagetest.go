// Package storagetest содержит общий набор тестов для реализаций storage.Store.
// Каждый backend вызывает Run из своего _test.go.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

// Opener возвращает новое пустое хранилище; закрытие регистрируется через t.Cleanup
type Opener func(t *testing.T) storage.Store

// Run выполняет все проверки контракта storage.Store
func Run(t *testing.T, open Opener) {
	t.Run("Users", func(t *testing.T) { testUsers(t, open) })
	t.Run("UniqueUsername", func(t *testing.T) { testUniqueUsername(t, open) })
	t.Run("ConcurrentRegistration", func(t *testing.T) { testConcurrentRegistration(t, open) })
	t.Run("Favorites", func(t *testing.T) { testFavorites(t, open) })
	t.Run("Movies", func(t *testing.T) { testMovies(t, open) })
	t.Run("Actors", func(t *testing.T) { testActors(t, open) })
	t.Run("Ping", func(t *testing.T) {
		s := open(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

// NewUser возвращает заполненного пользователя с уникальным ID
func NewUser(username string) *models.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.User{
		ID:             uuid.New().String(),
		Username:       username,
		PasswordDigest: "$2a$10$digest-" + username,
		Email:          username + "@example.com",
		Role:           models.RoleUser,
		FavoriteMovies: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewMovie возвращает фильм с уникальным ID
func NewMovie(title string) *models.Movie {
	birth := time.Date(1946, 12, 18, 0, 0, 0, 0, time.UTC)
	return &models.Movie{
		ID:          uuid.New().String(),
		Title:       title,
		Description: "about " + title,
		ImageURL:    "https://example.com/" + title + ".jpg",
		Year:        1993,
		Featured:    true,
		Genre:       models.Genre{Name: "Drama", Description: "Serious stories"},
		Director:    models.Director{Name: "Steven Spielberg", Bio: "Director", Birth: &birth},
		Actors:      []string{},
	}
}

func testUsers(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t)

	birthday := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	alice := NewUser("alice01")
	alice.Birthday = &birthday
	bob := NewUser("bob02")
	bob.Role = ""

	require.NoError(t, s.CreateUser(ctx, bob))
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.Equal(t, models.RoleUser, bob.Role, "empty role defaults to user")

	t.Run("get by username", func(t *testing.T) {
		got, err := s.GetUserByUsername(ctx, "alice01")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, alice.PasswordDigest, got.PasswordDigest)
		assert.Equal(t, alice.Email, got.Email)
		assert.Equal(t, models.RoleUser, got.Role)
		require.NotNil(t, got.Birthday)
		assert.True(t, birthday.Equal(*got.Birthday))
		assert.WithinDuration(t, alice.CreatedAt, got.CreatedAt, time.Second)
		assert.Empty(t, got.FavoriteMovies)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := s.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob02", got.Username)
		assert.Nil(t, got.Birthday)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
		_, err = s.GetUserByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("list ordered by username", func(t *testing.T) {
		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice01", users[0].Username)
		assert.Equal(t, "bob02", users[1].Username)
	})

	t.Run("update", func(t *testing.T) {
		updated := *alice
		updated.Email = "new@example.com"
		updated.PasswordDigest = "$2a$10$other"
		updated.Role = models.RoleAdmin
		updated.UpdatedAt = alice.UpdatedAt.Add(time.Hour)
		require.NoError(t, s.UpdateUser(ctx, &updated))

		got, err := s.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice01", got.Username)
		assert.Equal(t, "new@example.com", got.Email)
		assert.Equal(t, "$2a$10$other", got.PasswordDigest)
		assert.Equal(t, models.RoleAdmin, got.Role)

		missing := NewUser("ghost")
		assert.ErrorIs(t, s.UpdateUser(ctx, missing), storage.ErrUserNotFound)
	})

	t.Run("delete releases username", func(t *testing.T) {
		require.NoError(t, s.DeleteUser(ctx, bob.ID))

		_, err := s.GetUserByID(ctx, bob.ID)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
		assert.ErrorIs(t, s.DeleteUser(ctx, bob.ID), storage.ErrUserNotFound)

		require.NoError(t, s.CreateUser(ctx, NewUser("bob02")))
	})
}

func testUniqueUsername(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t)

	require.NoError(t, s.CreateUser(ctx, NewUser("carol03")))
	err := s.CreateUser(ctx, NewUser("carol03"))
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testConcurrentRegistration(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		dupes   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateUser(ctx, NewUser("racer01"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case assert.ErrorIs(t, err, storage.ErrUserAlreadyExists):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, attempts-1, dupes)
}

func testFavorites(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t)

	user := NewUser("dave04")
	require.NoError(t, s.CreateUser(ctx, user))
	jaws := NewMovie("Jaws")
	alien := NewMovie("Alien")
	require.NoError(t, s.CreateMovie(ctx, jaws))
	require.NoError(t, s.CreateMovie(ctx, alien))

	require.NoError(t, s.AddFavorite(ctx, user.ID, jaws.ID))
	require.NoError(t, s.AddFavorite(ctx, user.ID, alien.ID))
	// повторное добавление ничего не меняет
	require.NoError(t, s.AddFavorite(ctx, user.ID, jaws.ID))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{jaws.ID, alien.ID}, got.FavoriteMovies)

	require.NoError(t, s.RemoveFavorite(ctx, user.ID, jaws.ID))
	require.NoError(t, s.RemoveFavorite(ctx, user.ID, jaws.ID))

	got, err = s.GetUserByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, []string{alien.ID}, got.FavoriteMovies)

	assert.ErrorIs(t, s.AddFavorite(ctx, uuid.New().String(), jaws.ID), storage.ErrUserNotFound)
	assert.ErrorIs(t, s.RemoveFavorite(ctx, uuid.New().String(), jaws.ID), storage.ErrUserNotFound)
}

func testMovies(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t)

	jaws := NewMovie("Jaws")
	alien := NewMovie("Alien")
	require.NoError(t, s.CreateMovie(ctx, jaws))
	require.NoError(t, s.CreateMovie(ctx, alien))
	assert.ErrorIs(t, s.CreateMovie(ctx, NewMovie("Jaws")), storage.ErrMovieAlreadyExists)

	got, err := s.GetMovieByTitle(ctx, "Jaws")
	require.NoError(t, err)
	assert.Equal(t, jaws.ID, got.ID)
	assert.Equal(t, jaws.Genre, got.Genre)
	assert.Equal(t, jaws.Director.Name, got.Director.Name)
	require.NotNil(t, got.Director.Birth)
	assert.True(t, jaws.Director.Birth.Equal(*got.Director.Birth))
	assert.Nil(t, got.Director.Death)
	assert.Equal(t, 1993, got.Year)
	assert.True(t, got.Featured)
	assert.Empty(t, got.Actors)

	_, err = s.GetMovieByTitle(ctx, "Nope")
	assert.ErrorIs(t, err, storage.ErrMovieNotFound)
	_, err = s.GetMovieByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrMovieNotFound)

	movies, err := s.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Alien", movies[0].Title)
	assert.Equal(t, "Jaws", movies[1].Title)

	actor := &models.Actor{ID: uuid.New().String(), Name: "Roy Scheider"}
	require.NoError(t, s.CreateActor(ctx, actor))

	require.NoError(t, s.AddMovieActor(ctx, jaws.ID, actor.ID))
	require.NoError(t, s.AddMovieActor(ctx, jaws.ID, actor.ID))
	got, err = s.GetMovieByID(ctx, jaws.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{actor.ID}, got.Actors)

	assert.ErrorIs(t, s.AddMovieActor(ctx, uuid.New().String(), actor.ID), storage.ErrMovieNotFound)
}

func testActors(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t)

	birth := time.Date(1932, 11, 10, 0, 0, 0, 0, time.UTC)
	death := time.Date(2008, 2, 10, 0, 0, 0, 0, time.UTC)
	roy := &models.Actor{ID: uuid.New().String(), Name: "Roy Scheider", Bio: "Actor", Birth: &birth, Death: &death}
	sigourney := &models.Actor{ID: uuid.New().String(), Name: "Sigourney Weaver"}

	require.NoError(t, s.CreateActor(ctx, sigourney))
	require.NoError(t, s.CreateActor(ctx, roy))
	assert.ErrorIs(t, s.CreateActor(ctx, &models.Actor{ID: uuid.New().String(), Name: "Roy Scheider"}),
		storage.ErrActorAlreadyExists)

	got, err := s.GetActorByID(ctx, roy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Actor", got.Bio)
	require.NotNil(t, got.Birth)
	require.NotNil(t, got.Death)
	assert.True(t, birth.Equal(*got.Birth))
	assert.True(t, death.Equal(*got.Death))

	_, err = s.GetActorByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrActorNotFound)

	actors, err := s.ListActors(ctx)
	require.NoError(t, err)
	require.Len(t, actors, 2)
	assert.Equal(t, "Roy Scheider", actors[0].Name)
	assert.Equal(t, "Sigourney Weaver", actors[1].Name)
}
