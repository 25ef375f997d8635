package storage

import (
	"context"

	"github.com/iudanet/filmapi/internal/models"
)

// MovieStorage defines interface for movie catalog persistence
type MovieStorage interface {
	// CreateMovie stores a new movie
	// Returns ErrMovieAlreadyExists if title is taken
	CreateMovie(ctx context.Context, movie *models.Movie) error

	// ListMovies returns all movies ordered by title
	ListMovies(ctx context.Context) ([]*models.Movie, error)

	// GetMovieByTitle retrieves movie by exact title
	// Returns ErrMovieNotFound if movie doesn't exist
	GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error)

	// GetMovieByID retrieves movie by ID
	// Returns ErrMovieNotFound if movie doesn't exist
	GetMovieByID(ctx context.Context, movieID string) (*models.Movie, error)

	// AddMovieActor links actorID to the movie (no-op if already linked)
	// Returns ErrMovieNotFound if movie doesn't exist
	AddMovieActor(ctx context.Context, movieID, actorID string) error
}

// ActorStorage defines interface for actor persistence
type ActorStorage interface {
	// CreateActor stores a new actor
	// Returns ErrActorAlreadyExists if name is taken
	CreateActor(ctx context.Context, actor *models.Actor) error

	// ListActors returns all actors ordered by name
	ListActors(ctx context.Context) ([]*models.Actor, error)

	// GetActorByID retrieves actor by ID
	// Returns ErrActorNotFound if actor doesn't exist
	GetActorByID(ctx context.Context, actorID string) (*models.Actor, error)
}

// Store is the full backend used by the server
type Store interface {
	UserStorage
	MovieStorage
	ActorStorage

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend
	Close() error
}
