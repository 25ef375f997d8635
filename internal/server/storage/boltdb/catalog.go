package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

// CreateMovie stores the movie and claims its title
func (s *Storage) CreateMovie(ctx context.Context, movie *models.Movie) error {
	if movie.Actors == nil {
		movie.Actors = []string{}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ok, err := claimKey(tx.Bucket(bucketMovieTitles), movie.Title, movie.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrMovieAlreadyExists
		}
		return putDoc(tx.Bucket(bucketMovies), movie.ID, movie)
	})
}

// ListMovies returns all movies ordered by title
func (s *Storage) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	var movies []*models.Movie
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		movies, err = listDocs(tx.Bucket(bucketMovies), func(a, b *models.Movie) bool {
			return a.Title < b.Title
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// GetMovieByTitle retrieves movie by exact title
func (s *Storage) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	var movie *models.Movie
	err := s.db.View(func(tx *bbolt.Tx) error {
		id, ok := lookupKey(tx.Bucket(bucketMovieTitles), title)
		if !ok {
			return storage.ErrMovieNotFound
		}
		var err error
		movie, err = getMovie(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movie, nil
}

// GetMovieByID retrieves movie by ID
func (s *Storage) GetMovieByID(ctx context.Context, movieID string) (*models.Movie, error) {
	var movie *models.Movie
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		movie, err = getMovie(tx, movieID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movie, nil
}

func getMovie(tx *bbolt.Tx, id string) (*models.Movie, error) {
	movie := &models.Movie{}
	found, err := getDoc(tx.Bucket(bucketMovies), id, movie)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrMovieNotFound
	}
	return movie, nil
}

// AddMovieActor links actorID to the movie
func (s *Storage) AddMovieActor(ctx context.Context, movieID, actorID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		movie, err := getMovie(tx, movieID)
		if err != nil {
			return err
		}
		if movie.HasActor(actorID) {
			return nil
		}
		movie.Actors = append(movie.Actors, actorID)
		return putDoc(tx.Bucket(bucketMovies), movieID, movie)
	})
}

// CreateActor stores the actor and claims its name
func (s *Storage) CreateActor(ctx context.Context, actor *models.Actor) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		ok, err := claimKey(tx.Bucket(bucketActorNames), actor.Name, actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrActorAlreadyExists
		}
		return putDoc(tx.Bucket(bucketActors), actor.ID, actor)
	})
}

// ListActors returns all actors ordered by name
func (s *Storage) ListActors(ctx context.Context) ([]*models.Actor, error) {
	var actors []*models.Actor
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		actors, err = listDocs(tx.Bucket(bucketActors), func(a, b *models.Actor) bool {
			return a.Name < b.Name
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	return actors, nil
}

// GetActorByID retrieves actor by ID
func (s *Storage) GetActorByID(ctx context.Context, actorID string) (*models.Actor, error) {
	var actor *models.Actor
	err := s.db.View(func(tx *bbolt.Tx) error {
		actor = &models.Actor{}
		found, err := getDoc(tx.Bucket(bucketActors), actorID, actor)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrActorNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actor, nil
}
