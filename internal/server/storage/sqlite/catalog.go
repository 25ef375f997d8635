package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

const movieColumns = `id, title, description, year, genre_name, genre_description,
	director_name, director_bio, director_birth, director_death, featured, image_url`

func scanMovie(row rowScanner) (*models.Movie, error) {
	movie := &models.Movie{}
	var birth, death sql.NullTime

	if err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Year,
		&movie.Genre.Name,
		&movie.Genre.Description,
		&movie.Director.Name,
		&movie.Director.Bio,
		&birth,
		&death,
		&movie.Featured,
		&movie.ImageURL,
	); err != nil {
		return nil, err
	}

	movie.Director.Birth = fromNullTime(birth)
	movie.Director.Death = fromNullTime(death)
	return movie, nil
}

// CreateMovie stores a new movie together with its actor links
func (s *Storage) CreateMovie(ctx context.Context, movie *models.Movie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO movies (` + movieColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		movie.ID,
		movie.Title,
		movie.Description,
		movie.Year,
		movie.Genre.Name,
		movie.Genre.Description,
		movie.Director.Name,
		movie.Director.Bio,
		toNullTime(movie.Director.Birth),
		toNullTime(movie.Director.Death),
		movie.Featured,
		movie.ImageURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrMovieAlreadyExists
		}
		return fmt.Errorf("failed to insert movie: %w", err)
	}

	for i, actorID := range movie.Actors {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO movie_actors (movie_id, actor_id, position) VALUES (?, ?, ?)`,
			movie.ID, actorID, i+1)
		if err != nil {
			return fmt.Errorf("failed to link actor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie: %w", err)
	}
	return nil
}

// ListMovies returns all movies ordered by title
func (s *Storage) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	movies := make([]*models.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	_ = rows.Close()
	for _, movie := range movies {
		if movie.Actors, err = s.movieActors(ctx, movie.ID); err != nil {
			return nil, err
		}
	}

	return movies, nil
}

// GetMovieByTitle retrieves movie by exact title
func (s *Storage) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	return s.getMovie(ctx, `SELECT `+movieColumns+` FROM movies WHERE title = ?`, title)
}

// GetMovieByID retrieves movie by ID
func (s *Storage) GetMovieByID(ctx context.Context, movieID string) (*models.Movie, error) {
	return s.getMovie(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, movieID)
}

func (s *Storage) getMovie(ctx context.Context, query, arg string) (*models.Movie, error) {
	movie, err := scanMovie(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	if movie.Actors, err = s.movieActors(ctx, movie.ID); err != nil {
		return nil, err
	}
	return movie, nil
}

// AddMovieActor links actorID to the movie
func (s *Storage) AddMovieActor(ctx context.Context, movieID, actorID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, movieID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrMovieNotFound
		}
		return fmt.Errorf("failed to check movie: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO movie_actors (movie_id, actor_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM movie_actors WHERE movie_id = ?))
	`
	if _, err := s.db.ExecContext(ctx, query, movieID, actorID, movieID); err != nil {
		return fmt.Errorf("failed to link actor: %w", err)
	}
	return nil
}

func (s *Storage) movieActors(ctx context.Context, movieID string) ([]string, error) {
	return s.queryIDs(ctx, `SELECT actor_id FROM movie_actors WHERE movie_id = ? ORDER BY position`, movieID)
}

// CreateActor stores a new actor
func (s *Storage) CreateActor(ctx context.Context, actor *models.Actor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actors (id, name, bio, birth, death) VALUES (?, ?, ?, ?, ?)`,
		actor.ID,
		actor.Name,
		actor.Bio,
		toNullTime(actor.Birth),
		toNullTime(actor.Death),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrActorAlreadyExists
		}
		return fmt.Errorf("failed to insert actor: %w", err)
	}
	return nil
}

func scanActor(row rowScanner) (*models.Actor, error) {
	actor := &models.Actor{}
	var birth, death sql.NullTime
	if err := row.Scan(&actor.ID, &actor.Name, &actor.Bio, &birth, &death); err != nil {
		return nil, err
	}
	actor.Birth = fromNullTime(birth)
	actor.Death = fromNullTime(death)
	return actor, nil
}

// ListActors returns all actors ordered by name
func (s *Storage) ListActors(ctx context.Context) ([]*models.Actor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, bio, birth, death FROM actors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query actors: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	actors := make([]*models.Actor, 0)
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actor: %w", err)
		}
		actors = append(actors, actor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return actors, nil
}

// GetActorByID retrieves actor by ID
func (s *Storage) GetActorByID(ctx context.Context, actorID string) (*models.Actor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, bio, birth, death FROM actors WHERE id = ?`, actorID)
	actor, err := scanActor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrActorNotFound
		}
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return actor, nil
}
