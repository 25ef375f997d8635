package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
	"github.com/iudanet/filmapi/internal/validation"
	"github.com/iudanet/filmapi/pkg/api"
)

// CatalogHandler обрабатывает запросы к каталогу фильмов и актеров
type CatalogHandler struct {
	responder
	movieStorage storage.MovieStorage
	actorStorage storage.ActorStorage
}

// NewCatalogHandler создает handler каталога
func NewCatalogHandler(logger *slog.Logger, movieStorage storage.MovieStorage, actorStorage storage.ActorStorage) *CatalogHandler {
	return &CatalogHandler{
		responder:    responder{logger: logger},
		movieStorage: movieStorage,
		actorStorage: actorStorage,
	}
}

// ListMovies обрабатывает GET /movies
func (h *CatalogHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieStorage.ListMovies(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list movies", err)
		return
	}
	if movies == nil {
		movies = []*models.Movie{}
	}
	h.sendJSON(w, movies, http.StatusOK)
}

// CreateMovie обрабатывает POST /movies
func (h *CatalogHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.MovieRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.Movie(req); err != nil {
		h.fail(ctx, w, "create movie", err)
		return
	}

	birth, err := validation.ParseDate(req.Director.Birth)
	if err != nil {
		h.fail(ctx, w, "create movie", auth.NewError(auth.KindValidationError, err))
		return
	}
	death, err := validation.ParseDate(req.Director.Death)
	if err != nil {
		h.fail(ctx, w, "create movie", auth.NewError(auth.KindValidationError, err))
		return
	}

	movie := &models.Movie{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Year:        req.Year,
		Featured:    req.Featured,
		Genre: models.Genre{
			Name:        req.Genre.Name,
			Description: req.Genre.Description,
		},
		Director: models.Director{
			Name:  req.Director.Name,
			Bio:   req.Director.Bio,
			Birth: birth,
			Death: death,
		},
		Actors: []string{},
	}

	if err := h.movieStorage.CreateMovie(ctx, movie); err != nil {
		if errors.Is(err, storage.ErrMovieAlreadyExists) {
			h.fail(ctx, w, "create movie", auth.NewError(auth.KindDuplicateResource,
				fmt.Errorf("%s already exists", req.Title)))
			return
		}
		h.fail(ctx, w, "create movie", err)
		return
	}

	h.logger.InfoContext(ctx, "movie created",
		slog.String("movie_id", movie.ID),
		slog.String("title", movie.Title))
	h.sendJSON(w, movie, http.StatusCreated)
}

// GetMovie обрабатывает GET /movies/{title}
func (h *CatalogHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieByTitle(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, movie, http.StatusOK)
}

// GetDirector обрабатывает GET /movies/directorname/{title}
func (h *CatalogHandler) GetDirector(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieByTitle(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, newDirectorResponse(movie), http.StatusOK)
}

// GetGenre обрабатывает GET /movies/genre/{title}
func (h *CatalogHandler) GetGenre(w http.ResponseWriter, r *http.Request) {
	movie, ok := h.movieByTitle(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, newGenreResponse(movie), http.StatusOK)
}

// AddMovieActor обрабатывает POST /movies/{title}/actors/{actorID}
func (h *CatalogHandler) AddMovieActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := r.PathValue("actorID")

	movie, ok := h.movieByTitle(w, r)
	if !ok {
		return
	}

	if _, err := h.actorStorage.GetActorByID(ctx, actorID); err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "get actor", err)
		return
	}

	if err := h.movieStorage.AddMovieActor(ctx, movie.ID, actorID); err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "add movie actor", err)
		return
	}

	updated, err := h.movieStorage.GetMovieByID(ctx, movie.ID)
	if err != nil {
		if h.notFound(w, err) {
			return
		}
		h.fail(ctx, w, "get movie", err)
		return
	}
	h.sendJSON(w, updated, http.StatusOK)
}

// movieByTitle загружает фильм по path value {title}, отвечая 404 если его нет
func (h *CatalogHandler) movieByTitle(w http.ResponseWriter, r *http.Request) (*models.Movie, bool) {
	movie, err := h.movieStorage.GetMovieByTitle(r.Context(), r.PathValue("title"))
	if err != nil {
		if !h.notFound(w, err) {
			h.fail(r.Context(), w, "get movie", err)
		}
		return nil, false
	}
	return movie, true
}

// ListActors обрабатывает GET /actors
func (h *CatalogHandler) ListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.actorStorage.ListActors(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list actors", err)
		return
	}
	if actors == nil {
		actors = []*models.Actor{}
	}
	h.sendJSON(w, actors, http.StatusOK)
}

// CreateActor обрабатывает POST /actors
func (h *CatalogHandler) CreateActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ActorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.Actor(req); err != nil {
		h.fail(ctx, w, "create actor", err)
		return
	}

	birth, err := validation.ParseDate(req.Birth)
	if err != nil {
		h.fail(ctx, w, "create actor", auth.NewError(auth.KindValidationError, err))
		return
	}
	death, err := validation.ParseDate(req.Death)
	if err != nil {
		h.fail(ctx, w, "create actor", auth.NewError(auth.KindValidationError, err))
		return
	}

	actor := &models.Actor{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Bio:   req.Bio,
		Birth: birth,
		Death: death,
	}

	if err := h.actorStorage.CreateActor(ctx, actor); err != nil {
		if errors.Is(err, storage.ErrActorAlreadyExists) {
			h.fail(ctx, w, "create actor", auth.NewError(auth.KindDuplicateResource,
				fmt.Errorf("%s already exists", req.Name)))
			return
		}
		h.fail(ctx, w, "create actor", err)
		return
	}

	h.logger.InfoContext(ctx, "actor created", slog.String("actor_id", actor.ID))
	h.sendJSON(w, actor, http.StatusCreated)
}
