package handlers

import (
	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/pkg/api"
)

// newUserResponse строит публичное представление пользователя.
// PasswordDigest сюда не копируется.
func newUserResponse(u *models.User) api.UserResponse {
	resp := api.UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           string(u.Role),
		FavoriteMovies: u.FavoriteMovies,
		CreatedAt:      u.CreatedAt,
	}
	if resp.FavoriteMovies == nil {
		resp.FavoriteMovies = []string{}
	}
	if u.Birthday != nil {
		resp.Birthday = u.Birthday.Format(api.DateLayout)
	}
	return resp
}

func newUserResponses(users []*models.User) []api.UserResponse {
	out := make([]api.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

func newDirectorResponse(m *models.Movie) api.DirectorResponse {
	return api.DirectorResponse{
		Title: m.Title,
		Director: api.Director{
			Name:  m.Director.Name,
			Bio:   m.Director.Bio,
			Birth: m.Director.Birth,
			Death: m.Director.Death,
		},
	}
}

func newGenreResponse(m *models.Movie) api.GenreResponse {
	return api.GenreResponse{
		Title: m.Title,
		Genre: api.Genre{Name: m.Genre.Name, Description: m.Genre.Description},
	}
}
