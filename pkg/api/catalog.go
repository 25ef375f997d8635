package api

import "time"

// GenreRequest описывает жанр в запросе
type GenreRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DirectorRequest описывает режиссера в запросе
type DirectorRequest struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Birth string `json:"birth,omitempty"` // YYYY-MM-DD
	Death string `json:"death,omitempty"` // YYYY-MM-DD
}

// MovieRequest представляет запрос на добавление фильма
type MovieRequest struct {
	Director    DirectorRequest `json:"director"`
	Genre       GenreRequest    `json:"genre"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Year        int             `json:"year"`
	Featured    bool            `json:"featured"`
}

// ActorRequest представляет запрос на добавление актера
type ActorRequest struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Birth string `json:"birth,omitempty"` // YYYY-MM-DD
	Death string `json:"death,omitempty"` // YYYY-MM-DD
}

// Director описывает режиссера в ответе
type Director struct {
	Birth *time.Time `json:"birth,omitempty"`
	Death *time.Time `json:"death,omitempty"`
	Name  string     `json:"name"`
	Bio   string     `json:"bio"`
}

// Genre описывает жанр в ответе
type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DirectorResponse is the director projection of a movie
type DirectorResponse struct {
	Title    string   `json:"title"`
	Director Director `json:"director"`
}

// GenreResponse is the genre projection of a movie
type GenreResponse struct {
	Title string `json:"title"`
	Genre Genre  `json:"genre"`
}
