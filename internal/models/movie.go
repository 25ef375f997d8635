package models

import "time"

// Genre описывает жанр фильма
type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Director описывает режиссера фильма
type Director struct {
	Birth *time.Time `json:"birth,omitempty"` // дата рождения
	Death *time.Time `json:"death,omitempty"` // дата смерти (если есть)
	Name  string     `json:"name"`
	Bio   string     `json:"bio"`
}

// Movie представляет фильм в каталоге
type Movie struct {
	Director    Director `json:"director"`
	Genre       Genre    `json:"genre"`
	ID          string   `json:"id"`          // UUID фильма
	Title       string   `json:"title"`       // уникальное название
	Description string   `json:"description"` // краткое описание
	ImageURL    string   `json:"image_url"`   // ссылка на постер
	Actors      []string `json:"actors"`      // ID актеров
	Year        int      `json:"year"`        // год выхода
	Featured    bool     `json:"featured"`    // флаг "рекомендуемый"
}

// HasActor reports whether actorID is already listed for the movie.
func (m *Movie) HasActor(actorID string) bool {
	for _, id := range m.Actors {
		if id == actorID {
			return true
		}
	}
	return false
}

// Actor представляет актера
type Actor struct {
	Birth *time.Time `json:"birth,omitempty"`
	Death *time.Time `json:"death,omitempty"`
	ID    string     `json:"id"`   // UUID актера
	Name  string     `json:"name"` // уникальное имя
	Bio   string     `json:"bio"`
}
