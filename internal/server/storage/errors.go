package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrMovieNotFound indicates that movie was not found in storage
	ErrMovieNotFound = errors.New("movie not found")

	// ErrMovieAlreadyExists indicates that movie with this title already exists
	ErrMovieAlreadyExists = errors.New("movie already exists")

	// ErrActorNotFound indicates that actor was not found in storage
	ErrActorNotFound = errors.New("actor not found")

	// ErrActorAlreadyExists indicates that actor with this name already exists
	ErrActorAlreadyExists = errors.New("actor already exists")
)
