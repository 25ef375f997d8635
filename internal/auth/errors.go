package auth

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the authentication core.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = iota
	// KindInvalidCredentials means the username/password pair was rejected.
	KindInvalidCredentials
	// KindUnauthenticated means the bearer token was missing, malformed, expired
	// or pointed at a user that no longer exists.
	KindUnauthenticated
	// KindPermissionDenied means the identity is valid but the action is not allowed.
	KindPermissionDenied
	// KindDuplicateResource means a uniqueness constraint rejected a create.
	KindDuplicateResource
	// KindValidationError means the request input failed field validation.
	KindValidationError
	// KindStoreUnavailable means a dependency failed.
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindDuplicateResource:
		return "DuplicateResource"
	case KindValidationError:
		return "ValidationError"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	default:
		return "Unknown"
	}
}

// Error is a classified failure. Err holds the underlying cause for server-side
// logging and must never be shown to the client.
type Error struct {
	Err  error
	Kind Kind
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
	ErrDuplicateResource  = &Error{Kind: KindDuplicateResource}
	ErrValidation         = &Error{Kind: KindValidationError}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable}
)

// NewError classifies err under kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
