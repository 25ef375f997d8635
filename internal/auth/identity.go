package auth

import (
	"context"

	"github.com/iudanet/filmapi/internal/models"
)

// Identity is an authenticated user without secret material.
// It is bound to a single request and treated as read-only.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     models.Role
}

// IdentityFromUser strips the password digest and keeps what handlers need.
func IdentityFromUser(u *models.User) Identity {
	role := u.Role
	if !role.Valid() {
		role = models.RoleUser
	}
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     role,
	}
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type contextKey struct{}

var identityKey = contextKey{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity bound by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
