package auth

import (
	"fmt"

	"github.com/iudanet/filmapi/internal/models"
)

// Authorize allows self-service actions: the identity must own the resource
// identified by ownerUsername.
func Authorize(id Identity, ownerUsername string) error {
	if id.Username != ownerUsername {
		return NewError(KindPermissionDenied, fmt.Errorf("user %s acting on %s", id.Username, ownerUsername))
	}
	return nil
}

// AuthorizeID is Authorize keyed by user id instead of username.
func AuthorizeID(id Identity, ownerID string) error {
	if id.ID != ownerID {
		return NewError(KindPermissionDenied, fmt.Errorf("user %s acting on id %s", id.Username, ownerID))
	}
	return nil
}

// RequireRole fails unless the identity carries role.
func RequireRole(id Identity, role models.Role) error {
	if id.Role != role {
		return NewError(KindPermissionDenied, fmt.Errorf("user %s lacks role %s", id.Username, role))
	}
	return nil
}

// AuthorizeOrAdmin passes admins and otherwise applies Authorize.
func AuthorizeOrAdmin(id Identity, ownerUsername string) error {
	if id.IsAdmin() {
		return nil
	}
	return Authorize(id, ownerUsername)
}

// AuthorizeIDOrAdmin passes admins and otherwise applies AuthorizeID.
func AuthorizeIDOrAdmin(id Identity, ownerID string) error {
	if id.IsAdmin() {
		return nil
	}
	return AuthorizeID(id, ownerID)
}
