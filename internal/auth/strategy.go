package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/filmapi/internal/models"
	"github.com/iudanet/filmapi/internal/server/storage"
)

// Strategy resolves an identity from one kind of proof.
type Strategy[T any] interface {
	ResolveIdentity(ctx context.Context, input T) (Identity, error)
}

// CredentialStore is the part of the user storage the auth core reads.
type CredentialStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Credentials is a username/password pair submitted at login.
type Credentials struct {
	Username string
	Password string
}

// CredentialStrategy verifies a username and password against the store.
type CredentialStrategy struct {
	store  CredentialStore
	hasher Hasher
	// decoy is compared against when the username is unknown so both failure
	// paths cost one hash comparison.
	decoy string
}

// NewCredentialStrategy builds the login verifier.
func NewCredentialStrategy(store CredentialStore, hasher Hasher) (*CredentialStrategy, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate decoy password: %w", err)
	}
	decoy, err := hasher.Hash(base64.RawStdEncoding.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to hash decoy password: %w", err)
	}
	return &CredentialStrategy{store: store, hasher: hasher, decoy: decoy}, nil
}

// ResolveIdentity returns ErrInvalidCredentials for both an unknown username
// and a wrong password.
func (s *CredentialStrategy) ResolveIdentity(ctx context.Context, c Credentials) (Identity, error) {
	user, err := s.store.GetUserByUsername(ctx, c.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.hasher.Verify(c.Password, s.decoy)
			return Identity{}, NewError(KindInvalidCredentials, nil)
		}
		return Identity{}, NewError(KindStoreUnavailable, err)
	}

	if !s.hasher.Verify(c.Password, user.PasswordDigest) {
		return Identity{}, NewError(KindInvalidCredentials, nil)
	}

	return IdentityFromUser(user), nil
}

// TokenStrategy verifies a raw bearer token and loads its subject from the store.
type TokenStrategy struct {
	store  CredentialStore
	tokens *TokenService
}

// NewTokenStrategy builds the token verifier.
func NewTokenStrategy(store CredentialStore, tokens *TokenService) *TokenStrategy {
	return &TokenStrategy{store: store, tokens: tokens}
}

// ResolveIdentity fails with ErrUnauthenticated for bad tokens and for
// subjects that no longer exist.
func (s *TokenStrategy) ResolveIdentity(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, NewError(KindUnauthenticated, errors.New("empty token"))
	}

	userID, err := s.tokens.Verify(raw)
	if err != nil {
		return Identity{}, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return Identity{}, NewError(KindUnauthenticated, fmt.Errorf("subject %s not found", userID))
		}
		return Identity{}, NewError(KindStoreUnavailable, err)
	}

	return IdentityFromUser(user), nil
}

var (
	_ Strategy[Credentials] = (*CredentialStrategy)(nil)
	_ Strategy[string]      = (*TokenStrategy)(nil)
)

// BearerToken extracts the token from an Authorization header value
// ("Bearer <token>", scheme is case-insensitive).
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", NewError(KindUnauthenticated, errors.New("missing authorization header"))
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", NewError(KindUnauthenticated, errors.New("invalid authorization header format"))
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", NewError(KindUnauthenticated, errors.New("invalid authorization header format"))
	}
	return token, nil
}
