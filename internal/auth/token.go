package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is written to the iss claim when TokenConfig.Issuer is empty.
const DefaultIssuer = "filmapi"

// ErrMissingSecret is returned by NewTokenService when no signing secret is configured.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// TokenConfig holds the immutable token settings built once at startup.
type TokenConfig struct {
	Issuer string
	Secret []byte
	// TTL is the token lifetime. Zero disables the exp claim.
	TTL time.Duration
}

// Claims are the JWT claims of an access token. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	now    func() time.Time
	issuer string
	secret []byte
	ttl    time.Duration
}

// NewTokenService validates cfg and returns a service. An empty secret is an error.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must not be negative: %s", cfg.TTL)
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// TTL returns the configured token lifetime; zero means tokens do not expire.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a token for id. The subject is the user id so renames do not
// invalidate outstanding tokens.
func (s *TokenService) Issue(id Identity) (string, error) {
	if id.ID == "" {
		return "", errors.New("identity has no id")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.ID,
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the subject id.
// Every failure is reported as ErrUnauthenticated.
func (s *TokenService) Verify(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", NewError(KindUnauthenticated, fmt.Errorf("failed to parse token: %w", err))
	}
	if !token.Valid || claims.Subject == "" {
		return "", NewError(KindUnauthenticated, errors.New("token has no subject"))
	}
	return claims.Subject, nil
}
