package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/filmapi/internal/models"
)

var testSecret = []byte("test-secret-key")

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{Secret: testSecret, TTL: ttl})
	require.NoError(t, err)
	return s
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewTokenService(TokenConfig{Secret: testSecret, TTL: -time.Second})
	assert.Error(t, err)

	s, err := NewTokenService(TokenConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, DefaultIssuer, s.issuer)
	assert.Zero(t, s.TTL())
}

func TestTokenService_IssueVerify(t *testing.T) {
	s := newTestTokenService(t, time.Hour)
	id := Identity{ID: "user-123", Username: "alice01", Role: models.RoleUser}

	token, err := s.Issue(id)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)

	// Проверяем claims напрямую
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return testSecret, nil })
	require.NoError(t, err)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_IssueRequiresID(t *testing.T) {
	s := newTestTokenService(t, time.Hour)
	_, err := s.Issue(Identity{Username: "alice01"})
	assert.Error(t, err)
}

func TestTokenService_NoExpiry(t *testing.T) {
	s := newTestTokenService(t, 0)

	token, err := s.Issue(Identity{ID: "user-1"})
	require.NoError(t, err)

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return testSecret, nil })
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)

	// Далекое будущее: токен без exp остается валидным
	s.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }
	_, err = s.Verify(token)
	assert.NoError(t, err)
}

func TestTokenService_VerifyRejects(t *testing.T) {
	s := newTestTokenService(t, time.Hour)
	valid, err := s.Issue(Identity{ID: "user-1"})
	require.NoError(t, err)

	other, err := NewTokenService(TokenConfig{Secret: []byte("other-secret"), TTL: time.Hour})
	require.NoError(t, err)
	foreign, err := other.Issue(Identity{ID: "user-1"})
	require.NoError(t, err)

	otherIssuer, err := NewTokenService(TokenConfig{Secret: testSecret, TTL: time.Hour, Issuer: "someone-else"})
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Issue(Identity{ID: "user-1"})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: DefaultIssuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: DefaultIssuer, IssuedAt: jwt.NewNumericDate(time.Now())},
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "flipped signature", token: flipSignatureChar(valid)},
		{name: "wrong secret", token: foreign},
		{name: "wrong issuer", token: wrongIssuer},
		{name: "alg none", token: noneToken},
		{name: "no subject", token: noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestTokenService(t, time.Minute)
	issuedAt := time.Now()
	s.now = func() time.Time { return issuedAt }

	token, err := s.Issue(Identity{ID: "user-1"})
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(30 * time.Second) }
	_, err = s.Verify(token)
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// flipSignatureChar портит первый символ подписи, не меняя длину токена.
// Последний символ не подходит: его младшие биты не декодируются.
func flipSignatureChar(token string) string {
	b := []byte(token)
	i := strings.LastIndexByte(token, '.') + 1
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
