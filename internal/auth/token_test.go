package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/finance-api/internal/domain"
)

func testIdentity(now time.Time) *domain.Identity {
	return &domain.Identity{
		UserID:    "6f1c2a4e-0000-4000-8000-000000000001",
		Name:      "Jane",
		Email:     "jane@example.com",
		TokenID:   NewTokenID(),
		AuthTime:  now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

func TestTokenManager_SignAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret")
	now := time.Now().Truncate(time.Second)
	id := testIdentity(now)

	raw, err := tm.Sign(id)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := tm.ParseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, ClaimsVersion, claims.Version)

	got := claims.Identity()
	assert.Equal(t, id.UserID, got.UserID)
	assert.Equal(t, id.Name, got.Name)
	assert.Equal(t, id.Email, got.Email)
	assert.Equal(t, id.TokenID, got.TokenID)
	assert.True(t, id.AuthTime.Equal(got.AuthTime))
	assert.True(t, id.ExpiresAt.Equal(got.ExpiresAt))
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	clock := newFakeClock()
	tm := NewTokenManager("test-secret")
	tm.now = clock.Now

	raw, err := tm.Sign(testIdentity(clock.Now()))
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	_, err = tm.ParseToken(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	raw, err := NewTokenManager("right-secret").Sign(testIdentity(time.Now()))
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret").ParseToken(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenManager_RejectsTampered(t *testing.T) {
	tm := NewTokenManager("test-secret")
	raw, err := tm.Sign(testIdentity(time.Now()))
	require.NoError(t, err)

	_, err = tm.ParseToken(raw[:len(raw)-2] + "xx")
	assert.Error(t, err)

	_, err = tm.ParseToken("not.a.jwt")
	assert.Error(t, err)
}

func TestTokenManager_RejectsUnknownVersion(t *testing.T) {
	tm := NewTokenManager("test-secret")
	now := time.Now()
	claims := &SessionClaims{
		Version: 2,
		UserID:  "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(raw)
	assert.ErrorIs(t, err, ErrTokenVersion)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	tm := NewTokenManager("test-secret")
	claims := &SessionClaims{
		Version: ClaimsVersion,
		UserID:  "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(raw)
	assert.Error(t, err)
}

func TestNewTokenID_Unique(t *testing.T) {
	assert.NotEqual(t, NewTokenID(), NewTokenID())
}
