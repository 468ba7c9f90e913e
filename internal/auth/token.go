package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/finance-api/internal/domain"
)

// ClaimsVersion is the shape version of SessionClaims. Tokens carrying any
// other version are rejected.
const ClaimsVersion = 1

// ErrTokenVersion is returned for a validly signed token with an unknown claim shape.
var ErrTokenVersion = errors.New("unsupported session claims version")

// SessionClaims is the claim set carried inside the session cookie.
type SessionClaims struct {
	Version  int              `json:"ver"`
	UserID   string           `json:"uid"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	AuthTime *jwt.NumericDate `json:"auth_time"`
	jwt.RegisteredClaims
}

// Identity converts claims into the authenticated identity.
func (c *SessionClaims) Identity() *domain.Identity {
	id := &domain.Identity{
		UserID:  c.UserID,
		Name:    c.Name,
		Email:   c.Email,
		TokenID: c.ID,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.AuthTime != nil {
		id.AuthTime = c.AuthTime.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// TokenManager signs and verifies session tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// NewTokenID returns a fresh opaque token identifier.
func NewTokenID() string {
	return uuid.NewString()
}

// Sign builds and signs a token for identity. identity.TokenID, AuthTime and
// ExpiresAt must be set by the caller.
func (tm *TokenManager) Sign(identity *domain.Identity) (string, error) {
	claims := &SessionClaims{
		Version:  ClaimsVersion,
		UserID:   identity.UserID,
		Name:     identity.Name,
		Email:    identity.Email,
		AuthTime: jwt.NewNumericDate(identity.AuthTime),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        identity.TokenID,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(tm.now()),
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseToken validates signature, expiry and claims version.
func (tm *TokenManager) ParseToken(tokenStr string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Version != ClaimsVersion {
		return nil, ErrTokenVersion
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, errors.New("session token missing identity")
	}
	return claims, nil
}
