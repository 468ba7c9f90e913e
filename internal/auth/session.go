package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-api/internal/config"
	"github.com/spec-kit/finance-api/internal/domain"
)

// SessionIssuer mints session cookies and resolves them back into identities.
// Signing is delegated to the TokenManager; the cookie attributes come from
// the session configuration.
type SessionIssuer struct {
	tokens       *TokenManager
	active       *ActiveTokenStore
	revocations  *RevocationStore
	singleActive bool
	cookieName   string
	httpOnly     bool
	secure       bool
	sameSite     string
	window       time.Duration
	absoluteMax  time.Duration
	now          func() time.Time
}

// NewSessionIssuer builds an issuer from the session configuration. With
// cfg.SingleActive set, issuing a session revokes the one it supersedes.
func NewSessionIssuer(tokens *TokenManager, active *ActiveTokenStore, revocations *RevocationStore, cfg config.SessionConfig) *SessionIssuer {
	return &SessionIssuer{
		tokens:       tokens,
		active:       active,
		revocations:  revocations,
		singleActive: cfg.SingleActive,
		cookieName:   cfg.CookieName,
		httpOnly:     cfg.CookieHTTPOnly,
		secure:       cfg.CookieSecure,
		sameSite:     cfg.CookieSameSite,
		window:       cfg.Window(),
		absoluteMax:  cfg.AbsoluteMax(),
		now:          time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (s *SessionIssuer) CookieName() string {
	return s.cookieName
}

// IssueSession starts a session for user: it sets the cookie and registers
// the new token as the identity's active one. A superseded token is revoked
// until now plus the absolute cap, past any expiry it could still reach, so
// it stays dead after the newer session ends.
func (s *SessionIssuer) IssueSession(c *fiber.Ctx, user *domain.User) (*domain.Identity, error) {
	now := s.now().Truncate(time.Second)
	identity := &domain.Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		TokenID:   NewTokenID(),
		IssuedAt:  now,
		AuthTime:  now,
		ExpiresAt: now.Add(s.window),
	}

	if err := s.writeCookie(c, identity); err != nil {
		return nil, err
	}
	previous, replaced := s.active.Swap(identity.Email, identity.TokenID)
	if replaced && s.singleActive && s.revocations != nil {
		s.revocations.Revoke(previous, now.Add(s.absoluteMax))
	}
	return identity, nil
}

// EndSession expires the session cookie on the client. It does not revoke
// the token; callers revoke explicitly.
func (s *SessionIssuer) EndSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: s.httpOnly,
		Secure:   s.secure,
		SameSite: s.sameSite,
	})
}

// Resolve verifies a raw cookie value and returns its identity.
func (s *SessionIssuer) Resolve(raw string) (*domain.Identity, error) {
	claims, err := s.tokens.ParseToken(raw)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// Slide extends the session when less than half of the window remains. The
// new expiry never passes AuthTime plus the absolute cap. The token id is
// kept so revocations stay effective.
func (s *SessionIssuer) Slide(c *fiber.Ctx, identity *domain.Identity) error {
	now := s.now().Truncate(time.Second)
	if identity.ExpiresAt.Sub(now) > s.window/2 {
		return nil
	}

	next := now.Add(s.window)
	if limit := s.AbsoluteExpiry(identity); next.After(limit) {
		next = limit
	}
	if !next.After(identity.ExpiresAt) {
		return nil
	}

	renewed := *identity
	renewed.IssuedAt = now
	renewed.ExpiresAt = next
	if err := s.writeCookie(c, &renewed); err != nil {
		return err
	}
	s.active.Persist(renewed.Email, renewed.TokenID)
	*identity = renewed
	return nil
}

// AbsoluteExpiry is the latest instant any renewal of identity's session can reach.
func (s *SessionIssuer) AbsoluteExpiry(identity *domain.Identity) time.Time {
	return identity.AuthTime.Add(s.absoluteMax)
}

func (s *SessionIssuer) writeCookie(c *fiber.Ctx, identity *domain.Identity) error {
	raw, err := s.tokens.Sign(identity)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    raw,
		Path:     "/",
		Expires:  identity.ExpiresAt,
		HTTPOnly: s.httpOnly,
		Secure:   s.secure,
		SameSite: s.sameSite,
	})
	return nil
}
