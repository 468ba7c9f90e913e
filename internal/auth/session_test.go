package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/finance-api/internal/config"
	"github.com/spec-kit/finance-api/internal/domain"
)

var testSessionConfig = config.SessionConfig{
	CookieName:         "finance_session",
	CookieHTTPOnly:     true,
	CookieSecure:       true,
	CookieSameSite:     "Strict",
	ExpirationMinutes:  30,
	AbsoluteMaxMinutes: 60,
	SingleActive:       true,
}

type sessionFixture struct {
	clock   *fakeClock
	tokens  *TokenManager
	active  *ActiveTokenStore
	issuer  *SessionIssuer
	revoked *RevocationStore
}

func newSessionFixture() *sessionFixture {
	clock := newFakeClock()
	tokens := NewTokenManager("test-secret")
	tokens.now = clock.Now
	active := newTestActiveTokenStore(clock)
	revoked := newTestRevocationStore(clock)
	issuer := NewSessionIssuer(tokens, active, revoked, testSessionConfig)
	issuer.now = clock.Now
	return &sessionFixture{
		clock:   clock,
		tokens:  tokens,
		active:  active,
		issuer:  issuer,
		revoked: revoked,
	}
}

var testUser = &domain.User{ID: "user-1", Name: "Jane", Email: "jane@example.com"}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testSessionConfig.CookieName {
			return cookie
		}
	}
	return nil
}

// issue runs IssueSession inside a request and returns the cookie it set.
func (f *sessionFixture) issue(t *testing.T, user *domain.User) (*http.Cookie, *domain.Identity) {
	t.Helper()
	var identity *domain.Identity
	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		var err error
		identity, err = f.issuer.IssueSession(c, user)
		return err
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)
	require.NotNil(t, cookie)
	return cookie, identity
}

func TestSessionIssuer_IssueSession(t *testing.T) {
	f := newSessionFixture()

	cookie, identity := f.issue(t, testUser)

	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.Expires.Equal(f.clock.Now().Add(30*time.Minute)))

	assert.Equal(t, testUser.ID, identity.UserID)
	assert.Equal(t, testUser.Email, identity.Email)
	assert.NotEmpty(t, identity.TokenID)
	assert.True(t, identity.AuthTime.Equal(f.clock.Now()))

	resolved, err := f.issuer.Resolve(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, identity.TokenID, resolved.TokenID)
	assert.Equal(t, "Jane", resolved.Name)

	current, ok := f.active.Get(testUser.Email)
	assert.True(t, ok)
	assert.Equal(t, identity.TokenID, current)
}

func TestSessionIssuer_ReissueSupersedesActiveToken(t *testing.T) {
	f := newSessionFixture()

	_, first := f.issue(t, testUser)
	_, second := f.issue(t, testUser)

	assert.NotEqual(t, first.TokenID, second.TokenID)
	current, ok := f.active.Get(testUser.Email)
	assert.True(t, ok)
	assert.Equal(t, second.TokenID, current)
}

func TestSessionIssuer_ReissueRevokesSupersededToken(t *testing.T) {
	f := newSessionFixture()

	_, first := f.issue(t, testUser)
	_, second := f.issue(t, testUser)

	assert.True(t, f.revoked.IsRevoked(first.TokenID))
	assert.False(t, f.revoked.IsRevoked(second.TokenID))

	// still revoked right up to the furthest expiry the first token could reach
	f.clock.Advance(time.Duration(testSessionConfig.AbsoluteMaxMinutes)*time.Minute - time.Second)
	assert.True(t, f.revoked.IsRevoked(first.TokenID))
}

func TestSessionIssuer_ReissueKeepsTokensWhenMultipleSessionsAllowed(t *testing.T) {
	f := newSessionFixture()
	f.issuer.singleActive = false

	_, first := f.issue(t, testUser)
	f.issue(t, testUser)

	assert.False(t, f.revoked.IsRevoked(first.TokenID))
}

func TestSessionIssuer_EndSession(t *testing.T) {
	f := newSessionFixture()
	app := fiber.New()
	app.Delete("/logout", func(c *fiber.Ctx) error {
		f.issuer.EndSession(c)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/logout", nil), -1)
	require.NoError(t, err)

	cookie := sessionCookie(t, resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func slideOnce(t *testing.T, f *sessionFixture, identity *domain.Identity) *http.Cookie {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return f.issuer.Slide(c, identity)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	return sessionCookie(t, resp)
}

func TestSessionIssuer_SlideKeepsFreshSessions(t *testing.T) {
	f := newSessionFixture()
	_, identity := f.issue(t, testUser)

	f.clock.Advance(10 * time.Minute)
	before := identity.ExpiresAt

	assert.Nil(t, slideOnce(t, f, identity), "no cookie rewrite while more than half the window remains")
	assert.True(t, identity.ExpiresAt.Equal(before))
}

func TestSessionIssuer_SlideExtendsWindow(t *testing.T) {
	f := newSessionFixture()
	_, identity := f.issue(t, testUser)
	tokenID := identity.TokenID

	f.clock.Advance(20 * time.Minute)
	cookie := slideOnce(t, f, identity)
	require.NotNil(t, cookie)

	want := f.clock.Now().Add(30 * time.Minute)
	assert.True(t, identity.ExpiresAt.Equal(want))
	assert.Equal(t, tokenID, identity.TokenID, "renewal keeps the token id")

	resolved, err := f.issuer.Resolve(cookie.Value)
	require.NoError(t, err)
	assert.True(t, resolved.ExpiresAt.Equal(want))
	assert.Equal(t, tokenID, resolved.TokenID)
}

func TestSessionIssuer_SlideCappedByAbsoluteMax(t *testing.T) {
	f := newSessionFixture()
	_, identity := f.issue(t, testUser)
	authTime := identity.AuthTime

	f.clock.Advance(20 * time.Minute)
	require.NotNil(t, slideOnce(t, f, identity))
	f.clock.Advance(25 * time.Minute)
	require.NotNil(t, slideOnce(t, f, identity))

	assert.True(t, identity.ExpiresAt.Equal(authTime.Add(time.Hour)), "absolute cap of 60 minutes")

	f.clock.Advance(10 * time.Minute)
	assert.Nil(t, slideOnce(t, f, identity), "nothing left to extend")
	assert.True(t, f.issuer.AbsoluteExpiry(identity).Equal(authTime.Add(time.Hour)))
}
