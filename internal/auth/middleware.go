package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-api/internal/domain"
	"github.com/spec-kit/finance-api/internal/observability"
	apperrors "github.com/spec-kit/finance-api/pkg/util"
)

const identityKey = "auth_identity"

// UserReader is the slice of the user store the guard needs.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AccessRequest is what the guard needs to know about a protected request.
type AccessRequest struct {
	// Token is the raw session cookie value.
	Token string
	// OwnerID is the resource owner named by the path, empty when the route has none.
	OwnerID string
	// Mutating marks requests that change state; they also consult the blacklist flag.
	Mutating bool
}

// Guard decides whether a request carries a usable, non-revoked session.
type Guard struct {
	sessions     *SessionIssuer
	revocations  *RevocationStore
	active       *ActiveTokenStore
	users        UserReader
	singleActive bool
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// GuardDependencies bundles what the guard consults.
type GuardDependencies struct {
	Sessions     *SessionIssuer
	Revocations  *RevocationStore
	Active       *ActiveTokenStore
	Users        UserReader
	SingleActive bool
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewGuard constructs the guard.
func NewGuard(deps GuardDependencies) *Guard {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		sessions:     deps.Sessions,
		revocations:  deps.Revocations,
		active:       deps.Active,
		users:        deps.Users,
		singleActive: deps.SingleActive,
		metrics:      deps.Metrics,
		logger:       logger,
	}
}

// Authorize runs the checks in order: session, path ownership, blacklist flag.
// Authentication is checked before ownership so anonymous callers learn
// nothing about resources, and ownership before the flag to skip a store
// read on requests that are already rejected.
func (g *Guard) Authorize(ctx context.Context, req AccessRequest) (*domain.Identity, error) {
	identity, err := g.authorize(ctx, req)
	g.metrics.RecordAuthDecision(outcome(err))
	return identity, err
}

func (g *Guard) authorize(ctx context.Context, req AccessRequest) (*domain.Identity, error) {
	identity, err := g.authenticate(req.Token)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != "" && !sameID(req.OwnerID, identity.UserID) {
		return nil, apperrors.NewForbidden("resource belongs to another user")
	}

	if req.Mutating {
		user, err := g.users.GetByID(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("user not found")
			}
			g.logger.Error("blacklist lookup failed", zap.String("user_id", identity.UserID), zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
		if user.IsBlacklisted {
			return nil, apperrors.NewForbidden("account is blacklisted")
		}
	}

	return identity, nil
}

func (g *Guard) authenticate(raw string) (*domain.Identity, error) {
	if raw == "" {
		return nil, apperrors.NewUnauthorized("missing session")
	}

	identity, err := g.sessions.Resolve(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid session")
	}

	if g.revocations.IsRevoked(identity.TokenID) {
		return nil, apperrors.NewUnauthorized("session revoked")
	}

	if g.singleActive {
		if current, ok := g.active.Get(identity.Email); ok && current != identity.TokenID {
			return nil, apperrors.NewUnauthorized("session superseded")
		}
	}

	return identity, nil
}

// Handle returns middleware enforcing Authorize. ownerParam names the route
// parameter holding the resource owner id; pass "" for routes without one.
func (g *Guard) Handle(ownerParam string) fiber.Handler {
	return g.handle(ownerParam, true)
}

// HandleSessionOnly authenticates without consulting the blacklist flag.
// It guards logout, which must stay reachable for flagged accounts.
func (g *Guard) HandleSessionOnly() fiber.Handler {
	return g.handle("", false)
}

func (g *Guard) handle(ownerParam string, checkFlag bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := AccessRequest{
			Token:    c.Cookies(g.sessions.CookieName()),
			Mutating: checkFlag && isMutating(c.Method()),
		}
		if ownerParam != "" {
			req.OwnerID = c.Params(ownerParam)
		}

		identity, err := g.Authorize(c.UserContext(), req)
		if err != nil {
			return err
		}

		if err := g.sessions.Slide(c, identity); err != nil {
			g.logger.Warn("session renewal failed", zap.String("user_id", identity.UserID), zap.Error(err))
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

// sameID compares ids as UUIDs when both parse, so case and hyphenation
// variants of the owner's id match.
func sameID(a, b string) bool {
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA == nil && errB == nil {
		return ua == ub
	}
	return a == b
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.DecisionAllowed
	case apperrors.HasCode(err, apperrors.CodeUnauthorized):
		return observability.DecisionUnauthenticated
	case apperrors.HasCode(err, apperrors.CodeForbidden):
		return observability.DecisionForbidden
	}
	return observability.DecisionError
}
