package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-api/internal/auth"
	"github.com/spec-kit/finance-api/internal/domain"
	"github.com/spec-kit/finance-api/internal/events"
	"github.com/spec-kit/finance-api/internal/observability"
	"github.com/spec-kit/finance-api/internal/repository"
	apperrors "github.com/spec-kit/finance-api/pkg/util"
)

const uniqueViolation = "23505"

// dummyPassword is hashed once and compared against on logins for unknown
// emails so both failure paths cost one bcrypt comparison.
const dummyPassword = "Dummy-Password-1!"

// AuthService coordinates registration, login and session teardown.
type AuthService struct {
	users       repository.UserRepository
	sessions    *auth.SessionIssuer
	revocations *auth.RevocationStore
	active      *auth.ActiveTokenStore
	throttle    *auth.LoginThrottle
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	bcryptCost  int

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates what the auth service needs.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Sessions    *auth.SessionIssuer
	Revocations *auth.RevocationStore
	Active      *auth.ActiveTokenStore
	Throttle    *auth.LoginThrottle
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	BcryptCost  int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		sessions:    deps.Sessions,
		revocations: deps.Revocations,
		active:      deps.Active,
		throttle:    deps.Throttle,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		bcryptCost:  deps.BcryptCost,
	}
}

// SignUp registers a new account after checking the password policy and
// email uniqueness.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email address", map[string]any{"email": email})
	}
	if !auth.ValidatePassword(password) {
		return nil, apperrors.NewPolicyViolation(auth.PasswordPolicyMessage)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("a user with this email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.NewConflict("a user with this email already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserRegistered, events.Actor{UserID: user.ID, Email: user.Email}, nil)
	return user, nil
}

// Login verifies credentials and returns the user a session may be issued
// for. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	actor := events.Actor{Email: email}

	if err := s.throttle.Check(ctx, email); err != nil {
		if errors.Is(err, auth.ErrTooManyAttempts) {
			s.publish(ctx, events.EventLoginFailed, actor, events.LoginFailedPayload{Reason: events.ReasonThrottled})
			return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
		}
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInternalError(err)
		}
		auth.VerifyPassword(s.dummy(), password)
		return nil, s.loginFailed(ctx, actor)
	}

	actor.UserID = user.ID
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, s.loginFailed(ctx, actor)
	}

	if user.IsBlacklisted {
		s.publish(ctx, events.EventLoginFailed, actor, events.LoginFailedPayload{Reason: events.ReasonBlacklisted})
		return nil, apperrors.NewForbidden("account is blacklisted")
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		s.logger.Warn("login throttle reset failed", zap.Error(err))
	}
	return user, nil
}

// SessionStarted records a freshly issued session.
func (s *AuthService) SessionStarted(ctx context.Context, identity *domain.Identity) {
	s.publish(ctx, events.EventSessionStarted, actorOf(identity), events.SessionPayload{
		TokenID:   identity.TokenID,
		ExpiresAt: identity.ExpiresAt,
	})
}

// Profile returns the stored user behind identity.
func (s *AuthService) Profile(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, notFoundOrInternal("user", err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password hash. The new password must
// satisfy the policy and the current one must verify.
func (s *AuthService) ChangePassword(ctx context.Context, identity *domain.Identity, currentPassword, newPassword string) error {
	if !auth.ValidatePassword(newPassword) {
		return apperrors.NewPolicyViolation(auth.PasswordPolicyMessage)
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return notFoundOrInternal("user", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, currentPassword) {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return notFoundOrInternal("user", err)
	}

	s.publish(ctx, events.EventPasswordChanged, actorOf(identity), nil)
	return nil
}

// Logout revokes the caller's token until the session could no longer have
// been renewed, and clears it from the active-token store.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity) {
	s.endSession(identity)
	s.publish(ctx, events.EventSessionEnded, actorOf(identity), events.SessionPayload{
		TokenID:   identity.TokenID,
		ExpiresAt: identity.ExpiresAt,
	})
}

// DeleteAccount removes the caller's account, its transactions with it, and
// ends the session.
func (s *AuthService) DeleteAccount(ctx context.Context, identity *domain.Identity) error {
	if err := s.users.Delete(ctx, identity.UserID); err != nil {
		return notFoundOrInternal("user", err)
	}
	s.endSession(identity)
	s.publish(ctx, events.EventAccountDeleted, actorOf(identity), nil)
	return nil
}

func (s *AuthService) endSession(identity *domain.Identity) {
	s.revocations.Revoke(identity.TokenID, s.sessions.AbsoluteExpiry(identity))
	s.metrics.RecordRevocation()
	s.active.RemoveToken(identity.Email, identity.TokenID)
}

func (s *AuthService) loginFailed(ctx context.Context, actor events.Actor) error {
	if err := s.throttle.RecordFailure(ctx, actor.Email); err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	}
	s.publish(ctx, events.EventLoginFailed, actor, events.LoginFailedPayload{Reason: events.ReasonInvalidCredentials})
	return apperrors.NewInvalidCredentials()
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword(dummyPassword, s.bcryptCost)
		if err != nil {
			s.logger.Error("dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func actorOf(identity *domain.Identity) events.Actor {
	return events.Actor{UserID: identity.UserID, Email: identity.Email}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFoundOrInternal(resource string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.NewInternalError(err)
}
