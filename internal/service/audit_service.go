package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/finance-api/internal/events"
)

// AuditService writes authentication events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleInfo)
	a.dispatcher.Subscribe(events.EventSessionStarted, a.handleInfo)
	a.dispatcher.Subscribe(events.EventSessionEnded, a.handleInfo)
	a.dispatcher.Subscribe(events.EventPasswordChanged, a.handleInfo)
	a.dispatcher.Subscribe(events.EventAccountDeleted, a.handleInfo)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
}

func (a *AuditService) handleInfo(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type), fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	out := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Actor.UserID != "" {
		out = append(out, zap.String("user_id", event.Actor.UserID))
	}
	if event.Actor.Email != "" {
		out = append(out, zap.String("email", event.Actor.Email))
	}
	switch payload := event.Payload.(type) {
	case events.SessionPayload:
		out = append(out, zap.String("token_id", payload.TokenID), zap.Time("expires_at", payload.ExpiresAt))
	case events.LoginFailedPayload:
		out = append(out, zap.String("reason", payload.Reason))
	}
	return out
}
