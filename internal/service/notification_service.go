package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
)

// NotificationService emits notifications for session lifecycle events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPrincipalRegistered, n.handlePrincipalRegistered)
	n.dispatcher.Subscribe(events.EventSessionStarted, n.handleSessionEvent)
	n.dispatcher.Subscribe(events.EventSessionRefreshed, n.handleSessionEvent)
	n.dispatcher.Subscribe(events.EventSessionEnded, n.handleSessionEvent)
}

func (n *NotificationService) handlePrincipalRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("PrincipalRegistered",
		zap.String("principal_id", event.PrincipalID),
		zap.String("role", string(event.Role)))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSessionEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("principal_id", event.PrincipalID),
		zap.String("role", string(event.Role)))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("principal_id", event.PrincipalID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("principal_id", event.PrincipalID),
		zap.String("event_type", string(event.Type)))
}
