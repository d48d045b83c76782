package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-generator/internal/config"
	"github.com/spec-kit/ticket-generator/internal/events"
)

// TicketEmail is the confirmation sent to an attendee once their ticket
// is issued.
type TicketEmail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// NotificationService turns ticket events into attendee emails and
// webhook calls. Delivery is logged only; no mail relay is wired.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{dispatcher: dispatcher, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketIssued, n.handleTicketIssued)
	n.dispatcher.Subscribe(events.EventAvatarRejected, n.handleAvatarRejected)
}

// ComposeTicketEmail builds the confirmation for an issued ticket. ok is
// false when there is no sender or recipient.
func (n *NotificationService) ComposeTicketEmail(p events.TicketIssuedPayload) (TicketEmail, bool) {
	from := strings.TrimSpace(n.cfg.EmailFrom)
	to := strings.TrimSpace(p.Email)
	if from == "" || to == "" {
		return TicketEmail{}, false
	}
	return TicketEmail{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("Your conference ticket #%d", p.TicketNumber),
		Body: fmt.Sprintf("Congrats, %s! Your ticket #%d is ready. We will send updates to %s in the run up to the event.\nGitHub: %s\n",
			p.DisplayName, p.TicketNumber, to, p.GitHub),
	}, true
}

func (n *NotificationService) handleTicketIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketIssuedPayload)
	if !ok {
		return fmt.Errorf("ticket_issued: unexpected payload %T", event.Payload)
	}
	if email, ok := n.ComposeTicketEmail(payload); ok {
		n.logger.Info("ticket email queued",
			zap.String("session_id", event.SessionID),
			zap.String("to", email.To),
			zap.String("subject", email.Subject))
	}
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleAvatarRejected(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AvatarRejectedPayload)
	n.logger.Info("avatar rejected",
		zap.String("session_id", event.SessionID),
		zap.String("mime_type", payload.MIMEType),
		zap.Int64("size_bytes", payload.SizeBytes),
		zap.String("reason", payload.Reason))
	return nil
}

func (n *NotificationService) postWebhook(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("session_id", event.SessionID),
		zap.String("event_type", string(event.Type)))
}
