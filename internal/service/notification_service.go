package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
)

// NotificationService turns domain events into outbound notifications. The
// delivery channels are stubs that log what would be sent; swapping in a real
// mailer or webhook client only touches the deliver methods.
type NotificationService struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{cfg: cfg, logger: logger}
}

// RegisterHandlers subscribes the service to the ticket lifecycle and SLA
// breach events.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketReplied, s.onTicketReplied)
	dispatcher.Subscribe(events.EventTicketResolved, s.onTicketResolved)
	dispatcher.Subscribe(events.EventTicketClosed, s.onTicketClosed)
	dispatcher.Subscribe(events.EventSLABreached, s.onSLABreached)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	s.deliverEmail(event, "ticket created")
	return nil
}

func (s *NotificationService) onTicketReplied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRepliedPayload)
	if ok && payload.Internal {
		return nil
	}
	s.deliverEmail(event, "new reply")
	return nil
}

func (s *NotificationService) onTicketResolved(ctx context.Context, event events.Event) error {
	s.deliverEmail(event, "ticket resolved")
	return nil
}

func (s *NotificationService) onTicketClosed(ctx context.Context, event events.Event) error {
	s.deliverEmail(event, "ticket closed")
	return nil
}

func (s *NotificationService) onSLABreached(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SLABreachedPayload)
	s.logger.Warn("SLA breach notification",
		zap.String("ticket_id", event.TicketID),
		zap.String("kind", string(payload.Kind)),
		zap.Time("due_at", payload.DueAt),
	)
	s.deliverWebhook(event)
	return nil
}

func (s *NotificationService) deliverEmail(event events.Event, subject string) {
	s.logger.Info("email notification",
		zap.String("from", s.cfg.EmailFrom),
		zap.String("subject", subject),
		zap.String("ticket_id", event.TicketID),
		zap.String("event", string(event.Type)),
	)
}

func (s *NotificationService) deliverWebhook(event events.Event) {
	if s.cfg.WebhookURL == "" {
		return
	}
	s.logger.Info("webhook notification",
		zap.String("url", s.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event", string(event.Type)),
	)
}
