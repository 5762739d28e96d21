package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// BreachWatcher polls for open tickets whose SLA deadlines have passed and
// publishes one breach event per missed deadline. The repository excludes
// already-notified deadlines, so each breach fires exactly once.
type BreachWatcher struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	cfg        config.SLAConfig
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewBreachWatcher constructs the watcher.
func NewBreachWatcher(cfg config.SLAConfig, tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *BreachWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreachWatcher{
		tickets:    tickets,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run polls on the configured interval until the context is cancelled.
func (w *BreachWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.WatcherInterval())
	defer ticker.Stop()

	w.logger.Info("breach watcher started",
		zap.Duration("interval", w.cfg.WatcherInterval()),
		zap.Int("batch_size", w.cfg.WatcherBatchSize),
	)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("breach watcher stopped")
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Error("breach sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs one pass: list candidates, publish breach events, mark notified.
func (w *BreachWatcher) Sweep(ctx context.Context) error {
	now := time.Now()
	candidates, err := w.tickets.ListBreachCandidates(ctx, now, w.cfg.WatcherBatchSize)
	if err != nil {
		return err
	}

	for _, candidate := range candidates {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSLABreached,
			TicketID:  candidate.Ticket.ID,
			Actor:     events.Actor{Type: domain.SubjectTypeSystem},
			Timestamp: now,
			Payload: events.SLABreachedPayload{
				Kind:  events.BreachKind(candidate.Kind),
				DueAt: candidate.DueAt,
			},
		}
		if err := w.dispatcher.Publish(ctx, event); err != nil {
			w.logger.Error("breach event publish failed",
				zap.String("ticket_id", candidate.Ticket.ID),
				zap.Error(err),
			)
			continue
		}
		if err := w.tickets.MarkBreachNotified(ctx, candidate.Ticket.ID, candidate.Kind, now); err != nil {
			w.logger.Error("breach mark failed",
				zap.String("ticket_id", candidate.Ticket.ID),
				zap.String("kind", candidate.Kind),
				zap.Error(err),
			)
			continue
		}
		w.metrics.RecordSLABreach(candidate.Kind)
		w.logger.Warn("SLA breached",
			zap.String("ticket_id", candidate.Ticket.ID),
			zap.String("kind", candidate.Kind),
			zap.Time("due_at", candidate.DueAt),
		)
	}
	return nil
}
