package worker

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

type stubTicketRepo struct {
	candidates []repository.BreachCandidate
	notified   map[string]string
}

func (s *stubTicketRepo) Create(context.Context, *domain.Ticket) error { return nil }
func (s *stubTicketRepo) Update(context.Context, *domain.Ticket) error { return nil }

func (s *stubTicketRepo) GetByID(context.Context, string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubTicketRepo) ListWithFilter(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}

func (s *stubTicketRepo) ListBreachCandidates(context.Context, time.Time, int) ([]repository.BreachCandidate, error) {
	pending := make([]repository.BreachCandidate, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		if _, done := s.notified[candidate.Ticket.ID+candidate.Kind]; !done {
			pending = append(pending, candidate)
		}
	}
	return pending, nil
}

func (s *stubTicketRepo) MarkBreachNotified(_ context.Context, ticketID, kind string, _ time.Time) error {
	if s.notified == nil {
		s.notified = map[string]string{}
	}
	s.notified[ticketID+kind] = kind
	return nil
}

func TestSweepPublishesAndMarksEachBreachOnce(t *testing.T) {
	due := time.Now().Add(-time.Hour)
	repo := &stubTicketRepo{candidates: []repository.BreachCandidate{
		{Ticket: domain.Ticket{ID: "t1"}, Kind: "response", DueAt: due},
		{Ticket: domain.Ticket{ID: "t2"}, Kind: "resolution", DueAt: due},
	}}

	dispatcher := events.NewInMemoryDispatcher(nil)
	var published []events.Event
	dispatcher.Subscribe(events.EventSLABreached, func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	metrics := observability.NewMetrics()
	watcher := NewBreachWatcher(config.SLAConfig{WatcherBatchSize: 10}, repo, dispatcher, nil, metrics)

	require.NoError(t, watcher.Sweep(context.Background()))
	require.Len(t, published, 2)
	assert.Equal(t, events.EventSLABreached, published[0].Type)
	assert.Equal(t, domain.SubjectTypeSystem, published[0].Actor.Type)
	assert.Equal(t, int64(1), metrics.SLABreachCount("response"))
	assert.Equal(t, int64(1), metrics.SLABreachCount("resolution"))

	// Marked candidates must not fire again on the next pass.
	require.NoError(t, watcher.Sweep(context.Background()))
	assert.Len(t, published, 2)
}
