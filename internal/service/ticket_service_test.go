package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

type fakeTicketRepo struct {
	tickets map[string]domain.Ticket
	seq     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.seq++
	ticket.ID = "t" + strconv.Itoa(f.seq)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (f *fakeTicketRepo) ListBreachCandidates(_ context.Context, now time.Time, _ int) ([]repository.BreachCandidate, error) {
	var result []repository.BreachCandidate
	for _, ticket := range f.tickets {
		if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusInProgress {
			continue
		}
		if ticket.FirstRespondedAt == nil && ticket.FirstResponseDueAt != nil &&
			ticket.FirstResponseDueAt.Before(now) && ticket.ResponseBreachNotifiedAt == nil {
			result = append(result, repository.BreachCandidate{Ticket: ticket, Kind: "response", DueAt: *ticket.FirstResponseDueAt})
			continue
		}
		if ticket.ResolvedAt == nil && ticket.ResolutionDueAt != nil &&
			ticket.ResolutionDueAt.Before(now) && ticket.ResolutionBreachNotifiedAt == nil {
			result = append(result, repository.BreachCandidate{Ticket: ticket, Kind: "resolution", DueAt: *ticket.ResolutionDueAt})
		}
	}
	return result, nil
}

func (f *fakeTicketRepo) MarkBreachNotified(_ context.Context, ticketID, kind string, at time.Time) error {
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if kind == "response" {
		ticket.ResponseBreachNotifiedAt = &at
	} else {
		ticket.ResolutionBreachNotifiedAt = &at
	}
	f.tickets[ticketID] = ticket
	return nil
}

type fakeReplyRepo struct {
	replies []domain.TicketReply
	now     time.Time
	seq     int
}

func (f *fakeReplyRepo) Create(_ context.Context, reply *domain.TicketReply) error {
	f.seq++
	reply.ID = "r" + strconv.Itoa(f.seq)
	if !f.now.IsZero() {
		reply.CreatedAt = f.now
	} else {
		reply.CreatedAt = time.Now()
	}
	f.replies = append(f.replies, *reply)
	return nil
}

func (f *fakeReplyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketReply, error) {
	var result []domain.TicketReply
	for _, reply := range f.replies {
		if reply.TicketID == ticketID {
			result = append(result, reply)
		}
	}
	return result, nil
}

type fakeCategoryRepo struct {
	categories map[string]domain.Category
}

func (f *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (f *fakeCategoryRepo) ListActive(context.Context) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range f.categories {
		if category.IsActive {
			result = append(result, category)
		}
	}
	return result, nil
}

type fakePriorityRepo struct {
	priorities map[string]domain.Priority
}

func (f *fakePriorityRepo) Create(_ context.Context, priority *domain.Priority) error {
	f.priorities[priority.ID] = *priority
	return nil
}

func (f *fakePriorityRepo) Update(_ context.Context, priority *domain.Priority) error {
	f.priorities[priority.ID] = *priority
	return nil
}

func (f *fakePriorityRepo) GetByID(_ context.Context, id string) (*domain.Priority, error) {
	priority, ok := f.priorities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &priority, nil
}

func (f *fakePriorityRepo) ListActive(context.Context) ([]domain.Priority, error) {
	var result []domain.Priority
	for _, priority := range f.priorities {
		if priority.IsActive {
			result = append(result, priority)
		}
	}
	return result, nil
}

type ticketFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	replies    *fakeReplyRepo
	priorities *fakePriorityRepo
}

// newTicketFixture wires a ticket service over in-memory stores. No profile is
// configured, so compliance measurements fall back to wall-clock minutes.
func newTicketFixture() *ticketFixture {
	tickets := newFakeTicketRepo()
	replies := &fakeReplyRepo{}
	categories := &fakeCategoryRepo{categories: map[string]domain.Category{
		"cat1": {ID: "cat1", Name: "billing", IsActive: true},
		"cat2": {ID: "cat2", Name: "retired", IsActive: false},
	}}
	priorities := &fakePriorityRepo{priorities: map[string]domain.Priority{
		"prio1": {ID: "prio1", Name: "high", ResponseTargetMinutes: 60, ResolutionTargetMinutes: 240, IsActive: true},
	}}
	sla := newTestSLAService(map[string]domain.WorkingHoursProfile{}, nil)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		ReplyRepo:    replies,
		CategoryRepo: categories,
		PriorityRepo: priorities,
		SLA:          sla,
	})
	return &ticketFixture{service: svc, tickets: tickets, replies: replies, priorities: priorities}
}

func TestCreateTicketWithoutProfileHasNoDeadlines(t *testing.T) {
	fx := newTicketFixture()

	ticket, err := fx.service.CreateTicket(context.Background(), "u1", TicketCreateInput{
		CategoryID:  "cat1",
		PriorityID:  "prio1",
		Title:       "invoice mismatch",
		Description: "numbers do not add up",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.True(t, strings.HasPrefix(ticket.ExternalKey, "TCK-"))
	assert.Nil(t, ticket.FirstResponseDueAt)
	assert.Nil(t, ticket.ResolutionDueAt)
}

func TestCreateTicketRejectsInactiveCategory(t *testing.T) {
	fx := newTicketFixture()

	_, err := fx.service.CreateTicket(context.Background(), "u1", TicketCreateInput{
		CategoryID:  "cat2",
		PriorityID:  "prio1",
		Title:       "t",
		Description: "d",
	})
	require.Error(t, err)
}

func TestStaffReplyStampsFirstResponse(t *testing.T) {
	fx := newTicketFixture()

	createdAt := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusOpen,
		CreatedAt:   createdAt,
	}
	fx.replies.now = createdAt.Add(45 * time.Minute)

	_, err := fx.service.AddStaffReply(context.Background(), "s1", "t1", "looking into it", false)
	require.NoError(t, err)

	ticket := fx.tickets.tickets["t1"]
	require.NotNil(t, ticket.FirstRespondedAt)
	assert.Equal(t, fx.replies.now, *ticket.FirstRespondedAt)
	require.NotNil(t, ticket.ResponseElapsedMinutes)
	assert.InDelta(t, 45, *ticket.ResponseElapsedMinutes, 1e-9)
	require.NotNil(t, ticket.ResponseSLAMet)
	assert.True(t, *ticket.ResponseSLAMet)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}

func TestLateStaffReplyMissesResponseSLA(t *testing.T) {
	fx := newTicketFixture()

	createdAt := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusOpen,
		CreatedAt:   createdAt,
	}
	fx.replies.now = createdAt.Add(90 * time.Minute)

	_, err := fx.service.AddStaffReply(context.Background(), "s1", "t1", "sorry for the delay", false)
	require.NoError(t, err)

	ticket := fx.tickets.tickets["t1"]
	require.NotNil(t, ticket.ResponseSLAMet)
	assert.False(t, *ticket.ResponseSLAMet)
}

func TestInternalReplyDoesNotStampFirstResponse(t *testing.T) {
	fx := newTicketFixture()

	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
	}

	_, err := fx.service.AddStaffReply(context.Background(), "s1", "t1", "note to self", true)
	require.NoError(t, err)

	ticket := fx.tickets.tickets["t1"]
	assert.Nil(t, ticket.FirstRespondedAt)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestFirstResponseStampedOnlyOnce(t *testing.T) {
	fx := newTicketFixture()

	createdAt := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusOpen,
		CreatedAt:   createdAt,
	}
	fx.replies.now = createdAt.Add(30 * time.Minute)
	_, err := fx.service.AddStaffReply(context.Background(), "s1", "t1", "first", false)
	require.NoError(t, err)
	first := *fx.tickets.tickets["t1"].FirstRespondedAt

	fx.replies.now = createdAt.Add(2 * time.Hour)
	_, err = fx.service.AddStaffReply(context.Background(), "s1", "t1", "second", false)
	require.NoError(t, err)

	assert.Equal(t, first, *fx.tickets.tickets["t1"].FirstRespondedAt)
}

func TestResolveTicketEvaluatesResolutionSLA(t *testing.T) {
	fx := newTicketFixture()

	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusInProgress,
		CreatedAt:   time.Now().Add(-30 * time.Minute),
	}

	ticket, err := fx.service.ResolveTicket(context.Background(), "s1", "t1")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ResolvedAt)
	require.NotNil(t, ticket.ResolutionSLAMet)
	assert.True(t, *ticket.ResolutionSLAMet)
}

func TestCloseRequiresResolvedStatus(t *testing.T) {
	fx := newTicketFixture()

	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Now(),
	}

	_, err := fx.service.CloseTicketAsUser(context.Background(), "u1", "t1")
	require.Error(t, err)

	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		PriorityID:  "prio1",
		Status:      domain.TicketStatusResolved,
		CreatedAt:   time.Now(),
	}
	ticket, err := fx.service.CloseTicketAsUser(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
}

func TestUserCannotReadOthersTicket(t *testing.T) {
	fx := newTicketFixture()

	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		Status:      domain.TicketStatusOpen,
	}

	_, _, err := fx.service.GetTicketForUser(context.Background(), "u2", "t1")
	require.Error(t, err)
}

func TestUserThreadHidesInternalReplies(t *testing.T) {
	fx := newTicketFixture()

	fx.tickets.tickets["t1"] = domain.Ticket{
		ID:          "t1",
		RequesterID: "u1",
		Status:      domain.TicketStatusOpen,
	}
	fx.replies.replies = []domain.TicketReply{
		{ID: "r1", TicketID: "t1", AuthorType: domain.ReplyAuthorStaff, Body: "public"},
		{ID: "r2", TicketID: "t1", AuthorType: domain.ReplyAuthorStaff, Body: "private", Internal: true},
	}

	_, replies, err := fx.service.GetTicketForUser(context.Background(), "u1", "t1")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "public", replies[0].Body)
}
