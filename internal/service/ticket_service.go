package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// TicketService coordinates ticket workflows and their SLA stamps.
type TicketService struct {
	tickets    repository.TicketRepository
	replies    repository.TicketReplyRepository
	categories repository.CategoryRepository
	priorities repository.PriorityRepository
	sla        *SLAService
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ReplyRepo    repository.TicketReplyRepository
	CategoryRepo repository.CategoryRepository
	PriorityRepo repository.PriorityRepository
	SLA          *SLAService
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	PriorityID  string
	Title       string
	Description string
}

// TicketUserFilter describes requester listing filters.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStaffFilter describes staff listing filters.
type TicketStaffFilter struct {
	CategoryID  *string
	PriorityID  *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		categories: deps.CategoryRepo,
		priorities: deps.PriorityRepo,
		sla:        deps.SLA,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket and stamps its SLA deadlines.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, errors.New("category inactive")
	}
	priority, err := s.priorities.GetByID(ctx, input.PriorityID)
	if err != nil {
		return nil, err
	}
	if !priority.IsActive {
		return nil, errors.New("priority inactive")
	}

	now := time.Now()
	deadlines, err := s.sla.ComputeDeadlines(ctx, now, priority)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: userID,
		CategoryID:  input.CategoryID,
		PriorityID:  input.PriorityID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
	}
	if deadlines != nil {
		ticket.FirstResponseDueAt = &deadlines.FirstResponseDueAt
		ticket.ResolutionDueAt = &deadlines.ResolutionDueAt
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			CategoryID:         ticket.CategoryID,
			PriorityID:         ticket.PriorityID,
			Title:              ticket.Title,
			FirstResponseDueAt: ticket.FirstResponseDueAt,
			ResolutionDueAt:    ticket.ResolutionDueAt,
		},
	})
	return ticket, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    filter.Statuses,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForUser fetches a ticket ensuring ownership; internal notes are
// filtered out of the thread.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketReply, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.RequesterID != userID {
		return nil, nil, errors.New("access denied")
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	visible := make([]domain.TicketReply, 0, len(replies))
	for _, reply := range replies {
		if reply.Internal {
			continue
		}
		visible = append(visible, reply)
	}
	return ticket, visible, nil
}

// ListStaffTickets returns tickets matching staff filters.
func (s *TicketService) ListStaffTickets(ctx context.Context, filter TicketStaffFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CategoryID:  filter.CategoryID,
		PriorityID:  filter.PriorityID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForStaff fetches a ticket with its full thread.
func (s *TicketService) GetTicketForStaff(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketReply, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, replies, nil
}

// AddUserReply appends a requester message to the thread.
func (s *TicketService) AddUserReply(ctx context.Context, userID, ticketID, body string) (*domain.TicketReply, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, errors.New("access denied")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, errors.New("ticket closed")
	}

	reply := &domain.TicketReply{
		TicketID:   ticket.ID,
		AuthorType: domain.ReplyAuthorUser,
		AuthorID:   userID,
		Body:       strings.TrimSpace(body),
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}
	s.publishReplyEvent(ctx, ticket, reply, userActor(userID), false)
	return reply, nil
}

// AddStaffReply appends a staff message. The first public staff reply stamps
// the ticket's first-response instant and evaluates the response SLA against
// the elapsed working minutes since creation.
func (s *TicketService) AddStaffReply(ctx context.Context, staffID, ticketID, body string, internal bool) (*domain.TicketReply, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, errors.New("ticket closed")
	}

	reply := &domain.TicketReply{
		TicketID:   ticket.ID,
		AuthorType: domain.ReplyAuthorStaff,
		AuthorID:   staffID,
		Body:       strings.TrimSpace(body),
		Internal:   internal,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}

	firstResponse := false
	if !internal && ticket.FirstRespondedAt == nil {
		firstResponse = true
		respondedAt := reply.CreatedAt
		if respondedAt.IsZero() {
			respondedAt = time.Now()
		}
		ticket.FirstRespondedAt = &respondedAt

		priority, err := s.priorities.GetByID(ctx, ticket.PriorityID)
		if err != nil {
			return nil, err
		}
		elapsed, met, err := s.sla.EvaluateCompliance(ctx, ticket.CreatedAt, respondedAt, priority.ProfileID, priority.ResponseTargetMinutes)
		if err != nil {
			return nil, err
		}
		ticket.ResponseElapsedMinutes = &elapsed
		ticket.ResponseSLAMet = &met
		if ticket.Status == domain.TicketStatusOpen {
			ticket.Status = domain.TicketStatusInProgress
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}

	s.publishReplyEvent(ctx, ticket, reply, staffActor(staffID), firstResponse)
	return reply, nil
}

// AssignTicket sets or clears the ticket's assignee.
func (s *TicketService) AssignTicket(ctx context.Context, staffID, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, errors.New("ticket closed")
	}
	ticket.AssigneeID = assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ResolveTicket marks a ticket resolved and evaluates the resolution SLA.
func (s *TicketService) ResolveTicket(ctx context.Context, staffID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed {
		return nil, errors.New("ticket already resolved")
	}

	priority, err := s.priorities.GetByID(ctx, ticket.PriorityID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	elapsed, met, err := s.sla.EvaluateCompliance(ctx, ticket.CreatedAt, now, priority.ProfileID, priority.ResolutionTargetMinutes)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusResolved
	ticket.ResolvedAt = &now
	ticket.ResolutionElapsedMinutes = &elapsed
	ticket.ResolutionSLAMet = &met
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		Actor:    staffActor(staffID),
		Payload: events.TicketResolvedPayload{
			ResolvedAt:     now,
			ElapsedMinutes: elapsed,
			SLAMet:         met,
		},
	})
	return ticket, nil
}

// CloseTicketAsUser closes a resolved ticket on the requester's behalf.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, errors.New("access denied")
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, errors.New("ticket cannot be closed in current status")
	}

	now := time.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload:  events.TicketClosedPayload{ClosedAt: now},
	})
	return ticket, nil
}

func (s *TicketService) publishReplyEvent(ctx context.Context, ticket *domain.Ticket, reply *domain.TicketReply, actor events.Actor, firstResponse bool) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReplied,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketRepliedPayload{
			ReplyID:       reply.ID,
			AuthorType:    reply.AuthorType,
			Internal:      reply.Internal,
			FirstResponse: firstResponse,
			BodyPreview:   stringPreview(reply.Body, 120),
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeStaff,
		StaffID: &staffID,
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
