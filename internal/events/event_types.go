package events

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketReplied  EventType = "ticket_replied"
	EventTicketResolved EventType = "ticket_resolved"
	EventTicketClosed   EventType = "ticket_closed"
	EventSLABreached    EventType = "sla_breached"
)

// BreachKind distinguishes which SLA deadline was missed.
type BreachKind string

const (
	BreachKindResponse   BreachKind = "response"
	BreachKindResolution BreachKind = "resolution"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID         string     `json:"category_id"`
	PriorityID         string     `json:"priority_id"`
	Title              string     `json:"title"`
	FirstResponseDueAt *time.Time `json:"first_response_due_at,omitempty"`
	ResolutionDueAt    *time.Time `json:"resolution_due_at,omitempty"`
}

// TicketRepliedPayload payload.
type TicketRepliedPayload struct {
	ReplyID       string                 `json:"reply_id"`
	AuthorType    domain.ReplyAuthorType `json:"author_type"`
	Internal      bool                   `json:"internal"`
	FirstResponse bool                   `json:"first_response"`
	BodyPreview   string                 `json:"body_preview"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	ResolvedAt     time.Time `json:"resolved_at"`
	ElapsedMinutes float64   `json:"elapsed_minutes"`
	SLAMet         bool      `json:"sla_met"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosedAt time.Time `json:"closed_at"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Kind  BreachKind `json:"kind"`
	DueAt time.Time  `json:"due_at"`
}
