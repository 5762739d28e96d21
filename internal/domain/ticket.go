package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Ticket is the aggregate for support requests. SLA fields are stamped by the
// services: due instants at creation, elapsed/met values when the first staff
// reply and the resolution land.
type Ticket struct {
	ID          string
	ExternalKey string
	RequesterID string
	CategoryID  string
	PriorityID  string
	AssigneeID  *string
	Title       string
	Description string
	Status      TicketStatus

	FirstResponseDueAt *time.Time
	ResolutionDueAt    *time.Time
	FirstRespondedAt   *time.Time
	ResolvedAt         *time.Time
	ClosedAt           *time.Time

	ResponseElapsedMinutes   *float64
	ResolutionElapsedMinutes *float64
	ResponseSLAMet           *bool
	ResolutionSLAMet         *bool

	ResponseBreachNotifiedAt   *time.Time
	ResolutionBreachNotifiedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
