package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string `json:"category_id"`
	PriorityID  string `json:"priority_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateReplyRequest payload.
type CreateReplyRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                 string              `json:"id"`
	ExternalKey        string              `json:"external_key"`
	CategoryID         string              `json:"category_id"`
	PriorityID         string              `json:"priority_id"`
	Title              string              `json:"title"`
	Status             domain.TicketStatus `json:"status"`
	FirstResponseDueAt *time.Time          `json:"first_response_due_at"`
	ResolutionDueAt    *time.Time          `json:"resolution_due_at"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including SLA outcomes.
type TicketDetailResponse struct {
	ID                       string              `json:"id"`
	ExternalKey              string              `json:"external_key"`
	RequesterID              string              `json:"requester_id"`
	CategoryID               string              `json:"category_id"`
	PriorityID               string              `json:"priority_id"`
	AssigneeID               *string             `json:"assignee_id"`
	Title                    string              `json:"title"`
	Description              string              `json:"description"`
	Status                   domain.TicketStatus `json:"status"`
	FirstResponseDueAt       *time.Time          `json:"first_response_due_at"`
	ResolutionDueAt          *time.Time          `json:"resolution_due_at"`
	FirstRespondedAt         *time.Time          `json:"first_responded_at"`
	ResolvedAt               *time.Time          `json:"resolved_at"`
	ClosedAt                 *time.Time          `json:"closed_at"`
	ResponseElapsedMinutes   *float64            `json:"response_elapsed_minutes"`
	ResolutionElapsedMinutes *float64            `json:"resolution_elapsed_minutes"`
	ResponseSLAMet           *bool               `json:"response_sla_met"`
	ResolutionSLAMet         *bool               `json:"resolution_sla_met"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
	Replies                  []TicketReplyResponse `json:"replies"`
}

// TicketReplyResponse represents one thread message.
type TicketReplyResponse struct {
	ID         string                 `json:"id"`
	AuthorType domain.ReplyAuthorType `json:"author_type"`
	AuthorID   string                 `json:"author_id"`
	Body       string                 `json:"body"`
	Internal   bool                   `json:"internal"`
	CreatedAt  time.Time              `json:"created_at"`
}
