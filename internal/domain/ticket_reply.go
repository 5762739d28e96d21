package domain

import "time"

// ReplyAuthorType distinguishes who wrote a reply.
type ReplyAuthorType string

const (
	ReplyAuthorUser  ReplyAuthorType = "USER"
	ReplyAuthorStaff ReplyAuthorType = "STAFF"
)

// TicketReply is a single message on a ticket thread.
type TicketReply struct {
	ID         string
	TicketID   string
	AuthorType ReplyAuthorType
	AuthorID   string
	Body       string
	Internal   bool
	CreatedAt  time.Time
}
