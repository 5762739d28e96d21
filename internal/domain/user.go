package domain

import "time"

// UserStatus represents lifecycle states for a requester account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a requester: an end-user or client contact who raises tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ClientName   *string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
