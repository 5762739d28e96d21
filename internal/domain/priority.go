package domain

import "time"

// Priority defines an SLA tier. Targets are working minutes; ProfileID selects
// the working-hours profile to measure them against, nil meaning the system
// default profile.
type Priority struct {
	ID                      string
	Name                    string
	Level                   int
	ResponseTargetMinutes   int
	ResolutionTargetMinutes int
	ProfileID               *string
	IsActive                bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
