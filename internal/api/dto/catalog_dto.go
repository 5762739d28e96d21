package dto

import (
	"time"
)

// CategoryRequest payload for category create/update.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriorityRequest payload for priority create/update.
type PriorityRequest struct {
	Name                    string  `json:"name"`
	Level                   int     `json:"level"`
	ResponseTargetMinutes   int     `json:"response_target_minutes"`
	ResolutionTargetMinutes int     `json:"resolution_target_minutes"`
	ProfileID               *string `json:"profile_id"`
	IsActive                bool    `json:"is_active"`
}

// PriorityResponse response.
type PriorityResponse struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	Level                   int       `json:"level"`
	ResponseTargetMinutes   int       `json:"response_target_minutes"`
	ResolutionTargetMinutes int       `json:"resolution_target_minutes"`
	ProfileID               *string   `json:"profile_id"`
	IsActive                bool      `json:"is_active"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}
