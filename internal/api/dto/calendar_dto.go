package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// ProfileRequest payload for profile create/update.
type ProfileRequest struct {
	Name            string `json:"name"`
	Timezone        string `json:"timezone"`
	WorkingDaysMask uint8  `json:"working_days_mask"`
	DailyStart      string `json:"daily_start"`
	DailyEnd        string `json:"daily_end"`
}

// ProfileResponse response.
type ProfileResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Timezone        string    `json:"timezone"`
	WorkingDaysMask uint8     `json:"working_days_mask"`
	DailyStart      string    `json:"daily_start"`
	DailyEnd        string    `json:"daily_end"`
	IsDefault       bool      `json:"is_default"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ExceptionRequest payload for exception create/update.
type ExceptionRequest struct {
	Date      string               `json:"date"`
	Kind      domain.ExceptionKind `json:"kind"`
	OpenTime  *string              `json:"open_time"`
	CloseTime *string              `json:"close_time"`
}

// ExceptionResponse response.
type ExceptionResponse struct {
	ID           string               `json:"id"`
	Date         string               `json:"date"`
	Kind         domain.ExceptionKind `json:"kind"`
	OpenTime     *string              `json:"open_time"`
	CloseTime    *string              `json:"close_time"`
	WorkingHours float64              `json:"working_hours"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// SLAPreviewRequest asks where a deadline would land.
type SLAPreviewRequest struct {
	Start         string  `json:"start"`
	TargetMinutes float64 `json:"target_minutes"`
	ProfileID     *string `json:"profile_id"`
}

// SLAPreviewResponse carries the advanced deadline plus the elapsed working
// minutes recomputed between start and that deadline.
type SLAPreviewResponse struct {
	DueAt          string  `json:"due_at"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
}

// WorkingHoursReportRequest totals working hours over a span.
type WorkingHoursReportRequest struct {
	Start     string  `json:"start"`
	End       string  `json:"end"`
	ProfileID *string `json:"profile_id"`
}

// WorkingHoursReportResponse response.
type WorkingHoursReportResponse struct {
	Hours float64 `json:"hours"`
}
