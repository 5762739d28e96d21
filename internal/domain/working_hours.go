package domain

import "time"

// ExceptionKind distinguishes calendar-date overrides.
type ExceptionKind string

const (
	ExceptionKindHoliday ExceptionKind = "HOLIDAY"
	ExceptionKindHalfDay ExceptionKind = "HALF_DAY"
)

// WorkingHoursProfile is a named business-hours definition. The weekly mask uses
// bit i for weekday i (0=Sunday .. 6=Saturday). DailyStart and DailyEnd are local
// times of day formatted "15:04:05" or "15:04".
type WorkingHoursProfile struct {
	ID              string
	Name            string
	Timezone        string
	WorkingDaysMask uint8
	DailyStart      string
	DailyEnd        string
	IsDefault       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsWorkingDay reports whether the weekly mask marks the weekday as working.
func (p *WorkingHoursProfile) IsWorkingDay(day time.Weekday) bool {
	return p.WorkingDaysMask&(1<<uint(day)) != 0
}

// CalendarException overrides a single calendar date. Date is formatted
// "2006-01-02"; at most one exception exists per date. OpenTime and CloseTime
// are set only for HALF_DAY. WorkingHours holds the derived duration in hours
// (0 for holidays) and is kept for reporting.
type CalendarException struct {
	ID           string
	Date         string
	Kind         ExceptionKind
	OpenTime     *string
	CloseTime    *string
	WorkingHours float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
