package slaclock

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// dateKeyLayout keys exceptions by calendar date.
const dateKeyLayout = "2006-01-02"

// ExceptionSet is an immutable snapshot of calendar exceptions keyed by ISO
// date. It is built once per computation from a single range query; the
// engine never goes back to the store mid-iteration.
type ExceptionSet map[string]domain.CalendarException

// NewExceptionSet indexes exception rows by date. A later row for the same
// date wins, mirroring the store's one-exception-per-date constraint.
func NewExceptionSet(rows []domain.CalendarException) ExceptionSet {
	set := make(ExceptionSet, len(rows))
	for _, row := range rows {
		set[row.Date] = row
	}
	return set
}

// Lookup returns the exception for the instant's calendar date, evaluated in
// the instant's own location.
func (s ExceptionSet) Lookup(at time.Time) (domain.CalendarException, bool) {
	if len(s) == 0 {
		return domain.CalendarException{}, false
	}
	ex, ok := s[at.Format(dateKeyLayout)]
	return ex, ok
}
