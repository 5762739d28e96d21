package slaclock

import (
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// DefaultHorizonDays bounds the forward-advance walk. Two years of dates is
// enough for any sane SLA target while keeping a misconfigured calendar
// (all-zero mask, unbounded holiday run) from looping forever.
const DefaultHorizonDays = 731

// InstantLayout serializes instants with an explicit UTC offset so persisted
// or emailed results stay unambiguous across DST transitions.
const InstantLayout = "2006-01-02T15:04:05-07:00"

// FormatInstant renders an instant in the wire format of the SLA boundary.
func FormatInstant(t time.Time) string {
	return t.Format(InstantLayout)
}

type timeOfDay struct {
	hour, min, sec int
}

func parseTimeOfDay(value string) (timeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return timeOfDay{hour: t.Hour(), min: t.Minute(), sec: t.Second()}, nil
		}
	}
	return timeOfDay{}, fmt.Errorf("unparseable time of day %q", value)
}

// on anchors the time of day to a concrete date in the given zone. Built via
// time.Date rather than midnight+offset so DST-transition days keep their
// wall-clock open/close times.
func (t timeOfDay) on(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.min, t.sec, 0, loc)
}

func (t timeOfDay) minutes() float64 {
	return float64(t.hour)*60 + float64(t.min) + float64(t.sec)/60
}

// Window is the effective open/close span of one working day.
type Window struct {
	Open  time.Time
	Close time.Time
}

// Calendar evaluates working-time arithmetic for one working-hours profile.
// All operations are pure functions of the immutable inputs, so a Calendar
// may be shared across goroutines without coordination.
type Calendar struct {
	profile     *domain.WorkingHoursProfile
	loc         *time.Location
	dayOpen     timeOfDay
	dayClose    timeOfDay
	horizonDays int
}

// NewCalendar validates and compiles a profile. The profile's timezone must
// be a loadable IANA name and its daily window must be non-empty.
func NewCalendar(profile *domain.WorkingHoursProfile) (*Calendar, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: working-hours profile required", ErrInvalidInput)
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidInput, profile.Timezone, err)
	}
	dayOpen, err := parseTimeOfDay(profile.DailyStart)
	if err != nil {
		return nil, fmt.Errorf("%w: daily start: %v", ErrInvalidInput, err)
	}
	dayClose, err := parseTimeOfDay(profile.DailyEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: daily end: %v", ErrInvalidInput, err)
	}
	if dayClose.minutes() <= dayOpen.minutes() {
		return nil, fmt.Errorf("%w: daily end %q not after daily start %q", ErrInvalidInput, profile.DailyEnd, profile.DailyStart)
	}
	return &Calendar{
		profile:     profile,
		loc:         loc,
		dayOpen:     dayOpen,
		dayClose:    dayClose,
		horizonDays: DefaultHorizonDays,
	}, nil
}

// WithHorizon overrides the forward-advance lookahead in days.
func (c *Calendar) WithHorizon(days int) *Calendar {
	if days > 0 {
		c.horizonDays = days
	}
	return c
}

// Location returns the profile's zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// FullDayMinutes is the span of an ordinary working day in minutes.
func (c *Calendar) FullDayMinutes() float64 {
	return c.dayClose.minutes() - c.dayOpen.minutes()
}

// DayWindow resolves the effective open/close instants for the calendar date
// of at. ok=false means no working time is available that day. A holiday
// exception wins regardless of the weekly mask; a half day replaces the
// profile window; otherwise the weekly mask is authoritative.
func (c *Calendar) DayWindow(at time.Time, exceptions ExceptionSet) (Window, bool, error) {
	day := at.In(c.loc)
	if ex, found := exceptions.Lookup(day); found {
		return c.exceptionWindow(day, ex)
	}
	if !c.profile.IsWorkingDay(day.Weekday()) {
		return Window{}, false, nil
	}
	return Window{Open: c.dayOpen.on(day, c.loc), Close: c.dayClose.on(day, c.loc)}, true, nil
}

func (c *Calendar) exceptionWindow(day time.Time, ex domain.CalendarException) (Window, bool, error) {
	switch ex.Kind {
	case domain.ExceptionKindHoliday:
		return Window{}, false, nil
	case domain.ExceptionKindHalfDay:
		if ex.OpenTime == nil || ex.CloseTime == nil {
			return Window{}, false, fmt.Errorf("%w: half day on %s missing open/close times", ErrMalformedException, ex.Date)
		}
		open, err := parseTimeOfDay(*ex.OpenTime)
		if err != nil {
			return Window{}, false, fmt.Errorf("%w: half day on %s: %v", ErrMalformedException, ex.Date, err)
		}
		closeAt, err := parseTimeOfDay(*ex.CloseTime)
		if err != nil {
			return Window{}, false, fmt.Errorf("%w: half day on %s: %v", ErrMalformedException, ex.Date, err)
		}
		if closeAt.minutes() <= open.minutes() {
			return Window{}, false, fmt.Errorf("%w: half day on %s closes before it opens", ErrMalformedException, ex.Date)
		}
		return Window{Open: open.on(day, c.loc), Close: closeAt.on(day, c.loc)}, true, nil
	default:
		return Window{}, false, fmt.Errorf("%w: unknown kind %q on %s", ErrMalformedException, ex.Kind, ex.Date)
	}
}

// Advance returns the instant at which targetMinutes of working time will
// have elapsed after start, skipping non-working spans entirely. The result
// carries the profile's zone. The walk is bounded by the horizon; exceeding
// it yields ErrUnreachable rather than spinning.
func (c *Calendar) Advance(start time.Time, targetMinutes float64, exceptions ExceptionSet) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("%w: start instant required", ErrInvalidInput)
	}
	if targetMinutes < 0 {
		return time.Time{}, fmt.Errorf("%w: negative target duration", ErrInvalidInput)
	}
	cursor := start.In(c.loc)
	if targetMinutes == 0 {
		return cursor, nil
	}

	remaining := targetMinutes
	for i := 0; i <= c.horizonDays; i++ {
		window, open, err := c.DayWindow(cursor, exceptions)
		if err != nil {
			return time.Time{}, err
		}
		if open {
			from := cursor
			if from.Before(window.Open) {
				from = window.Open
			}
			available := window.Close.Sub(from).Minutes()
			if available >= remaining {
				return from.Add(minutesToDuration(remaining)), nil
			}
			if available > 0 {
				remaining -= available
			}
		}
		cursor = nextMidnight(cursor, c.loc)
	}
	return time.Time{}, fmt.Errorf("%w: scanned %d days from %s", ErrUnreachable, c.horizonDays, FormatInstant(start.In(c.loc)))
}

// ElapsedWorkingMinutes sums the working minutes that fall inside working
// windows between start and end. A reversed range clamps to zero, never
// negative. Fractional minutes are preserved.
func (c *Calendar) ElapsedWorkingMinutes(start, end time.Time, exceptions ExceptionSet) (float64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, fmt.Errorf("%w: start and end instants required", ErrInvalidInput)
	}
	if !end.After(start) {
		return 0, nil
	}
	start = start.In(c.loc)
	end = end.In(c.loc)

	total := 0.0
	last := midnight(end, c.loc)
	for day := midnight(start, c.loc); !day.After(last); day = nextMidnight(day, c.loc) {
		window, open, err := c.DayWindow(day, exceptions)
		if err != nil {
			return 0, err
		}
		if !open {
			continue
		}
		from := window.Open
		if start.After(from) {
			from = start
		}
		to := window.Close
		if end.Before(to) {
			to = end
		}
		if to.After(from) {
			total += to.Sub(from).Minutes()
		}
	}
	return total, nil
}

// WorkingHoursBetween totals working hours between two instants for
// reporting. The first and last day are clamped like ElapsedWorkingMinutes;
// full middle days use the exception's stored WorkingHours when present
// (equivalent to recomputing from open/close, which the tests pin) or the
// profile's full-day span. A reversed range is an input error here, unlike
// the elapsed-time clamp, because reporting ranges are expected well formed.
func (c *Calendar) WorkingHoursBetween(start, end time.Time, exceptions ExceptionSet) (float64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, fmt.Errorf("%w: start and end instants required", ErrInvalidInput)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end precedes start", ErrInvalidInput)
	}
	start = start.In(c.loc)
	end = end.In(c.loc)

	first := midnight(start, c.loc)
	last := midnight(end, c.loc)
	if first.Equal(last) {
		minutes, err := c.ElapsedWorkingMinutes(start, end, exceptions)
		if err != nil {
			return 0, err
		}
		return minutes / 60, nil
	}

	totalMinutes := 0.0

	window, open, err := c.DayWindow(first, exceptions)
	if err != nil {
		return 0, err
	}
	if open {
		from := window.Open
		if start.After(from) {
			from = start
		}
		if window.Close.After(from) {
			totalMinutes += window.Close.Sub(from).Minutes()
		}
	}

	for day := nextMidnight(first, c.loc); day.Before(last); day = nextMidnight(day, c.loc) {
		hours, err := c.middleDayHours(day, exceptions)
		if err != nil {
			return 0, err
		}
		totalMinutes += hours * 60
	}

	window, open, err = c.DayWindow(last, exceptions)
	if err != nil {
		return 0, err
	}
	if open {
		to := window.Close
		if end.Before(to) {
			to = end
		}
		if to.After(window.Open) {
			totalMinutes += to.Sub(window.Open).Minutes()
		}
	}

	return totalMinutes / 60, nil
}

func (c *Calendar) middleDayHours(day time.Time, exceptions ExceptionSet) (float64, error) {
	if ex, found := exceptions.Lookup(day); found {
		switch ex.Kind {
		case domain.ExceptionKindHoliday:
			return 0, nil
		case domain.ExceptionKindHalfDay:
			return ex.WorkingHours, nil
		default:
			return 0, fmt.Errorf("%w: unknown kind %q on %s", ErrMalformedException, ex.Kind, ex.Date)
		}
	}
	if !c.profile.IsWorkingDay(day.Weekday()) {
		return 0, nil
	}
	return c.FullDayMinutes() / 60, nil
}

// ElapsedWorkingMinutes is the profile-optional entry point: a nil profile
// falls back to raw wall-clock minutes between the instants, covering SLA
// configurations that never defined working hours.
func ElapsedWorkingMinutes(start, end time.Time, profile *domain.WorkingHoursProfile, exceptions ExceptionSet) (float64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, fmt.Errorf("%w: start and end instants required", ErrInvalidInput)
	}
	if !end.After(start) {
		return 0, nil
	}
	if profile == nil {
		return end.Sub(start).Minutes(), nil
	}
	cal, err := NewCalendar(profile)
	if err != nil {
		return 0, err
	}
	return cal.ElapsedWorkingMinutes(start, end, exceptions)
}

// WindowHours computes the span in hours between two times of day. The admin
// surface uses it to derive an exception's stored WorkingHours from its
// open/close pair.
func WindowHours(open, closeAt string) (float64, error) {
	openTod, err := parseTimeOfDay(open)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	closeTod, err := parseTimeOfDay(closeAt)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if closeTod.minutes() <= openTod.minutes() {
		return 0, fmt.Errorf("%w: close %q not after open %q", ErrInvalidInput, closeAt, open)
	}
	return (closeTod.minutes() - openTod.minutes()) / 60, nil
}

func midnight(at time.Time, loc *time.Location) time.Time {
	at = at.In(loc)
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc)
}

func nextMidnight(at time.Time, loc *time.Location) time.Time {
	at = at.In(loc)
	return time.Date(at.Year(), at.Month(), at.Day()+1, 0, 0, 0, 0, loc)
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}
