package slaclock

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

const weekdayMask = uint8(1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday)

// weekdayProfile is Mon-Fri 10:00-18:00 in New York, eight hours a day.
func weekdayProfile() *domain.WorkingHoursProfile {
	return &domain.WorkingHoursProfile{
		ID:              "prof-1",
		Name:            "weekday",
		Timezone:        "America/New_York",
		WorkingDaysMask: weekdayMask,
		DailyStart:      "10:00:00",
		DailyEnd:        "18:00:00",
	}
}

func mustCalendar(t *testing.T, profile *domain.WorkingHoursProfile) *Calendar {
	t.Helper()
	cal, err := NewCalendar(profile)
	require.NoError(t, err)
	return cal
}

func strPtr(s string) *string {
	return &s
}

func holiday(date string) domain.CalendarException {
	return domain.CalendarException{Date: date, Kind: domain.ExceptionKindHoliday}
}

func halfDay(date, open, closeAt string, hours float64) domain.CalendarException {
	return domain.CalendarException{
		Date:         date,
		Kind:         domain.ExceptionKindHalfDay,
		OpenTime:     strPtr(open),
		CloseTime:    strPtr(closeAt),
		WorkingHours: hours,
	}
}

func TestAdvanceRollsIntoNextDay(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	// Mon 2024-07-01 16:00 + 3h: two hours left on Monday, one into Tuesday.
	start := time.Date(2024, 7, 1, 16, 0, 0, 0, loc)
	due, err := cal.Advance(start, 180, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 2, 11, 0, 0, 0, loc), due)
}

func TestAdvanceZeroReturnsStart(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	start := time.Date(2024, 7, 6, 3, 30, 0, 0, time.UTC) // Saturday, outside any window

	due, err := cal.Advance(start, 0, nil)
	require.NoError(t, err)
	assert.True(t, due.Equal(start))
}

func TestAdvanceBeforeOpenClampsToWindow(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	start := time.Date(2024, 7, 1, 6, 0, 0, 0, loc)
	due, err := cal.Advance(start, 60, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 11, 0, 0, 0, loc), due)
}

func TestAdvanceHalfDayRollsPastWeekend(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		halfDay("2024-07-05", "10:00", "13:00", 3),
	})

	// Fri 09:00 + 4h target with only 3h available Friday; Sat/Sun are masked
	// out, so the remainder lands Monday at 11:00.
	start := time.Date(2024, 7, 5, 9, 0, 0, 0, loc)
	due, err := cal.Advance(start, 240, exceptions)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 8, 11, 0, 0, 0, loc), due)
}

func TestAdvanceSkipsMaskedWeekday(t *testing.T) {
	// Regression for the mask-ignoring variants: a weekday absent from the
	// mask must be skipped even without an exception row.
	profile := weekdayProfile()
	profile.WorkingDaysMask &^= 1 << time.Wednesday
	cal := mustCalendar(t, profile)
	loc := cal.Location()

	start := time.Date(2024, 7, 2, 17, 0, 0, 0, loc) // Tue 17:00
	due, err := cal.Advance(start, 120, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 4, 11, 0, 0, 0, loc), due) // Thu, not Wed
}

func TestAdvanceNegativeTarget(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	_, err := cal.Advance(time.Now(), -1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceMissingStart(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	_, err := cal.Advance(time.Time{}, 60, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceUnreachable(t *testing.T) {
	profile := weekdayProfile()
	profile.WorkingDaysMask = 0
	cal := mustCalendar(t, profile).WithHorizon(30)

	_, err := cal.Advance(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC), 60, nil)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestAdvanceResultInProfileZone(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())

	start := time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC) // Mon 16:00 in New York
	due, err := cal.Advance(start, 180, nil)
	require.NoError(t, err)
	assert.Equal(t, cal.Location(), due.Location())
	assert.Equal(t, "2024-07-02T11:00:00-04:00", FormatInstant(due))
}

func TestElapsedAcrossHoliday(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		holiday("2024-07-03"),
	})

	// Tue 09:00 -> Thu 11:00 with Wednesday a holiday:
	// Tue 10:00-18:00 (8h) + Wed 0h + Thu 10:00-11:00 (1h) = 540 minutes.
	start := time.Date(2024, 7, 2, 9, 0, 0, 0, loc)
	end := time.Date(2024, 7, 4, 11, 0, 0, 0, loc)
	minutes, err := cal.ElapsedWorkingMinutes(start, end, exceptions)
	require.NoError(t, err)
	assert.InDelta(t, 540, minutes, 1e-9)
}

func TestElapsedReversedRangeIsZero(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	start := time.Date(2024, 7, 2, 12, 0, 0, 0, loc)
	minutes, err := cal.ElapsedWorkingMinutes(start, start.Add(-time.Hour), nil)
	require.NoError(t, err)
	assert.Zero(t, minutes)
}

func TestElapsedMaskedWeekdayContributesZero(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	// Sat 00:00 -> Sun 23:59 lies entirely outside the mask.
	start := time.Date(2024, 7, 6, 0, 0, 0, 0, loc)
	end := time.Date(2024, 7, 7, 23, 59, 0, 0, loc)
	minutes, err := cal.ElapsedWorkingMinutes(start, end, nil)
	require.NoError(t, err)
	assert.Zero(t, minutes)
}

func TestElapsedFractionalMinutes(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	start := time.Date(2024, 7, 1, 10, 0, 0, 0, loc)
	end := start.Add(90 * time.Second)
	minutes, err := cal.ElapsedWorkingMinutes(start, end, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, minutes, 1e-9)
}

func TestElapsedNilProfileFallsBackToWallClock(t *testing.T) {
	start := time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC) // weekend, would be 0 with a profile
	end := start.Add(36 * time.Hour)

	minutes, err := ElapsedWorkingMinutes(start, end, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 36*60, minutes, 1e-9)
}

func TestDayWindowHolidayOverridesMask(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		holiday("2024-07-01"), // a Monday inside the mask
	})

	_, open, err := cal.DayWindow(time.Date(2024, 7, 1, 12, 0, 0, 0, loc), exceptions)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestDayWindowHalfDayOverridesProfileTimes(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		halfDay("2024-07-01", "09:00", "12:30", 3.5),
	})

	window, open, err := cal.DayWindow(time.Date(2024, 7, 1, 0, 0, 0, 0, loc), exceptions)
	require.NoError(t, err)
	require.True(t, open)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, loc), window.Open)
	assert.Equal(t, time.Date(2024, 7, 1, 12, 30, 0, 0, loc), window.Close)
}

func TestMalformedHalfDayErrorsOnlyWhenConsulted(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		{Date: "2024-07-10", Kind: domain.ExceptionKindHalfDay}, // open/close missing
	})

	// A query that never touches the bad date is unaffected.
	minutes, err := cal.ElapsedWorkingMinutes(
		time.Date(2024, 7, 1, 10, 0, 0, 0, loc),
		time.Date(2024, 7, 2, 18, 0, 0, 0, loc),
		exceptions,
	)
	require.NoError(t, err)
	assert.InDelta(t, 960, minutes, 1e-9)

	// Touching it surfaces the data-integrity error.
	_, err = cal.ElapsedWorkingMinutes(
		time.Date(2024, 7, 9, 10, 0, 0, 0, loc),
		time.Date(2024, 7, 11, 18, 0, 0, 0, loc),
		exceptions,
	)
	assert.ErrorIs(t, err, ErrMalformedException)
}

func TestWorkingHoursBetweenSameDay(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	hours, err := cal.WorkingHoursBetween(
		time.Date(2024, 7, 1, 9, 0, 0, 0, loc),
		time.Date(2024, 7, 1, 14, 0, 0, 0, loc),
		nil,
	)
	require.NoError(t, err)
	assert.InDelta(t, 4, hours, 1e-9) // clamped to 10:00-14:00
}

func TestWorkingHoursBetweenMultiDay(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		holiday("2024-07-03"),
		halfDay("2024-07-04", "10:00", "14:00", 4),
	})

	// Mon 12:00 -> Fri 12:00: Mon 6h + Tue 8h + Wed 0h + Thu 4h + Fri 2h.
	hours, err := cal.WorkingHoursBetween(
		time.Date(2024, 7, 1, 12, 0, 0, 0, loc),
		time.Date(2024, 7, 5, 12, 0, 0, 0, loc),
		exceptions,
	)
	require.NoError(t, err)
	assert.InDelta(t, 20, hours, 1e-9)
}

func TestWorkingHoursBetweenReversedRangeIsError(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	start := time.Date(2024, 7, 2, 12, 0, 0, 0, loc)
	_, err := cal.WorkingHoursBetween(start, start.Add(-time.Minute), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceElapsedRoundTrip(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()
	exceptions := NewExceptionSet([]domain.CalendarException{
		holiday("2024-07-04"),
		halfDay("2024-07-12", "10:00", "13:00", 3),
	})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		start := time.Date(2024, 7, 1, 0, 0, 0, 0, loc).
			Add(time.Duration(rng.Intn(14*24*60)) * time.Minute)
		target := float64(rng.Intn(5 * 8 * 60))

		due, err := cal.Advance(start, target, exceptions)
		require.NoError(t, err)

		elapsed, err := cal.ElapsedWorkingMinutes(start, due, exceptions)
		require.NoError(t, err)
		assert.InDelta(t, target, elapsed, 1e-6,
			"start=%s target=%v due=%s", FormatInstant(start), target, FormatInstant(due))
	}
}

// Middle days summed from the exceptions' stored WorkingHours must match the
// value obtained by recomputing every day from open/close times, i.e. the
// reporting total must agree with the elapsed-time walk.
func TestStoredHoursMatchRecomputation(t *testing.T) {
	cal := mustCalendar(t, weekdayProfile())
	loc := cal.Location()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		var rows []domain.CalendarException
		base := time.Date(2024, 7, 1, 0, 0, 0, 0, loc)
		for d := 0; d < 21; d++ {
			date := base.AddDate(0, 0, d).Format("2006-01-02")
			switch rng.Intn(4) {
			case 0:
				rows = append(rows, holiday(date))
			case 1:
				openHour := 9 + rng.Intn(3)
				closeHour := openHour + 1 + rng.Intn(4)
				rows = append(rows, halfDay(date,
					time.Date(0, 1, 1, openHour, 0, 0, 0, time.UTC).Format("15:04"),
					time.Date(0, 1, 1, closeHour, 0, 0, 0, time.UTC).Format("15:04"),
					float64(closeHour-openHour)))
			}
		}
		exceptions := NewExceptionSet(rows)

		start := base.Add(time.Duration(rng.Intn(24*60)) * time.Minute)
		end := base.AddDate(0, 0, 14+rng.Intn(7)).Add(time.Duration(rng.Intn(24*60)) * time.Minute)

		viaStored, err := cal.WorkingHoursBetween(start, end, exceptions)
		require.NoError(t, err)
		viaRecompute, err := cal.ElapsedWorkingMinutes(start, end, exceptions)
		require.NoError(t, err)
		assert.InDelta(t, viaRecompute/60, viaStored, 1e-6,
			"iteration %d start=%s end=%s", i, FormatInstant(start), FormatInstant(end))
	}
}

func TestNewCalendarValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.WorkingHoursProfile)
	}{
		{"bad timezone", func(p *domain.WorkingHoursProfile) { p.Timezone = "Mars/Olympus" }},
		{"bad daily start", func(p *domain.WorkingHoursProfile) { p.DailyStart = "25:99" }},
		{"empty window", func(p *domain.WorkingHoursProfile) { p.DailyEnd = p.DailyStart }},
		{"inverted window", func(p *domain.WorkingHoursProfile) { p.DailyStart, p.DailyEnd = p.DailyEnd, p.DailyStart }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := weekdayProfile()
			tt.mutate(profile)
			_, err := NewCalendar(profile)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
