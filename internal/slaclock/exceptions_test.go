package slaclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func TestExceptionSetLookupByLocalDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	set := NewExceptionSet([]domain.CalendarException{holiday("2024-07-04")})

	// 03:00 UTC on the 5th is still the evening of the 4th in New York.
	utcInstant := time.Date(2024, 7, 5, 3, 0, 0, 0, time.UTC)
	_, found := set.Lookup(utcInstant)
	assert.False(t, found)
	_, found = set.Lookup(utcInstant.In(loc))
	assert.True(t, found)
}

func TestExceptionSetLastRowWinsPerDate(t *testing.T) {
	set := NewExceptionSet([]domain.CalendarException{
		holiday("2024-07-04"),
		halfDay("2024-07-04", "10:00", "12:00", 2),
	})

	ex, found := set.Lookup(time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC))
	require.True(t, found)
	assert.Equal(t, domain.ExceptionKindHalfDay, ex.Kind)
}

func TestExceptionSetEmpty(t *testing.T) {
	var set ExceptionSet
	_, found := set.Lookup(time.Now())
	assert.False(t, found)
}
