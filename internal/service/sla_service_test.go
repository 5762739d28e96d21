package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/slaclock"
)

type fakeProfileRepo struct {
	profiles map[string]domain.WorkingHoursProfile
}

func (f *fakeProfileRepo) Create(_ context.Context, profile *domain.WorkingHoursProfile) error {
	f.profiles[profile.ID] = *profile
	return nil
}

func (f *fakeProfileRepo) Update(_ context.Context, profile *domain.WorkingHoursProfile) error {
	if _, ok := f.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.profiles[profile.ID] = *profile
	return nil
}

func (f *fakeProfileRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.WorkingHoursProfile, error) {
	profile, ok := f.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &profile, nil
}

func (f *fakeProfileRepo) GetDefault(context.Context) (*domain.WorkingHoursProfile, error) {
	for _, profile := range f.profiles {
		if profile.IsDefault {
			p := profile
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfileRepo) List(context.Context) ([]domain.WorkingHoursProfile, error) {
	var result []domain.WorkingHoursProfile
	for _, profile := range f.profiles {
		result = append(result, profile)
	}
	return result, nil
}

func (f *fakeProfileRepo) SetDefault(_ context.Context, id string) error {
	if _, ok := f.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	for key, profile := range f.profiles {
		profile.IsDefault = key == id
		f.profiles[key] = profile
	}
	return nil
}

type fakeExceptionRepo struct {
	rows []domain.CalendarException
}

func (f *fakeExceptionRepo) Create(_ context.Context, ex *domain.CalendarException) error {
	f.rows = append(f.rows, *ex)
	return nil
}

func (f *fakeExceptionRepo) Update(context.Context, *domain.CalendarException) error { return nil }
func (f *fakeExceptionRepo) Delete(context.Context, string) error                    { return nil }

func (f *fakeExceptionRepo) GetByID(context.Context, string) (*domain.CalendarException, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeExceptionRepo) ListRange(_ context.Context, from, to string) ([]domain.CalendarException, error) {
	var result []domain.CalendarException
	for _, row := range f.rows {
		if row.Date >= from && row.Date <= to {
			result = append(result, row)
		}
	}
	return result, nil
}

func newTestSLAService(profiles map[string]domain.WorkingHoursProfile, exceptions []domain.CalendarException) *SLAService {
	return NewSLAService(
		config.SLAConfig{LookaheadDays: 60},
		SLADependencies{
			ProfileRepo:   &fakeProfileRepo{profiles: profiles},
			ExceptionRepo: &fakeExceptionRepo{rows: exceptions},
		},
	)
}

func utcProfile(id string, isDefault bool) domain.WorkingHoursProfile {
	return domain.WorkingHoursProfile{
		ID:       id,
		Name:     "business hours " + id,
		Timezone: "UTC",
		WorkingDaysMask: 1<<uint(time.Monday) | 1<<uint(time.Tuesday) |
			1<<uint(time.Wednesday) | 1<<uint(time.Thursday) | 1<<uint(time.Friday),
		DailyStart: "09:00",
		DailyEnd:   "17:00",
		IsDefault:  isDefault,
	}
}

func TestComputeDeadlinesUsesPriorityProfile(t *testing.T) {
	profileID := "p1"
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{
		profileID: utcProfile(profileID, false),
	}, nil)
	priority := &domain.Priority{
		ProfileID:               &profileID,
		ResponseTargetMinutes:   120,
		ResolutionTargetMinutes: 480,
	}

	// Monday 10:00 UTC.
	start := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	deadlines, err := svc.ComputeDeadlines(context.Background(), start, priority)
	require.NoError(t, err)
	require.NotNil(t, deadlines)

	assert.Equal(t, time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC), deadlines.FirstResponseDueAt.UTC())
	// Eight hours of work: seven remain on Monday, the last lands Tuesday 10:00.
	assert.Equal(t, time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC), deadlines.ResolutionDueAt.UTC())
}

func TestComputeDeadlinesFallsBackToDefaultProfile(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{
		"def": utcProfile("def", true),
	}, nil)
	priority := &domain.Priority{
		ResponseTargetMinutes:   60,
		ResolutionTargetMinutes: 60,
	}

	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	deadlines, err := svc.ComputeDeadlines(context.Background(), start, priority)
	require.NoError(t, err)
	require.NotNil(t, deadlines)
	assert.Equal(t, time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC), deadlines.FirstResponseDueAt.UTC())
}

func TestComputeDeadlinesWithoutAnyProfile(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{}, nil)
	priority := &domain.Priority{ResponseTargetMinutes: 60, ResolutionTargetMinutes: 120}

	deadlines, err := svc.ComputeDeadlines(context.Background(), time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), priority)
	require.NoError(t, err)
	assert.Nil(t, deadlines)
}

func TestComputeDeadlinesSkipsHoliday(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{
		"def": utcProfile("def", true),
	}, []domain.CalendarException{
		{Date: "2024-07-02", Kind: domain.ExceptionKindHoliday},
	})
	priority := &domain.Priority{
		ResponseTargetMinutes:   480,
		ResolutionTargetMinutes: 600,
	}

	// Monday 16:00 leaves one hour; Tuesday is a holiday, so the remaining
	// seven land on Wednesday.
	start := time.Date(2024, 7, 1, 16, 0, 0, 0, time.UTC)
	deadlines, err := svc.ComputeDeadlines(context.Background(), start, priority)
	require.NoError(t, err)
	require.NotNil(t, deadlines)
	assert.Equal(t, time.Date(2024, 7, 3, 16, 0, 0, 0, time.UTC), deadlines.FirstResponseDueAt.UTC())
}

func TestEvaluateComplianceWallClockFallback(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{}, nil)

	start := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	minutes, met, err := svc.EvaluateCompliance(context.Background(), start, end, nil, 120)
	require.NoError(t, err)
	assert.InDelta(t, 90, minutes, 1e-9)
	assert.True(t, met)

	minutes, met, err = svc.EvaluateCompliance(context.Background(), start, end, nil, 60)
	require.NoError(t, err)
	assert.InDelta(t, 90, minutes, 1e-9)
	assert.False(t, met)
}

func TestEvaluateComplianceCountsOnlyWorkingMinutes(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{
		"def": utcProfile("def", true),
	}, nil)

	// Friday 16:00 through Monday 10:00 is one hour Friday plus one Monday.
	start := time.Date(2024, 7, 5, 16, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 8, 10, 0, 0, 0, time.UTC)

	minutes, met, err := svc.EvaluateCompliance(context.Background(), start, end, nil, 120)
	require.NoError(t, err)
	assert.InDelta(t, 120, minutes, 1e-9)
	assert.True(t, met)
}

func TestPreviewDeadlineRequiresProfile(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{}, nil)

	_, err := svc.PreviewDeadline(context.Background(), time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), 60, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, slaclock.ErrInvalidInput))
}

func TestWorkingHoursReportAcrossHoliday(t *testing.T) {
	svc := newTestSLAService(map[string]domain.WorkingHoursProfile{
		"def": utcProfile("def", true),
	}, []domain.CalendarException{
		{Date: "2024-07-03", Kind: domain.ExceptionKindHoliday},
	})

	// Monday 09:00 through Friday 17:00 with Wednesday off: four full days.
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 5, 17, 0, 0, 0, time.UTC)

	hours, err := svc.WorkingHoursReport(context.Background(), start, end, nil)
	require.NoError(t, err)
	assert.InDelta(t, 32, hours, 1e-9)
}
