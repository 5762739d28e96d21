package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/persistence"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/slaclock"
)

// SLAService binds the working-hours engine to the ticket lifecycle. It
// resolves the applicable profile, prefetches the exception snapshot for the
// affected date span in a single query, and runs the pure calendar
// computations on top.
type SLAService struct {
	profiles   repository.WorkingHoursProfileRepository
	exceptions repository.CalendarExceptionRepository
	cache      *persistence.Redis
	cfg        config.SLAConfig
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	ProfileRepo   repository.WorkingHoursProfileRepository
	ExceptionRepo repository.CalendarExceptionRepository
	Cache         *persistence.Redis
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// Deadlines carries the due instants computed for a new ticket.
type Deadlines struct {
	FirstResponseDueAt time.Time
	ResolutionDueAt    time.Time
}

// NewSLAService constructs the service.
func NewSLAService(cfg config.SLAConfig, deps SLADependencies) *SLAService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{
		profiles:   deps.ProfileRepo,
		exceptions: deps.ExceptionRepo,
		cache:      deps.Cache,
		cfg:        cfg,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// ComputeDeadlines advances the priority's response and resolution targets
// from start through the applicable working-hours calendar. When no profile
// is configured anywhere (neither on the priority nor as system default) the
// ticket simply gets no deadlines; that configuration is a caller decision.
func (s *SLAService) ComputeDeadlines(ctx context.Context, start time.Time, priority *domain.Priority) (*Deadlines, error) {
	profile, err := s.resolveProfile(ctx, priority.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	cal, err := slaclock.NewCalendar(profile)
	if err != nil {
		return nil, err
	}
	cal.WithHorizon(s.cfg.LookaheadDays)

	snapshot, err := s.exceptionSnapshot(ctx, start, s.lookaheadDays())
	if err != nil {
		return nil, err
	}

	responseDue, err := cal.Advance(start, float64(priority.ResponseTargetMinutes), snapshot)
	if err != nil {
		return nil, fmt.Errorf("response deadline: %w", err)
	}
	resolutionDue, err := cal.Advance(start, float64(priority.ResolutionTargetMinutes), snapshot)
	if err != nil {
		return nil, fmt.Errorf("resolution deadline: %w", err)
	}
	s.metrics.RecordSLAComputation("advance")

	return &Deadlines{FirstResponseDueAt: responseDue, ResolutionDueAt: resolutionDue}, nil
}

// EvaluateCompliance measures the working minutes actually spent between two
// instants and compares them against the target with at-or-under semantics.
// Without a configured profile the measurement falls back to raw wall-clock
// minutes.
func (s *SLAService) EvaluateCompliance(ctx context.Context, start, end time.Time, profileID *string, targetMinutes int) (float64, bool, error) {
	profile, err := s.resolveProfile(ctx, profileID)
	if err != nil {
		return 0, false, err
	}

	var snapshot slaclock.ExceptionSet
	if profile != nil {
		days := int(end.Sub(start).Hours()/24) + 2
		snapshot, err = s.exceptionSnapshot(ctx, start, days)
		if err != nil {
			return 0, false, err
		}
	}

	minutes, err := slaclock.ElapsedWorkingMinutes(start, end, profile, snapshot)
	if err != nil {
		return 0, false, err
	}
	s.metrics.RecordSLAComputation("elapsed")
	return minutes, minutes <= float64(targetMinutes), nil
}

// PreviewDeadline exposes a single forward advance for the admin preview
// endpoint: start plus targetMinutes of working time under the given (or
// default) profile.
func (s *SLAService) PreviewDeadline(ctx context.Context, start time.Time, targetMinutes float64, profileID *string) (time.Time, error) {
	profile, err := s.requireProfile(ctx, profileID)
	if err != nil {
		return time.Time{}, err
	}
	cal, err := slaclock.NewCalendar(profile)
	if err != nil {
		return time.Time{}, err
	}
	cal.WithHorizon(s.cfg.LookaheadDays)

	snapshot, err := s.exceptionSnapshot(ctx, start, s.lookaheadDays())
	if err != nil {
		return time.Time{}, err
	}
	due, err := cal.Advance(start, targetMinutes, snapshot)
	if err != nil {
		return time.Time{}, err
	}
	s.metrics.RecordSLAComputation("advance")
	return due, nil
}

// WorkingHoursReport totals exception-aware working hours between two
// instants for reporting.
func (s *SLAService) WorkingHoursReport(ctx context.Context, start, end time.Time, profileID *string) (float64, error) {
	profile, err := s.requireProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}
	cal, err := slaclock.NewCalendar(profile)
	if err != nil {
		return 0, err
	}

	days := int(end.Sub(start).Hours()/24) + 2
	snapshot, err := s.exceptionSnapshot(ctx, start, days)
	if err != nil {
		return 0, err
	}
	hours, err := cal.WorkingHoursBetween(start, end, snapshot)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordSLAComputation("working_hours")
	return hours, nil
}

// resolveProfile loads the profile by id, or the system default when id is
// nil. A missing default resolves to nil rather than an error.
func (s *SLAService) resolveProfile(ctx context.Context, profileID *string) (*domain.WorkingHoursProfile, error) {
	if profileID != nil {
		return s.cachedProfile(ctx, "sla:profile:"+*profileID, func() (*domain.WorkingHoursProfile, error) {
			return s.profiles.GetByID(ctx, *profileID)
		})
	}
	profile, err := s.cachedProfile(ctx, "sla:profile:default", func() (*domain.WorkingHoursProfile, error) {
		return s.profiles.GetDefault(ctx)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *SLAService) requireProfile(ctx context.Context, profileID *string) (*domain.WorkingHoursProfile, error) {
	profile, err := s.resolveProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: no working-hours profile configured", slaclock.ErrInvalidInput)
	}
	return profile, nil
}

func (s *SLAService) cachedProfile(ctx context.Context, key string, load func() (*domain.WorkingHoursProfile, error)) (*domain.WorkingHoursProfile, error) {
	if raw, ok := s.cache.GetString(ctx, key); ok {
		var profile domain.WorkingHoursProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			return &profile, nil
		}
	}
	profile, err := load()
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(profile); err == nil {
		if err := s.cache.SetString(ctx, key, string(encoded), s.cfg.CacheTTL()); err != nil {
			s.logger.Debug("profile cache write failed", zap.Error(err))
		}
	}
	return profile, nil
}

// exceptionSnapshot prefetches all exceptions covering days calendar days
// from start in one range query. The duration walks consult only this
// immutable snapshot afterwards.
func (s *SLAService) exceptionSnapshot(ctx context.Context, start time.Time, days int) (slaclock.ExceptionSet, error) {
	if days < 1 {
		days = 1
	}
	from := start.AddDate(0, 0, -1).Format("2006-01-02")
	to := start.AddDate(0, 0, days).Format("2006-01-02")

	key := "sla:exceptions:" + from + ":" + to
	if raw, ok := s.cache.GetString(ctx, key); ok {
		var rows []domain.CalendarException
		if err := json.Unmarshal([]byte(raw), &rows); err == nil {
			return slaclock.NewExceptionSet(rows), nil
		}
	}

	rows, err := s.exceptions.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(rows); err == nil {
		if err := s.cache.SetString(ctx, key, string(encoded), s.cfg.CacheTTL()); err != nil {
			s.logger.Debug("exception cache write failed", zap.Error(err))
		}
	}
	return slaclock.NewExceptionSet(rows), nil
}

func (s *SLAService) lookaheadDays() int {
	if s.cfg.LookaheadDays > 0 {
		return s.cfg.LookaheadDays
	}
	return slaclock.DefaultHorizonDays
}
