package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/slaclock"
)

// CalendarService is the admin surface for working-hours profiles and
// calendar exceptions. Every write is validated through the same engine that
// later consumes the data, so a profile or exception that saves is a profile
// or exception the duration walks can use.
type CalendarService struct {
	profiles   repository.WorkingHoursProfileRepository
	exceptions repository.CalendarExceptionRepository
}

// ProfileInput carries profile create/update fields.
type ProfileInput struct {
	Name            string
	Timezone        string
	WorkingDaysMask uint8
	DailyStart      string
	DailyEnd        string
}

// ExceptionInput carries exception create/update fields.
type ExceptionInput struct {
	Date      string
	Kind      domain.ExceptionKind
	OpenTime  *string
	CloseTime *string
}

// NewCalendarService constructs the service.
func NewCalendarService(profiles repository.WorkingHoursProfileRepository, exceptions repository.CalendarExceptionRepository) *CalendarService {
	return &CalendarService{profiles: profiles, exceptions: exceptions}
}

// CreateProfile validates and stores a new working-hours profile.
func (s *CalendarService) CreateProfile(ctx context.Context, input ProfileInput) (*domain.WorkingHoursProfile, error) {
	profile := &domain.WorkingHoursProfile{
		Name:            input.Name,
		Timezone:        input.Timezone,
		WorkingDaysMask: input.WorkingDaysMask,
		DailyStart:      input.DailyStart,
		DailyEnd:        input.DailyEnd,
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile validates and stores changed profile fields.
func (s *CalendarService) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*domain.WorkingHoursProfile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile.Name = input.Name
	profile.Timezone = input.Timezone
	profile.WorkingDaysMask = input.WorkingDaysMask
	profile.DailyStart = input.DailyStart
	profile.DailyEnd = input.DailyEnd
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a profile. The system default cannot be deleted;
// promote another profile first.
func (s *CalendarService) DeleteProfile(ctx context.Context, id string) error {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if profile.IsDefault {
		return fmt.Errorf("%w: cannot delete the default profile", slaclock.ErrInvalidInput)
	}
	return s.profiles.Delete(ctx, id)
}

// GetProfile fetches one profile.
func (s *CalendarService) GetProfile(ctx context.Context, id string) (*domain.WorkingHoursProfile, error) {
	return s.profiles.GetByID(ctx, id)
}

// ListProfiles returns all profiles.
func (s *CalendarService) ListProfiles(ctx context.Context) ([]domain.WorkingHoursProfile, error) {
	return s.profiles.List(ctx)
}

// SetDefaultProfile promotes a profile to system default.
func (s *CalendarService) SetDefaultProfile(ctx context.Context, id string) error {
	return s.profiles.SetDefault(ctx, id)
}

// CreateException validates and stores a calendar-date override. Half days
// must carry a valid open/close window and get their working-hours figure
// derived from it; holidays carry neither times nor hours.
func (s *CalendarService) CreateException(ctx context.Context, input ExceptionInput) (*domain.CalendarException, error) {
	ex := &domain.CalendarException{
		Date:      input.Date,
		Kind:      input.Kind,
		OpenTime:  input.OpenTime,
		CloseTime: input.CloseTime,
	}
	if err := normalizeException(ex); err != nil {
		return nil, err
	}
	if err := s.exceptions.Create(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

// UpdateException validates and stores changed exception fields.
func (s *CalendarService) UpdateException(ctx context.Context, id string, input ExceptionInput) (*domain.CalendarException, error) {
	ex, err := s.exceptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ex.Date = input.Date
	ex.Kind = input.Kind
	ex.OpenTime = input.OpenTime
	ex.CloseTime = input.CloseTime
	if err := normalizeException(ex); err != nil {
		return nil, err
	}
	if err := s.exceptions.Update(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

// DeleteException removes an exception.
func (s *CalendarService) DeleteException(ctx context.Context, id string) error {
	return s.exceptions.Delete(ctx, id)
}

// ListExceptions returns exceptions inside an inclusive date range.
func (s *CalendarService) ListExceptions(ctx context.Context, from, to string) ([]domain.CalendarException, error) {
	if _, err := time.Parse("2006-01-02", from); err != nil {
		return nil, fmt.Errorf("%w: invalid from date %q", slaclock.ErrInvalidInput, from)
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		return nil, fmt.Errorf("%w: invalid to date %q", slaclock.ErrInvalidInput, to)
	}
	if to < from {
		return nil, fmt.Errorf("%w: range end precedes start", slaclock.ErrInvalidInput)
	}
	return s.exceptions.ListRange(ctx, from, to)
}

// validateProfile runs the profile through calendar construction, which
// checks the timezone, the time-of-day formats and start<end.
func validateProfile(profile *domain.WorkingHoursProfile) error {
	if profile.Name == "" {
		return fmt.Errorf("%w: profile name required", slaclock.ErrInvalidInput)
	}
	_, err := slaclock.NewCalendar(profile)
	return err
}

func normalizeException(ex *domain.CalendarException) error {
	if _, err := time.Parse("2006-01-02", ex.Date); err != nil {
		return fmt.Errorf("%w: invalid exception date %q", slaclock.ErrInvalidInput, ex.Date)
	}
	switch ex.Kind {
	case domain.ExceptionKindHoliday:
		ex.OpenTime = nil
		ex.CloseTime = nil
		ex.WorkingHours = 0
		return nil
	case domain.ExceptionKindHalfDay:
		if ex.OpenTime == nil || ex.CloseTime == nil {
			return fmt.Errorf("%w: half day requires open and close times", slaclock.ErrInvalidInput)
		}
		hours, err := slaclock.WindowHours(*ex.OpenTime, *ex.CloseTime)
		if err != nil {
			return err
		}
		ex.WorkingHours = hours
		return nil
	default:
		return fmt.Errorf("%w: unknown exception kind %q", slaclock.ErrInvalidInput, ex.Kind)
	}
}
