package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/slaclock"
)

// CatalogService is the admin surface for categories and SLA priority tiers.
type CatalogService struct {
	categories repository.CategoryRepository
	priorities repository.PriorityRepository
	profiles   repository.WorkingHoursProfileRepository
}

// CategoryInput carries category create/update fields.
type CategoryInput struct {
	Name        string
	Description string
	IsActive    bool
}

// PriorityInput carries priority create/update fields.
type PriorityInput struct {
	Name                    string
	Level                   int
	ResponseTargetMinutes   int
	ResolutionTargetMinutes int
	ProfileID               *string
	IsActive                bool
}

// NewCatalogService constructs the service.
func NewCatalogService(categories repository.CategoryRepository, priorities repository.PriorityRepository, profiles repository.WorkingHoursProfileRepository) *CatalogService {
	return &CatalogService{categories: categories, priorities: priorities, profiles: profiles}
}

// CreateCategory stores a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: category name required", slaclock.ErrInvalidInput)
	}
	category := &domain.Category{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    input.IsActive,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory stores changed category fields.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: category name required", slaclock.ErrInvalidInput)
	}
	category.Name = input.Name
	category.Description = input.Description
	category.IsActive = input.IsActive
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns active categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.ListActive(ctx)
}

// CreatePriority validates targets and stores a new SLA tier.
func (s *CatalogService) CreatePriority(ctx context.Context, input PriorityInput) (*domain.Priority, error) {
	if err := s.validatePriority(ctx, input); err != nil {
		return nil, err
	}
	priority := &domain.Priority{
		Name:                    input.Name,
		Level:                   input.Level,
		ResponseTargetMinutes:   input.ResponseTargetMinutes,
		ResolutionTargetMinutes: input.ResolutionTargetMinutes,
		ProfileID:               input.ProfileID,
		IsActive:                input.IsActive,
	}
	if err := s.priorities.Create(ctx, priority); err != nil {
		return nil, err
	}
	return priority, nil
}

// UpdatePriority validates targets and stores changed fields.
func (s *CatalogService) UpdatePriority(ctx context.Context, id string, input PriorityInput) (*domain.Priority, error) {
	priority, err := s.priorities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validatePriority(ctx, input); err != nil {
		return nil, err
	}
	priority.Name = input.Name
	priority.Level = input.Level
	priority.ResponseTargetMinutes = input.ResponseTargetMinutes
	priority.ResolutionTargetMinutes = input.ResolutionTargetMinutes
	priority.ProfileID = input.ProfileID
	priority.IsActive = input.IsActive
	if err := s.priorities.Update(ctx, priority); err != nil {
		return nil, err
	}
	return priority, nil
}

// ListPriorities returns active priorities.
func (s *CatalogService) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	return s.priorities.ListActive(ctx)
}

func (s *CatalogService) validatePriority(ctx context.Context, input PriorityInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: priority name required", slaclock.ErrInvalidInput)
	}
	if input.ResponseTargetMinutes <= 0 || input.ResolutionTargetMinutes <= 0 {
		return fmt.Errorf("%w: SLA targets must be positive", slaclock.ErrInvalidInput)
	}
	if input.ResolutionTargetMinutes < input.ResponseTargetMinutes {
		return fmt.Errorf("%w: resolution target cannot precede response target", slaclock.ErrInvalidInput)
	}
	if input.ProfileID != nil {
		if _, err := s.profiles.GetByID(ctx, *input.ProfileID); err != nil {
			return err
		}
	}
	return nil
}
