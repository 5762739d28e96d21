package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util"
)

// CatalogHandler exposes category and priority endpoints. Listing is open to
// any authenticated caller; writes are admin-only via routing.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// ListCategories GET /categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory POST /admin/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.CreateCategory(c.Context(), categoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// UpdateCategory PUT /admin/categories/:id.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.UpdateCategory(c.Context(), c.Params("id"), categoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListPriorities GET /priorities.
func (h *CatalogHandler) ListPriorities(c *fiber.Ctx) error {
	priorities, err := h.service.ListPriorities(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.PriorityResponse, 0, len(priorities))
	for i := range priorities {
		items = append(items, priorityResponse(&priorities[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreatePriority POST /admin/priorities.
func (h *CatalogHandler) CreatePriority(c *fiber.Ctx) error {
	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	priority, err := h.service.CreatePriority(c.Context(), priorityInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": priorityResponse(priority)})
}

// UpdatePriority PUT /admin/priorities/:id.
func (h *CatalogHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	priority, err := h.service.UpdatePriority(c.Context(), c.Params("id"), priorityInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": priorityResponse(priority)})
}

func categoryInput(req dto.CategoryRequest) service.CategoryInput {
	return service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
}

func priorityInput(req dto.PriorityRequest) service.PriorityInput {
	return service.PriorityInput{
		Name:                    req.Name,
		Level:                   req.Level,
		ResponseTargetMinutes:   req.ResponseTargetMinutes,
		ResolutionTargetMinutes: req.ResolutionTargetMinutes,
		ProfileID:               req.ProfileID,
		IsActive:                req.IsActive,
	}
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func priorityResponse(priority *domain.Priority) dto.PriorityResponse {
	return dto.PriorityResponse{
		ID:                      priority.ID,
		Name:                    priority.Name,
		Level:                   priority.Level,
		ResponseTargetMinutes:   priority.ResponseTargetMinutes,
		ResolutionTargetMinutes: priority.ResolutionTargetMinutes,
		ProfileID:               priority.ProfileID,
		IsActive:                priority.IsActive,
		CreatedAt:               priority.CreatedAt,
		UpdatedAt:               priority.UpdatedAt,
	}
}
