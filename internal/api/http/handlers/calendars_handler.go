package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	"github.com/spec-kit/helpdesk-sla/internal/slaclock"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util"
)

// CalendarsHandler exposes admin endpoints for working-hours profiles,
// calendar exceptions and SLA previews.
type CalendarsHandler struct {
	calendars *service.CalendarService
	sla       *service.SLAService
}

// NewCalendarsHandler constructs handler.
func NewCalendarsHandler(calendars *service.CalendarService, sla *service.SLAService) *CalendarsHandler {
	return &CalendarsHandler{calendars: calendars, sla: sla}
}

// CreateProfile POST /admin/profiles.
func (h *CalendarsHandler) CreateProfile(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile, err := h.calendars.CreateProfile(c.Context(), profileInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": profileResponse(profile)})
}

// UpdateProfile PUT /admin/profiles/:id.
func (h *CalendarsHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile, err := h.calendars.UpdateProfile(c.Context(), c.Params("id"), profileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// DeleteProfile DELETE /admin/profiles/:id.
func (h *CalendarsHandler) DeleteProfile(c *fiber.Ctx) error {
	if err := h.calendars.DeleteProfile(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetProfile GET /admin/profiles/:id.
func (h *CalendarsHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.calendars.GetProfile(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// ListProfiles GET /admin/profiles.
func (h *CalendarsHandler) ListProfiles(c *fiber.Ctx) error {
	profiles, err := h.calendars.ListProfiles(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, profileResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetDefaultProfile POST /admin/profiles/:id/default.
func (h *CalendarsHandler) SetDefaultProfile(c *fiber.Ctx) error {
	if err := h.calendars.SetDefaultProfile(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateException POST /admin/exceptions.
func (h *CalendarsHandler) CreateException(c *fiber.Ctx) error {
	var req dto.ExceptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ex, err := h.calendars.CreateException(c.Context(), exceptionInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": exceptionResponse(ex)})
}

// UpdateException PUT /admin/exceptions/:id.
func (h *CalendarsHandler) UpdateException(c *fiber.Ctx) error {
	var req dto.ExceptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ex, err := h.calendars.UpdateException(c.Context(), c.Params("id"), exceptionInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": exceptionResponse(ex)})
}

// DeleteException DELETE /admin/exceptions/:id.
func (h *CalendarsHandler) DeleteException(c *fiber.Ctx) error {
	if err := h.calendars.DeleteException(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListExceptions GET /admin/exceptions?from=&to=.
func (h *CalendarsHandler) ListExceptions(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return apperrors.NewValidationError("from and to query parameters required", nil)
	}
	exceptions, err := h.calendars.ListExceptions(c.Context(), from, to)
	if err != nil {
		return err
	}
	items := make([]dto.ExceptionResponse, 0, len(exceptions))
	for i := range exceptions {
		items = append(items, exceptionResponse(&exceptions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// PreviewSLA POST /admin/sla/preview.
func (h *CalendarsHandler) PreviewSLA(c *fiber.Ctx) error {
	var req dto.SLAPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return apperrors.NewValidationError("start must be RFC3339", nil)
	}
	if req.TargetMinutes < 0 {
		return apperrors.NewValidationError("target_minutes must be non-negative", nil)
	}
	due, err := h.sla.PreviewDeadline(c.Context(), start, req.TargetMinutes, req.ProfileID)
	if err != nil {
		return err
	}
	elapsed, _, err := h.sla.EvaluateCompliance(c.Context(), start, due, req.ProfileID, int(req.TargetMinutes))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SLAPreviewResponse{
		DueAt:          slaclock.FormatInstant(due),
		ElapsedMinutes: elapsed,
	}})
}

// WorkingHoursReport POST /admin/sla/working-hours.
func (h *CalendarsHandler) WorkingHoursReport(c *fiber.Ctx) error {
	var req dto.WorkingHoursReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return apperrors.NewValidationError("start must be RFC3339", nil)
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return apperrors.NewValidationError("end must be RFC3339", nil)
	}
	hours, err := h.sla.WorkingHoursReport(c.Context(), start, end, req.ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkingHoursReportResponse{Hours: hours}})
}

func profileInput(req dto.ProfileRequest) service.ProfileInput {
	return service.ProfileInput{
		Name:            req.Name,
		Timezone:        req.Timezone,
		WorkingDaysMask: req.WorkingDaysMask,
		DailyStart:      req.DailyStart,
		DailyEnd:        req.DailyEnd,
	}
}

func exceptionInput(req dto.ExceptionRequest) service.ExceptionInput {
	return service.ExceptionInput{
		Date:      req.Date,
		Kind:      req.Kind,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
	}
}

func profileResponse(profile *domain.WorkingHoursProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:              profile.ID,
		Name:            profile.Name,
		Timezone:        profile.Timezone,
		WorkingDaysMask: profile.WorkingDaysMask,
		DailyStart:      profile.DailyStart,
		DailyEnd:        profile.DailyEnd,
		IsDefault:       profile.IsDefault,
		CreatedAt:       profile.CreatedAt,
		UpdatedAt:       profile.UpdatedAt,
	}
}

func exceptionResponse(ex *domain.CalendarException) dto.ExceptionResponse {
	return dto.ExceptionResponse{
		ID:           ex.ID,
		Date:         ex.Date,
		Kind:         ex.Kind,
		OpenTime:     ex.OpenTime,
		CloseTime:    ex.CloseTime,
		WorkingHours: ex.WorkingHours,
		CreatedAt:    ex.CreatedAt,
		UpdatedAt:    ex.UpdatedAt,
	}
}
