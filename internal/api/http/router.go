package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Calendars      *handlers.CalendarsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Auth.RegisterUser)
	authGroup.Post("/users/login", cfg.Auth.LoginUser)
	authGroup.Post("/staff/login", cfg.Auth.LoginStaff)

	// Catalog reads are open to any authenticated caller.
	catalog := app.Group("", cfg.AuthMiddleware.Handle)
	catalog.Get("/categories", cfg.Catalog.ListCategories)
	catalog.Get("/priorities", cfg.Catalog.ListPriorities)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/replies", cfg.Tickets.AddReply)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/tickets", cfg.StaffTickets.ListTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetTicket)
	staff.Post("/tickets/:id/replies", cfg.StaffTickets.AddReply)
	staff.Post("/tickets/:id/assign", cfg.StaffTickets.AssignTicket)
	staff.Post("/tickets/:id/resolve", cfg.StaffTickets.ResolveTicket)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/categories", cfg.Catalog.CreateCategory)
	admin.Put("/categories/:id", cfg.Catalog.UpdateCategory)
	admin.Post("/priorities", cfg.Catalog.CreatePriority)
	admin.Put("/priorities/:id", cfg.Catalog.UpdatePriority)

	admin.Get("/profiles", cfg.Calendars.ListProfiles)
	admin.Post("/profiles", cfg.Calendars.CreateProfile)
	admin.Get("/profiles/:id", cfg.Calendars.GetProfile)
	admin.Put("/profiles/:id", cfg.Calendars.UpdateProfile)
	admin.Delete("/profiles/:id", cfg.Calendars.DeleteProfile)
	admin.Post("/profiles/:id/default", cfg.Calendars.SetDefaultProfile)

	admin.Get("/exceptions", cfg.Calendars.ListExceptions)
	admin.Post("/exceptions", cfg.Calendars.CreateException)
	admin.Put("/exceptions/:id", cfg.Calendars.UpdateException)
	admin.Delete("/exceptions/:id", cfg.Calendars.DeleteException)

	admin.Post("/sla/preview", cfg.Calendars.PreviewSLA)
	admin.Post("/sla/working-hours", cfg.Calendars.WorkingHoursReport)
}
