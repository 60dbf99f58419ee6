package dashboardHandler

import (
	"time"

	dashboardService "PPEGuard/internal/api/dashboard/service"
	"PPEGuard/internal/entity"
	"PPEGuard/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	dashboardService dashboardService.IDashboardService
	loc              *time.Location
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	dashboardService dashboardService.IDashboardService,
	loc *time.Location,
) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		dashboardService: dashboardService,
		loc:              loc,
	}
}

func (h *DashboardHandler) Start(srv fiber.Router) {
	dashboard := srv.Group("/dashboard", h.middleware.NewTokenMiddleware)

	company := h.middleware.RequireRole(entity.RoleCompany)
	dashboard.Get("/daily", company, h.GetDaily)
	dashboard.Get("/weekly", company, h.GetWeekly)
	dashboard.Get("/monthly", company, h.GetMonthly)

	dashboard.Get("/employee", h.middleware.RequireRole(entity.RoleEmployee), h.GetEmployee)
}

// date parses an optional YYYY-MM-DD value. The zero time means "today" to
// the service.
func (h *DashboardHandler) date(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, value, h.loc)
}
