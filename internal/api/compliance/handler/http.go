package complianceHandler

import (
	"time"

	complianceService "PPEGuard/internal/api/compliance/service"
	"PPEGuard/internal/entity"
	"PPEGuard/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ComplianceHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	complianceService complianceService.IComplianceService
	loc               *time.Location
	clock             func() time.Time
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	complianceService complianceService.IComplianceService,
	loc *time.Location,
) *ComplianceHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ComplianceHandler{
		log:               log,
		validator:         validate,
		middleware:        middleware,
		complianceService: complianceService,
		loc:               loc,
		clock:             time.Now,
	}
}

func (h *ComplianceHandler) Start(srv fiber.Router) {
	attendance := srv.Group("/attendance", h.middleware.NewTokenMiddleware, h.middleware.RequireRole(entity.RoleCompany))

	attendance.Post("/finalize", h.FinalizeAttendance)
	attendance.Get("/today", h.GetTodayAttendance)
}

// day resolves an optional YYYY-MM-DD value, defaulting to today.
func (h *ComplianceHandler) day(value string) (time.Time, error) {
	if value == "" {
		return h.clock().In(h.loc), nil
	}
	return time.ParseInLocation(time.DateOnly, value, h.loc)
}
