package dashboardHandler

import (
	"context"
	"time"

	"PPEGuard/internal/api/dashboard"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/handlerUtil"
	jwtPkg "PPEGuard/pkg/jwt"
	"PPEGuard/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *DashboardHandler) GetDaily(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var query dashboard.DailyQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.Handle(ctx, requestID, dashboard.ErrInvalidPeriod, ctx.Path(), "parse_query")
	}

	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	day, err := h.date(query.Date)
	if err != nil {
		return errHandler.Handle(ctx, requestID, dashboard.ErrInvalidPeriod, ctx.Path(), "parse_date")
	}

	result, err := h.dashboardService.Daily(c, userData.OrganizationID, day)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "daily_dashboard")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *DashboardHandler) GetWeekly(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	anchor, topN, err := h.periodQuery(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_query")
	}

	result, err := h.dashboardService.Weekly(c, userData.OrganizationID, anchor, topN)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "weekly_dashboard")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *DashboardHandler) GetMonthly(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	anchor, topN, err := h.periodQuery(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_query")
	}

	result, err := h.dashboardService.Monthly(c, userData.OrganizationID, anchor, topN)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "monthly_dashboard")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *DashboardHandler) GetEmployee(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"email":      userData.Email,
	}).Debug("Processing employee dashboard request")

	result, err := h.dashboardService.Employee(c, userData)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "employee_dashboard")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

// periodQuery reads the anchor and top parameters shared by the weekly and
// monthly views.
func (h *DashboardHandler) periodQuery(ctx *fiber.Ctx) (time.Time, int, error) {
	var query dashboard.PeriodQuery
	if err := ctx.QueryParser(&query); err != nil {
		return time.Time{}, 0, dashboard.ErrInvalidTopN
	}

	if err := h.validator.Struct(query); err != nil {
		if query.Top < 0 || query.Top > dashboard.MaxTopN {
			return time.Time{}, 0, dashboard.ErrInvalidTopN
		}
		return time.Time{}, 0, dashboard.ErrInvalidPeriod
	}

	anchor, err := h.date(query.Anchor)
	if err != nil {
		return time.Time{}, 0, dashboard.ErrInvalidPeriod
	}

	return anchor, query.Top, nil
}
