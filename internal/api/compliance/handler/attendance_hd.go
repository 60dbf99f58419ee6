package complianceHandler

import (
	"context"
	"time"

	"PPEGuard/internal/api/compliance"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/handlerUtil"
	jwtPkg "PPEGuard/pkg/jwt"
	"PPEGuard/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *ComplianceHandler) FinalizeAttendance(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing finalize attendance request")

	var req compliance.FinalizeAttendanceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if !req.End {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, compliance.ReconcileResult{
			Status: compliance.StatusNotEnded,
		})
	}

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	day, err := h.day(req.Date)
	if err != nil {
		return errHandler.Handle(ctx, requestID, compliance.ErrInvalidDate, ctx.Path(), "parse_date")
	}

	result, err := h.complianceService.Reconcile(c, userData.OrganizationID, day)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "reconcile_attendance")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *ComplianceHandler) GetTodayAttendance(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	day, err := h.day(ctx.Query("date"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, compliance.ErrInvalidDate, ctx.Path(), "parse_date")
	}

	attendance, err := h.complianceService.TodayAttendance(c, userData.OrganizationID, day)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_today_attendance")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, attendance)
	}
}
