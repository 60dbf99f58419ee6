package detectionHandler

import (
	"context"
	"time"

	"PPEGuard/internal/api/detection"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/handlerUtil"
	jwtPkg "PPEGuard/pkg/jwt"
	"PPEGuard/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *DetectionHandler) StartSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing start detection session request")

	var req detection.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	session, err := h.detectionService.StartSession(c, userData.OrganizationID, req.SubjectID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, session)
	}
}

// AdvanceSession runs one round. A multipart "image" file, a base64 "image"
// field or an explicit "labels" list are accepted, in that order.
func (h *DetectionHandler) AdvanceSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	sessionID := ctx.Params("id")
	if sessionID == "" {
		return errHandler.Handle(ctx, requestID, detection.ErrSessionNotFound, ctx.Path(), "parse_session_id")
	}

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var (
		resp  detection.AdvanceResponse
		frame []byte
	)

	if file, fileErr := ctx.FormFile("image"); fileErr == nil {
		if err := h.utils.ValidateImageFile(file); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
		}
		frame, err = h.utils.ReadImageFile(file)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image_file")
		}
	} else {
		var req detection.AdvanceRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
		if req.Empty() {
			return errHandler.Handle(ctx, requestID, detection.ErrEmptyRound, ctx.Path(), "parse_request_body")
		}

		if req.Image == "" {
			resp, err = h.detectionService.Advance(c, userData.OrganizationID, sessionID, req.Labels)
			if err != nil {
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "advance_session")
			}
			return h.respond(ctx, c, errHandler, resp)
		}

		frame, err = h.utils.DecodeBase64Image(req.Image)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "decode_image")
		}
	}

	resp, err = h.detectionService.DetectAndAdvance(c, userData.OrganizationID, sessionID, frame)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_and_advance")
	}

	return h.respond(ctx, c, errHandler, resp)
}

func (h *DetectionHandler) respond(ctx *fiber.Ctx, c context.Context, errHandler *handlerUtil.ErrorHandler, resp detection.AdvanceResponse) error {
	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": h.middleware.GetRequestID(ctx),
			"session_id": resp.SessionID,
			"rounds":     resp.RoundsCompleted,
			"finalize":   resp.Finalized,
		}).Debug("Detection round processed")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}
