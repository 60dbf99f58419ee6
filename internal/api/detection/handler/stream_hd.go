package detectionHandler

import (
	"context"
	"time"

	"PPEGuard/internal/api/detection"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	jwtPkg "PPEGuard/pkg/jwt"
	"PPEGuard/pkg/response"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
	streamRoundTimeout = 15 * time.Second
)

// handleStream serves the detection websocket. Each text message is a
// StreamFrame; replies are StartSessionResponse, AdvanceResponse or
// StreamError. The caller identity comes from the upgrade request.
func (h *DetectionHandler) handleStream(c *websocket.Conn) {
	base := contextPkg.FromLocals(func(key string) interface{} { return c.Locals(key) })
	requestID := contextPkg.GetRequestID(base)

	user, ok := c.Locals(jwtPkg.LocalsUser).(entity.UserLoginData)
	if !ok {
		h.writeStream(c, requestID, detection.StreamError{Error: "Unauthorized", Code: 401})
		return
	}

	fields := logrus.Fields{
		"request_id":      requestID,
		"organization_id": user.OrganizationID,
	}
	h.log.WithFields(fields).Info("Detection stream connected")
	defer h.log.WithFields(fields).Info("Detection stream disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			h.log.WithFields(fields).Errorf("Error setting read deadline: %v", err)
			return
		}

		var frame detection.StreamFrame
		if err := c.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(fields).Errorf("Detection stream error: %v", err)
			}
			return
		}

		reply := h.streamRound(base, user, frame)
		if !h.writeStream(c, requestID, reply) {
			return
		}
	}
}

func (h *DetectionHandler) streamRound(base context.Context, user entity.UserLoginData, frame detection.StreamFrame) interface{} {
	ctx, cancel := context.WithTimeout(base, streamRoundTimeout)
	defer cancel()

	var (
		reply interface{}
		err   error
	)

	switch frame.Action {
	case detection.ActionStart:
		// Same rule as StartSessionRequest on the REST route.
		if h.validator.Var(frame.SubjectID, "required,email") != nil {
			err = detection.ErrInvalidSubject
			break
		}
		reply, err = h.detectionService.StartSession(ctx, user.OrganizationID, frame.SubjectID)
	case detection.ActionAdvance, "":
		switch {
		case frame.Image != "":
			var image []byte
			image, err = h.utils.DecodeBase64Image(frame.Image)
			if err == nil {
				reply, err = h.detectionService.DetectAndAdvance(ctx, user.OrganizationID, frame.SessionID, image)
			} else {
				err = detection.ErrInvalidFrame
			}
		case frame.Labels != nil:
			reply, err = h.detectionService.Advance(ctx, user.OrganizationID, frame.SessionID, frame.Labels)
		default:
			err = detection.ErrEmptyRound
		}
	default:
		return detection.StreamError{Error: "unknown action " + frame.Action, Code: 400}
	}

	if err != nil {
		return detection.StreamError{Error: err.Error(), Code: response.StatusOf(err)}
	}
	return reply
}

func (h *DetectionHandler) writeStream(c *websocket.Conn, requestID string, payload interface{}) bool {
	if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		h.log.WithField("request_id", requestID).Errorf("Error setting write deadline: %v", err)
		return false
	}

	if err := c.WriteJSON(payload); err != nil {
		h.log.WithField("request_id", requestID).Errorf("Error writing JSON response: %v", err)
		return false
	}

	if err := c.SetWriteDeadline(time.Time{}); err != nil {
		h.log.WithField("request_id", requestID).Errorf("Error resetting write deadline: %v", err)
		return false
	}
	return true
}
