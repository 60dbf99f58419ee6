package detectionHandler

import (
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"PPEGuard/internal/api/detection"
	"PPEGuard/internal/entity"
	"PPEGuard/internal/middleware"
	jwtPkg "PPEGuard/pkg/jwt"
	"PPEGuard/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var pngFrame = base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'})

func newStreamHandler(svc *stubService) *DetectionHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, validator.New(), middleware.New(log), svc, utils.New())
}

func TestStreamRound(t *testing.T) {
	user := entity.UserLoginData{ID: "u-1", Role: entity.RoleCompany, OrganizationID: "org-1"}

	tests := []struct {
		name       string
		frame      detection.StreamFrame
		wantCode   int
		wantError  string
		wantFrames int
		wantLabels int
		wantStart  bool
	}{
		{name: "start", frame: detection.StreamFrame{Action: "start", SubjectID: "w@acme.test"}, wantStart: true},
		{name: "start needs email", frame: detection.StreamFrame{Action: "start", SubjectID: "worker-7"}, wantCode: 400, wantError: "subject id must be a valid email"},
		{name: "advance labels", frame: detection.StreamFrame{Action: "advance", SessionID: "sess-1", Labels: []string{"helmet", "person"}}, wantLabels: 2},
		{name: "empty action advances", frame: detection.StreamFrame{SessionID: "sess-1", Labels: []string{"vest"}}, wantLabels: 1},
		{name: "image wins over labels", frame: detection.StreamFrame{SessionID: "sess-1", Image: pngFrame, Labels: []string{"vest"}}, wantFrames: 1},
		{name: "bad image", frame: detection.StreamFrame{SessionID: "sess-1", Image: "%%%"}, wantCode: 400, wantError: "invalid image frame"},
		{name: "empty round", frame: detection.StreamFrame{SessionID: "sess-1"}, wantCode: 400, wantError: "either labels or image is required"},
		{name: "unknown session", frame: detection.StreamFrame{SessionID: "gone", Labels: []string{}}, wantCode: 404},
		{name: "unknown session with image", frame: detection.StreamFrame{SessionID: "gone", Image: pngFrame}, wantCode: 404},
		{name: "unknown action", frame: detection.StreamFrame{Action: "stop", SessionID: "sess-1"}, wantCode: 400, wantError: "unknown action stop"},
	}

	for _, tt := range tests {
		svc := &stubService{}
		h := newStreamHandler(svc)

		reply := h.streamRound(context.Background(), user, tt.frame)

		if tt.wantCode != 0 {
			streamErr, ok := reply.(detection.StreamError)
			if !ok {
				t.Fatalf("%s: expected StreamError, got %T", tt.name, reply)
			}
			if streamErr.Code != tt.wantCode {
				t.Fatalf("%s: expected code %d, got %d (%s)", tt.name, tt.wantCode, streamErr.Code, streamErr.Error)
			}
			if tt.wantError != "" && streamErr.Error != tt.wantError {
				t.Fatalf("%s: expected %q, got %q", tt.name, tt.wantError, streamErr.Error)
			}
			if svc.subject != "" || svc.frames != 0 || svc.labels != nil {
				t.Fatalf("%s: service should not have been called, got %+v", tt.name, svc)
			}
			continue
		}

		if tt.wantStart {
			started, ok := reply.(detection.StartSessionResponse)
			if !ok || started.SessionID != "sess-1" || svc.subject != tt.frame.SubjectID || svc.org != "org-1" {
				t.Fatalf("%s: unexpected reply %+v (%+v)", tt.name, reply, svc)
			}
			continue
		}

		if _, ok := reply.(detection.AdvanceResponse); !ok {
			t.Fatalf("%s: expected AdvanceResponse, got %+v", tt.name, reply)
		}
		if svc.frames != tt.wantFrames || len(svc.labels) != tt.wantLabels {
			t.Fatalf("%s: expected %d frames and %d labels, got %d and %v", tt.name, tt.wantFrames, tt.wantLabels, svc.frames, svc.labels)
		}
	}
}

func TestStreamOverWebsocket(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	token, _, err := jwtPkg.SignUser(entity.UserLoginData{ID: "u-1", Email: "hse@acme.test", Role: entity.RoleCompany, OrganizationID: "org-1"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/v1/detect/ws", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(detection.StreamFrame{Action: "start", SubjectID: "w@acme.test"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	var started detection.StartSessionResponse
	if err := conn.ReadJSON(&started); err != nil || started.SessionID != "sess-1" {
		t.Fatalf("unexpected start reply %+v (%v)", started, err)
	}

	if err := conn.WriteJSON(detection.StreamFrame{Action: "advance", SessionID: "gone", Labels: []string{"helmet"}}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	var failed detection.StreamError
	if err := conn.ReadJSON(&failed); err != nil || failed.Code != 404 {
		t.Fatalf("expected 404 stream error, got %+v (%v)", failed, err)
	}

	if err := conn.WriteJSON(detection.StreamFrame{Action: "advance", SessionID: "sess-1", Labels: []string{"helmet"}}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	var advanced detection.AdvanceResponse
	if err := conn.ReadJSON(&advanced); err != nil || advanced.RoundsCompleted != 1 {
		t.Fatalf("unexpected advance reply %+v (%v)", advanced, err)
	}
	if svc.org != "org-1" || len(svc.labels) != 1 {
		t.Fatalf("expected caller organization and labels, got %+v", svc)
	}
}
