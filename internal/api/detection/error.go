package detection

import (
	"net/http"

	"PPEGuard/pkg/response"
)

var (
	ErrSessionNotFound       = response.NewError(http.StatusNotFound, "detection session not found or expired, start a new session")
	ErrSessionBusy           = response.NewError(http.StatusConflict, "detection session is busy, retry the round")
	ErrSessionForbidden      = response.NewError(http.StatusForbidden, "detection session belongs to another organization")
	ErrClassifierUnavailable = response.NewError(http.StatusServiceUnavailable, "detection service is unavailable")
	ErrInvalidFrame          = response.NewError(http.StatusBadRequest, "invalid image frame")
	ErrInvalidSubject        = response.NewError(http.StatusBadRequest, "subject id must be a valid email")
	ErrEmptyRound            = response.NewError(http.StatusBadRequest, "either labels or image is required")
	ErrStartSession          = response.NewError(http.StatusInternalServerError, "failed to start detection session")
	ErrSaveSession           = response.NewError(http.StatusInternalServerError, "failed to save detection session")
	ErrInvalidPolicy         = response.NewError(http.StatusInternalServerError, "invalid detection policy")
)
