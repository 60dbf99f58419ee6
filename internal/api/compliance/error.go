package compliance

import (
	"net/http"

	"PPEGuard/pkg/response"
)

var (
	ErrEmployeeNotFound      = response.NewError(http.StatusNotFound, "employee not found")
	ErrRecordCompliance      = response.NewError(http.StatusInternalServerError, "failed to record compliance")
	ErrMarkAttendance        = response.NewError(http.StatusInternalServerError, "failed to mark attendance")
	ErrReconcileAttendance   = response.NewError(http.StatusInternalServerError, "failed to mark absences")
	ErrInvalidComplianceTier = response.NewError(http.StatusBadRequest, "invalid compliance tier")
	ErrMissingSubject        = response.NewError(http.StatusBadRequest, "subject id is required")
	ErrInvalidDate           = response.NewError(http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
	ErrLoadAttendance        = response.NewError(http.StatusInternalServerError, "failed to load attendance")
)
