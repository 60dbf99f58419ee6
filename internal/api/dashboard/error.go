package dashboard

import (
	"net/http"

	"PPEGuard/pkg/response"
)

var (
	ErrInvalidPeriod = response.NewError(http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
	ErrInvalidTopN   = response.NewError(http.StatusBadRequest, "top must be between 1 and 50")
	ErrLoadDashboard = response.NewError(http.StatusInternalServerError, "failed to load dashboard")
)
