package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid API key")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenIssuanceOff):
		Forbidden(w, "Token issuance is disabled")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		ConflictWithCode(w, CodeAlreadyCheckedIn, "Employee has already checked in today")
	case errors.Is(err, attendance.ErrNotCheckedIn):
		ConflictWithCode(w, CodeNotCheckedIn, "Employee has not checked in today")
	case errors.Is(err, attendance.ErrInvalidTimeOrder):
		BadRequest(w, "Check-out time must not be before check-in time", nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrStoreUnavailable):
		slog.Error("Attendance store unavailable", "error", err)
		ServiceUnavailable(w, "Attendance store is unavailable")

	// Report domain errors
	case errors.Is(err, report.ErrInvalidRange):
		BadRequest(w, "date_from must not be after date_to", nil)
	case errors.Is(err, report.ErrMissingFilter):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, report.ErrUnknownReportType):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, report.ErrUnknownFormat):
		BadRequest(w, err.Error(), nil)

	// Dashboard refresh errors
	case errors.Is(err, dashboard.ErrRefreshInFlight):
		ConflictWithCode(w, CodeRefreshInFlight, "A dashboard refresh is already running")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeIDExists):
		Conflict(w, "Employee ID already exists")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrInvalidEmployeeID):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, employee.ErrDirectoryUnavailable):
		slog.Error("Employee directory unavailable", "error", err)
		ServiceUnavailable(w, "Employee directory is unavailable")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
