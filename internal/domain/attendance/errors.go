package attendance

import (
	"errors"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
)

// Attendance domain errors
var (
	// Transition errors
	ErrAlreadyCheckedIn = errors.New("employee has already checked in today")
	ErrNotCheckedIn     = errors.New("employee has not checked in today")
	ErrInvalidTimeOrder = worktime.ErrInvalidTimeOrder

	// General errors
	ErrValidation         = validator.ErrValidation
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrStoreUnavailable   = errors.New("attendance store unavailable")
)
