package attendance

import (
	"context"
)

// AttendanceService defines the check-in/check-out state machine
type AttendanceService interface {
	// CheckIn opens today's record for an employee
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes the open record for today
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// MarkAttendance writes a record directly, bypassing the transition guards (manual or batch correction)
	MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (AttendanceResponse, error)

	// MarkAbsentIfMissing records Absent only when the employee has no record for date
	MarkAbsentIfMissing(ctx context.Context, employeeID, date, notes string) (AttendanceResponse, bool, error)

	// GetStatus returns today's state for an employee, with auto-checkout applied
	GetStatus(ctx context.Context, employeeID string) (AttendanceStatusResponse, error)

	// ListAttendance lists records in a date range
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceResponse, error)

	// NotCheckedIn lists active employees without a record for a day
	NotCheckedIn(ctx context.Context, date string) (NotCheckedInResponse, error)

	// SweepAutoCheckout closes every open record whose ceiling has passed
	SweepAutoCheckout(ctx context.Context) (int, error)
}
