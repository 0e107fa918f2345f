package attendance

import (
	"context"
)

// RangeFilter narrows a range query. Empty fields do not filter.
type RangeFilter struct {
	EmployeeIDs []string
	Status      *Status
}

// AttendanceRepository is the keyed record store. Adapters wrap their own
// failures with ErrStoreUnavailable.
type AttendanceRepository interface {
	// Get returns the record for (employeeID, date), or nil when there is none.
	Get(ctx context.Context, employeeID string, date string) (*Record, error)

	// Put upserts by (employee_id, date) and returns the stored record.
	Put(ctx context.Context, record Record) (Record, error)

	// QueryRange returns records with from <= date <= to ordered by date, then employee_id.
	QueryRange(ctx context.Context, from, to string, filter RangeFilter) ([]Record, error)

	// ListOpen returns every record that has a check-in but no check-out.
	ListOpen(ctx context.Context) ([]Record, error)

	// WithRecordLock runs fn under mutual exclusion for one (employeeID, date)
	// key. Get and Put called with the ctx passed to fn join the locked scope.
	// Errors returned by fn are passed through unchanged.
	WithRecordLock(ctx context.Context, employeeID string, date string, fn func(ctx context.Context) error) error

	// DeleteByEmployeeID removes all records of an employee. Only the
	// directory cascade uses it.
	DeleteByEmployeeID(ctx context.Context, employeeID string) (int64, error)
}
