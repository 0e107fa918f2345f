package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/google/uuid"
)

type recordKey struct {
	employeeID string
	date       string
}

func (k recordKey) String() string {
	return k.employeeID + "|" + k.date
}

type attendanceRepository struct {
	mu      sync.RWMutex
	records map[recordKey]attendance.Record
	locks   *keyedMutex
	clock   clock.Clock
}

// NewAttendanceRepository returns an in-process record store.
func NewAttendanceRepository(clk clock.Clock) attendance.AttendanceRepository {
	return newAttendanceRepository(clk)
}

func newAttendanceRepository(clk clock.Clock) *attendanceRepository {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &attendanceRepository{
		records: make(map[recordKey]attendance.Record),
		locks:   newKeyedMutex(),
		clock:   clk,
	}
}

// Get implements attendance.AttendanceRepository.
func (r *attendanceRepository) Get(ctx context.Context, employeeID string, date string) (*attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[recordKey{employeeID, date}]
	if !ok {
		return nil, nil
	}
	out := copyRecord(rec)
	return &out, nil
}

// Put implements attendance.AttendanceRepository.
func (r *attendanceRepository) Put(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %w", attendance.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	key := recordKey{record.EmployeeID, record.Date}
	if existing, ok := r.records[key]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		if record.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return attendance.Record{}, fmt.Errorf("generate record id: %w", err)
			}
			record.ID = id.String()
		}
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	r.records[key] = copyRecord(record)
	return copyRecord(record), nil
}

// QueryRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) QueryRange(ctx context.Context, from, to string, filter attendance.RangeFilter) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrStoreUnavailable, err)
	}

	var ids map[string]struct{}
	if len(filter.EmployeeIDs) > 0 {
		ids = make(map[string]struct{}, len(filter.EmployeeIDs))
		for _, id := range filter.EmployeeIDs {
			ids[id] = struct{}{}
		}
	}

	r.mu.RLock()
	out := make([]attendance.Record, 0)
	for key, rec := range r.records {
		if key.date < from || key.date > to {
			continue
		}
		if ids != nil {
			if _, ok := ids[key.employeeID]; !ok {
				continue
			}
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	r.mu.RUnlock()

	sortRecords(out)
	return out, nil
}

// ListOpen implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListOpen(ctx context.Context) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	out := make([]attendance.Record, 0)
	for _, rec := range r.records {
		if rec.IsOpen() {
			out = append(out, copyRecord(rec))
		}
	}
	r.mu.RUnlock()

	sortRecords(out)
	return out, nil
}

// WithRecordLock implements attendance.AttendanceRepository.
func (r *attendanceRepository) WithRecordLock(ctx context.Context, employeeID string, date string, fn func(ctx context.Context) error) error {
	unlock, err := r.locks.Lock(ctx, recordKey{employeeID, date}.String())
	if err != nil {
		return fmt.Errorf("%w: acquire record lock: %w", attendance.ErrStoreUnavailable, err)
	}
	defer unlock()

	return fn(ctx)
}

// DeleteByEmployeeID implements attendance.AttendanceRepository.
func (r *attendanceRepository) DeleteByEmployeeID(ctx context.Context, employeeID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", attendance.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key := range r.records {
		if key.employeeID == employeeID {
			delete(r.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func sortRecords(records []attendance.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].EmployeeID < records[j].EmployeeID
	})
}

// copyRecord detaches the instant pointers so callers never share them with the store.
func copyRecord(rec attendance.Record) attendance.Record {
	if rec.CheckIn != nil {
		t := *rec.CheckIn
		rec.CheckIn = &t
	}
	if rec.CheckOut != nil {
		t := *rec.CheckOut
		rec.CheckOut = &t
	}
	return rec
}
