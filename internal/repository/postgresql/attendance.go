package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, employee_id, to_char(date, 'YYYY-MM-DD'), status,
	check_in_time, check_out_time, is_auto_checkout, notes,
	created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, attendance.ErrStoreUnavailable, err)
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		r      attendance.Record
		status string
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.Date, &status,
		&r.CheckIn, &r.CheckOut, &r.IsAutoCheckout, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt,
	)
	r.Status = attendance.Status(status)
	return r, err
}

func collectRecords(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get implements attendance.AttendanceRepository.
func (a *attendanceRepository) Get(ctx context.Context, employeeID string, date string) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2::date`

	r, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeUnavailable("get attendance", err)
	}
	return &r, nil
}

// Put implements attendance.AttendanceRepository.
func (a *attendanceRepository) Put(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Record{}, fmt.Errorf("generate attendance id: %w", err)
		}
		record.ID = id.String()
	}

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, status, check_in_time, check_out_time, is_auto_checkout, notes
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			is_auto_checkout = EXCLUDED.is_auto_checkout,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING ` + attendanceColumns

	saved, err := scanRecord(q.QueryRow(ctx, query,
		record.ID, record.EmployeeID, record.Date, string(record.Status),
		record.CheckIn, record.CheckOut, record.IsAutoCheckout, record.Notes,
	))
	if err != nil {
		return attendance.Record{}, storeUnavailable("put attendance", err)
	}
	return saved, nil
}

// QueryRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) QueryRange(ctx context.Context, from, to string, filter attendance.RangeFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	conditions := []string{"date >= $1::date", "date <= $2::date"}
	args := []interface{}{from, to}
	argIdx := 3

	if len(filter.EmployeeIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("employee_id = ANY($%d)", argIdx))
		args = append(args, filter.EmployeeIDs)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*filter.Status))
		argIdx++
	}

	query := fmt.Sprintf(`SELECT %s
		FROM attendance_records
		WHERE %s
		ORDER BY date ASC, employee_id ASC`, attendanceColumns, strings.Join(conditions, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, storeUnavailable("query attendance range", err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, storeUnavailable("scan attendance range", err)
	}
	return records, nil
}

// ListOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpen(ctx context.Context) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE check_in_time IS NOT NULL AND check_out_time IS NULL
		ORDER BY date ASC, employee_id ASC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, storeUnavailable("list open attendance", err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, storeUnavailable("scan open attendance", err)
	}
	return records, nil
}

// WithRecordLock implements attendance.AttendanceRepository. The lock is a
// transaction-scoped advisory lock on the (employee_id, date) key, released
// on commit or rollback.
func (a *attendanceRepository) WithRecordLock(ctx context.Context, employeeID string, date string, fn func(ctx context.Context) error) error {
	var fnErr error
	err := InTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID+"|"+date); err != nil {
			return storeUnavailable("lock attendance record", err)
		}
		fnErr = fn(ctx)
		return fnErr
	})
	if err == nil || (fnErr != nil && errors.Is(err, fnErr)) {
		return err
	}
	if errors.Is(err, attendance.ErrStoreUnavailable) {
		return err
	}
	return storeUnavailable("attendance transaction", err)
}

// DeleteByEmployeeID implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteByEmployeeID(ctx context.Context, employeeID string) (int64, error) {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, storeUnavailable("delete attendance", err)
	}
	return tag.RowsAffected(), nil
}
