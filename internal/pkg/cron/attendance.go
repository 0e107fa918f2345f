package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
)

const (
	JobAutoCheckout = "auto_checkout_open_attendances"
	JobMarkAbsent   = "mark_absent_employees"

	absentNote = "Marked absent: no check-in recorded"
)

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	clock             clock.Clock
	sweepInterval     time.Duration
	markAbsent        bool
	markAbsentHour    int
}

// AttendanceJobsConfig controls which attendance jobs run and how often.
type AttendanceJobsConfig struct {
	SweepInterval  time.Duration
	MarkAbsent     bool
	MarkAbsentHour int
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, clk clock.Clock, cfg AttendanceJobsConfig) *AttendanceJobs {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		clock:             clk,
		sweepInterval:     cfg.SweepInterval,
		markAbsent:        cfg.MarkAbsent,
		markAbsentHour:    cfg.MarkAbsentHour,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobAutoCheckout, j.sweepInterval, j.AutoCheckoutOpenAttendances)
	if j.markAbsent {
		scheduler.AddJob(JobMarkAbsent, 1*time.Hour, j.MarkAbsentEmployees)
	}
}

// AutoCheckoutOpenAttendances closes every open record past the ceiling.
// Reads already apply the same transition lazily; the sweep makes it durable.
func (j *AttendanceJobs) AutoCheckoutOpenAttendances(ctx context.Context) error {
	closed, err := j.attendanceService.SweepAutoCheckout(ctx)
	if closed > 0 {
		slog.Info("Cron: Auto-checked-out open attendances", "count", closed)
	}
	if err != nil {
		return fmt.Errorf("failed to sweep open attendances: %w", err)
	}
	return nil
}

// MarkAbsentEmployees records Absent for yesterday's active employees that
// never checked in. It only acts during the configured hour.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	now := j.clock.Now()
	if now.Hour() != j.markAbsentHour {
		return nil
	}
	return j.MarkAbsentFor(ctx, now.AddDate(0, 0, -1).Format(attendance.DateLayout))
}

// MarkAbsentFor records Absent for every active employee without a record on date.
// A record written after the listing is left as it is.
func (j *AttendanceJobs) MarkAbsentFor(ctx context.Context, date string) error {
	slog.Info("Cron: Starting mark absent employees job", "date", date)

	missing, err := j.attendanceService.NotCheckedIn(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list employees without attendance: %w", err)
	}

	var errs []error
	marked := 0
	for _, emp := range missing.Employees {
		_, ok, err := j.attendanceService.MarkAbsentIfMissing(ctx, emp.EmployeeID, date, absentNote)
		if err != nil {
			slog.Error("Cron: Failed to mark employee absent", "employee_id", emp.EmployeeID, "date", date, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", emp.EmployeeID, err))
			continue
		}
		if ok {
			marked++
		}
	}

	slog.Info("Cron: Marked absent employees", "date", date, "count", marked)
	return errors.Join(errs...)
}
