package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
)

// Event types published on sse.TopicAttendance.
const (
	EventCheckedIn      = "attendance.checked_in"
	EventCheckedOut     = "attendance.checked_out"
	EventAutoCheckedOut = "attendance.auto_checked_out"
	EventMarked         = "attendance.marked"
)

// EventPublisher receives attendance events after each committed mutation.
type EventPublisher interface {
	Publish(event sse.Event)
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	clock  clock.Clock
	policy worktime.Policy
	events EventPublisher
}

// timePtrToClock renders an instant as HH:MM in the service clock's location.
func timePtrToClock(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format("15:04")
	return &format
}

// eventTime resolves a supplied check-in/check-out instant. Instants after now
// are rejected so an open record cannot be closed past its auto-checkout.
func eventTime(at *time.Time, now time.Time) (time.Time, error) {
	if at == nil {
		return now, nil
	}
	if at.After(now) {
		return time.Time{}, validator.ValidationErrors{{Field: "at", Message: "at must not be in the future"}}
	}
	return at.In(now.Location()), nil
}

func normalizeEmployeeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	employeeID := normalizeEmployeeID(req.EmployeeID)
	at, err := eventTime(req.At, now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	date := at.Format(attendance.DateLayout)

	var (
		saved      attendance.Record
		autoClosed *attendance.Record
		opErr      error
	)

	// Transition failures are reported after the lock is released so that a
	// due auto-checkout written inside it is kept.
	err = s.AttendanceRepository.WithRecordLock(ctx, employeeID, date, func(ctx context.Context) error {
		existing, closed, err := s.loadSettled(ctx, employeeID, date, now)
		if err != nil {
			return err
		}
		autoClosed = closed

		record := attendance.Record{EmployeeID: employeeID, Date: date}
		if existing != nil {
			if existing.CheckIn != nil {
				opErr = attendance.ErrAlreadyCheckedIn
				return nil
			}
			record = *existing
		}

		status := attendance.ClassifyLateness(at, s.policy.LateAfter)
		if req.Status != nil {
			status = attendance.Status(*req.Status)
		}

		checkIn := at
		record.Status = status
		record.CheckIn = &checkIn
		record.CheckOut = nil
		record.IsAutoCheckout = false
		if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
			record.Notes = appendNote(record.Notes, *req.Notes)
		}

		saved, err = s.AttendanceRepository.Put(ctx, record)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("check in %s: %w", employeeID, err)
	}

	if autoClosed != nil {
		s.publish(ctx, EventAutoCheckedOut, *autoClosed)
	}
	if opErr != nil {
		return attendance.AttendanceResponse{}, opErr
	}

	resp := s.publish(ctx, EventCheckedIn, saved)
	return resp, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	employeeID := normalizeEmployeeID(req.EmployeeID)
	at, err := eventTime(req.At, now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	date := at.Format(attendance.DateLayout)

	var (
		saved      attendance.Record
		autoClosed *attendance.Record
		opErr      error
	)

	err = s.AttendanceRepository.WithRecordLock(ctx, employeeID, date, func(ctx context.Context) error {
		existing, closed, err := s.loadSettled(ctx, employeeID, date, now)
		if err != nil {
			return err
		}
		autoClosed = closed

		if existing == nil || !existing.IsOpen() {
			opErr = attendance.ErrNotCheckedIn
			return nil
		}
		if _, err := worktime.ElapsedMinutes(*existing.CheckIn, at); err != nil {
			opErr = attendance.ErrInvalidTimeOrder
			return nil
		}

		record := *existing
		checkOut := at
		record.CheckOut = &checkOut
		record.IsAutoCheckout = false
		if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
			record.Notes = appendNote(record.Notes, *req.Notes)
		}

		saved, err = s.AttendanceRepository.Put(ctx, record)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("check out %s: %w", employeeID, err)
	}

	if autoClosed != nil {
		s.publish(ctx, EventAutoCheckedOut, *autoClosed)
	}
	if opErr != nil {
		return attendance.AttendanceResponse{}, opErr
	}

	resp := s.publish(ctx, EventCheckedOut, saved)
	return resp, nil
}

// MarkAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAttendance(ctx context.Context, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
	record, err := req.Build(s.clock.Now().Location())
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var saved attendance.Record
	err = s.AttendanceRepository.WithRecordLock(ctx, record.EmployeeID, record.Date, func(ctx context.Context) error {
		saved, err = s.AttendanceRepository.Put(ctx, record)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("mark attendance %s on %s: %w", record.EmployeeID, record.Date, err)
	}

	resp := s.publish(ctx, EventMarked, saved)
	return resp, nil
}

// MarkAbsentIfMissing implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsentIfMissing(ctx context.Context, employeeID, date, notes string) (attendance.AttendanceResponse, bool, error) {
	req := attendance.MarkAttendanceRequest{
		EmployeeID: employeeID,
		Date:       date,
		Status:     string(attendance.StatusAbsent),
	}
	if notes != "" {
		req.Notes = &notes
	}
	record, err := req.Build(s.clock.Now().Location())
	if err != nil {
		return attendance.AttendanceResponse{}, false, err
	}

	var (
		saved  attendance.Record
		marked bool
	)
	err = s.AttendanceRepository.WithRecordLock(ctx, record.EmployeeID, record.Date, func(ctx context.Context) error {
		existing, err := s.AttendanceRepository.Get(ctx, record.EmployeeID, record.Date)
		if err != nil || existing != nil {
			return err
		}
		saved, err = s.AttendanceRepository.Put(ctx, record)
		marked = err == nil
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, false, fmt.Errorf("mark absent %s on %s: %w", record.EmployeeID, record.Date, err)
	}
	if !marked {
		return attendance.AttendanceResponse{}, false, nil
	}

	resp := s.publish(ctx, EventMarked, saved)
	return resp, true, nil
}

// GetStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetStatus(ctx context.Context, employeeID string) (attendance.AttendanceStatusResponse, error) {
	employeeID = normalizeEmployeeID(employeeID)
	if !validator.IsValidEmployeeID(employeeID) {
		return attendance.AttendanceStatusResponse{}, validator.ValidationErrors{{
			Field:   "employee_id",
			Message: "employee_id can only contain letters, numbers, hyphens, and underscores (max 20)",
		}}
	}

	now := s.clock.Now()
	date := now.Format(attendance.DateLayout)

	var (
		record     *attendance.Record
		autoClosed *attendance.Record
	)
	err := s.AttendanceRepository.WithRecordLock(ctx, employeeID, date, func(ctx context.Context) error {
		var err error
		record, autoClosed, err = s.loadSettled(ctx, employeeID, date, now)
		return err
	})
	if err != nil {
		return attendance.AttendanceStatusResponse{}, fmt.Errorf("get status %s: %w", employeeID, err)
	}

	if autoClosed != nil {
		s.publish(ctx, EventAutoCheckedOut, *autoClosed)
	}

	state := record.State()
	resp := attendance.AttendanceStatusResponse{
		EmployeeID:   employeeID,
		Date:         date,
		State:        string(state),
		HasCheckedIn: state != attendance.StateNotCheckedIn,
		CanCheckIn:   record == nil || record.CheckIn == nil,
		CanCheckOut:  state == attendance.StateCheckedIn,
	}

	loc := now.Location()
	switch state {
	case attendance.StateNotCheckedIn:
		resp.Message = "Not checked in yet"
	case attendance.StateCheckedIn:
		resp.Message = "Checked in at " + *timePtrToClock(record.CheckIn, loc)
	case attendance.StateCheckedOut:
		resp.Message = fmt.Sprintf("Checked out at %s (%s)", *timePtrToClock(record.CheckOut, loc), worktime.FormatMinutes(record.WorkingMinutes()))
		if record.IsAutoCheckout {
			resp.Message += ", automatic check-out"
		}
	}

	if record != nil {
		today := s.toResponse(*record, s.employeeName(ctx, employeeID), loc)
		resp.TodayAttendance = &today
	}

	return resp, nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	to := now.Format(attendance.DateLayout)
	if filter.DateTo != nil && *filter.DateTo != "" {
		to = *filter.DateTo
	}
	from := to
	if filter.DateFrom != nil && *filter.DateFrom != "" {
		from = *filter.DateFrom
	}
	if from > to {
		return nil, validator.ValidationErrors{{Field: "date_from", Message: "date_from must not be after date_to"}}
	}

	directory, _, err := s.EmployeeRepository.List(ctx, employee.EmployeeFilter{})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	index := employee.NewIndex(directory)

	var rangeFilter attendance.RangeFilter
	if filter.Status != nil && *filter.Status != "" {
		status := attendance.Status(*filter.Status)
		rangeFilter.Status = &status
	}
	if filter.Department != nil && *filter.Department != "" {
		for _, e := range directory {
			if strings.EqualFold(e.Department, *filter.Department) {
				rangeFilter.EmployeeIDs = append(rangeFilter.EmployeeIDs, e.EmployeeID)
			}
		}
		if len(rangeFilter.EmployeeIDs) == 0 {
			return []attendance.AttendanceResponse{}, nil
		}
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		id := normalizeEmployeeID(*filter.EmployeeID)
		if rangeFilter.EmployeeIDs != nil {
			if !containsString(rangeFilter.EmployeeIDs, id) {
				return []attendance.AttendanceResponse{}, nil
			}
		}
		rangeFilter.EmployeeIDs = []string{id}
	}

	records, err := s.AttendanceRepository.QueryRange(ctx, from, to, rangeFilter)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}

	loc := now.Location()
	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		view, _ := attendance.ApplyAutoCheckoutIfDue(rec, now, s.policy.AutoCheckoutAfter)
		responses = append(responses, s.toResponse(view, index.Name(view.EmployeeID), loc))
	}

	return responses, nil
}

// NotCheckedIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) NotCheckedIn(ctx context.Context, date string) (attendance.NotCheckedInResponse, error) {
	if date == "" {
		date = s.clock.Now().Format(attendance.DateLayout)
	}
	if _, ok := validator.IsValidDate(date); !ok {
		return attendance.NotCheckedInResponse{}, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
	}

	active, err := s.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return attendance.NotCheckedInResponse{}, fmt.Errorf("list active employees: %w", err)
	}

	records, err := s.AttendanceRepository.QueryRange(ctx, date, date, attendance.RangeFilter{})
	if err != nil {
		return attendance.NotCheckedInResponse{}, fmt.Errorf("query attendance: %w", err)
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.EmployeeID] = struct{}{}
	}

	resp := attendance.NotCheckedInResponse{
		Date:      date,
		Employees: make([]attendance.NotCheckedInEmployee, 0),
	}
	for _, e := range active {
		if _, ok := seen[e.EmployeeID]; ok {
			continue
		}
		resp.Employees = append(resp.Employees, attendance.NotCheckedInEmployee{
			EmployeeID: e.EmployeeID,
			FullName:   e.FullName,
			Department: e.Department,
		})
	}
	resp.Total = len(resp.Employees)

	return resp, nil
}

// SweepAutoCheckout implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SweepAutoCheckout(ctx context.Context) (int, error) {
	open, err := s.AttendanceRepository.ListOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open records: %w", err)
	}

	now := s.clock.Now()
	closed := 0
	var errs []error
	for _, candidate := range open {
		if _, due := attendance.ApplyAutoCheckoutIfDue(candidate, now, s.policy.AutoCheckoutAfter); !due {
			continue
		}

		var autoClosed *attendance.Record
		err := s.AttendanceRepository.WithRecordLock(ctx, candidate.EmployeeID, candidate.Date, func(ctx context.Context) error {
			_, rec, err := s.loadSettled(ctx, candidate.EmployeeID, candidate.Date, now)
			autoClosed = rec
			return err
		})
		if err != nil {
			slog.Error("auto checkout failed", "employee_id", candidate.EmployeeID, "date", candidate.Date, "error", err)
			errs = append(errs, fmt.Errorf("auto checkout %s on %s: %w", candidate.EmployeeID, candidate.Date, err))
			continue
		}
		if autoClosed != nil {
			closed++
			s.publish(ctx, EventAutoCheckedOut, *autoClosed)
		}
	}

	return closed, errors.Join(errs...)
}

// loadSettled reads the record and writes back a due auto-checkout. It must
// run inside WithRecordLock. The second result is the auto-closed record, if any.
func (s *AttendanceServiceImpl) loadSettled(ctx context.Context, employeeID, date string, now time.Time) (*attendance.Record, *attendance.Record, error) {
	existing, err := s.AttendanceRepository.Get(ctx, employeeID, date)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		return nil, nil, nil
	}

	record, due := attendance.ApplyAutoCheckoutIfDue(*existing, now, s.policy.AutoCheckoutAfter)
	if !due {
		return existing, nil, nil
	}

	saved, err := s.AttendanceRepository.Put(ctx, record)
	if err != nil {
		return nil, nil, err
	}
	return &saved, &saved, nil
}

// publish writes the audit line and the hub event for a committed record and
// returns its response view.
func (s *AttendanceServiceImpl) publish(ctx context.Context, eventType string, record attendance.Record) attendance.AttendanceResponse {
	resp := s.toResponse(record, s.employeeName(ctx, record.EmployeeID), s.clock.Now().Location())

	slog.Info("audit",
		"action", eventType,
		"entity_type", "attendance",
		"entity_id", record.ID,
		"employee_id", record.EmployeeID,
		"date", record.Date,
		"status", string(record.Status),
		"is_auto_checkout", record.IsAutoCheckout,
	)

	if s.events != nil {
		s.events.Publish(sse.Event{
			Topic: sse.TopicAttendance,
			Type:  eventType,
			Data:  resp,
			At:    s.clock.Now(),
		})
	}

	return resp
}

// employeeName never fails; lookups that miss render the placeholder name.
func (s *AttendanceServiceImpl) employeeName(ctx context.Context, employeeID string) string {
	if s.EmployeeRepository == nil {
		return employee.UnknownName
	}
	e, err := s.EmployeeRepository.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, employee.ErrEmployeeNotFound) {
			slog.Warn("employee lookup failed", "employee_id", employeeID, "error", err)
		}
		return employee.UnknownName
	}
	return employee.Index{e.EmployeeID: e}.Name(employeeID)
}

func (s *AttendanceServiceImpl) toResponse(record attendance.Record, name string, loc *time.Location) attendance.AttendanceResponse {
	minutes := record.WorkingMinutes()
	resp := attendance.AttendanceResponse{
		ID:             record.ID,
		EmployeeID:     record.EmployeeID,
		EmployeeName:   name,
		Date:           record.Date,
		Status:         string(record.Status),
		State:          string(record.State()),
		CheckInTime:    timePtrToClock(record.CheckIn, loc),
		CheckOutTime:   timePtrToClock(record.CheckOut, loc),
		IsAutoCheckout: record.IsAutoCheckout,
		WorkingMinutes: minutes,
		WorkingHours:   worktime.MinutesToHours(minutes),
		WorkingLabel:   worktime.MinutesToHoursLabel(&minutes),
		CreatedAt:      record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      record.UpdatedAt.Format(time.RFC3339),
	}
	if record.Notes != "" {
		notes := record.Notes
		resp.Notes = &notes
	}
	return resp
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	clk clock.Clock,
	policy worktime.Policy,
	events EventPublisher,
) attendance.AttendanceService {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		clock:                clk,
		policy:               policy,
		events:               events,
	}
}
