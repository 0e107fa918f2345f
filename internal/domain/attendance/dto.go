package attendance

import (
	"errors"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

var statusMessage = "status must be one of: Present, Late, Absent, Half Day, Work From Home"

type CheckInRequest struct {
	EmployeeID string     `json:"employee_id" validate:"required,employee_id"`
	At         *time.Time `json:"at,omitempty"`
	Status     *string    `json:"status,omitempty"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *CheckInRequest) Validate() error {
	r.EmployeeID = strings.ToUpper(strings.TrimSpace(r.EmployeeID))
	errs := structErrors(r)

	if r.Status != nil {
		status := Status(*r.Status)
		if !status.IsValid() {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: statusMessage,
			})
		} else if status == StatusAbsent {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "cannot check in as Absent",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CheckOutRequest struct {
	EmployeeID string     `json:"employee_id" validate:"required,employee_id"`
	At         *time.Time `json:"at,omitempty"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *CheckOutRequest) Validate() error {
	r.EmployeeID = strings.ToUpper(strings.TrimSpace(r.EmployeeID))
	errs := structErrors(r)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MarkAttendanceRequest is the direct write used by manual and batch entry.
// Times are "HH:MM" on Date, or RFC3339 instants that fall on Date.
type MarkAttendanceRequest struct {
	EmployeeID   string  `json:"employee_id" validate:"required,employee_id"`
	Date         string  `json:"date" validate:"required,date"`
	Status       string  `json:"status" validate:"required"`
	CheckInTime  *string `json:"check_in_time,omitempty"`
	CheckOutTime *string `json:"check_out_time,omitempty"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *MarkAttendanceRequest) Validate() error {
	_, err := r.Build(time.UTC)
	return err
}

// Build validates the request against every record invariant and returns the
// record it describes, with times placed in loc.
func (r *MarkAttendanceRequest) Build(loc *time.Location) (Record, error) {
	r.EmployeeID = strings.ToUpper(strings.TrimSpace(r.EmployeeID))
	r.Date = strings.TrimSpace(r.Date)
	errs := structErrors(r)

	status := Status(r.Status)
	if r.Status != "" && !status.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: statusMessage,
		})
	}

	_, dateOK := validator.IsValidDate(r.Date)

	var checkIn, checkOut *time.Time
	if dateOK {
		var fieldErr *validator.ValidationError
		checkIn, fieldErr = parseInstant("check_in_time", r.CheckInTime, r.Date, loc)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)
		}
		checkOut, fieldErr = parseInstant("check_out_time", r.CheckOutTime, r.Date, loc)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)
		}
	}

	if status == StatusAbsent && (checkIn != nil || checkOut != nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "an Absent record cannot have check-in or check-out times",
		})
	}

	if checkOut != nil && checkIn == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in_time",
			Message: "check_in_time is required when check_out_time is set",
		})
	}

	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out_time",
			Message: "check_out_time must not be before check_in_time",
		})
	}

	if len(errs) > 0 {
		return Record{}, errs
	}

	record := Record{
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		Status:     status,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	}
	if r.Notes != nil {
		record.Notes = strings.TrimSpace(*r.Notes)
	}
	return record, nil
}

func parseInstant(field string, value *string, date string, loc *time.Location) (*time.Time, *validator.ValidationError) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*value)

	if clock, ok := validator.IsValidClockTime(v); ok {
		day, _ := time.ParseInLocation(DateLayout, date, loc)
		t := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
		return &t, nil
	}

	if t, ok := validator.IsValidDateTime(v); ok {
		t = t.In(loc)
		if t.Format(DateLayout) != date {
			return nil, &validator.ValidationError{
				Field:   field,
				Message: field + " must fall on " + date,
			}
		}
		return &t, nil
	}

	return nil, &validator.ValidationError{
		Field:   field,
		Message: field + " must be in HH:MM or RFC3339 format",
	}
}

func structErrors(v interface{}) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if err := validator.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			errs = append(errs, fieldErrs...)
		} else {
			errs = append(errs, validator.ValidationError{Field: "request", Message: err.Error()})
		}
	}
	return errs
}

type AttendanceFilter struct {
	DateFrom   *string `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo     *string `json:"date_to,omitempty"`   // YYYY-MM-DD
	EmployeeID *string `json:"employee_id,omitempty"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	var from, to time.Time
	var fromOK, toOK bool
	if f.DateFrom != nil && *f.DateFrom != "" {
		if from, fromOK = validator.IsValidDate(*f.DateFrom); !fromOK {
			errs = append(errs, validator.ValidationError{
				Field:   "date_from",
				Message: "date_from must be in YYYY-MM-DD format",
			})
		}
	}
	if f.DateTo != nil && *f.DateTo != "" {
		if to, toOK = validator.IsValidDate(*f.DateTo); !toOK {
			errs = append(errs, validator.ValidationError{
				Field:   "date_to",
				Message: "date_to must be in YYYY-MM-DD format",
			})
		}
	}
	if fromOK && toOK && from.After(to) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_to",
			Message: "date_to must not be before date_from",
		})
	}

	if f.Status != nil && *f.Status != "" && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: statusMessage,
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AttendanceResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	Date           string  `json:"date"`
	Status         string  `json:"status"`
	State          string  `json:"state"`
	CheckInTime    *string `json:"check_in_time"`
	CheckOutTime   *string `json:"check_out_time"`
	IsAutoCheckout bool    `json:"is_auto_checkout"`
	WorkingMinutes int     `json:"working_minutes"`
	WorkingHours   float64 `json:"working_hours"`
	WorkingLabel   string  `json:"working_label"`
	Notes          *string `json:"notes"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// ========================================
// ATTENDANCE STATUS DTOs
// ========================================

type AttendanceStatusResponse struct {
	EmployeeID      string              `json:"employee_id"`
	Date            string              `json:"date"`
	State           string              `json:"state"`
	HasCheckedIn    bool                `json:"has_checked_in"`
	CanCheckIn      bool                `json:"can_check_in"`
	CanCheckOut     bool                `json:"can_check_out"`
	TodayAttendance *AttendanceResponse `json:"today_attendance,omitempty"`
	Message         string              `json:"message"`
}

type NotCheckedInEmployee struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

type NotCheckedInResponse struct {
	Date      string                 `json:"date"`
	Total     int                    `json:"total"`
	Employees []NotCheckedInEmployee `json:"employees"`
}

// ========================================
// BATCH DTOs
// ========================================

type BatchMarkRequest struct {
	Records []MarkAttendanceRequest `json:"records"`
}

type BatchFailure struct {
	Index      int               `json:"index"`
	EmployeeID string            `json:"employee_id"`
	Error      string            `json:"error"`
	Details    map[string]string `json:"details,omitempty"`
}

type BatchMarkResponse struct {
	Saved  []AttendanceResponse `json:"saved"`
	Failed []BatchFailure       `json:"failed"`
}

type SweepResponse struct {
	Closed int `json:"closed"`
}
