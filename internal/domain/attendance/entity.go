package attendance

import (
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
)

// DateLayout is the canonical calendar-day format of Record.Date.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusPresent      Status = "Present"
	StatusLate         Status = "Late"
	StatusAbsent       Status = "Absent"
	StatusHalfDay      Status = "Half Day"
	StatusWorkFromHome Status = "Work From Home"
)

// AllStatuses returns every valid attendance status.
func AllStatuses() []Status {
	return []Status{
		StatusPresent,
		StatusLate,
		StatusAbsent,
		StatusHalfDay,
		StatusWorkFromHome,
	}
}

func (s Status) IsValid() bool {
	for _, v := range AllStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// State is the position of a day's record in the check-in/check-out machine.
type State string

const (
	StateNotCheckedIn State = "NOT_CHECKED_IN"
	StateCheckedIn    State = "CHECKED_IN"
	StateCheckedOut   State = "CHECKED_OUT"
)

// Record is one employee's attendance for one calendar day.
type Record struct {
	ID             string
	EmployeeID     string
	Date           string // YYYY-MM-DD
	Status         Status
	CheckIn        *time.Time
	CheckOut       *time.Time
	IsAutoCheckout bool
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkingMinutes is always derived from the check-in/check-out pair.
func (r Record) WorkingMinutes() int {
	if r.CheckIn == nil || r.CheckOut == nil {
		return 0
	}
	minutes, err := worktime.ElapsedMinutes(*r.CheckIn, *r.CheckOut)
	if err != nil {
		return 0
	}
	return minutes
}

// IsOpen reports a check-in without a check-out.
func (r Record) IsOpen() bool {
	return r.CheckIn != nil && r.CheckOut == nil
}

// State reports the stored state without evaluating auto-checkout.
func (r *Record) State() State {
	switch {
	case r == nil || r.CheckIn == nil:
		return StateNotCheckedIn
	case r.CheckOut == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// StateAt reports the state as of now, applying a due auto-checkout first.
func (r *Record) StateAt(now time.Time, ceiling time.Duration) State {
	if r == nil {
		return StateNotCheckedIn
	}
	evaluated, _ := ApplyAutoCheckoutIfDue(*r, now, ceiling)
	return evaluated.State()
}

// ApplyAutoCheckoutIfDue forces a check-out at CheckIn+ceiling once the
// ceiling has elapsed. Records that are closed, have no check-in, or whose
// check-in lies after now are returned unchanged. The bool reports whether
// the record was modified.
func ApplyAutoCheckoutIfDue(r Record, now time.Time, ceiling time.Duration) (Record, bool) {
	if r.CheckIn == nil || r.CheckOut != nil || ceiling <= 0 {
		return r, false
	}
	if r.CheckIn.IsZero() || now.Before(*r.CheckIn) {
		return r, false
	}
	if now.Sub(*r.CheckIn) < ceiling {
		return r, false
	}

	out := r.CheckIn.Add(ceiling)
	r.CheckOut = &out
	r.IsAutoCheckout = true
	return r, true
}

// ClassifyLateness returns Late when checkIn is after threshold, else Present.
// Callers use it only when no status was supplied.
func ClassifyLateness(checkIn time.Time, threshold worktime.TimeOfDay) Status {
	if worktime.IsLate(checkIn, threshold) {
		return StatusLate
	}
	return StatusPresent
}
