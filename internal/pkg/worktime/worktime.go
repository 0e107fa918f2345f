package worktime

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidTimeOrder = errors.New("end time is before start time")

// DefaultAutoCheckoutAfter is the ceiling for an open check-in.
const DefaultAutoCheckoutAfter = 10 * time.Hour

// TimeOfDay is a wall-clock time without a date, e.g. the 09:30 lateness cut-off.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On places the time of day on the calendar day of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Policy holds the business thresholds used by the attendance state machine.
type Policy struct {
	AutoCheckoutAfter time.Duration
	LateAfter         TimeOfDay
}

// DefaultPolicy is a 10 hour ceiling with a 09:30 lateness threshold.
func DefaultPolicy() Policy {
	return Policy{
		AutoCheckoutAfter: DefaultAutoCheckoutAfter,
		LateAfter:         TimeOfDay{Hour: 9, Minute: 30},
	}
}

// ElapsedMinutes returns end-start truncated to whole minutes.
func ElapsedMinutes(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidTimeOrder
	}
	return int(end.Sub(start) / time.Minute), nil
}

// MinutesToHoursLabel renders minutes as "{H}h {M}m". Missing or non-positive
// input renders "0h 0m".
func MinutesToHoursLabel(minutes *int) string {
	if minutes == nil {
		return "0h 0m"
	}
	return FormatMinutes(*minutes)
}

// FormatMinutes renders minutes as "{H}h {M}m". Negative values are clamped
// to "0h 0m" rather than rejected; ElapsedMinutes is where a reversed span
// becomes ErrInvalidTimeOrder.
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0h 0m"
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// MinutesToHours converts minutes to hours rounded to two decimals.
func MinutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// IsLate reports whether checkIn falls strictly after threshold on its own day.
func IsLate(checkIn time.Time, threshold TimeOfDay) bool {
	return checkIn.After(threshold.On(checkIn))
}
