package dashboard

import (
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
)

// Event types published on sse.TopicReports.
const (
	EventRefreshed     = "report.refreshed"
	EventRefreshPaused = "report.refresh_paused"
)

type RefreshStatusResponse struct {
	State            string  `json:"state"`
	Enabled          bool    `json:"enabled"`
	IntervalSeconds  int     `json:"interval_seconds"`
	Retries          int     `json:"retries"`
	MaxRetries       int     `json:"max_retries"`
	SecondsUntilNext int     `json:"seconds_until_next"`
	InFlight         bool    `json:"in_flight"`
	LastRefresh      *string `json:"last_refresh"`
	LastError        *string `json:"last_error"`
}

// UpdateRefreshRequest toggles auto refresh and optionally changes its period.
type UpdateRefreshRequest struct {
	Enabled         *bool `json:"enabled,omitempty"`
	IntervalSeconds *int  `json:"interval_seconds,omitempty" validate:"omitempty,oneof=30 60 120 300"`
}

func (r *UpdateRefreshRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.Enabled == nil && r.IntervalSeconds == nil {
		return validator.ValidationErrors{{
			Field:   "request",
			Message: "enabled or interval_seconds is required",
		}}
	}
	return nil
}

// PausedEvent is the payload of EventRefreshPaused.
type PausedEvent struct {
	Retries int    `json:"retries"`
	Message string `json:"message"`
	At      string `json:"at"`
}
