package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/refresh"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/sse"
)

// Publisher receives dashboard events.
type Publisher interface {
	Publish(event sse.Event)
}

type RefreshServiceImpl struct {
	reports    report.ReportService
	publisher  Publisher
	controller *refresh.Controller

	// ctx outlives individual requests; Update enables the loop under it.
	ctx context.Context

	mu     sync.RWMutex
	latest *report.Dashboard
}

// NewRefreshService builds an idle refresher. Auto refresh loops started
// through Update run until ctx is done or Stop is called.
func NewRefreshService(ctx context.Context, reports report.ReportService, publisher Publisher, opts refresh.Options) (*RefreshServiceImpl, error) {
	s := &RefreshServiceImpl{
		reports:   reports,
		publisher: publisher,
		ctx:       ctx,
	}
	opts.Notifier = refresh.NotifierFunc(s.paused)

	controller, err := refresh.New(s.regenerate, opts)
	if err != nil {
		return nil, fmt.Errorf("create dashboard refresher: %w", err)
	}
	s.controller = controller
	return s, nil
}

// Enable starts auto refresh.
func (s *RefreshServiceImpl) Enable() error {
	return s.controller.Enable(s.ctx)
}

func (s *RefreshServiceImpl) regenerate(ctx context.Context) error {
	d, err := s.reports.GenerateDashboard(ctx)
	if err != nil {
		if refresh.IsBackground(ctx) {
			slog.Warn("Dashboard refresh failed", "error", err)
		}
		return err
	}

	s.mu.Lock()
	s.latest = &d
	s.mu.Unlock()

	if s.publisher != nil {
		s.publisher.Publish(sse.Event{
			Topic: sse.TopicReports,
			Type:  dashboard.EventRefreshed,
			Data:  d,
		})
	}
	return nil
}

func (s *RefreshServiceImpl) paused(n refresh.Notification) {
	slog.Error("Dashboard auto refresh paused", "retries", n.Retries, "error", n.Err)
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(sse.Event{
		Topic: sse.TopicReports,
		Type:  dashboard.EventRefreshPaused,
		Data: dashboard.PausedEvent{
			Retries: n.Retries,
			Message: n.Message(),
			At:      n.At.Format(time.RFC3339),
		},
	})
}

// Status implements dashboard.RefreshService.
func (s *RefreshServiceImpl) Status() dashboard.RefreshStatusResponse {
	snap := s.controller.Snapshot()

	resp := dashboard.RefreshStatusResponse{
		State:            string(snap.State),
		Enabled:          snap.State == refresh.StateActive,
		IntervalSeconds:  int(snap.Interval / time.Second),
		Retries:          snap.Retries,
		MaxRetries:       snap.MaxRetries,
		SecondsUntilNext: snap.SecondsUntilNext,
		InFlight:         snap.InFlight,
	}
	if snap.LastRefresh != nil {
		last := snap.LastRefresh.Format(time.RFC3339)
		resp.LastRefresh = &last
	}
	if snap.LastError != nil {
		msg := snap.LastError.Error()
		resp.LastError = &msg
	}
	return resp
}

// Update implements dashboard.RefreshService. The interval is applied before
// enabling so a newly started loop uses it from the first tick.
func (s *RefreshServiceImpl) Update(ctx context.Context, req dashboard.UpdateRefreshRequest) (dashboard.RefreshStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return dashboard.RefreshStatusResponse{}, err
	}

	if req.IntervalSeconds != nil {
		if err := s.controller.SetInterval(time.Duration(*req.IntervalSeconds) * time.Second); err != nil {
			return dashboard.RefreshStatusResponse{}, err
		}
	}

	if req.Enabled != nil {
		if *req.Enabled {
			if err := s.Enable(); err != nil {
				return dashboard.RefreshStatusResponse{}, err
			}
		} else {
			s.controller.Disable()
		}
	}

	slog.Info("audit", "action", "dashboard.refresh_updated", "entity_type", "dashboard",
		"state", s.controller.State(), "interval", s.controller.Interval())
	return s.Status(), nil
}

// RefreshNow implements dashboard.RefreshService.
func (s *RefreshServiceImpl) RefreshNow(ctx context.Context) (report.Dashboard, error) {
	if err := s.controller.RefreshNow(ctx); err != nil {
		if errors.Is(err, refresh.ErrRefreshInFlight) {
			return report.Dashboard{}, dashboard.ErrRefreshInFlight
		}
		return report.Dashboard{}, err
	}
	d, _ := s.Latest()
	return d, nil
}

// Latest implements dashboard.RefreshService.
func (s *RefreshServiceImpl) Latest() (report.Dashboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return report.Dashboard{}, false
	}
	return *s.latest, true
}

// Stop implements dashboard.RefreshService.
func (s *RefreshServiceImpl) Stop() {
	s.controller.Disable()
}
