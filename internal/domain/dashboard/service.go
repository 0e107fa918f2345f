package dashboard

import (
	"context"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
)

// RefreshService keeps the dashboard report fresh on a timer and pushes each
// regenerated report to live subscribers.
type RefreshService interface {
	Status() RefreshStatusResponse
	Update(ctx context.Context, req UpdateRefreshRequest) (RefreshStatusResponse, error)
	RefreshNow(ctx context.Context) (report.Dashboard, error)
	// Latest returns the last successfully generated dashboard, if any.
	Latest() (report.Dashboard, bool)
	Stop()
}
