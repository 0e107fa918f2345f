package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/config"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/refresh"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Port: 0, Env: "test", Timezone: "UTC", Storage: config.StorageMemory},
		JWT: config.JWTConfig{Secret: "app-test-secret", AccessExpiration: time.Hour},
		Attendance: config.AttendanceConfig{
			AutoCheckoutAfter: worktime.DefaultAutoCheckoutAfter,
			LateAfter:         "09:30",
			SweepInterval:     time.Minute,
		},
		Refresh: config.RefreshConfig{
			Interval:     refresh.DefaultInterval,
			MaxRetries:   refresh.DefaultMaxRetries,
			PauseOnError: true,
		},
	}
}

func TestNew_MemoryStorage(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Equal(t, []string{cron.JobAutoCheckout}, a.Scheduler.Jobs())

	_, err = a.Employees.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		EmployeeID: "E1", FullName: "Ani Wijaya", Email: "ani@example.com", Department: "Engineering",
	})
	require.NoError(t, err)

	_, err = a.Attendance.CheckIn(ctx, attendance.CheckInRequest{EmployeeID: "E1"})
	require.NoError(t, err)

	d, err := a.Reports.GenerateDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalEmployees)
	assert.Equal(t, 1, d.CheckedInNow)
}

func TestNew_MarkAbsentJobRegistered(t *testing.T) {
	cfg := memoryConfig()
	cfg.Attendance.MarkAbsent = true

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{cron.JobAutoCheckout, cron.JobMarkAbsent}, a.Scheduler.Jobs())
}

func TestNew_ReportArchive(t *testing.T) {
	cfg := memoryConfig()
	cfg.Archive = config.ArchiveConfig{Dir: t.TempDir(), Hour: 2}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.ReportJobs)
	assert.Equal(t, []string{cron.JobAutoCheckout, cron.JobArchiveReports}, a.Scheduler.Jobs())
	require.NoError(t, a.ReportJobs.ArchiveFor(context.Background(), "2024-03-04"))
	assert.FileExists(t, filepath.Join(cfg.Archive.Dir, "2024", "03", "attendance-summary-report-2024-03-04.json"))
}

func TestNew_InvalidTimezone(t *testing.T) {
	cfg := memoryConfig()
	cfg.App.Timezone = "Mars/Olympus"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Router(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := memoryConfig()
	cfg.App.Port = 0
	cfg.Refresh.Enabled = true

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, nil) }()

	assert.Eventually(t, func() bool { return a.Refresher.Status().Enabled }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.False(t, a.Refresher.Status().Enabled)
}
