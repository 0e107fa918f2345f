package cron

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/export"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
	reportsvc "github.com/cmlabs-hris/hrms-attendance-go/internal/service/report"
)

func TestArchivePath(t *testing.T) {
	assert.Equal(t, "2024/03/attendance-summary-report-2024-03-04.xlsx",
		ArchivePath("attendance-summary", "2024-03-04", export.FormatXLSX))
}

func newReportJobs(t *testing.T, start time.Time, hour int) (*ReportJobs, *jobsEnv, *storage.LocalStorage) {
	t.Helper()
	env := newJobsEnv(t, start, AttendanceJobsConfig{})
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	reports := reportsvc.NewReportService(env.records, env.directory, env.clock, worktime.DefaultPolicy())
	return NewReportJobs(reports, store, env.clock, ReportJobsConfig{Hour: hour}), env, store
}

func TestReportJobs_ArchiveFor(t *testing.T) {
	ctx := context.Background()
	jobs, env, store := newReportJobs(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), 1)

	_, err := env.svc.CheckIn(ctx, attendance.CheckInRequest{EmployeeID: "E1"})
	require.NoError(t, err)

	require.NoError(t, jobs.ArchiveFor(ctx, "2025-03-10"))

	for _, format := range []export.Format{export.FormatJSON, export.FormatXLSX} {
		ok, err := store.Exists(ctx, ArchivePath("attendance-summary", "2025-03-10", format))
		require.NoError(t, err)
		assert.True(t, ok, format)
	}

	rc, err := store.Download(ctx, ArchivePath("attendance-summary", "2025-03-10", export.FormatJSON))
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Contains(t, string(body), `"total_records": 1`)

	// A second run keeps the existing files.
	_, err = store.Upload(ctx, strings.NewReader("edited"), ArchivePath("attendance-summary", "2025-03-10", export.FormatJSON), "application/json")
	require.NoError(t, err)
	require.NoError(t, jobs.ArchiveFor(ctx, "2025-03-10"))
	rc, err = store.Download(ctx, ArchivePath("attendance-summary", "2025-03-10", export.FormatJSON))
	require.NoError(t, err)
	body, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "edited", string(body))
}

func TestReportJobs_OnlyRunsAtConfiguredHour(t *testing.T) {
	ctx := context.Background()
	jobs, env, store := newReportJobs(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), 1)

	require.NoError(t, jobs.ArchiveDailyReports(ctx))
	ok, err := store.Exists(ctx, ArchivePath("attendance-summary", "2025-03-09", export.FormatJSON))
	require.NoError(t, err)
	assert.False(t, ok)

	env.clock.Set(time.Date(2025, 3, 11, 1, 15, 0, 0, time.UTC))
	require.NoError(t, jobs.ArchiveDailyReports(ctx))
	ok, err = store.Exists(ctx, ArchivePath("attendance-summary", "2025-03-10", export.FormatJSON))
	require.NoError(t, err)
	assert.True(t, ok)

	s := NewScheduler()
	jobs.RegisterJobs(s)
	assert.Equal(t, []string{JobArchiveReports}, s.Jobs())
}
