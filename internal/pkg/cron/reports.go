package cron

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/export"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/storage"
)

const JobArchiveReports = "archive_daily_reports"

// ReportJobs writes each finished day's attendance summary to file storage.
type ReportJobs struct {
	reportService report.ReportService
	store         storage.FileStorage
	clock         clock.Clock
	hour          int
	formats       []export.Format
}

type ReportJobsConfig struct {
	// Hour is the local hour during which yesterday is archived.
	Hour    int
	Formats []export.Format
}

func NewReportJobs(reportService report.ReportService, store storage.FileStorage, clk clock.Clock, cfg ReportJobsConfig) *ReportJobs {
	if len(cfg.Formats) == 0 {
		cfg.Formats = []export.Format{export.FormatJSON, export.FormatXLSX}
	}
	return &ReportJobs{
		reportService: reportService,
		store:         store,
		clock:         clk,
		hour:          cfg.Hour,
		formats:       cfg.Formats,
	}
}

func (j *ReportJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobArchiveReports, 1*time.Hour, j.ArchiveDailyReports)
}

// ArchivePath is where the archive stores a report for date.
func ArchivePath(reportType, date string, format export.Format) string {
	return path.Join(date[:4], date[5:7], export.FileName(reportType, date, format))
}

// ArchiveDailyReports archives yesterday during the configured hour.
func (j *ReportJobs) ArchiveDailyReports(ctx context.Context) error {
	now := j.clock.Now()
	if now.Hour() != j.hour {
		return nil
	}
	return j.ArchiveFor(ctx, now.AddDate(0, 0, -1).Format(attendance.DateLayout))
}

// ArchiveFor stores the attendance summary of date in every configured
// format. Files already present are left untouched.
func (j *ReportJobs) ArchiveFor(ctx context.Context, date string) error {
	summary, err := j.reportService.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{
		DateFrom: date,
		DateTo:   date,
	})
	if err != nil {
		return fmt.Errorf("failed to generate attendance summary for %s: %w", date, err)
	}

	var errs []error
	written := 0
	for _, format := range j.formats {
		p := ArchivePath(report.TypeAttendanceSummary, date, format)

		exists, err := j.store.Exists(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if exists {
			slog.Debug("Cron: Report already archived", "path", p)
			continue
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, format, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if _, err := j.store.Upload(ctx, &buf, p, format.ContentType()); err != nil {
			slog.Error("Cron: Failed to archive report", "path", p, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		written++
	}

	slog.Info("Cron: Archived daily reports", "date", date, "count", written)
	return errors.Join(errs...)
}
