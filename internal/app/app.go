// Package app assembles the attendance services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/config"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	appHTTP "github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/refresh"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/repository/memory"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hrms-attendance-go/internal/service/attendance"
	authService "github.com/cmlabs-hris/hrms-attendance-go/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/hrms-attendance-go/internal/service/dashboard"
	employeeService "github.com/cmlabs-hris/hrms-attendance-go/internal/service/employee"
	reportService "github.com/cmlabs-hris/hrms-attendance-go/internal/service/report"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config *config.Config
	Clock  clock.Clock
	DB     *database.DB
	Hub    *sse.Hub
	JWT    *jwt.JWTService

	AttendanceRepo attendance.AttendanceRepository
	EmployeeRepo   employee.EmployeeRepository

	Attendance attendance.AttendanceService
	Employees  employee.EmployeeService
	Reports    report.ReportService
	Auth       auth.AuthService
	Refresher  *dashboardService.RefreshServiceImpl

	Scheduler *cron.Scheduler
	Jobs      *cron.AttendanceJobs
	// ReportJobs is nil unless REPORT_ARCHIVE_DIR is set.
	ReportJobs *cron.ReportJobs
}

// New connects the configured store and builds every service. Loops started
// later (scheduler, refresher) are bound to ctx.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Clock:  clock.NewReal(loc),
		Hub:    sse.NewHub(),
	}

	var jwtOpts []jwt.Option
	switch cfg.App.Storage {
	case config.StoragePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.DB = db
		a.AttendanceRepo = postgresql.NewAttendanceRepository(db)
		a.EmployeeRepo = postgresql.NewEmployeeRepository(db, a.AttendanceRepo)
		jwtOpts = append(jwtOpts, jwt.WithRevocationStore(postgresql.NewTokenRevocationRepository(db)))
	default:
		a.AttendanceRepo = memory.NewAttendanceRepository(a.Clock)
		a.EmployeeRepo = memory.NewEmployeeRepository(a.AttendanceRepo, a.Clock)
	}
	a.JWT = jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, jwtOpts...)
	slog.Info("Storage ready", "storage", cfg.App.Storage, "timezone", loc.String())

	a.Attendance = attendanceService.NewAttendanceService(a.AttendanceRepo, a.EmployeeRepo, a.Clock, policy, a.Hub)
	a.Employees = employeeService.NewEmployeeService(a.EmployeeRepo)
	a.Reports = reportService.NewReportService(a.AttendanceRepo, a.EmployeeRepo, a.Clock, policy)
	a.Auth = authService.NewAuthService(a.JWT, cfg.JWT.APIKeyHash)

	a.Refresher, err = dashboardService.NewRefreshService(ctx, a.Reports, a.Hub, refresh.Options{
		Interval:     cfg.Refresh.Interval,
		MaxRetries:   cfg.Refresh.MaxRetries,
		PauseOnError: cfg.Refresh.PauseOnError,
		Clock:        a.Clock,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Scheduler = cron.NewScheduler()
	a.Jobs = cron.NewAttendanceJobs(a.Attendance, a.Clock, cron.AttendanceJobsConfig{
		SweepInterval:  cfg.Attendance.SweepInterval,
		MarkAbsent:     cfg.Attendance.MarkAbsent,
		MarkAbsentHour: cfg.Attendance.MarkAbsentHour,
	})
	a.Jobs.RegisterJobs(a.Scheduler)

	if cfg.Archive.Dir != "" {
		store, err := storage.NewLocalStorage(cfg.Archive.Dir)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.ReportJobs = cron.NewReportJobs(a.Reports, store, a.Clock, cron.ReportJobsConfig{Hour: cfg.Archive.Hour})
		a.ReportJobs.RegisterJobs(a.Scheduler)
	}

	return a, nil
}

// Router builds the HTTP API.
func (a *App) Router(logger *slog.Logger) http.Handler {
	var health func(ctx context.Context) error
	if a.DB != nil {
		health = a.DB.Ping
	}

	return appHTTP.NewRouter(a.JWT, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(a.Auth),
		Employee:   appHTTP.NewEmployeeHandler(a.Employees),
		Attendance: appHTTP.NewAttendanceHandler(a.Attendance),
		Report:     appHTTP.NewReportHandler(a.Reports, a.Clock),
		Dashboard:  appHTTP.NewDashboardHandler(a.Refresher),
		Events:     appHTTP.NewEventHandler(a.Hub, a.JWT),
	}, appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		Health:         health,
	})
}

// Serve runs the HTTP server and background jobs until ctx is done, then
// shuts everything down.
func (a *App) Serve(ctx context.Context, logger *slog.Logger) error {
	a.Scheduler.Start(ctx)
	defer a.Scheduler.Stop()

	if a.Config.Refresh.Enabled {
		if err := a.Refresher.Enable(); err != nil {
			return fmt.Errorf("enable dashboard refresh: %w", err)
		}
	}
	defer a.Refresher.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.App.Port),
		Handler:           a.Router(logger),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end when ctx is done so Shutdown does not wait on them
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", "http://localhost"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
