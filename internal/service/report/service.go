package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
	"golang.org/x/sync/errgroup"
)

// dashboardWindow is the number of days, today included, behind the average working hours.
const dashboardWindow = 7

type ReportServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	aggregator Aggregator
	clock      clock.Clock
}

func NewReportService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	clk clock.Clock,
	policy worktime.Policy,
) report.ReportService {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &ReportServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		aggregator: Aggregator{
			Location:          clk.Now().Location(),
			AutoCheckoutAfter: policy.AutoCheckoutAfter,
		},
		clock: clk,
	}
}

// storeUnavailable marks collaborator failures so callers can tell them from bad input.
func storeUnavailable(op string, err error) error {
	if errors.Is(err, attendance.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, attendance.ErrStoreUnavailable, err)
}

// load reads records and the full directory concurrently.
func (s *ReportServiceImpl) load(ctx context.Context, from, to string, filter attendance.RangeFilter) ([]attendance.Record, []employee.Employee, error) {
	var (
		records   []attendance.Record
		directory []employee.Employee
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.AttendanceRepository.QueryRange(gctx, from, to, filter)
		if err != nil {
			return storeUnavailable("query attendance", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		directory, _, err = s.EmployeeRepository.List(gctx, employee.EmployeeFilter{})
		if err != nil {
			return storeUnavailable("list employees", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return records, directory, nil
}

// at returns the aggregator evaluating open records at now.
func (s *ReportServiceImpl) at(now time.Time) Aggregator {
	agg := s.aggregator
	agg.Now = now
	return agg
}

// GenerateAttendanceSummary implements report.ReportService.
func (s *ReportServiceImpl) GenerateAttendanceSummary(ctx context.Context, req report.AttendanceSummaryRequest) (report.AttendanceSummary, error) {
	rng, err := req.Validate()
	if err != nil {
		return report.AttendanceSummary{}, err
	}

	var filter SummaryFilter
	var rangeFilter attendance.RangeFilter
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		filter.EmployeeID = strings.ToUpper(strings.TrimSpace(*req.EmployeeID))
		rangeFilter.EmployeeIDs = []string{filter.EmployeeID}
	}
	if req.Department != nil {
		filter.Department = strings.TrimSpace(*req.Department)
	}

	records, directory, err := s.load(ctx, rng.From, rng.To, rangeFilter)
	if err != nil {
		return report.AttendanceSummary{}, err
	}

	now := s.clock.Now()
	summary := s.at(now).AttendanceSummary(records, directory, rng, filter)
	summary.GeneratedAt = now.Format(time.RFC3339)
	return summary, nil
}

// GenerateEmployeePerformance implements report.ReportService.
func (s *ReportServiceImpl) GenerateEmployeePerformance(ctx context.Context, req report.EmployeePerformanceRequest) (report.EmployeePerformance, error) {
	rng, err := req.Validate()
	if err != nil {
		return report.EmployeePerformance{}, err
	}

	records, directory, err := s.load(ctx, rng.From, rng.To, attendance.RangeFilter{EmployeeIDs: []string{req.EmployeeID}})
	if err != nil {
		return report.EmployeePerformance{}, err
	}

	now := s.clock.Now()
	perf := s.at(now).EmployeePerformance(records, directory, rng, req.EmployeeID)
	perf.GeneratedAt = now.Format(time.RFC3339)
	return perf, nil
}

// GenerateDepartmentReport implements report.ReportService.
func (s *ReportServiceImpl) GenerateDepartmentReport(ctx context.Context, req report.DepartmentReportRequest) (report.DepartmentReport, error) {
	rng, err := req.Validate()
	if err != nil {
		return report.DepartmentReport{}, err
	}

	records, directory, err := s.load(ctx, rng.From, rng.To, attendance.RangeFilter{})
	if err != nil {
		return report.DepartmentReport{}, err
	}

	now := s.clock.Now()
	dept := s.at(now).DepartmentReport(records, directory, rng, req.Department)
	dept.GeneratedAt = now.Format(time.RFC3339)
	return dept, nil
}

// GenerateDashboard implements report.ReportService.
func (s *ReportServiceImpl) GenerateDashboard(ctx context.Context) (report.Dashboard, error) {
	now := s.clock.Now()
	today := now.Format(attendance.DateLayout)
	weekFrom := now.AddDate(0, 0, -(dashboardWindow - 1)).Format(attendance.DateLayout)

	records, directory, err := s.load(ctx, weekFrom, today, attendance.RangeFilter{})
	if err != nil {
		return report.Dashboard{}, err
	}

	todayRecords := make([]attendance.Record, 0)
	for _, r := range records {
		if r.Date == today {
			todayRecords = append(todayRecords, r)
		}
	}

	dash := s.aggregator.Dashboard(todayRecords, records, directory, today, now)
	dash.GeneratedAt = now.Format(time.RFC3339)
	return dash, nil
}
