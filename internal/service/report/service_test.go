package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingAttendanceRepository fails every range query.
type failingAttendanceRepository struct {
	attendance.AttendanceRepository
	err error
}

func (f failingAttendanceRepository) QueryRange(ctx context.Context, from, to string, filter attendance.RangeFilter) ([]attendance.Record, error) {
	return nil, f.err
}

func newServiceFixture(t *testing.T) (report.ReportService, attendance.AttendanceRepository, employee.EmployeeRepository) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 3, 11, 19, 0, 0, 0, time.UTC))
	records := memory.NewAttendanceRepository(clk)
	directory := memory.NewEmployeeRepository(records, clk)

	ctx := context.Background()
	for i, e := range fixtureDirectory() {
		e.Email = string(rune('a'+i)) + "@example.com"
		_, err := directory.Create(ctx, e)
		require.NoError(t, err)
	}
	for _, r := range fixtureRecords() {
		_, err := records.Put(ctx, r)
		require.NoError(t, err)
	}

	return NewReportService(records, directory, clk, worktime.DefaultPolicy()), records, directory
}

func strPtr(s string) *string { return &s }

func TestGenerateAttendanceSummary(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	summary, err := svc.GenerateAttendanceSummary(context.Background(), report.AttendanceSummaryRequest{
		DateFrom: "2025-03-10",
		DateTo:   "2025-03-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Summary.TotalRecords)
	assert.Equal(t, 67, summary.Summary.AttendanceRate)
	assert.Equal(t, "2025-03-11T19:00:00Z", summary.GeneratedAt)

	byEmployee, err := svc.GenerateAttendanceSummary(context.Background(), report.AttendanceSummaryRequest{
		DateFrom:   "2025-03-10",
		DateTo:     "2025-03-12",
		EmployeeID: strPtr(" e1 "),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, byEmployee.Summary.TotalRecords)
	require.NotNil(t, byEmployee.EmployeeID)
	assert.Equal(t, "E1", *byEmployee.EmployeeID)
}

func TestGenerateAttendanceSummary_EmptyRange(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	summary, err := svc.GenerateAttendanceSummary(context.Background(), report.AttendanceSummaryRequest{
		DateFrom: "2020-01-01",
		DateTo:   "2020-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Summary.AttendanceRate)
}

func TestGenerateReports_RangeValidation(t *testing.T) {
	svc, _, _ := newServiceFixture(t)
	ctx := context.Background()

	_, err := svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{DateFrom: "2025-03-12", DateTo: "2025-03-10"})
	assert.ErrorIs(t, err, report.ErrInvalidRange)

	_, err = svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{DateFrom: "2025-03-10"})
	assert.ErrorIs(t, err, attendance.ErrValidation)

	_, err = svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{DateFrom: "10/03/2025", DateTo: "2025-03-11"})
	assert.ErrorIs(t, err, attendance.ErrValidation)

	_, err = svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{DateFrom: "2025-03-10", DateTo: "2025-03-10"})
	assert.NoError(t, err)
}

func TestGenerateReports_MissingFilter(t *testing.T) {
	svc, _, _ := newServiceFixture(t)
	ctx := context.Background()

	_, err := svc.GenerateDepartmentReport(ctx, report.DepartmentReportRequest{DateFrom: "2025-03-10", DateTo: "2025-03-11"})
	assert.ErrorIs(t, err, report.ErrMissingFilter)

	_, err = svc.GenerateEmployeePerformance(ctx, report.EmployeePerformanceRequest{DateFrom: "2025-03-10", DateTo: "2025-03-11"})
	assert.ErrorIs(t, err, report.ErrMissingFilter)

	_, err = svc.GenerateDepartmentReport(ctx, report.DepartmentReportRequest{Department: "  ", DateFrom: "bad", DateTo: "2025-03-11"})
	assert.ErrorIs(t, err, report.ErrMissingFilter, "missing filter is reported before date errors")
}

func TestGenerateEmployeePerformance(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	perf, err := svc.GenerateEmployeePerformance(context.Background(), report.EmployeePerformanceRequest{
		EmployeeID: "e1",
		DateFrom:   "2025-03-10",
		DateTo:     "2025-03-12",
	})
	require.NoError(t, err)
	assert.Equal(t, "E1", perf.Employee.EmployeeID)
	assert.Equal(t, 3, perf.Summary.TotalDays)
	assert.Len(t, perf.Records, 3)
}

func TestGenerateDepartmentReport(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	dept, err := svc.GenerateDepartmentReport(context.Background(), report.DepartmentReportRequest{
		Department: "Engineering",
		DateFrom:   "2025-03-10",
		DateTo:     "2025-03-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 75, dept.Summary.AttendanceRate)
	assert.Len(t, dept.Employees, 3)
}

func TestGenerateDashboard(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	dash, err := svc.GenerateDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", dash.Date)
	assert.Equal(t, 4, dash.ActiveEmployees)
	assert.Equal(t, 2, dash.PresentToday, "E2 and a record of an unknown employee")
	assert.Equal(t, 1, dash.LateToday)
}

func TestGenerateReports_StoreUnavailable(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 11, 19, 0, 0, 0, time.UTC))
	records := memory.NewAttendanceRepository(clk)
	directory := memory.NewEmployeeRepository(records, clk)
	broken := failingAttendanceRepository{AttendanceRepository: records, err: errors.New("connection refused")}

	svc := NewReportService(broken, directory, clk, worktime.DefaultPolicy())

	_, err := svc.GenerateAttendanceSummary(context.Background(), report.AttendanceSummaryRequest{DateFrom: "2025-03-10", DateTo: "2025-03-11"})
	assert.ErrorIs(t, err, attendance.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = svc.GenerateDashboard(context.Background())
	assert.ErrorIs(t, err, attendance.ErrStoreUnavailable)
}

func TestGenerateReports_ApplyDueAutoCheckout(t *testing.T) {
	svc, records, _ := newServiceFixture(t)
	ctx := context.Background()

	_, err := records.Put(ctx, attendance.Record{
		EmployeeID: "E4", Date: "2025-03-10", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-10", 8, 0),
	})
	require.NoError(t, err)

	perf, err := svc.GenerateEmployeePerformance(ctx, report.EmployeePerformanceRequest{
		EmployeeID: "E4",
		DateFrom:   "2025-03-10",
		DateTo:     "2025-03-11",
	})
	require.NoError(t, err)
	require.Len(t, perf.Records, 1)
	assert.Equal(t, "18:00", perf.Records[0].CheckOutTime)
	assert.True(t, perf.Records[0].IsAutoCheckout)
	assert.Equal(t, 10.0, perf.Summary.TotalHours)

	summary, err := svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{
		DateFrom:   "2025-03-10",
		DateTo:     "2025-03-11",
		EmployeeID: strPtr("E4"),
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, summary.Summary.TotalHours)
}
