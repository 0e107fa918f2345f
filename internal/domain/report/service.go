package report

import "context"

// ReportService defines the interface for report generation
type ReportService interface {
	// Generate Attendance Summary over a date range
	GenerateAttendanceSummary(ctx context.Context, req AttendanceSummaryRequest) (AttendanceSummary, error)

	// Generate Employee Performance for one employee
	GenerateEmployeePerformance(ctx context.Context, req EmployeePerformanceRequest) (EmployeePerformance, error)

	// Generate Department Report for one department
	GenerateDepartmentReport(ctx context.Context, req DepartmentReportRequest) (DepartmentReport, error)

	// Generate Dashboard statistics for today
	GenerateDashboard(ctx context.Context) (Dashboard, error)
}
