package report

import (
	"context"
	"fmt"
)

// Types lists every report the service can produce, in display order.
var Types = []string{TypeAttendanceSummary, TypeEmployeePerformance, TypeDepartment, TypeDashboard}

// Params carries the union of report filters, as received from a query string
// or command line. Each report reads the fields it needs.
type Params struct {
	DateFrom   string
	DateTo     string
	Department string
	EmployeeID string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Generate dispatches to the ReportService method for reportType.
func Generate(ctx context.Context, svc ReportService, reportType string, p Params) (any, error) {
	switch reportType {
	case TypeAttendanceSummary:
		return svc.GenerateAttendanceSummary(ctx, AttendanceSummaryRequest{
			DateFrom:   p.DateFrom,
			DateTo:     p.DateTo,
			Department: optional(p.Department),
			EmployeeID: optional(p.EmployeeID),
		})
	case TypeEmployeePerformance:
		return svc.GenerateEmployeePerformance(ctx, EmployeePerformanceRequest{
			EmployeeID: p.EmployeeID,
			DateFrom:   p.DateFrom,
			DateTo:     p.DateTo,
		})
	case TypeDepartment:
		return svc.GenerateDepartmentReport(ctx, DepartmentReportRequest{
			Department: p.Department,
			DateFrom:   p.DateFrom,
			DateTo:     p.DateTo,
		})
	case TypeDashboard:
		return svc.GenerateDashboard(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, reportType)
	}
}
