package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedReport = errors.New("report cannot be exported as a spreadsheet")

// ParseFormat maps a query value to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", report.ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// FileName returns the download name, e.g. attendance-summary-report-2024-03-04.json.
func FileName(reportType, date string, format Format) string {
	if format == "" {
		format = FormatJSON
	}
	return fmt.Sprintf("%s-report-%s.%s", reportType, date, format)
}

// Write serialises a generated report in the requested format.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, v)
	case FormatXLSX:
		return WriteXLSX(w, v)
	default:
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, format)
	}
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteXLSX renders a report workbook with a summary sheet and a detail sheet.
func WriteXLSX(w io.Writer, v any) error {
	f := excelize.NewFile()
	defer f.Close()

	b, err := newBook(f)
	if err != nil {
		return err
	}

	switch r := v.(type) {
	case report.AttendanceSummary:
		err = b.attendanceSummary(r)
	case *report.AttendanceSummary:
		err = b.attendanceSummary(*r)
	case report.EmployeePerformance:
		err = b.employeePerformance(r)
	case *report.EmployeePerformance:
		err = b.employeePerformance(*r)
	case report.DepartmentReport:
		err = b.departmentReport(r)
	case *report.DepartmentReport:
		err = b.departmentReport(*r)
	case report.Dashboard:
		err = b.dashboard(r)
	case *report.Dashboard:
		err = b.dashboard(*r)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedReport, v)
	}
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

const (
	SheetSummary = "Summary"
	SheetDetail  = "Detail"
)

type book struct {
	f      *excelize.File
	header int
	title  int
}

func newBook(f *excelize.File) (*book, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, err
	}
	return &book{f: f, header: header, title: title}, nil
}

func (b *book) row(sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return b.f.SetSheetRow(sheet, cell, &values)
}

func (b *book) headerRow(sheet string, row int, headers ...string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := b.row(sheet, row, values...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	return b.f.SetCellStyle(sheet, first, last, b.header)
}

// summarySheet writes a title and two-column metric table starting at A1.
func (b *book) summarySheet(title string, metrics [][2]any) error {
	if _, err := b.f.NewSheet(SheetSummary); err != nil {
		return err
	}
	if err := b.f.SetCellValue(SheetSummary, "A1", title); err != nil {
		return err
	}
	if err := b.f.SetCellStyle(SheetSummary, "A1", "A1", b.title); err != nil {
		return err
	}
	if err := b.headerRow(SheetSummary, 3, "Metric", "Value"); err != nil {
		return err
	}
	for i, m := range metrics {
		if err := b.row(SheetSummary, 4+i, m[0], m[1]); err != nil {
			return err
		}
	}
	return b.f.SetColWidth(SheetSummary, "A", "A", 28)
}

func (b *book) detailSheet(headers []string, rows [][]any) error {
	if _, err := b.f.NewSheet(SheetDetail); err != nil {
		return err
	}
	if err := b.headerRow(SheetDetail, 1, headers...); err != nil {
		return err
	}
	for i, r := range rows {
		if err := b.row(SheetDetail, 2+i, r...); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	return b.f.SetColWidth(SheetDetail, "A", last, 16)
}

func optional(s *string) string {
	if s == nil || *s == "" {
		return "All"
	}
	return *s
}

func (b *book) attendanceSummary(r report.AttendanceSummary) error {
	err := b.summarySheet("Attendance Summary", [][2]any{
		{"Date From", r.DateRange.From},
		{"Date To", r.DateRange.To},
		{"Department", optional(r.Department)},
		{"Employee", optional(r.EmployeeID)},
		{"Generated At", r.GeneratedAt},
		{"Total Records", r.Summary.TotalRecords},
		{"Present", r.Summary.PresentCount},
		{"Absent", r.Summary.AbsentCount},
		{"Late", r.Summary.LateCount},
		{"Half Day", r.Summary.HalfDayCount},
		{"Work From Home", r.Summary.WorkFromHomeCount},
		{"Attendance Rate (%)", r.Summary.AttendanceRate},
		{"Total Hours", r.Summary.TotalHours},
	})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(r.Employees))
	for _, e := range r.Employees {
		rows = append(rows, []any{e.EmployeeID, e.EmployeeName, e.Department, e.Present, e.Absent, e.Late, e.HalfDay, e.WorkFromHome, e.TotalDays, e.TotalHours})
	}
	return b.detailSheet([]string{"Employee ID", "Name", "Department", "Present", "Absent", "Late", "Half Day", "Work From Home", "Total Days", "Total Hours"}, rows)
}

func (b *book) employeePerformance(r report.EmployeePerformance) error {
	err := b.summarySheet("Employee Performance", [][2]any{
		{"Employee ID", r.Employee.EmployeeID},
		{"Name", r.Employee.FullName},
		{"Department", r.Employee.Department},
		{"Date From", r.DateRange.From},
		{"Date To", r.DateRange.To},
		{"Generated At", r.GeneratedAt},
		{"Total Days", r.Summary.TotalDays},
		{"Present Days", r.Summary.PresentDays},
		{"Absent Days", r.Summary.AbsentDays},
		{"Late Days", r.Summary.LateDays},
		{"Attendance Rate (%)", r.Summary.AttendanceRate},
		{"Total Hours", r.Summary.TotalHours},
		{"Avg Hours / Day", r.Summary.AvgHoursPerDay},
	})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(r.Records))
	for _, e := range r.Records {
		auto := "No"
		if e.IsAutoCheckout {
			auto = "Yes"
		}
		rows = append(rows, []any{e.Date, e.Status, e.CheckInTime, e.CheckOutTime, e.WorkingHours, e.WorkingLabel, auto, e.Notes})
	}
	return b.detailSheet([]string{"Date", "Status", "Check In", "Check Out", "Working Hours", "Duration", "Auto Checkout", "Notes"}, rows)
}

func (b *book) departmentReport(r report.DepartmentReport) error {
	err := b.summarySheet("Department Report", [][2]any{
		{"Department", r.Department},
		{"Date From", r.DateRange.From},
		{"Date To", r.DateRange.To},
		{"Generated At", r.GeneratedAt},
		{"Total Employees", r.Summary.TotalEmployees},
		{"Total Records", r.Summary.TotalRecords},
		{"Present", r.Summary.PresentCount},
		{"Absent", r.Summary.AbsentCount},
		{"Late", r.Summary.LateCount},
		{"Attendance Rate (%)", r.Summary.AttendanceRate},
	})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(r.Employees))
	for _, e := range r.Employees {
		rows = append(rows, []any{e.EmployeeID, e.EmployeeName, e.Present, e.Absent, e.Late, e.TotalDays, e.TotalHours, e.AttendanceRate})
	}
	return b.detailSheet([]string{"Employee ID", "Name", "Present", "Absent", "Late", "Total Days", "Total Hours", "Attendance Rate (%)"}, rows)
}

func (b *book) dashboard(r report.Dashboard) error {
	err := b.summarySheet("Dashboard", [][2]any{
		{"Date", r.Date},
		{"Generated At", r.GeneratedAt},
		{"Total Employees", r.TotalEmployees},
		{"Active Employees", r.ActiveEmployees},
		{"Present Today", r.PresentToday},
		{"Absent Today", r.AbsentToday},
		{"Late Today", r.LateToday},
		{"Checked In Now", r.CheckedInNow},
		{"Not Checked In", r.NotCheckedIn},
		{"Departments", r.TotalDepartments},
		{"Recent Hires (30d)", r.RecentHires},
		{"Attendance Rate (%)", r.AttendanceRate},
		{"Avg Working Hours (7d)", r.AvgWorkingHoursWeek},
	})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(r.RecentAttendance))
	for _, e := range r.RecentAttendance {
		rows = append(rows, []any{e.EmployeeID, e.EmployeeName, e.Department, e.Status, e.CheckInTime, e.CheckOutTime})
	}
	return b.detailSheet([]string{"Employee ID", "Name", "Department", "Status", "Check In", "Check Out"}, rows)
}
