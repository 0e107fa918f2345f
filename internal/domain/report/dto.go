package report

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
)

const (
	TypeAttendanceSummary   = "attendance-summary"
	TypeEmployeePerformance = "employee-performance"
	TypeDepartment          = "department"
	TypeDashboard           = "dashboard"
)

// Range is an inclusive span of calendar days in YYYY-MM-DD form.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Contains reports whether date falls inside the range.
func (r Range) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// NewRange validates both bounds and their order.
func NewRange(from, to string) (Range, error) {
	var errs validator.ValidationErrors

	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)

	fromDate, fromOK := validator.IsValidDate(from)
	if from == "" {
		errs = append(errs, validator.ValidationError{Field: "date_from", Message: "date_from is required"})
	} else if !fromOK {
		errs = append(errs, validator.ValidationError{Field: "date_from", Message: "date_from must be in YYYY-MM-DD format"})
	}

	toDate, toOK := validator.IsValidDate(to)
	if to == "" {
		errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to is required"})
	} else if !toOK {
		errs = append(errs, validator.ValidationError{Field: "date_to", Message: "date_to must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return Range{}, errs
	}

	if fromDate.After(toDate) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, from, to)
	}

	return Range{From: from, To: to}, nil
}

func missingFilter(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingFilter, name)
}

// ========================================
// ATTENDANCE SUMMARY
// ========================================

type AttendanceSummaryRequest struct {
	DateFrom   string  `json:"date_from"`
	DateTo     string  `json:"date_to"`
	Department *string `json:"department,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
}

func (r *AttendanceSummaryRequest) Validate() (Range, error) {
	return NewRange(r.DateFrom, r.DateTo)
}

type AttendanceSummary struct {
	ReportType  string  `json:"report_type"`
	DateRange   Range   `json:"date_range"`
	Department  *string `json:"department"`
	EmployeeID  *string `json:"employee_id"`
	GeneratedAt string  `json:"generated_at"`

	Summary   SummaryTotals     `json:"summary"`
	Employees []EmployeeSummary `json:"employee_summary"`
}

type SummaryTotals struct {
	TotalRecords      int     `json:"total_records"`
	PresentCount      int     `json:"present_count"`
	AbsentCount       int     `json:"absent_count"`
	LateCount         int     `json:"late_count"`
	HalfDayCount      int     `json:"half_day_count"`
	WorkFromHomeCount int     `json:"work_from_home_count"`
	AttendanceRate    int     `json:"attendance_rate"`
	TotalHours        float64 `json:"total_hours"`
}

type EmployeeSummary struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Department   string  `json:"department"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Late         int     `json:"late"`
	HalfDay      int     `json:"half_day"`
	WorkFromHome int     `json:"work_from_home"`
	TotalDays    int     `json:"total_days"`
	TotalHours   float64 `json:"total_hours"`
}

// ========================================
// EMPLOYEE PERFORMANCE
// ========================================

type EmployeePerformanceRequest struct {
	EmployeeID string `json:"employee_id"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
}

func (r *EmployeePerformanceRequest) Validate() (Range, error) {
	r.EmployeeID = strings.ToUpper(strings.TrimSpace(r.EmployeeID))
	if r.EmployeeID == "" {
		return Range{}, missingFilter("employee_id")
	}
	return NewRange(r.DateFrom, r.DateTo)
}

type EmployeePerformance struct {
	ReportType  string             `json:"report_type"`
	Employee    EmployeeRef        `json:"employee"`
	DateRange   Range              `json:"date_range"`
	GeneratedAt string             `json:"generated_at"`
	Summary     PerformanceSummary `json:"summary"`
	Records     []PerformanceEntry `json:"attendance_records"`
}

type EmployeeRef struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

type PerformanceSummary struct {
	TotalDays      int     `json:"total_days"`
	PresentDays    int     `json:"present_days"`
	AbsentDays     int     `json:"absent_days"`
	LateDays       int     `json:"late_days"`
	AttendanceRate int     `json:"attendance_rate"`
	TotalHours     float64 `json:"total_hours"`
	AvgHoursPerDay float64 `json:"avg_hours_per_day"`
}

// PerformanceEntry never omits keys; missing values carry placeholders.
type PerformanceEntry struct {
	Date           string  `json:"date"`
	Status         string  `json:"status"`
	CheckInTime    string  `json:"check_in_time"`
	CheckOutTime   string  `json:"check_out_time"`
	WorkingHours   float64 `json:"working_hours"`
	WorkingLabel   string  `json:"working_label"`
	IsAutoCheckout bool    `json:"is_auto_checkout"`
	Notes          string  `json:"notes"`
}

// ========================================
// DEPARTMENT REPORT
// ========================================

type DepartmentReportRequest struct {
	Department string `json:"department"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
}

func (r *DepartmentReportRequest) Validate() (Range, error) {
	r.Department = strings.TrimSpace(r.Department)
	if r.Department == "" {
		return Range{}, missingFilter("department")
	}
	return NewRange(r.DateFrom, r.DateTo)
}

type DepartmentReport struct {
	ReportType  string               `json:"report_type"`
	Department  string               `json:"department"`
	DateRange   Range                `json:"date_range"`
	GeneratedAt string               `json:"generated_at"`
	Summary     DepartmentTotals     `json:"summary"`
	Employees   []DepartmentEmployee `json:"employees"`
}

type DepartmentTotals struct {
	TotalEmployees int `json:"total_employees"`
	TotalRecords   int `json:"total_records"`
	PresentCount   int `json:"present_count"`
	AbsentCount    int `json:"absent_count"`
	LateCount      int `json:"late_count"`
	AttendanceRate int `json:"attendance_rate"`
}

type DepartmentEmployee struct {
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	TotalDays      int     `json:"total_days"`
	TotalHours     float64 `json:"total_hours"`
	AttendanceRate int     `json:"attendance_rate"`
}

// ========================================
// DASHBOARD
// ========================================

type Dashboard struct {
	Date                string             `json:"date"`
	GeneratedAt         string             `json:"generated_at"`
	TotalEmployees      int                `json:"total_employees"`
	ActiveEmployees     int                `json:"active_employees"`
	PresentToday        int                `json:"present_today"`
	AbsentToday         int                `json:"absent_today"`
	LateToday           int                `json:"late_today"`
	CheckedInNow        int                `json:"checked_in_now"`
	NotCheckedIn        int                `json:"not_checked_in"`
	Departments         []string           `json:"departments"`
	TotalDepartments    int                `json:"total_departments"`
	RecentHires         int                `json:"recent_hires"`
	AttendanceRate      int                `json:"attendance_rate"`
	AvgWorkingHoursWeek float64            `json:"avg_working_hours"`
	RecentAttendance    []RecentAttendance `json:"recent_attendance"`
}

type RecentAttendance struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
	Status       string `json:"status"`
	CheckInTime  string `json:"check_in_time"`
	CheckOutTime string `json:"check_out_time"`
}
