package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(date string, hour, minute int) *time.Time {
	d, err := time.Parse(attendance.DateLayout, date)
	if err != nil {
		panic(err)
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}

func fixtureDirectory() []employee.Employee {
	return []employee.Employee{
		{EmployeeID: "E1", FullName: "Ani Wijaya", Department: "Engineering", Status: employee.StatusActive},
		{EmployeeID: "E2", FullName: "Budi Santoso", Department: "Engineering", Status: employee.StatusActive},
		{EmployeeID: "E3", FullName: "Citra Lestari", Department: "Finance", Status: employee.StatusActive},
		{EmployeeID: "E4", FullName: "Dewi Anggraini", Department: "Engineering", Status: employee.StatusActive},
		{EmployeeID: "E5", FullName: "Eko Prasetyo", Department: "Engineering", Status: employee.StatusInactive},
	}
}

func fixtureRecords() []attendance.Record {
	return []attendance.Record{
		{EmployeeID: "E1", Date: "2025-03-10", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-10", 9, 0), CheckOut: clockAt("2025-03-10", 17, 30)},
		{EmployeeID: "E1", Date: "2025-03-11", Status: attendance.StatusLate, CheckIn: clockAt("2025-03-11", 9, 45), CheckOut: clockAt("2025-03-11", 18, 0)},
		{EmployeeID: "E2", Date: "2025-03-10", Status: attendance.StatusAbsent},
		{EmployeeID: "E2", Date: "2025-03-11", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-11", 8, 30), CheckOut: clockAt("2025-03-11", 17, 0)},
		{EmployeeID: "E3", Date: "2025-03-10", Status: attendance.StatusWorkFromHome, CheckIn: clockAt("2025-03-10", 9, 0), CheckOut: clockAt("2025-03-10", 13, 0)},
		{EmployeeID: "GHOST", Date: "2025-03-11", Status: attendance.StatusPresent},
		{EmployeeID: "E1", Date: "2025-03-12", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-12", 9, 0), CheckOut: clockAt("2025-03-12", 17, 0)},
	}
}

var fixtureRange = report.Range{From: "2025-03-10", To: "2025-03-11"}

func TestAttendanceSummary_Golden(t *testing.T) {
	summary := Aggregator{}.AttendanceSummary(fixtureRecords(), fixtureDirectory(), fixtureRange, SummaryFilter{})
	summary.GeneratedAt = "2025-03-12T08:00:00Z"

	out, err := json.MarshalIndent(summary, "", "  ")
	require.NoError(t, err)
	out = append(out, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "attendance_summary", out)
}

func TestAttendanceSummary_Counts(t *testing.T) {
	summary := Aggregator{}.AttendanceSummary(fixtureRecords(), fixtureDirectory(), fixtureRange, SummaryFilter{})

	assert.Equal(t, 6, summary.Summary.TotalRecords)
	assert.Equal(t, 3, summary.Summary.PresentCount)
	assert.Equal(t, 1, summary.Summary.AbsentCount)
	assert.Equal(t, 1, summary.Summary.LateCount)
	assert.Equal(t, 67, summary.Summary.AttendanceRate)
	assert.Equal(t, 29.25, summary.Summary.TotalHours)

	require.Len(t, summary.Employees, 4)
	assert.Equal(t, employee.UnknownName, summary.Employees[3].EmployeeName)
}

func TestAttendanceSummary_EmptyRangeRateIsZero(t *testing.T) {
	summary := Aggregator{}.AttendanceSummary(fixtureRecords(), fixtureDirectory(), report.Range{From: "2024-01-01", To: "2024-01-31"}, SummaryFilter{})

	assert.Equal(t, 0, summary.Summary.TotalRecords)
	assert.Equal(t, 0, summary.Summary.AttendanceRate)
	assert.NotNil(t, summary.Employees)
	assert.Empty(t, summary.Employees)
}

func TestAttendanceSummary_Filters(t *testing.T) {
	finance := Aggregator{}.AttendanceSummary(fixtureRecords(), fixtureDirectory(), fixtureRange, SummaryFilter{Department: "finance"})
	require.Len(t, finance.Employees, 1)
	assert.Equal(t, "E3", finance.Employees[0].EmployeeID)
	require.NotNil(t, finance.Department)
	assert.Equal(t, "finance", *finance.Department)

	one := Aggregator{}.AttendanceSummary(fixtureRecords(), fixtureDirectory(), fixtureRange, SummaryFilter{EmployeeID: "E2"})
	assert.Equal(t, 2, one.Summary.TotalRecords)
	assert.Equal(t, 50, one.Summary.AttendanceRate)
}

func TestEmployeePerformance(t *testing.T) {
	perf := Aggregator{}.EmployeePerformance(fixtureRecords(), fixtureDirectory(), fixtureRange, "E1")

	assert.Equal(t, "Ani Wijaya", perf.Employee.FullName)
	assert.Equal(t, 2, perf.Summary.TotalDays)
	assert.Equal(t, 1, perf.Summary.PresentDays)
	assert.Equal(t, 1, perf.Summary.LateDays)
	assert.Equal(t, 100, perf.Summary.AttendanceRate)
	assert.Equal(t, 16.75, perf.Summary.TotalHours)
	assert.Equal(t, 8.38, perf.Summary.AvgHoursPerDay)

	require.Len(t, perf.Records, 2)
	assert.Equal(t, "2025-03-10", perf.Records[0].Date)
	assert.Equal(t, "09:00", perf.Records[0].CheckInTime)
	assert.Equal(t, "8h 30m", perf.Records[0].WorkingLabel)
	assert.Equal(t, "2025-03-11", perf.Records[1].Date)
}

func TestEmployeePerformance_PlaceholdersNeverOmitKeys(t *testing.T) {
	perf := Aggregator{}.EmployeePerformance(fixtureRecords(), fixtureDirectory(), fixtureRange, "E2")

	require.Len(t, perf.Records, 2)
	absent := perf.Records[0]
	assert.Equal(t, "-", absent.CheckInTime)
	assert.Equal(t, "-", absent.CheckOutTime)
	assert.Equal(t, "0h 0m", absent.WorkingLabel)
	assert.Equal(t, 0.0, absent.WorkingHours)

	raw, err := json.Marshal(absent)
	require.NoError(t, err)
	var keys map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, key := range []string{"date", "status", "check_in_time", "check_out_time", "working_hours", "working_label", "is_auto_checkout", "notes"} {
		assert.Contains(t, keys, key)
	}
}

func TestEmployeePerformance_NoRecords(t *testing.T) {
	perf := Aggregator{}.EmployeePerformance(fixtureRecords(), fixtureDirectory(), fixtureRange, "E4")

	assert.Equal(t, 0, perf.Summary.TotalDays)
	assert.Equal(t, 0, perf.Summary.AttendanceRate)
	assert.Equal(t, 0.0, perf.Summary.AvgHoursPerDay)
	assert.NotNil(t, perf.Records)
}

func TestSummaryAndPerformanceAgree(t *testing.T) {
	records := fixtureRecords()
	directory := fixtureDirectory()
	agg := Aggregator{}

	summary := agg.AttendanceSummary(records, directory, fixtureRange, SummaryFilter{})

	summaryPresent := 0
	perfPresent := 0
	for _, row := range summary.Employees {
		summaryPresent += row.Present
		perf := agg.EmployeePerformance(records, directory, fixtureRange, row.EmployeeID)
		perfPresent += perf.Summary.PresentDays

		assert.Equal(t, row.Absent, perf.Summary.AbsentDays, row.EmployeeID)
		assert.Equal(t, row.Late, perf.Summary.LateDays, row.EmployeeID)
		assert.Equal(t, row.TotalDays, perf.Summary.TotalDays, row.EmployeeID)
		assert.Equal(t, row.TotalHours, perf.Summary.TotalHours, row.EmployeeID)
	}
	assert.Equal(t, summaryPresent, perfPresent)
	assert.Equal(t, summary.Summary.PresentCount, summaryPresent)
}

func TestDepartmentReport(t *testing.T) {
	dept := Aggregator{}.DepartmentReport(fixtureRecords(), fixtureDirectory(), fixtureRange, "engineering")

	assert.Equal(t, "engineering", dept.Department)
	assert.Equal(t, 3, dept.Summary.TotalEmployees, "inactive members without records are left out")
	assert.Equal(t, 4, dept.Summary.TotalRecords)
	assert.Equal(t, 2, dept.Summary.PresentCount)
	assert.Equal(t, 1, dept.Summary.AbsentCount)
	assert.Equal(t, 1, dept.Summary.LateCount)
	assert.Equal(t, 75, dept.Summary.AttendanceRate)

	require.Len(t, dept.Employees, 3)
	assert.Equal(t, "E1", dept.Employees[0].EmployeeID)
	assert.Equal(t, 50, dept.Employees[0].AttendanceRate)
	assert.Equal(t, "E2", dept.Employees[1].EmployeeID)
	assert.Equal(t, 50, dept.Employees[1].AttendanceRate)
	assert.Equal(t, "E4", dept.Employees[2].EmployeeID)
	assert.Equal(t, 0, dept.Employees[2].AttendanceRate)
	assert.Equal(t, 0, dept.Employees[2].TotalDays)
}

func TestDepartmentReport_SortsByRateDescending(t *testing.T) {
	records := append(fixtureRecords(),
		attendance.Record{EmployeeID: "E4", Date: "2025-03-10", Status: attendance.StatusPresent},
		attendance.Record{EmployeeID: "E4", Date: "2025-03-11", Status: attendance.StatusPresent},
	)

	dept := Aggregator{}.DepartmentReport(records, fixtureDirectory(), fixtureRange, "Engineering")
	require.Len(t, dept.Employees, 3)
	assert.Equal(t, "E4", dept.Employees[0].EmployeeID)
	assert.Equal(t, 100, dept.Employees[0].AttendanceRate)
}

func TestDepartmentReport_UnknownDepartmentIsEmpty(t *testing.T) {
	dept := Aggregator{}.DepartmentReport(fixtureRecords(), fixtureDirectory(), fixtureRange, "Legal")

	assert.Equal(t, 0, dept.Summary.TotalEmployees)
	assert.Equal(t, 0, dept.Summary.AttendanceRate)
	assert.NotNil(t, dept.Employees)
}

func TestDashboard(t *testing.T) {
	today := "2025-03-11"
	now := *clockAt(today, 19, 0)
	records := []attendance.Record{
		{EmployeeID: "E1", Date: "2025-03-10", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-10", 9, 0), CheckOut: clockAt("2025-03-10", 17, 0)},
		{EmployeeID: "E1", Date: today, Status: attendance.StatusLate, CheckIn: clockAt(today, 9, 45)},
		{EmployeeID: "E2", Date: today, Status: attendance.StatusPresent, CheckIn: clockAt(today, 8, 0)},
		{EmployeeID: "E3", Date: today, Status: attendance.StatusAbsent},
	}
	var todayRecords []attendance.Record
	for _, r := range records {
		if r.Date == today {
			todayRecords = append(todayRecords, r)
		}
	}

	directory := fixtureDirectory()
	directory[3].HireDate = strPtr("2025-02-20")
	directory[1].HireDate = strPtr("2025-02-09")
	directory[4].HireDate = strPtr("2025-02-08")
	directory[0].HireDate = strPtr("2019-07-01")

	dash := Aggregator{AutoCheckoutAfter: 10 * time.Hour}.Dashboard(todayRecords, records, directory, today, now)

	assert.Equal(t, 5, dash.TotalEmployees)
	assert.Equal(t, 4, dash.ActiveEmployees)
	assert.Equal(t, []string{"Engineering", "Finance"}, dash.Departments)
	assert.Equal(t, 1, dash.PresentToday)
	assert.Equal(t, 1, dash.LateToday)
	assert.Equal(t, 1, dash.AbsentToday)
	assert.Equal(t, 1, dash.CheckedInNow, "E2 passed the ceiling at 18:00")
	assert.Equal(t, 1, dash.NotCheckedIn)
	assert.Equal(t, 50, dash.AttendanceRate)
	assert.Equal(t, 9.0, dash.AvgWorkingHoursWeek)
	assert.Equal(t, 2, dash.RecentHires, "hired on or after 2025-02-09")

	require.Len(t, dash.RecentAttendance, 3)
	assert.Equal(t, "E1", dash.RecentAttendance[0].EmployeeID)
	assert.Equal(t, "E2", dash.RecentAttendance[1].EmployeeID)
	assert.Equal(t, "18:00", dash.RecentAttendance[1].CheckOutTime)
	assert.Equal(t, "E3", dash.RecentAttendance[2].EmployeeID)
	assert.Equal(t, "-", dash.RecentAttendance[2].CheckInTime)
}

func TestAttendanceRate(t *testing.T) {
	assert.Equal(t, 0, attendanceRate(0, 0))
	assert.Equal(t, 67, attendanceRate(2, 3))
	assert.Equal(t, 33, attendanceRate(1, 3))
	assert.Equal(t, 100, attendanceRate(4, 4))
	assert.Equal(t, 50, attendanceRate(1, 2))
}

func TestReports_EvaluateOpenRecordsAtNow(t *testing.T) {
	records := append(fixtureRecords(), attendance.Record{
		EmployeeID: "E4", Date: "2025-03-10", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-10", 8, 0),
	})
	agg := Aggregator{AutoCheckoutAfter: 10 * time.Hour, Now: *clockAt("2025-03-11", 12, 0)}

	perf := agg.EmployeePerformance(records, fixtureDirectory(), fixtureRange, "E4")
	require.Len(t, perf.Records, 1)
	assert.Equal(t, "18:00", perf.Records[0].CheckOutTime)
	assert.Equal(t, "10h 0m", perf.Records[0].WorkingLabel)
	assert.True(t, perf.Records[0].IsAutoCheckout)
	assert.Equal(t, 10.0, perf.Summary.TotalHours)

	summary := agg.AttendanceSummary(records, fixtureDirectory(), fixtureRange, SummaryFilter{EmployeeID: "E4"})
	require.Len(t, summary.Employees, 1)
	assert.Equal(t, 10.0, summary.Employees[0].TotalHours)
	assert.Equal(t, 10.0, summary.Summary.TotalHours)

	dept := agg.DepartmentReport(records, fixtureDirectory(), fixtureRange, "Engineering")
	for _, row := range dept.Employees {
		if row.EmployeeID == "E4" {
			assert.Equal(t, 10.0, row.TotalHours)
		}
	}

	stored := Aggregator{AutoCheckoutAfter: 10 * time.Hour}.EmployeePerformance(records, fixtureDirectory(), fixtureRange, "E4")
	assert.Equal(t, "-", stored.Records[0].CheckOutTime, "zero Now reports records as stored")
}

func TestReports_OpenRecordNotYetDue(t *testing.T) {
	records := []attendance.Record{
		{EmployeeID: "E4", Date: "2025-03-11", Status: attendance.StatusPresent, CheckIn: clockAt("2025-03-11", 8, 0)},
	}
	agg := Aggregator{AutoCheckoutAfter: 10 * time.Hour, Now: *clockAt("2025-03-11", 12, 0)}

	perf := agg.EmployeePerformance(records, fixtureDirectory(), fixtureRange, "E4")
	require.Len(t, perf.Records, 1)
	assert.Equal(t, "-", perf.Records[0].CheckOutTime)
	assert.False(t, perf.Records[0].IsAutoCheckout)
	assert.Equal(t, 0.0, perf.Summary.TotalHours)
}
