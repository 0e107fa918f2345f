package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
)

const (
	placeholderTime  = "-"
	recentAttendance = 10
	// recentHireDays is how far back a hire date counts towards recent hires.
	recentHireDays = 30
)

// Aggregator folds attendance records into report shapes. Its methods are
// pure: they read only their arguments and never touch a store or clock.
type Aggregator struct {
	// Location renders check-in/check-out times. Nil means UTC.
	Location *time.Location
	// AutoCheckoutAfter closes open records that have run past it at Now.
	AutoCheckoutAfter time.Duration
	// Now is the instant open records are evaluated at. Zero leaves them as stored.
	Now time.Time
}

// SummaryFilter narrows the attendance summary. Empty fields do not filter.
type SummaryFilter struct {
	Department string
	EmployeeID string
}

// tally is the running counter shared by every report shape.
type tally struct {
	employeeID   string
	present      int
	absent       int
	late         int
	halfDay      int
	workFromHome int
	total        int
	minutes      int
	workedDays   int
}

func (t *tally) add(r attendance.Record) {
	t.total++
	switch r.Status {
	case attendance.StatusPresent:
		t.present++
	case attendance.StatusAbsent:
		t.absent++
	case attendance.StatusLate:
		t.late++
	case attendance.StatusHalfDay:
		t.halfDay++
	case attendance.StatusWorkFromHome:
		t.workFromHome++
	}
	if m := r.WorkingMinutes(); m > 0 {
		t.minutes += m
		t.workedDays++
	}
}

// tallyByEmployee groups records by employee. The returned ids are sorted.
func tallyByEmployee(records []attendance.Record) (map[string]*tally, []string) {
	byEmployee := make(map[string]*tally)
	ids := make([]string, 0)
	for _, r := range records {
		t, ok := byEmployee[r.EmployeeID]
		if !ok {
			t = &tally{employeeID: r.EmployeeID}
			byEmployee[r.EmployeeID] = t
			ids = append(ids, r.EmployeeID)
		}
		t.add(r)
	}
	sort.Strings(ids)
	return byEmployee, ids
}

// attendanceRate is round(100*attended/total), 0 when total is 0.
func attendanceRate(attended, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(attended) / float64(total)))
}

// inRange keeps the records dated within rng that pass keep, each evaluated
// for auto-checkout at a.Now.
func (a Aggregator) inRange(records []attendance.Record, rng report.Range, keep func(attendance.Record) bool) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if !rng.Contains(r.Date) {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, a.evaluate(r))
	}
	return out
}

func (a Aggregator) evaluate(r attendance.Record) attendance.Record {
	if a.Now.IsZero() {
		return r
	}
	r, _ = attendance.ApplyAutoCheckoutIfDue(r, a.Now, a.AutoCheckoutAfter)
	return r
}

func (a Aggregator) location() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

func (a Aggregator) clockTime(t *time.Time) string {
	if t == nil {
		return placeholderTime
	}
	return t.In(a.location()).Format("15:04")
}

// AttendanceSummary counts statuses across the filtered records and breaks
// them down per employee.
func (a Aggregator) AttendanceSummary(records []attendance.Record, directory []employee.Employee, rng report.Range, filter SummaryFilter) report.AttendanceSummary {
	index := employee.NewIndex(directory)

	scoped := a.inRange(records, rng, func(r attendance.Record) bool {
		if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
			return false
		}
		if filter.Department != "" && !strings.EqualFold(index.Department(r.EmployeeID), filter.Department) {
			return false
		}
		return true
	})

	byEmployee, ids := tallyByEmployee(scoped)

	var totals tally
	employees := make([]report.EmployeeSummary, 0, len(ids))
	for _, id := range ids {
		t := byEmployee[id]
		totals.present += t.present
		totals.absent += t.absent
		totals.late += t.late
		totals.halfDay += t.halfDay
		totals.workFromHome += t.workFromHome
		totals.total += t.total
		totals.minutes += t.minutes

		employees = append(employees, report.EmployeeSummary{
			EmployeeID:   id,
			EmployeeName: index.Name(id),
			Department:   index.Department(id),
			Present:      t.present,
			Absent:       t.absent,
			Late:         t.late,
			HalfDay:      t.halfDay,
			WorkFromHome: t.workFromHome,
			TotalDays:    t.total,
			TotalHours:   worktime.MinutesToHours(t.minutes),
		})
	}

	summary := report.AttendanceSummary{
		ReportType: report.TypeAttendanceSummary,
		DateRange:  rng,
		Summary: report.SummaryTotals{
			TotalRecords:      totals.total,
			PresentCount:      totals.present,
			AbsentCount:       totals.absent,
			LateCount:         totals.late,
			HalfDayCount:      totals.halfDay,
			WorkFromHomeCount: totals.workFromHome,
			AttendanceRate:    attendanceRate(totals.present+totals.late, totals.total),
			TotalHours:        worktime.MinutesToHours(totals.minutes),
		},
		Employees: employees,
	}
	if filter.Department != "" {
		dept := filter.Department
		summary.Department = &dept
	}
	if filter.EmployeeID != "" {
		id := filter.EmployeeID
		summary.EmployeeID = &id
	}
	return summary
}

// EmployeePerformance reports one employee's days in range. Every entry carries
// all keys; missing times render as "-".
func (a Aggregator) EmployeePerformance(records []attendance.Record, directory []employee.Employee, rng report.Range, employeeID string) report.EmployeePerformance {
	index := employee.NewIndex(directory)

	scoped := a.inRange(records, rng, func(r attendance.Record) bool {
		return r.EmployeeID == employeeID
	})
	sort.SliceStable(scoped, func(i, j int) bool {
		return scoped[i].Date < scoped[j].Date
	})

	byEmployee, _ := tallyByEmployee(scoped)
	t := byEmployee[employeeID]
	if t == nil {
		t = &tally{employeeID: employeeID}
	}

	var avg float64
	if t.workedDays > 0 {
		avg = math.Round(float64(t.minutes)/60/float64(t.workedDays)*100) / 100
	}

	entries := make([]report.PerformanceEntry, 0, len(scoped))
	for _, r := range scoped {
		minutes := r.WorkingMinutes()
		entries = append(entries, report.PerformanceEntry{
			Date:           r.Date,
			Status:         string(r.Status),
			CheckInTime:    a.clockTime(r.CheckIn),
			CheckOutTime:   a.clockTime(r.CheckOut),
			WorkingHours:   worktime.MinutesToHours(minutes),
			WorkingLabel:   worktime.MinutesToHoursLabel(&minutes),
			IsAutoCheckout: r.IsAutoCheckout,
			Notes:          r.Notes,
		})
	}

	return report.EmployeePerformance{
		ReportType: report.TypeEmployeePerformance,
		Employee: report.EmployeeRef{
			EmployeeID: employeeID,
			FullName:   index.Name(employeeID),
			Department: index.Department(employeeID),
		},
		DateRange: rng,
		Summary: report.PerformanceSummary{
			TotalDays:      t.total,
			PresentDays:    t.present,
			AbsentDays:     t.absent,
			LateDays:       t.late,
			AttendanceRate: attendanceRate(t.present+t.late, t.total),
			TotalHours:     worktime.MinutesToHours(t.minutes),
			AvgHoursPerDay: avg,
		},
		Records: entries,
	}
}

// DepartmentReport restricts records to the department's employees. Active
// members without records still get a zero row.
func (a Aggregator) DepartmentReport(records []attendance.Record, directory []employee.Employee, rng report.Range, department string) report.DepartmentReport {
	members := make(map[string]employee.Employee)
	for _, e := range directory {
		if strings.EqualFold(e.Department, department) {
			members[e.EmployeeID] = e
		}
	}

	scoped := a.inRange(records, rng, func(r attendance.Record) bool {
		_, ok := members[r.EmployeeID]
		return ok
	})
	byEmployee, _ := tallyByEmployee(scoped)

	var totals tally
	rows := make([]report.DepartmentEmployee, 0, len(members))
	for id, e := range members {
		t, ok := byEmployee[id]
		if !ok {
			if e.Status != employee.StatusActive {
				continue
			}
			t = &tally{employeeID: id}
		}
		totals.present += t.present
		totals.absent += t.absent
		totals.late += t.late
		totals.total += t.total

		rows = append(rows, report.DepartmentEmployee{
			EmployeeID:     id,
			EmployeeName:   employee.Index{id: e}.Name(id),
			Present:        t.present,
			Absent:         t.absent,
			Late:           t.late,
			TotalDays:      t.total,
			TotalHours:     worktime.MinutesToHours(t.minutes),
			AttendanceRate: attendanceRate(t.present, t.present+t.absent+t.late),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AttendanceRate != rows[j].AttendanceRate {
			return rows[i].AttendanceRate > rows[j].AttendanceRate
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})

	return report.DepartmentReport{
		ReportType: report.TypeDepartment,
		Department: department,
		DateRange:  rng,
		Summary: report.DepartmentTotals{
			TotalEmployees: len(rows),
			TotalRecords:   totals.total,
			PresentCount:   totals.present,
			AbsentCount:    totals.absent,
			LateCount:      totals.late,
			AttendanceRate: attendanceRate(totals.present+totals.late, totals.total),
		},
		Employees: rows,
	}
}

// Dashboard summarises today against the active workforce. weekRecords feed
// the average working hours; open records are evaluated for auto-checkout at now.
// Recent hires counts every employee hired in the last 30 days.
func (a Aggregator) Dashboard(todayRecords, weekRecords []attendance.Record, directory []employee.Employee, today string, now time.Time) report.Dashboard {
	a.Now = now
	index := employee.NewIndex(directory)

	dash := report.Dashboard{
		Date:             today,
		TotalEmployees:   len(directory),
		Departments:      make([]string, 0),
		RecentAttendance: make([]report.RecentAttendance, 0),
	}

	hiredSince := now.AddDate(0, 0, -recentHireDays).Format(attendance.DateLayout)
	departments := make(map[string]struct{})
	active := make(map[string]struct{})
	for _, e := range directory {
		if e.HireDate != nil && *e.HireDate >= hiredSince {
			dash.RecentHires++
		}
		if e.Department != "" {
			departments[e.Department] = struct{}{}
		}
		if e.Status == employee.StatusActive {
			active[e.EmployeeID] = struct{}{}
		}
	}
	for d := range departments {
		dash.Departments = append(dash.Departments, d)
	}
	sort.Strings(dash.Departments)
	dash.TotalDepartments = len(dash.Departments)
	dash.ActiveEmployees = len(active)

	evaluated := make([]attendance.Record, 0, len(todayRecords))
	seen := make(map[string]struct{})
	for _, r := range a.inRange(todayRecords, report.Range{From: today, To: today}, nil) {
		evaluated = append(evaluated, r)
		seen[r.EmployeeID] = struct{}{}
		if r.IsOpen() {
			dash.CheckedInNow++
		}
	}

	byEmployee, _ := tallyByEmployee(evaluated)
	for _, t := range byEmployee {
		dash.PresentToday += t.present
		dash.AbsentToday += t.absent
		dash.LateToday += t.late
	}
	for id := range active {
		if _, ok := seen[id]; !ok {
			dash.NotCheckedIn++
		}
	}
	dash.AttendanceRate = attendanceRate(dash.PresentToday+dash.LateToday, dash.ActiveEmployees)

	var week tally
	for _, r := range weekRecords {
		week.add(a.evaluate(r))
	}
	if week.workedDays > 0 {
		dash.AvgWorkingHoursWeek = math.Round(float64(week.minutes)/60/float64(week.workedDays)*100) / 100
	}

	sort.SliceStable(evaluated, func(i, j int) bool {
		return checkInAfter(evaluated[i], evaluated[j])
	})
	for i, r := range evaluated {
		if i == recentAttendance {
			break
		}
		dash.RecentAttendance = append(dash.RecentAttendance, report.RecentAttendance{
			EmployeeID:   r.EmployeeID,
			EmployeeName: index.Name(r.EmployeeID),
			Department:   index.Department(r.EmployeeID),
			Status:       string(r.Status),
			CheckInTime:  a.clockTime(r.CheckIn),
			CheckOutTime: a.clockTime(r.CheckOut),
		})
	}

	return dash
}

// checkInAfter orders the most recent check-in first; records without one go last.
func checkInAfter(a, b attendance.Record) bool {
	switch {
	case a.CheckIn == nil:
		return false
	case b.CheckIn == nil:
		return true
	case a.CheckIn.Equal(*b.CheckIn):
		return a.EmployeeID < b.EmployeeID
	default:
		return a.CheckIn.After(*b.CheckIn)
	}
}
