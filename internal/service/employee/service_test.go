package employee

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (employee.EmployeeService, attendance.AttendanceRepository) {
	clk := clock.NewFake(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	records := memory.NewAttendanceRepository(clk)
	return NewEmployeeService(memory.NewEmployeeRepository(records, clk)), records
}

func TestCreateEmployee(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		EmployeeID: " emp_001 ",
		FullName:   "Ani Wijaya",
		Email:      "Ani@Example.com",
		Department: "Engineering",
	})
	require.NoError(t, err)
	assert.Equal(t, "EMP_001", resp.EmployeeID)
	assert.Equal(t, "ani@example.com", resp.Email)
	assert.Equal(t, "Active", resp.Status)
	assert.NotEmpty(t, resp.ID)

	_, err = svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeID: "EMP_001", FullName: "X", Email: "x@example.com", Department: "Ops"})
	assert.ErrorIs(t, err, employee.ErrEmployeeIDExists)

	_, err = svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeID: "EMP_002", FullName: "X", Email: "ani@example.com", Department: "Ops"})
	assert.ErrorIs(t, err, employee.ErrEmailExists)
}

func TestCreateEmployee_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateEmployee(context.Background(), employee.CreateEmployeeRequest{
		EmployeeID: "bad id!",
		FullName:   "",
		Email:      "not-an-email",
		Department: "Engineering",
		Status:     "Retired",
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := verrs.ToMap()
	assert.Contains(t, fields, "employee_id")
	assert.Contains(t, fields, "full_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "status")
}

func TestCreateEmployee_ContactAndHireDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	phone := "+62 812 5550 1234"
	hired := "2025-02-17"
	resp, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		EmployeeID: "E1",
		FullName:   "Ani Wijaya",
		Email:      "ani@example.com",
		Department: "Engineering",
		Phone:      &phone,
		HireDate:   &hired,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.HireDate)
	assert.Equal(t, hired, *resp.HireDate)
	require.NotNil(t, resp.Phone)
	assert.Equal(t, phone, *resp.Phone)

	newPhone := "021-555-0199"
	updated, err := svc.UpdateEmployee(ctx, employee.UpdateEmployeeRequest{EmployeeID: "E1", Phone: &newPhone})
	require.NoError(t, err)
	assert.Equal(t, newPhone, *updated.Phone)
	assert.Equal(t, hired, *updated.HireDate)

	badDate := "17/02/2025"
	_, err = svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		EmployeeID: "E2",
		FullName:   "Budi",
		Email:      "budi@example.com",
		Department: "Engineering",
		HireDate:   &badDate,
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "hire_date")
}

func TestUpdateEmployee(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeID: "E1", FullName: "Ani", Email: "ani@example.com", Department: "Engineering"})
	require.NoError(t, err)

	inactive := "Inactive"
	dept := "Finance"
	resp, err := svc.UpdateEmployee(ctx, employee.UpdateEmployeeRequest{EmployeeID: "e1", Status: &inactive, Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "Inactive", resp.Status)
	assert.Equal(t, "Finance", resp.Department)

	_, err = svc.UpdateEmployee(ctx, employee.UpdateEmployeeRequest{EmployeeID: "E9", Status: &inactive})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestDeleteEmployee_CascadesAttendance(t *testing.T) {
	svc, records := newTestService()
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeID: "E1", FullName: "Ani", Email: "ani@example.com", Department: "Engineering"})
	require.NoError(t, err)
	_, err = records.Put(ctx, attendance.Record{EmployeeID: "E1", Date: "2025-03-10", Status: attendance.StatusAbsent})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEmployee(ctx, "e1"))

	rec, err := records.Get(ctx, "E1", "2025-03-10")
	require.NoError(t, err)
	assert.Nil(t, rec)

	assert.ErrorIs(t, svc.DeleteEmployee(ctx, "E1"), employee.ErrEmployeeNotFound)
	_, err = svc.GetEmployee(ctx, "E1")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestListEmployees_Pagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, id := range []string{"E1", "E2", "E3"} {
		_, err := svc.CreateEmployee(ctx, employee.CreateEmployeeRequest{EmployeeID: id, FullName: "Name " + id, Email: id + "@example.com", Department: "Engineering"})
		require.NoError(t, err)
	}

	resp, err := svc.ListEmployees(ctx, employee.EmployeeFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, "3-3 of 3", resp.Showing)
	require.Len(t, resp.Employees, 1)
	assert.Equal(t, "E3", resp.Employees[0].EmployeeID)

	_, err = svc.ListEmployees(ctx, employee.EmployeeFilter{Limit: 500})
	assert.ErrorIs(t, err, validator.ErrValidation)
}
