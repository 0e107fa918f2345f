package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEmployees(t *testing.T, ctx context.Context, repo employee.EmployeeRepository) {
	t.Helper()
	for _, e := range []employee.Employee{
		{EmployeeID: "E1", FullName: "Ani Wijaya", Email: "ani@example.com", Department: "Engineering", Status: employee.StatusActive},
		{EmployeeID: "E2", FullName: "Budi Santoso", Email: "budi@example.com", Department: "engineering", Status: employee.StatusActive},
		{EmployeeID: "E3", FullName: "Citra Lestari", Email: "citra@example.com", Department: "Finance", Status: employee.StatusInactive},
	} {
		_, err := repo.Create(ctx, e)
		require.NoError(t, err)
	}
}

func TestEmployeeRepository_CreateAndConflicts(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB, nil)
	seedEmployees(t, ctx, repo)

	got, err := repo.GetByEmployeeID(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Ani Wijaya", got.FullName)
	assert.NotEmpty(t, got.ID)

	_, err = repo.GetByEmployeeID(ctx, "NOPE")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = repo.Create(ctx, employee.Employee{EmployeeID: "E1", FullName: "Dup", Email: "dup@example.com", Department: "X", Status: employee.StatusActive})
	assert.ErrorIs(t, err, employee.ErrEmployeeIDExists)

	_, err = repo.Create(ctx, employee.Employee{EmployeeID: "E9", FullName: "Dup", Email: "ANI@example.com", Department: "X", Status: employee.StatusActive})
	assert.ErrorIs(t, err, employee.ErrEmailExists)

	idTaken, emailTaken, err := repo.ExistsByEmployeeIDOrEmail(ctx, "E2", "CITRA@example.com")
	require.NoError(t, err)
	assert.True(t, idTaken)
	assert.True(t, emailTaken)
}

func TestEmployeeRepository_HireDateRoundTrip(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB, nil)

	hired := "2025-02-17"
	phone := "021-555-0199"
	created, err := repo.Create(ctx, employee.Employee{
		EmployeeID: "E7", FullName: "Dewi", Email: "dewi@example.com", Department: "Ops",
		Phone: &phone, HireDate: &hired, Status: employee.StatusActive,
	})
	require.NoError(t, err)
	require.NotNil(t, created.HireDate)
	assert.Equal(t, hired, *created.HireDate)
	assert.Equal(t, phone, *created.Phone)

	seedEmployees(t, ctx, repo)
	got, err := repo.GetByEmployeeID(ctx, "E1")
	require.NoError(t, err)
	assert.Nil(t, got.HireDate)
	assert.Nil(t, got.Phone)
}

func TestEmployeeRepository_List(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB, nil)
	seedEmployees(t, ctx, repo)

	dept := "ENGINEERING"
	employees, total, err := repo.List(ctx, employee.EmployeeFilter{Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, employees, 2)
	assert.Equal(t, "E1", employees[0].EmployeeID)

	search := "citra"
	employees, total, err = repo.List(ctx, employee.EmployeeFilter{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "E3", employees[0].EmployeeID)

	employees, total, err = repo.List(ctx, employee.EmployeeFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, employees, 1)
	assert.Equal(t, "E3", employees[0].EmployeeID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestEmployeeRepository_UpdateAndDeleteCascade(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	records := postgresql.NewAttendanceRepository(setup.DB)
	repo := postgresql.NewEmployeeRepository(setup.DB, records)
	seedEmployees(t, ctx, repo)

	e1, err := repo.GetByEmployeeID(ctx, "E1")
	require.NoError(t, err)
	e1.Department = "Platform"
	updated, err := repo.Update(ctx, e1)
	require.NoError(t, err)
	assert.Equal(t, "Platform", updated.Department)
	assert.Equal(t, e1.ID, updated.ID)

	e1.Email = "budi@example.com"
	_, err = repo.Update(ctx, e1)
	assert.ErrorIs(t, err, employee.ErrEmailExists)

	for _, date := range []string{"2025-03-10", "2025-03-11"} {
		_, err := records.Put(ctx, attendance.Record{EmployeeID: "E1", Date: date, Status: attendance.StatusAbsent})
		require.NoError(t, err)
	}

	deleted, err := repo.Delete(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := records.QueryRange(ctx, "2025-03-01", "2025-03-31", attendance.RangeFilter{EmployeeIDs: []string{"E1"}})
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = repo.Delete(ctx, "E1")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
