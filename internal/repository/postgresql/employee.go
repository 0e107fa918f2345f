package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const employeeColumns = `
	id, employee_id, full_name, email, department, phone, position,
	to_char(hire_date, 'YYYY-MM-DD'), status, created_at, updated_at`

const uniqueViolation = "23505"

type employeeRepositoryImpl struct {
	db         *database.DB
	attendance attendance.AttendanceRepository
}

// NewEmployeeRepository returns the directory backed by the employees table.
// Delete cascades to attendanceRepo inside the same transaction.
func NewEmployeeRepository(db *database.DB, attendanceRepo attendance.AttendanceRepository) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db, attendance: attendanceRepo}
}

func directoryUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, employee.ErrDirectoryUnavailable, err)
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		e      employee.Employee
		status string
	)
	err := row.Scan(&e.ID, &e.EmployeeID, &e.FullName, &e.Email, &e.Department, &e.Phone, &e.Position, &e.HireDate, &status, &e.CreatedAt, &e.UpdatedAt)
	e.Status = employee.Status(status)
	return e, err
}

// uniqueConflict maps a unique index violation to the matching domain error.
func uniqueConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return employee.ErrEmailExists
	}
	return employee.ErrEmployeeIDExists
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	status := string(employee.StatusActive)
	employees, _, err := e.List(ctx, employee.EmployeeFilter{Status: &status})
	return employees, err
}

// List implements employee.EmployeeRepository. A zero Limit returns every match.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, e.db)

	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.Department != nil && *filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = LOWER($%d)", argIdx))
		args = append(args, *filter.Department)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d OR employee_id ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count query
	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, directoryUnavailable("count employees", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY employee_id ASC`, employeeColumns, whereClause)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, directoryUnavailable("list employees", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, directoryUnavailable("scan employee", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, directoryUnavailable("list employees", err)
	}

	return employees, total, nil
}

// GetByEmployeeID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id = $1`
	emp, err := scanEmployee(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, directoryUnavailable("get employee", err)
	}
	return emp, nil
}

// ExistsByEmployeeIDOrEmail implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ExistsByEmployeeIDOrEmail(ctx context.Context, employeeID, email string) (bool, bool, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT
			EXISTS(SELECT 1 FROM employees WHERE employee_id = $1),
			EXISTS(SELECT 1 FROM employees WHERE LOWER(email) = LOWER($2))
	`
	var idTaken, emailTaken bool
	if err := q.QueryRow(ctx, query, employeeID, email).Scan(&idTaken, &emailTaken); err != nil {
		return false, false, directoryUnavailable("check employee uniqueness", err)
	}
	return idTaken, emailTaken, nil
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	if newEmployee.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return employee.Employee{}, fmt.Errorf("generate employee id: %w", err)
		}
		newEmployee.ID = id.String()
	}

	query := `
		INSERT INTO employees (id, employee_id, full_name, email, department, phone, position, hire_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newEmployee.ID, newEmployee.EmployeeID, newEmployee.FullName, newEmployee.Email,
		newEmployee.Department, newEmployee.Phone, newEmployee.Position, newEmployee.HireDate, string(newEmployee.Status),
	))
	if err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return employee.Employee{}, conflict
		}
		return employee.Employee{}, directoryUnavailable("create employee", err)
	}
	return created, nil
}

// Update implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Update(ctx context.Context, updated employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET full_name = $2, email = $3, department = $4, phone = $5, position = $6, hire_date = $7::date, status = $8, updated_at = NOW()
		WHERE employee_id = $1
		RETURNING ` + employeeColumns

	saved, err := scanEmployee(q.QueryRow(ctx, query,
		updated.EmployeeID, updated.FullName, updated.Email, updated.Department, updated.Phone, updated.Position, updated.HireDate, string(updated.Status),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		if conflict := uniqueConflict(err); conflict != nil {
			return employee.Employee{}, conflict
		}
		return employee.Employee{}, directoryUnavailable("update employee", err)
	}
	return saved, nil
}

// Delete implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Delete(ctx context.Context, employeeID string) (int64, error) {
	var deleted int64

	err := InTransaction(ctx, e.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, e.db)

		tag, err := q.Exec(ctx, `DELETE FROM employees WHERE employee_id = $1`, employeeID)
		if err != nil {
			return directoryUnavailable("delete employee", err)
		}
		if tag.RowsAffected() == 0 {
			return employee.ErrEmployeeNotFound
		}

		if e.attendance != nil {
			n, err := e.attendance.DeleteByEmployeeID(ctx, employeeID)
			if err != nil {
				return fmt.Errorf("delete attendance records: %w", err)
			}
			deleted = n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
