package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/google/uuid"
)

type employeeRepository struct {
	mu         sync.RWMutex
	employees  map[string]employee.Employee
	attendance attendance.AttendanceRepository
	clock      clock.Clock
}

// NewEmployeeRepository returns an in-process directory. Deleting an
// employee cascades to its records in attendanceRepo.
func NewEmployeeRepository(attendanceRepo attendance.AttendanceRepository, clk clock.Clock) employee.EmployeeRepository {
	if clk == nil {
		clk = clock.NewReal(nil)
	}
	return &employeeRepository{
		employees:  make(map[string]employee.Employee),
		attendance: attendanceRepo,
		clock:      clk,
	}
}

// ListActive implements employee.EmployeeRepository.
func (r *employeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	status := string(employee.StatusActive)
	employees, _, err := r.List(ctx, employee.EmployeeFilter{Status: &status})
	return employees, err
}

// List implements employee.EmployeeRepository. A zero Limit returns every match.
func (r *employeeRepository) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", employee.ErrDirectoryUnavailable, err)
	}

	r.mu.RLock()
	matched := make([]employee.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		if matchesFilter(e, filter) {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EmployeeID < matched[j].EmployeeID
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start >= len(matched) {
			return []employee.Employee{}, total, nil
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

func matchesFilter(e employee.Employee, filter employee.EmployeeFilter) bool {
	if filter.Department != nil && *filter.Department != "" && !strings.EqualFold(e.Department, *filter.Department) {
		return false
	}
	if filter.Status != nil && *filter.Status != "" && string(e.Status) != *filter.Status {
		return false
	}
	if filter.Search != nil && *filter.Search != "" {
		q := strings.ToLower(*filter.Search)
		if !strings.Contains(strings.ToLower(e.FullName), q) &&
			!strings.Contains(strings.ToLower(e.Email), q) &&
			!strings.Contains(strings.ToLower(e.EmployeeID), q) {
			return false
		}
	}
	return true
}

// GetByEmployeeID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (employee.Employee, error) {
	if err := ctx.Err(); err != nil {
		return employee.Employee{}, fmt.Errorf("%w: %w", employee.ErrDirectoryUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[employeeID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// ExistsByEmployeeIDOrEmail implements employee.EmployeeRepository.
func (r *employeeRepository) ExistsByEmployeeIDOrEmail(ctx context.Context, employeeID, email string) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, fmt.Errorf("%w: %w", employee.ErrDirectoryUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, idTaken := r.employees[employeeID]
	return idTaken, r.emailTakenLocked(email, ""), nil
}

func (r *employeeRepository) emailTakenLocked(email, exceptID string) bool {
	for id, e := range r.employees {
		if id != exceptID && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepository) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	if err := ctx.Err(); err != nil {
		return employee.Employee{}, fmt.Errorf("%w: %w", employee.ErrDirectoryUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[newEmployee.EmployeeID]; ok {
		return employee.Employee{}, employee.ErrEmployeeIDExists
	}
	if r.emailTakenLocked(newEmployee.Email, "") {
		return employee.Employee{}, employee.ErrEmailExists
	}

	if newEmployee.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return employee.Employee{}, fmt.Errorf("generate employee id: %w", err)
		}
		newEmployee.ID = id.String()
	}
	now := r.clock.Now()
	newEmployee.CreatedAt = now
	newEmployee.UpdatedAt = now

	r.employees[newEmployee.EmployeeID] = newEmployee
	return newEmployee, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepository) Update(ctx context.Context, updated employee.Employee) (employee.Employee, error) {
	if err := ctx.Err(); err != nil {
		return employee.Employee{}, fmt.Errorf("%w: %w", employee.ErrDirectoryUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.employees[updated.EmployeeID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	if r.emailTakenLocked(updated.Email, updated.EmployeeID) {
		return employee.Employee{}, employee.ErrEmailExists
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.clock.Now()

	r.employees[updated.EmployeeID] = updated
	return updated, nil
}

// Delete implements employee.EmployeeRepository.
func (r *employeeRepository) Delete(ctx context.Context, employeeID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", employee.ErrDirectoryUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[employeeID]; !ok {
		return 0, employee.ErrEmployeeNotFound
	}

	var deleted int64
	if r.attendance != nil {
		n, err := r.attendance.DeleteByEmployeeID(ctx, employeeID)
		if err != nil {
			return 0, fmt.Errorf("delete attendance records: %w", err)
		}
		deleted = n
	}

	delete(r.employees, employeeID)
	return deleted, nil
}
