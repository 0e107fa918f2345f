package employee

import "context"

type EmployeeRepository interface {
	// ListActive returns every Active employee ordered by employee_id.
	ListActive(ctx context.Context) ([]Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (Employee, error)
	ExistsByEmployeeIDOrEmail(ctx context.Context, employeeID, email string) (idTaken bool, emailTaken bool, err error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	Update(ctx context.Context, employee Employee) (Employee, error)
	// Delete removes the employee and cascades its attendance records.
	Delete(ctx context.Context, employeeID string) (int64, error)
}
