package employee

import (
	"time"
)

type Employee struct {
	ID         string
	EmployeeID string
	FullName   string
	Email      string
	Department string
	Phone      *string
	Position   *string
	// HireDate is YYYY-MM-DD.
	HireDate  *string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// UnknownName is shown for records whose employee is missing from the directory.
const UnknownName = "Unknown Employee"

// Index maps employee ids to directory entries.
type Index map[string]Employee

func NewIndex(employees []Employee) Index {
	idx := make(Index, len(employees))
	for _, e := range employees {
		idx[e.EmployeeID] = e
	}
	return idx
}

// Name returns the employee's full name, or UnknownName.
func (i Index) Name(employeeID string) string {
	if e, ok := i[employeeID]; ok && e.FullName != "" {
		return e.FullName
	}
	return UnknownName
}

func (i Index) Department(employeeID string) string {
	if e, ok := i[employeeID]; ok {
		return e.Department
	}
	return ""
}
