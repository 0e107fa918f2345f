package employee

import (
	"errors"
	"strings"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required,employee_id"`
	FullName   string  `json:"full_name" validate:"required,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Department string  `json:"department" validate:"required,max=50"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Position   *string `json:"position,omitempty" validate:"omitempty,max=100"`
	HireDate   *string `json:"hire_date,omitempty" validate:"omitempty,date"`
	Status     string  `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
}

func (r *CreateEmployeeRequest) Normalize() {
	r.EmployeeID = strings.ToUpper(strings.TrimSpace(r.EmployeeID))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Department = strings.TrimSpace(r.Department)
	if r.Status == "" {
		r.Status = string(StatusActive)
	}
}

func (r *CreateEmployeeRequest) Validate() error {
	r.Normalize()
	return structValidate(r)
}

type UpdateEmployeeRequest struct {
	EmployeeID string  `json:"-"`
	FullName   *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Department *string `json:"department,omitempty" validate:"omitempty,min=1,max=50"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Position   *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	r.EmployeeID = strings.ToUpper(strings.TrimSpace(r.EmployeeID))
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &email
	}
	return structValidate(r)
}

type EmployeeFilter struct {
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
	Search     *string `json:"search,omitempty"` // name, email or employee id

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 200",
		})
	}

	if f.Status != nil && *f.Status != "" && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: Active, Inactive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Phone      *string `json:"phone"`
	Position   *string `json:"position"`
	HireDate   *string `json:"hire_date"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type ListEmployeeResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Showing    string             `json:"showing"`
	Employees  []EmployeeResponse `json:"employees"`
}

func structValidate(v interface{}) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return errs
	}
	return err
}
