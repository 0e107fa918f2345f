package employee

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEmployeeIDExists     = errors.New("employee id already exists")
	ErrEmailExists          = errors.New("email already registered")
	ErrInvalidEmployeeID    = errors.New("employee id may only contain letters, numbers, hyphens and underscores")
	ErrDirectoryUnavailable = errors.New("employee directory unavailable")
)
