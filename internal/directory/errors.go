package directory

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	ErrEmployeeNotFound = errors.New("employee not found")

	ErrInvalidID = errors.New("invalid ID format")
)
