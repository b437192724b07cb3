package loyalty

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	ErrInsufficientPoints = errors.New("insufficient loyalty points")

	ErrInvalidUserID = errors.New("invalid user ID format")
)
