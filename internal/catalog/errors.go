package catalog

import "errors"

var (
	ErrServiceNotFound = errors.New("service not found")

	ErrServiceUnavailable = errors.New("service is not available for booking")

	ErrInvalidServiceID = errors.New("invalid service ID format")
)
