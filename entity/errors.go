package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccessDenied    = errors.New("access denied")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// GatewayError is returned by the external messaging gateway; the provider code is preserved.
type GatewayError struct {
	Code    int
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d (http %d): %s", e.Code, e.Status, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// ErrDuplicate is returned by the store when a unique key already exists.
var ErrDuplicate = errors.New("duplicate")
