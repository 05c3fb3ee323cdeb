package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an expense, item or person does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a request breaks a business rule.
	ErrValidation = errors.New("validation failed")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
