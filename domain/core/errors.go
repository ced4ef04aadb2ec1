package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrColumnNotFound    = errors.New("column not found")
	ErrDuplicateColumn   = errors.New("duplicate column")
	ErrRowWidth          = errors.New("row width does not match column count")
	ErrUnknownCountry    = errors.New("unknown country")
	ErrUnknownVariant    = errors.New("unknown dataset variant")
	ErrEmptyDistribution = errors.New("no values in distribution")
)

// NewColumnNotFoundError reports a missing column by name.
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
}

// IsColumnNotFound checks whether err wraps ErrColumnNotFound.
func IsColumnNotFound(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

// NewValidationError reports an invalid argument.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}
