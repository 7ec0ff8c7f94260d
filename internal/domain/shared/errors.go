package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon absorbs rounding noise when comparing monetary sums.
var Epsilon = decimal.New(1, -9)

// NearlyEqual reports whether a and b differ by no more than Epsilon.
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// ValidationError reports bad input caught before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

// PostingFailedError wraps a storage failure inside a posting unit of work.
// Nothing from the failed unit is persisted and the caller may retry.
type PostingFailedError struct {
	Operation string
	Err       error
}

func (e PostingFailedError) Error() string {
	return fmt.Sprintf("posting %s failed: %v", e.Operation, e.Err)
}

func (e PostingFailedError) Unwrap() error {
	return e.Err
}
