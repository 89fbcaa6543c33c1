package pricing

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-shop/validation"
)

// ValidationError reports the entries that blocked an order.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pricing: order rejected, %d invalid field(s)", len(e.Fields))
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Violations extracts the field errors from err, or nil.
func Violations(err error) validation.Violations {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
