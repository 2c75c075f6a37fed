package subscription

import (
	"errors"
	"fmt"
)

// Sentinel errors for the subscription service layer.
var (
	ErrNotFound = errors.New("subscription not found")

	ErrEmailRequired = &ValidationError{Message: "Email is required"}
	ErrInvalidEmail  = &ValidationError{Message: "Invalid email format"}
)

// ValidationError is returned for missing or malformed input. It is always
// terminal and its Message is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps any failure returned by the directory store. The service
// converts it into fallback mode; it never reaches the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("directory store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
