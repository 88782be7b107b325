package safetensors

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidHeader      = errors.New("invalid header")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidHeaderStart = errors.New("header does not start with '{'")
	ErrIncompleteBuffer   = errors.New("buffer does not match declared tensor data")
	ErrInvalidOffset      = errors.New("invalid tensor offset")
	ErrUnknownDType       = errors.New("unknown dtype")
	ErrInvalidTensorInfo  = errors.New("tensor info does not match its byte range")
	ErrInvalidMetadata    = errors.New("invalid __metadata__ entry")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Err     error  // One of the sentinel errors above
	Tensor  string // Tensor name involved, if any
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor != "" {
		return fmt.Sprintf("%v: tensor %q: %s", e.Err, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Details)
}

// Unwrap returns the sentinel error so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
