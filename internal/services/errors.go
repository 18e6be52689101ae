package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrMalformedModelOutput = errors.New("malformed model output")
	ErrNotFound             = errors.New("not found")
)

// InputError is a caller mistake whose message is safe to return as is.
// It matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(format string, args ...interface{}) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// QuotaExceededError rejects a request from a non-Pro user who has used up
// today's allowance.
type QuotaExceededError struct {
	Limit int
	Used  int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily limit reached: %d of %d used", e.Used, e.Limit)
}
