package host

import (
	"errors"
	"fmt"

	"github.com/roach88/hostval/internal/budget"
)

// HostError represents an error raised by the host while resolving or
// operating on runtime values.
//
// Host errors include:
//   - Malformed values: unknown tag or a body that violates its tag's layout
//   - Handle failures: out of range, issued by another env, or wrong object type
//   - Rejected input: invalid symbol text, duplicate map keys
//   - Budget exhaustion during a host operation
//
// Apart from budget exhaustion, a HostError on a value the host itself
// produced means the host is broken; callers treat it as fatal.
type HostError struct {
	// Code identifies the error category.
	Code HostErrorCode

	// Message is a human-readable description.
	Message string

	// Val is the offending value, if any.
	Val Val

	// Err is the underlying cause (e.g. *budget.ExceededError).
	Err error
}

// HostErrorCode categorizes host errors.
type HostErrorCode string

const (
	// ErrCodeInvalidValue indicates an unknown tag or malformed body.
	ErrCodeInvalidValue HostErrorCode = "INVALID_VALUE"

	// ErrCodeInvalidHandle indicates a handle with no object behind it.
	ErrCodeInvalidHandle HostErrorCode = "INVALID_HANDLE"

	// ErrCodeForeignHandle indicates a handle issued by a different env.
	ErrCodeForeignHandle HostErrorCode = "FOREIGN_HANDLE"

	// ErrCodeObjectMismatch indicates the object behind a handle does not
	// match the handle's tag, or an accessor was called on the wrong kind.
	ErrCodeObjectMismatch HostErrorCode = "OBJECT_TYPE_MISMATCH"

	// ErrCodeInvalidInput indicates a constructor rejected its input.
	ErrCodeInvalidInput HostErrorCode = "INVALID_INPUT"

	// ErrCodeDuplicateKey indicates a map was built with two equal keys.
	ErrCodeDuplicateKey HostErrorCode = "DUPLICATE_KEY"

	// ErrCodeBudgetExceeded indicates the env budget was exhausted.
	ErrCodeBudgetExceeded HostErrorCode = "BUDGET_EXCEEDED"
)

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Val != 0 {
		return fmt.Sprintf("%s: %s (val=%s)", e.Code, e.Message, e.Val)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *HostError) Unwrap() error {
	return e.Err
}

// IsHostError returns true if the error is, or wraps, a HostError.
func IsHostError(err error) bool {
	var he *HostError
	return errors.As(err, &he)
}

// HasCode returns true if the error is a HostError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code HostErrorCode) bool {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

// IsFatal reports whether err is a HostError other than budget exhaustion.
func IsFatal(err error) bool {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code != ErrCodeBudgetExceeded
	}
	return false
}

func newError(code HostErrorCode, v Val, format string, args ...any) *HostError {
	return &HostError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Val:     v,
	}
}

// wrapBudget turns a failed charge into a HostError. Other errors (unknown
// cost type) are returned unchanged.
func wrapBudget(err error) error {
	if err == nil {
		return nil
	}
	var ee *budget.ExceededError
	if !errors.As(err, &ee) {
		return err
	}
	return &HostError{
		Code:    ErrCodeBudgetExceeded,
		Message: "env budget exhausted",
		Err:     err,
	}
}
