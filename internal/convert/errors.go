package convert

import (
	"errors"
	"fmt"

	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
)

// Reason says why a conversion failed.
type Reason string

const (
	// ReasonStatusNotSerializable: a runtime status has no structured form.
	// Composites containing a status fail with the same reason.
	ReasonStatusNotSerializable Reason = "status_not_serializable"

	// ReasonUnresolvable: a handle did not resolve in the env.
	ReasonUnresolvable Reason = "unresolvable"

	// ReasonInvalidValue: a malformed runtime value, a nil structured node,
	// or a structured node the host rejects (invalid symbol, unknown status type).
	ReasonInvalidValue Reason = "invalid_value"

	// ReasonDuplicateKey: a structured map has two equal keys.
	ReasonDuplicateKey Reason = "duplicate_key"
)

// ConversionError is returned when a value cannot be converted between
// representations. It describes the innermost failing node; Path locates it
// from the root ("" for the root, "[2]", "[0].key", ...).
//
// Budget exhaustion is never a ConversionError.
type ConversionError struct {
	Reason Reason
	Kind   ir.Kind  // Kind of the failing node
	Tag    host.Tag // Tag of the failing node; forward conversion only
	Path   string
	Err    error // Underlying host error, if any
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("convert %s: %s", e.Kind, e.Reason)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying host error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsUnconvertible returns true if the error is, or wraps, a ConversionError.
func IsUnconvertible(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

// ReasonOf returns the reason of a ConversionError in err's chain.
func ReasonOf(err error) (Reason, bool) {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Reason, true
	}
	return "", false
}

// withPath prefixes the path of a ConversionError. Other errors pass through.
func withPath(err error, seg string) error {
	var ce *ConversionError
	if !errors.As(err, &ce) {
		return err
	}
	nested := *ce
	nested.Path = seg + ce.Path
	return &nested
}

// fromHost classifies a host error raised while converting a node.
// Budget exhaustion passes through unchanged.
func fromHost(err error, kind ir.Kind, tag host.Tag) error {
	var he *host.HostError
	if !errors.As(err, &he) {
		return err
	}
	reason := ReasonInvalidValue
	switch he.Code {
	case host.ErrCodeBudgetExceeded:
		return err
	case host.ErrCodeInvalidHandle, host.ErrCodeForeignHandle, host.ErrCodeObjectMismatch:
		reason = ReasonUnresolvable
	case host.ErrCodeDuplicateKey:
		reason = ReasonDuplicateKey
	}
	return &ConversionError{Reason: reason, Kind: kind, Tag: tag, Err: err}
}
