package harness

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Check names.
const (
	CheckBuild          = "build"
	CheckEnvCompare     = "env_compare"
	CheckMeteredCompare = "metered_compare"
	CheckConversion     = "conversion"
	CheckOrder          = "order_mismatch"
	CheckPartialOrder   = "partial_order"
	CheckEquality       = "equality"
	CheckRoundTrip      = "round_trip"
	CheckMeteringParity = "metering_parity"
	CheckPanic          = "panic"
)

// Defect is a violation of the equivalence contract. It carries enough
// context to reproduce and diagnose the failure without rerunning.
type Defect struct {
	Property Property `json:"property"`
	Case     int      `json:"case"`
	Check    string   `json:"check"`
	Message  string   `json:"message"`

	// Runtime operands with handles resolved.
	Left  string `json:"left"`
	Right string `json:"right"`

	// Structured operands in canonical JSON, when conversion got that far.
	LeftIR  string `json:"left_ir,omitempty"`
	RightIR string `json:"right_ir,omitempty"`

	// Every ordering computed before the failure, by comparer.
	Orderings map[string]string `json:"orderings,omitempty"`

	Err error `json:"-"`
}

// Error implements the error interface.
func (d *Defect) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "defect in %s case %d (%s): %s", d.Property, d.Case, d.Check, d.Message)
	if len(d.Orderings) > 0 {
		names := make([]string, 0, len(d.Orderings))
		for name := range d.Orderings {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString(" [")
		for i, name := range names {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%s=%s", name, d.Orderings[name])
		}
		sb.WriteByte(']')
	}
	fmt.Fprintf(&sb, "\n  left:  %s\n  right: %s", d.Left, d.Right)
	if d.LeftIR != "" || d.RightIR != "" {
		fmt.Fprintf(&sb, "\n  left_ir:  %s\n  right_ir: %s", d.LeftIR, d.RightIR)
	}
	if d.Err != nil {
		fmt.Fprintf(&sb, "\n  cause: %v", d.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error, if any.
func (d *Defect) Unwrap() error {
	return d.Err
}

// IsDefect returns true if the error is, or wraps, a Defect.
func IsDefect(err error) bool {
	var d *Defect
	return errors.As(err, &d)
}
