package harness

import (
	"fmt"
	"time"

	"github.com/roach88/hostval/internal/ir"
)

// Property names an equivalence property checked over generated cases.
type Property string

const (
	PropVecUnequalLengths   Property = "vec_unequal_lengths"
	PropMapUnequalLengths   Property = "map_unequal_lengths"
	PropDifferentObjectsCmp Property = "different_objects_cmp"
	PropMeteringParity      Property = "metering_parity"
)

// Properties returns every property in a fixed order.
func Properties() []Property {
	return []Property{
		PropVecUnequalLengths,
		PropMapUnequalLengths,
		PropDifferentObjectsCmp,
		PropMeteringParity,
	}
}

// ParseProperty parses a property name.
func ParseProperty(s string) (Property, error) {
	for _, p := range Properties() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown property %q (valid: %v)", s, Properties())
}

// Outcome classifies one checked case.
type Outcome string

const (
	OutcomePass    Outcome = "pass"
	OutcomeSkipped Outcome = "skipped"
	OutcomeDefect  Outcome = "defect"
)

// Skip reasons.
const (
	SkipEqualTags     = "equal_tags"
	SkipUnconvertible = "unconvertible"
	SkipBudget        = "budget_exceeded"
)

// CaseResult is the outcome of one generated case.
type CaseResult struct {
	Index    int         `json:"index"`
	Outcome  Outcome     `json:"outcome"`
	Ordering ir.Ordering `json:"ordering"`       // Agreed ordering, when passed
	Skip     string      `json:"skip,omitempty"` // Skip reason, when skipped
	Cost     uint64      `json:"cost"`           // Budget consumed by the env comparison
}

// Report summarizes a property run.
type Report struct {
	RunID      string         `json:"run_id"`
	Property   Property       `json:"property"`
	Seed       int            `json:"seed"`
	Cases      int            `json:"cases"`   // Requested
	Checked    int            `json:"checked"` // Actually run before stopping
	Passed     int            `json:"passed"`
	Skipped    map[string]int `json:"skipped"`
	Defect     *Defect        `json:"defect,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// NewReport creates an empty report.
func NewReport(runID string, prop Property, seed, cases int) *Report {
	return &Report{
		RunID:    runID,
		Property: prop,
		Seed:     seed,
		Cases:    cases,
		Skipped:  make(map[string]int),
	}
}

// Pass reports whether the run found no defect.
func (r *Report) Pass() bool {
	return r.Defect == nil
}

// SkippedTotal returns the number of skipped cases across reasons.
func (r *Report) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

func (r *Report) add(res CaseResult) {
	r.Checked++
	switch res.Outcome {
	case OutcomePass:
		r.Passed++
	case OutcomeSkipped:
		r.Skipped[res.Skip]++
	}
}
