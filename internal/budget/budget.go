// Package budget implements the resource accounting shared by every metered
// operation on a host: comparisons, conversions and object allocation.
//
// A Budget is a single-goroutine object. Each host env owns one; callers that
// need independent accounting create independent budgets.
package budget

import (
	"errors"
	"fmt"
	"math"
)

// CostType identifies what a charge pays for.
type CostType uint8

const (
	// CostCompareStep is charged once for every pair of values a comparer visits.
	CostCompareStep CostType = iota
	// CostCompareBytes is charged per byte examined in bytes, string and symbol payloads.
	CostCompareBytes
	// CostConvertStep is charged once for every node converted between representations.
	CostConvertStep
	// CostObjectAlloc is charged once for every host object allocated.
	CostObjectAlloc

	numCostTypes
)

var costTypeNames = [numCostTypes]string{
	CostCompareStep:  "compare_step",
	CostCompareBytes: "compare_bytes",
	CostConvertStep:  "convert_step",
	CostObjectAlloc:  "object_alloc",
}

func (c CostType) String() string {
	if c >= numCostTypes {
		return fmt.Sprintf("cost(%d)", uint8(c))
	}
	return costTypeNames[c]
}

// CostTypes returns every cost type in order.
func CostTypes() []CostType {
	types := make([]CostType, 0, numCostTypes)
	for c := CostType(0); c < numCostTypes; c++ {
		types = append(types, c)
	}
	return types
}

// DefaultLimit is the default budget limit for a host env.
// Large enough for every generated workload; tests that exercise exhaustion
// use New with a small limit.
const DefaultLimit uint64 = 10_000_000

// Budget tracks cumulative cost against a limit.
//
// Once a charge crosses the limit the budget stays exhausted: every later
// charge fails too, until Reset.
type Budget struct {
	limit    uint64
	consumed uint64
	byType   [numCostTypes]uint64
}

// New creates a budget with the given limit.
func New(limit uint64) *Budget {
	return &Budget{limit: limit}
}

// Unlimited creates a budget that can never be exhausted in practice.
func Unlimited() *Budget {
	return New(math.MaxUint64)
}

// Charge adds units of the given cost type and validates against the limit.
//
// Returns *ExceededError if the cumulative cost crosses the limit. The
// consumed counter saturates rather than wrapping.
func (b *Budget) Charge(cost CostType, units uint64) error {
	if cost >= numCostTypes {
		return fmt.Errorf("budget: unknown cost type %d", uint8(cost))
	}
	b.consumed = saturatingAdd(b.consumed, units)
	b.byType[cost] = saturatingAdd(b.byType[cost], units)
	if b.consumed > b.limit {
		return &ExceededError{
			Cost:     cost,
			Consumed: b.consumed,
			Limit:    b.limit,
		}
	}
	return nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// Reset clears all consumption. The limit is unchanged.
func (b *Budget) Reset() {
	b.consumed = 0
	b.byType = [numCostTypes]uint64{}
}

// SetLimit replaces the limit without touching consumption.
func (b *Budget) SetLimit(limit uint64) {
	b.limit = limit
}

// Consumed returns the cumulative cost charged so far.
func (b *Budget) Consumed() uint64 {
	return b.consumed
}

// ConsumedBy returns the cost charged for one cost type.
// Used for logging and diagnostics.
func (b *Budget) ConsumedBy(cost CostType) uint64 {
	if cost >= numCostTypes {
		return 0
	}
	return b.byType[cost]
}

// Limit returns the configured limit.
func (b *Budget) Limit() uint64 {
	return b.limit
}

// Remaining returns how much can still be charged before the limit is crossed.
func (b *Budget) Remaining() uint64 {
	if b.consumed >= b.limit {
		return 0
	}
	return b.limit - b.consumed
}

// Exhausted reports whether a charge has crossed the limit.
func (b *Budget) Exhausted() bool {
	return b.consumed > b.limit
}

// ExceededError is returned when a charge crosses the budget limit.
//
// The operation that triggered it is abandoned; no partial result is produced.
type ExceededError struct {
	Cost     CostType // The charge that crossed the limit
	Consumed uint64   // Cumulative cost including that charge
	Limit    uint64   // Configured limit
}

// Error implements the error interface.
func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded on %s: consumed %d > limit %d",
		e.Cost, e.Consumed, e.Limit)
}

// IsExceeded returns true if the error is, or wraps, an ExceededError.
// Uses errors.As to handle wrapped errors.
func IsExceeded(err error) bool {
	var ee *ExceededError
	return errors.As(err, &ee)
}
