// Package metered compares structured values while charging a budget.
//
// The order is ir.Compare's. The cost schedule is the env comparer's: one
// budget.CostCompareStep per pair visited, plus min(len) budget.CostCompareBytes
// for bytes, string and symbol payloads. The two comparers therefore exhaust
// a budget of equal limit on the same workloads.
package metered

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/ir"
)

// ErrNilValue is returned when either tree contains a nil node.
var ErrNilValue = errors.New("metered: nil value")

// Compare returns the order of x and y, charging b as it recurses.
//
// On budget exhaustion it returns the *budget.ExceededError of the first
// failing charge and no ordering.
func Compare(b *budget.Budget, x, y ir.Value) (ir.Ordering, error) {
	if err := b.Charge(budget.CostCompareStep, 1); err != nil {
		return ir.Equal, err
	}
	if x == nil || y == nil {
		return ir.Equal, ErrNilValue
	}
	if o := ir.CompareKinds(x.Kind(), y.Kind()); o != ir.Equal {
		return o, nil
	}

	switch a := x.(type) {
	case ir.Bool:
		return ir.OrderingOf(cmp.Compare(boolRank(bool(a)), boolRank(bool(y.(ir.Bool))))), nil
	case ir.Void:
		return ir.Equal, nil
	case ir.Status:
		return ir.CompareStatus(a, y.(ir.Status)), nil
	case ir.U32:
		return ir.OrderingOf(cmp.Compare(a, y.(ir.U32))), nil
	case ir.I32:
		return ir.OrderingOf(cmp.Compare(a, y.(ir.I32))), nil
	case ir.U64:
		return ir.OrderingOf(cmp.Compare(a, y.(ir.U64))), nil
	case ir.I64:
		return ir.OrderingOf(cmp.Compare(a, y.(ir.I64))), nil
	case ir.Bytes:
		c := y.(ir.Bytes)
		if err := chargeBytes(b, len(a), len(c)); err != nil {
			return ir.Equal, err
		}
		return ir.OrderingOf(bytes.Compare(a, c)), nil
	case ir.String:
		c := y.(ir.String)
		if err := chargeBytes(b, len(a), len(c)); err != nil {
			return ir.Equal, err
		}
		return ir.OrderingOf(strings.Compare(string(a), string(c))), nil
	case ir.Symbol:
		c := y.(ir.Symbol)
		if err := chargeBytes(b, len(a), len(c)); err != nil {
			return ir.Equal, err
		}
		return ir.OrderingOf(strings.Compare(string(a), string(c))), nil
	case ir.Vec:
		return compareSeq(b, a, y.(ir.Vec))
	case ir.Map:
		c := y.(ir.Map)
		if hasNilEntry(a) || hasNilEntry(c) {
			return ir.Equal, ErrNilValue
		}
		xs, ys := a.Sorted(), c.Sorted()
		o, err := compareSeq(b, xs.Keys(), ys.Keys())
		if err != nil || o != ir.Equal {
			return o, err
		}
		return compareSeq(b, xs.Vals(), ys.Vals())
	}

	return ir.Equal, fmt.Errorf("metered: unhandled value type %T", x)
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func chargeBytes(b *budget.Budget, n, m int) error {
	return b.Charge(budget.CostCompareBytes, uint64(min(n, m)))
}

// compareSeq compares element-wise; a strict prefix orders first.
func compareSeq(b *budget.Budget, xs, ys ir.Vec) (ir.Ordering, error) {
	n := min(len(xs), len(ys))
	for i := 0; i < n; i++ {
		o, err := Compare(b, xs[i], ys[i])
		if err != nil || o != ir.Equal {
			return o, err
		}
	}
	return ir.OrderingOf(cmp.Compare(len(xs), len(ys))), nil
}

// hasNilEntry guards Sorted, which panics on nil keys or values at any depth.
func hasNilEntry(m ir.Map) bool {
	for _, e := range m {
		if !complete(e.Key) || !complete(e.Val) {
			return true
		}
	}
	return false
}

func complete(v ir.Value) bool {
	_, ok := ir.PartialCompare(v, v)
	return ok
}
