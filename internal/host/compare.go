package host

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/ir"
)

// Compare is the environment comparer: the total order of two runtime values,
// resolving handles through the env.
//
// The order is the same as ir.Compare on the structured forms. Costs are
// charged to the env budget on the same schedule as the metered comparer:
// one CostCompareStep per pair visited, plus min(len) CostCompareBytes for
// bytes, string and symbol payloads. Handle resolution is free.
//
// Errors are always *HostError: malformed values and failed resolution are
// fatal, budget exhaustion has ErrCodeBudgetExceeded.
func (e *Env) Compare(a, b Val) (ir.Ordering, error) {
	if err := e.Charge(budget.CostCompareStep, 1); err != nil {
		return ir.Equal, err
	}
	if err := a.check(); err != nil {
		return ir.Equal, err
	}
	if err := b.check(); err != nil {
		return ir.Equal, err
	}

	ka, _ := a.Kind()
	kb, _ := b.Kind()
	if o := ir.CompareKinds(ka, kb); o != ir.Equal {
		return o, nil
	}

	switch ka {
	case ir.KindBool:
		return ir.OrderingOf(cmp.Compare(a.Tag(), b.Tag())), nil
	case ir.KindVoid:
		return ir.Equal, nil
	case ir.KindStatus:
		return ir.CompareStatus(a.Status(), b.Status()), nil
	case ir.KindU32:
		return ir.OrderingOf(cmp.Compare(a.U32(), b.U32())), nil
	case ir.KindI32:
		return ir.OrderingOf(cmp.Compare(a.I32(), b.I32())), nil

	case ir.KindU64:
		x, err := e.U64Value(a)
		if err != nil {
			return ir.Equal, err
		}
		y, err := e.U64Value(b)
		if err != nil {
			return ir.Equal, err
		}
		return ir.OrderingOf(cmp.Compare(x, y)), nil

	case ir.KindI64:
		x, err := e.I64Value(a)
		if err != nil {
			return ir.Equal, err
		}
		y, err := e.I64Value(b)
		if err != nil {
			return ir.Equal, err
		}
		return ir.OrderingOf(cmp.Compare(x, y)), nil

	case ir.KindBytes:
		x, err := e.BytesValue(a)
		if err != nil {
			return ir.Equal, err
		}
		y, err := e.BytesValue(b)
		if err != nil {
			return ir.Equal, err
		}
		if err := e.Charge(budget.CostCompareBytes, uint64(min(len(x), len(y)))); err != nil {
			return ir.Equal, err
		}
		return ir.OrderingOf(bytes.Compare(x, y)), nil

	case ir.KindString:
		x, err := e.StringValue(a)
		if err != nil {
			return ir.Equal, err
		}
		y, err := e.StringValue(b)
		if err != nil {
			return ir.Equal, err
		}
		return e.compareText(x, y)

	case ir.KindSymbol:
		x, err := e.SymbolValue(a)
		if err != nil {
			return ir.Equal, err
		}
		y, err := e.SymbolValue(b)
		if err != nil {
			return ir.Equal, err
		}
		return e.compareText(x, y)

	case ir.KindVec:
		xs, err := e.VecValue(a)
		if err != nil {
			return ir.Equal, err
		}
		ys, err := e.VecValue(b)
		if err != nil {
			return ir.Equal, err
		}
		return e.compareSeq(xs, ys)

	case ir.KindMap:
		xs, err := e.MapValue(a)
		if err != nil {
			return ir.Equal, err
		}
		ys, err := e.MapValue(b)
		if err != nil {
			return ir.Equal, err
		}
		o, err := e.compareSeq(mapKeys(xs), mapKeys(ys))
		if err != nil || o != ir.Equal {
			return o, err
		}
		return e.compareSeq(mapVals(xs), mapVals(ys))
	}

	return ir.Equal, newError(ErrCodeInvalidValue, a, "unhandled kind %s", ka)
}

func (e *Env) compareText(x, y string) (ir.Ordering, error) {
	if err := e.Charge(budget.CostCompareBytes, uint64(min(len(x), len(y)))); err != nil {
		return ir.Equal, err
	}
	return ir.OrderingOf(strings.Compare(x, y)), nil
}

// compareSeq compares element-wise; a strict prefix orders first.
func (e *Env) compareSeq(xs, ys []Val) (ir.Ordering, error) {
	n := min(len(xs), len(ys))
	for i := 0; i < n; i++ {
		o, err := e.Compare(xs[i], ys[i])
		if err != nil || o != ir.Equal {
			return o, err
		}
	}
	return ir.OrderingOf(cmp.Compare(len(xs), len(ys))), nil
}
