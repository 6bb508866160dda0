package ir

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
)

// Compare returns the total order of two values.
//
// Values of different kinds order by Kind declaration order. Within a kind:
//   - bool: false < true
//   - integers: numeric
//   - status: by type, then code
//   - bytes, string, symbol: lexicographic by byte
//   - vec: element-wise; a strict prefix orders first
//   - map: entries sorted by key, then the key sequences compare as vecs,
//     then the value sequences
//
// Compare panics on nil values; use PartialCompare for untrusted trees.
func Compare(a, b Value) Ordering {
	if a == nil || b == nil {
		panic("ir: Compare called with nil Value")
	}
	if o := CompareKinds(a.Kind(), b.Kind()); o != Equal {
		return o
	}

	switch x := a.(type) {
	case Bool:
		return compareBool(bool(x), bool(b.(Bool)))
	case Void:
		return Equal
	case Status:
		return CompareStatus(x, b.(Status))
	case U32:
		return OrderingOf(cmp.Compare(x, b.(U32)))
	case I32:
		return OrderingOf(cmp.Compare(x, b.(I32)))
	case U64:
		return OrderingOf(cmp.Compare(x, b.(U64)))
	case I64:
		return OrderingOf(cmp.Compare(x, b.(I64)))
	case Bytes:
		return OrderingOf(bytes.Compare(x, b.(Bytes)))
	case String:
		return OrderingOf(strings.Compare(string(x), string(b.(String))))
	case Symbol:
		return OrderingOf(strings.Compare(string(x), string(b.(Symbol))))
	case Vec:
		return compareSeq(x, b.(Vec))
	case Map:
		xs, ys := x.Sorted(), b.(Map).Sorted()
		if o := compareSeq(xs.Keys(), ys.Keys()); o != Equal {
			return o
		}
		return compareSeq(xs.Vals(), ys.Vals())
	default:
		panic(fmt.Sprintf("ir: unhandled value type %T", a))
	}
}

// CompareStatus orders two statuses by type, then code.
func CompareStatus(a, b Status) Ordering {
	if o := OrderingOf(cmp.Compare(a.Type, b.Type)); o != Equal {
		return o
	}
	return OrderingOf(cmp.Compare(a.Code, b.Code))
}

func compareBool(a, b bool) Ordering {
	switch {
	case a == b:
		return Equal
	case !a:
		return Less
	default:
		return Greater
	}
}

// compareSeq compares element-wise; a strict prefix orders first.
func compareSeq(a, b Vec) Ordering {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if o := Compare(a[i], b[i]); o != Equal {
			return o
		}
	}
	return OrderingOf(cmp.Compare(len(a), len(b)))
}

// PartialCompare is Compare for trees that may contain nil nodes.
// It returns ok=false instead of panicking when either tree is incomplete.
// For complete trees it always agrees with Compare.
func PartialCompare(a, b Value) (Ordering, bool) {
	if hasNil(a) || hasNil(b) {
		return Equal, false
	}
	return Compare(a, b), true
}

func hasNil(v Value) bool {
	switch val := v.(type) {
	case nil:
		return true
	case Vec:
		for _, elem := range val {
			if hasNil(elem) {
				return true
			}
		}
	case Map:
		for _, e := range val {
			if hasNil(e.Key) || hasNil(e.Val) {
				return true
			}
		}
	}
	return false
}

// EqualValues reports structural equality. It is implemented independently of
// Compare (apart from sorting map entries) so the two can be checked against
// each other.
func EqualValues(a, b Value) bool {
	if a == nil || b == nil {
		return false
	}

	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Void:
		_, ok := b.(Void)
		return ok
	case Status:
		y, ok := b.(Status)
		return ok && x == y
	case U32:
		y, ok := b.(U32)
		return ok && x == y
	case I32:
		y, ok := b.(I32)
		return ok && x == y
	case U64:
		y, ok := b.(U64)
		return ok && x == y
	case I64:
		y, ok := b.(I64)
		return ok && x == y
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x == y
	case Vec:
		y, ok := b.(Vec)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !EqualValues(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) || hasNil(x) || hasNil(y) {
			return false
		}
		xs, ys := x.Sorted(), y.Sorted()
		for i := range xs {
			if !EqualValues(xs[i].Key, ys[i].Key) || !EqualValues(xs[i].Val, ys[i].Val) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
