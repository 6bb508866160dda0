package ir

import "fmt"

// Kind identifies the logical type of a value. It is the vocabulary shared by
// the structured and the runtime representations.
//
// CRITICAL: declaration order is the cross-type total order used by every
// comparer. Do not reorder; append new kinds only with a matching update to
// every comparer and converter switch.
type Kind uint8

const (
	KindBool Kind = iota
	KindVoid
	KindStatus
	KindU32
	KindI32
	KindU64
	KindI64
	KindBytes
	KindString
	KindSymbol
	KindVec
	KindMap

	numKinds
)

var kindNames = [numKinds]string{
	KindBool:   "bool",
	KindVoid:   "void",
	KindStatus: "status",
	KindU32:    "u32",
	KindI32:    "i32",
	KindU64:    "u64",
	KindI64:    "i64",
	KindBytes:  "bytes",
	KindString: "string",
	KindSymbol: "symbol",
	KindVec:    "vec",
	KindMap:    "map",
}

// String returns the lower-case kind name, which is also the tag used in
// canonical JSON.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// Kinds returns every declared kind in order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// kindByName is the inverse of kindNames, used by the canonical decoder.
func kindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Ordering is the result of comparing two values.
type Ordering int8

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// String implements fmt.Stringer.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return fmt.Sprintf("ordering(%d)", int8(o))
	}
}

// Reverse returns the ordering seen from the other operand.
func (o Ordering) Reverse() Ordering {
	return -o
}

// ParseOrdering parses the names produced by Ordering.String.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "less":
		return Less, nil
	case "equal":
		return Equal, nil
	case "greater":
		return Greater, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q: must be less, equal or greater", s)
	}
}

// MarshalText encodes the ordering by name.
func (o Ordering) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes the names produced by MarshalText.
func (o *Ordering) UnmarshalText(text []byte) error {
	parsed, err := ParseOrdering(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// OrderingOf converts a cmp-style integer (negative, zero, positive).
func OrderingOf(c int) Ordering {
	switch {
	case c < 0:
		return Less
	case c > 0:
		return Greater
	default:
		return Equal
	}
}

// CompareKinds orders two kinds by declaration order.
func CompareKinds(a, b Kind) Ordering {
	return OrderingOf(int(a) - int(b))
}
