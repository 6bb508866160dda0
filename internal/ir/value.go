package ir

import (
	"fmt"
	"slices"
)

// Value is a sealed interface representing a structured value.
// Only the variant types declared in this file implement it.
type Value interface {
	Kind() Kind
	value() // Sealed - only these types implement it
}

// Bool is a boolean value.
type Bool bool

// Void is the unit value.
type Void struct{}

// U32 is an unsigned 32-bit integer.
type U32 uint32

// I32 is a signed 32-bit integer.
type I32 int32

// U64 is an unsigned 64-bit integer.
type U64 uint64

// I64 is a signed 64-bit integer.
type I64 int64

// Bytes is an opaque byte string.
type Bytes []byte

// String is a host string. Ordered by its bytes, not by rune.
type String string

// Symbol is a short identifier restricted to [A-Za-z0-9_], see ValidateSymbol.
type Symbol string

// Vec is an ordered sequence of values.
type Vec []Value

// Map is a collection of key/value entries. Entry order is not significant.
// Use Sorted() for the canonical order.
type Map []MapEntry

// MapEntry is a single key/value pair of a Map.
type MapEntry struct {
	Key Value
	Val Value
}

func (Bool) Kind() Kind   { return KindBool }
func (Void) Kind() Kind   { return KindVoid }
func (Status) Kind() Kind { return KindStatus }
func (U32) Kind() Kind    { return KindU32 }
func (I32) Kind() Kind    { return KindI32 }
func (U64) Kind() Kind    { return KindU64 }
func (I64) Kind() Kind    { return KindI64 }
func (Bytes) Kind() Kind  { return KindBytes }
func (String) Kind() Kind { return KindString }
func (Symbol) Kind() Kind { return KindSymbol }
func (Vec) Kind() Kind    { return KindVec }
func (Map) Kind() Kind    { return KindMap }

func (Bool) value()   {}
func (Void) value()   {}
func (Status) value() {}
func (U32) value()    {}
func (I32) value()    {}
func (U64) value()    {}
func (I64) value()    {}
func (Bytes) value()  {}
func (String) value() {}
func (Symbol) value() {}
func (Vec) value()    {}
func (Map) value()    {}

// NewVec creates a Vec from values.
func NewVec(vals ...Value) Vec {
	return Vec(vals)
}

// NewMap creates a Map from entries. Entries are kept in the given order.
func NewMap(entries ...MapEntry) Map {
	return Map(entries)
}

// E is a shorthand for MapEntry for ergonomic construction.
// Example: NewMap(E(U32(1), U32(10)), E(U32(2), U32(20)))
func E(key, val Value) MapEntry {
	return MapEntry{Key: key, Val: val}
}

// Sorted returns a copy of the map with entries in ascending key order.
// Entries with equal keys are ordered by value, so the result does not
// depend on insertion order even for duplicate keys.
func (m Map) Sorted() Map {
	sorted := slices.Clone(m)
	slices.SortFunc(sorted, func(a, b MapEntry) int {
		if o := Compare(a.Key, b.Key); o != Equal {
			return int(o)
		}
		return int(Compare(a.Val, b.Val))
	})
	return sorted
}

// Keys returns the keys in the map's current entry order.
func (m Map) Keys() Vec {
	keys := make(Vec, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// Vals returns the values in the map's current entry order.
func (m Map) Vals() Vec {
	vals := make(Vec, len(m))
	for i, e := range m {
		vals[i] = e.Val
	}
	return vals
}

// SymbolMaxLen is the longest symbol a host accepts.
const SymbolMaxLen = 32

// ValidateSymbol checks the symbol character set and length.
func ValidateSymbol(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("symbol is empty")
	}
	if len(s) > SymbolMaxLen {
		return fmt.Errorf("symbol %q exceeds %d chars", s, SymbolMaxLen)
	}
	for i := 0; i < len(s); i++ {
		if !IsSymbolChar(s[i]) {
			return fmt.Errorf("symbol %q: invalid char %q at %d", s, s[i], i)
		}
	}
	return nil
}

// IsSymbolChar reports whether c may appear in a symbol.
func IsSymbolChar(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z')
}

// Validate walks v and reports the first malformed node: nil values,
// unknown status types, or invalid symbols.
func Validate(v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("nil value")
	case Status:
		if !val.Type.Valid() {
			return fmt.Errorf("status: unknown type %d", uint8(val.Type))
		}
	case Symbol:
		return ValidateSymbol(string(val))
	case Vec:
		for i, elem := range val {
			if err := Validate(elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case Map:
		for i, e := range val {
			if err := Validate(e.Key); err != nil {
				return fmt.Errorf("[%d].key: %w", i, err)
			}
			if err := Validate(e.Val); err != nil {
				return fmt.Errorf("[%d].val: %w", i, err)
			}
		}
	}
	return nil
}
