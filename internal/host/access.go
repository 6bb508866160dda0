package host

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/hostval/internal/ir"
)

func mismatch(v Val, want string) error {
	return newError(ErrCodeObjectMismatch, v, "expected %s, got %s", want, v.Tag())
}

// U64Value returns the payload of a U64Small or U64Object.
func (e *Env) U64Value(v Val) (uint64, error) {
	switch v.Tag() {
	case TagU64Small:
		return v.U64Small(), nil
	case TagU64Object:
		o, err := e.resolve(v)
		if err != nil {
			return 0, err
		}
		return uint64(o.(u64Object)), nil
	}
	return 0, mismatch(v, "u64")
}

// I64Value returns the payload of an I64Small or I64Object.
func (e *Env) I64Value(v Val) (int64, error) {
	switch v.Tag() {
	case TagI64Small:
		return v.I64Small(), nil
	case TagI64Object:
		o, err := e.resolve(v)
		if err != nil {
			return 0, err
		}
		return int64(o.(i64Object)), nil
	}
	return 0, mismatch(v, "i64")
}

// BytesValue returns the payload of a bytes object. The slice is shared with
// the env and must not be modified.
func (e *Env) BytesValue(v Val) ([]byte, error) {
	if v.Tag() != TagBytesObject {
		return nil, mismatch(v, "bytes")
	}
	o, err := e.resolve(v)
	if err != nil {
		return nil, err
	}
	return o.(bytesObject), nil
}

// StringValue returns the payload of a string object.
func (e *Env) StringValue(v Val) (string, error) {
	if v.Tag() != TagStringObject {
		return "", mismatch(v, "string")
	}
	o, err := e.resolve(v)
	if err != nil {
		return "", err
	}
	return string(o.(stringObject)), nil
}

// SymbolValue returns the text of a SymbolSmall or SymbolObject.
func (e *Env) SymbolValue(v Val) (string, error) {
	switch v.Tag() {
	case TagSymbolSmall:
		s, err := decodeSymbolSmall(v.Body())
		if err != nil {
			return "", newError(ErrCodeInvalidValue, v, "%v", err)
		}
		return s, nil
	case TagSymbolObject:
		o, err := e.resolve(v)
		if err != nil {
			return "", err
		}
		return string(o.(symbolObject)), nil
	}
	return "", mismatch(v, "symbol")
}

// VecValue returns the elements of a vec object. The slice is shared with
// the env and must not be modified.
func (e *Env) VecValue(v Val) ([]Val, error) {
	if v.Tag() != TagVecObject {
		return nil, mismatch(v, "vec")
	}
	o, err := e.resolve(v)
	if err != nil {
		return nil, err
	}
	return o.(vecObject), nil
}

// MapValue returns the entries of a map object in ascending key order. The
// slice is shared with the env and must not be modified.
func (e *Env) MapValue(v Val) ([]MapEntry, error) {
	if v.Tag() != TagMapObject {
		return nil, mismatch(v, "map")
	}
	o, err := e.resolve(v)
	if err != nil {
		return nil, err
	}
	return o.(mapObject), nil
}

// Describe renders v with every handle resolved, for diagnostics.
// Resolution failures are rendered inline rather than returned.
func (e *Env) Describe(v Val) string {
	var sb strings.Builder
	e.describe(&sb, v)
	return sb.String()
}

func (e *Env) describe(sb *strings.Builder, v Val) {
	if !v.Tag().IsObject() {
		sb.WriteString(v.String())
		return
	}
	o, err := e.resolve(v)
	if err != nil {
		fmt.Fprintf(sb, "%s<%v>", v, err)
		return
	}
	h, _ := v.handle()
	fmt.Fprintf(sb, "%s#%d", v.Tag(), h)
	switch obj := o.(type) {
	case u64Object:
		fmt.Fprintf(sb, "(%d)", uint64(obj))
	case i64Object:
		fmt.Fprintf(sb, "(%d)", int64(obj))
	case bytesObject:
		fmt.Fprintf(sb, "(%s)", hex.EncodeToString(obj))
	case stringObject:
		fmt.Fprintf(sb, "(%s)", strconv.Quote(string(obj)))
	case symbolObject:
		fmt.Fprintf(sb, "(%s)", string(obj))
	case vecObject:
		sb.WriteByte('[')
		for i, elem := range obj {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.describe(sb, elem)
		}
		sb.WriteByte(']')
	case mapObject:
		sb.WriteByte('{')
		for i, me := range obj {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.describe(sb, me.Key)
			sb.WriteString(": ")
			e.describe(sb, me.Val)
		}
		sb.WriteByte('}')
	}
}

// mapKeys and mapVals split sorted entries for sequence comparison.
func mapKeys(entries []MapEntry) []Val {
	keys := make([]Val, len(entries))
	for i, me := range entries {
		keys[i] = me.Key
	}
	return keys
}

func mapVals(entries []MapEntry) []Val {
	vals := make([]Val, len(entries))
	for i, me := range entries {
		vals[i] = me.Val
	}
	return vals
}

// StatusValue returns the payload of an inline status.
func (e *Env) StatusValue(v Val) (ir.Status, error) {
	if v.Tag() != TagStatus {
		return ir.Status{}, mismatch(v, "status")
	}
	if err := v.check(); err != nil {
		return ir.Status{}, err
	}
	return v.Status(), nil
}
