// Package convert maps values between the runtime representation (host.Val)
// and the structured representation (ir.Value).
//
// Forward conversion (ToStructured) only reads env storage. Backward
// conversion (ToRuntime) allocates objects and canonicalizes: 64-bit
// integers and symbols are inline when they fit, maps are sorted by key.
// Round trips preserve order: env.Compare(v, ToRuntime(ToStructured(v)))
// is Equal, though the bits may differ.
package convert

import (
	"fmt"
	"slices"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
)

// ToStructured converts a runtime value into a self-contained tree.
//
// Statuses, and composites containing one, fail with
// ReasonStatusNotSerializable. Every node charges budget.CostConvertStep.
func ToStructured(env *host.Env, v host.Val) (ir.Value, error) {
	if err := env.Charge(budget.CostConvertStep, 1); err != nil {
		return nil, err
	}

	kind, _ := v.Kind()
	if err := env.Check(v); err != nil {
		return nil, fromHost(err, kind, v.Tag())
	}

	switch v.Tag() {
	case host.TagFalse, host.TagTrue:
		return ir.Bool(v.Bool()), nil
	case host.TagVoid:
		return ir.Void{}, nil
	case host.TagStatus:
		return nil, &ConversionError{
			Reason: ReasonStatusNotSerializable,
			Kind:   ir.KindStatus,
			Tag:    host.TagStatus,
		}
	case host.TagU32:
		return ir.U32(v.U32()), nil
	case host.TagI32:
		return ir.I32(v.I32()), nil
	}

	switch kind {
	case ir.KindU64:
		x, err := env.U64Value(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		return ir.U64(x), nil

	case ir.KindI64:
		x, err := env.I64Value(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		return ir.I64(x), nil

	case ir.KindBytes:
		b, err := env.BytesValue(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		return ir.Bytes(slices.Clone(b)), nil

	case ir.KindString:
		s, err := env.StringValue(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		return ir.String(s), nil

	case ir.KindSymbol:
		s, err := env.SymbolValue(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		return ir.Symbol(s), nil

	case ir.KindVec:
		elems, err := env.VecValue(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		vec := make(ir.Vec, len(elems))
		for i, elem := range elems {
			s, err := ToStructured(env, elem)
			if err != nil {
				return nil, withPath(err, fmt.Sprintf("[%d]", i))
			}
			vec[i] = s
		}
		return vec, nil

	case ir.KindMap:
		entries, err := env.MapValue(v)
		if err != nil {
			return nil, fromHost(err, kind, v.Tag())
		}
		m := make(ir.Map, len(entries))
		for i, me := range entries {
			key, err := ToStructured(env, me.Key)
			if err != nil {
				return nil, withPath(err, fmt.Sprintf("[%d].key", i))
			}
			val, err := ToStructured(env, me.Val)
			if err != nil {
				return nil, withPath(err, fmt.Sprintf("[%d].val", i))
			}
			m[i] = ir.MapEntry{Key: key, Val: val}
		}
		return m, nil
	}

	return nil, &ConversionError{Reason: ReasonInvalidValue, Kind: kind, Tag: v.Tag()}
}

// ToRuntime converts a structured tree into a runtime value owned by env.
//
// A structured status converts to an inline status even though the reverse
// direction always fails. Every node charges budget.CostConvertStep, every
// allocated object budget.CostObjectAlloc.
func ToRuntime(env *host.Env, s ir.Value) (host.Val, error) {
	if err := env.Charge(budget.CostConvertStep, 1); err != nil {
		return 0, err
	}
	if s == nil {
		return 0, &ConversionError{Reason: ReasonInvalidValue}
	}

	var (
		v   host.Val
		err error
	)
	switch val := s.(type) {
	case ir.Bool:
		return host.FromBool(bool(val)), nil
	case ir.Void:
		return host.Void, nil
	case ir.Status:
		if !val.Type.Valid() {
			return 0, &ConversionError{
				Reason: ReasonInvalidValue,
				Kind:   ir.KindStatus,
				Err:    fmt.Errorf("unknown status type %d", uint8(val.Type)),
			}
		}
		return host.FromStatus(val), nil
	case ir.U32:
		return host.FromU32(uint32(val)), nil
	case ir.I32:
		return host.FromI32(int32(val)), nil
	case ir.U64:
		v, err = env.NewU64(uint64(val))
	case ir.I64:
		v, err = env.NewI64(int64(val))
	case ir.Bytes:
		v, err = env.NewBytes(val)
	case ir.String:
		v, err = env.NewString(string(val))
	case ir.Symbol:
		v, err = env.NewSymbol(string(val))

	case ir.Vec:
		elems := make([]host.Val, len(val))
		for i, elem := range val {
			ev, err := ToRuntime(env, elem)
			if err != nil {
				return 0, withPath(err, fmt.Sprintf("[%d]", i))
			}
			elems[i] = ev
		}
		v, err = env.NewVec(elems)

	case ir.Map:
		entries := make([]host.MapEntry, len(val))
		for i, me := range val {
			key, err := ToRuntime(env, me.Key)
			if err != nil {
				return 0, withPath(err, fmt.Sprintf("[%d].key", i))
			}
			kv, err := ToRuntime(env, me.Val)
			if err != nil {
				return 0, withPath(err, fmt.Sprintf("[%d].val", i))
			}
			entries[i] = host.MapEntry{Key: key, Val: kv}
		}
		v, err = env.NewMap(entries)

	default:
		return 0, &ConversionError{Reason: ReasonInvalidValue, Err: fmt.Errorf("unknown value type %T", s)}
	}

	if err != nil {
		return 0, fromHost(err, s.Kind(), 0)
	}
	return v, nil
}
