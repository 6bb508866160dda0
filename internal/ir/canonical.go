package ir

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// MarshalCanonical produces the canonical JSON encoding of a value.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity (see Digest) and for persisted values.
//
// Every value encodes as a single-key object naming its kind:
//
//	{"bool":true}  {"void":{}}  {"status":{"code":7,"type":"vm_error"}}
//	{"u32":1}  {"i32":-1}  {"u64":"18446744073709551615"}  {"i64":"-5"}
//	{"bytes":"00ff"}  {"string":"héllo"}  {"symbol":"transfer"}
//	{"vec":[...]}  {"map":[{"key":...,"val":...},...]}
//
// Rules:
//  1. 64-bit integers are decimal strings (JSON numbers lose precision > 2^53)
//  2. Bytes are lower-case hex
//  3. Map entries are emitted in ascending key order
//  4. No HTML escaping
//  5. Strings must be valid UTF-8
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v Value) error {
	if v == nil {
		return fmt.Errorf("nil value is not encodable")
	}

	buf.WriteString(`{"`)
	buf.WriteString(v.Kind().String())
	buf.WriteString(`":`)

	switch val := v.(type) {
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Void:
		buf.WriteString("{}")
	case Status:
		if !val.Type.Valid() {
			return fmt.Errorf("status: unknown type %d", uint8(val.Type))
		}
		fmt.Fprintf(buf, `{"code":%d,"type":"%s"}`, val.Code, val.Type)
	case U32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case I32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case U64:
		buf.WriteString(`"` + strconv.FormatUint(uint64(val), 10) + `"`)
	case I64:
		buf.WriteString(`"` + strconv.FormatInt(int64(val), 10) + `"`)
	case Bytes:
		buf.WriteString(`"` + hex.EncodeToString(val) + `"`)
	case String:
		if err := writeCanonicalString(buf, string(val)); err != nil {
			return err
		}
	case Symbol:
		if err := ValidateSymbol(string(val)); err != nil {
			return err
		}
		buf.WriteString(`"` + string(val) + `"`)
	case Vec:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("vec[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Map:
		if hasNil(val) {
			return fmt.Errorf("map: nil entry")
		}
		buf.WriteByte('[')
		for i, e := range val.Sorted() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`{"key":`)
			if err := marshalCanonical(buf, e.Key); err != nil {
				return fmt.Errorf("map[%d].key: %w", i, err)
			}
			buf.WriteString(`,"val":`)
			if err := marshalCanonical(buf, e.Val); err != nil {
				return fmt.Errorf("map[%d].val: %w", i, err)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}

	buf.WriteByte('}')
	return nil
}

// writeCanonicalString writes a JSON string with HTML escaping disabled.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("string is not valid UTF-8")
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(s); err != nil {
		return err
	}
	// json.Encoder adds trailing newline, remove it
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// UnmarshalCanonical decodes the canonical JSON encoding of a value.
// Integers are decoded with json.Number to avoid float64 precision loss;
// 64-bit integers are also accepted as plain JSON numbers.
func UnmarshalCanonical(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after value")
	}
	return FromNative(raw)
}

// FromNative converts a generically decoded document (encoding/json with
// UseNumber, or gopkg.in/yaml.v3) in canonical form into a Value.
func FromNative(raw any) (Value, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("value must be a single-key object, got %T", raw)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("value must have exactly one kind key, got %d keys", len(obj))
	}

	for name, body := range obj {
		kind, ok := kindByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q", name)
		}
		v, err := fromNativeBody(kind, body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}
	panic("unreachable")
}

func fromNativeBody(kind Kind, body any) (Value, error) {
	switch kind {
	case KindBool:
		b, ok := body.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", body)
		}
		return Bool(b), nil

	case KindVoid:
		switch m := body.(type) {
		case nil:
			return Void{}, nil
		case map[string]any:
			if len(m) != 0 {
				return nil, fmt.Errorf("expected empty object")
			}
			return Void{}, nil
		}
		return nil, fmt.Errorf("expected empty object, got %T", body)

	case KindStatus:
		m, ok := body.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", body)
		}
		typeName, ok := m["type"].(string)
		if !ok {
			return nil, fmt.Errorf("type: expected string")
		}
		st, err := ParseStatusType(typeName)
		if err != nil {
			return nil, err
		}
		code, err := nativeUint(m["code"], math.MaxUint32)
		if err != nil {
			return nil, fmt.Errorf("code: %w", err)
		}
		return Status{Type: st, Code: uint32(code)}, nil

	case KindU32:
		n, err := nativeUint(body, math.MaxUint32)
		if err != nil {
			return nil, err
		}
		return U32(n), nil

	case KindI32:
		n, err := nativeInt(body, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return I32(n), nil

	case KindU64:
		n, err := nativeUint(body, math.MaxUint64)
		if err != nil {
			return nil, err
		}
		return U64(n), nil

	case KindI64:
		n, err := nativeInt(body, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return I64(n), nil

	case KindBytes:
		s, ok := body.(string)
		if !ok {
			return nil, fmt.Errorf("expected hex string, got %T", body)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, err
		}
		return Bytes(b), nil

	case KindString:
		s, ok := body.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", body)
		}
		return String(s), nil

	case KindSymbol:
		s, ok := body.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", body)
		}
		if err := ValidateSymbol(s); err != nil {
			return nil, err
		}
		return Symbol(s), nil

	case KindVec:
		elems, ok := body.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", body)
		}
		vec := make(Vec, len(elems))
		for i, elem := range elems {
			v, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			vec[i] = v
		}
		return vec, nil

	case KindMap:
		entries, ok := body.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array of entries, got %T", body)
		}
		m := make(Map, len(entries))
		for i, raw := range entries {
			entry, ok := raw.(map[string]any)
			if !ok || len(entry) != 2 {
				return nil, fmt.Errorf("[%d]: expected {key, val} object", i)
			}
			key, err := FromNative(entry["key"])
			if err != nil {
				return nil, fmt.Errorf("[%d].key: %w", i, err)
			}
			val, err := FromNative(entry["val"])
			if err != nil {
				return nil, fmt.Errorf("[%d].val: %w", i, err)
			}
			m[i] = MapEntry{Key: key, Val: val}
		}
		return m, nil
	}

	return nil, fmt.Errorf("unhandled kind %s", kind)
}

// nativeUint accepts json.Number, decimal strings, and the integer types
// produced by yaml.v3.
func nativeUint(raw any, max uint64) (uint64, error) {
	var n uint64
	switch v := raw.(type) {
	case json.Number:
		u, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid unsigned integer %q", v)
		}
		n = u
	case string:
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid unsigned integer %q", v)
		}
		n = u
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		n = uint64(v)
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		n = uint64(v)
	case uint64:
		n = v
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
	if n > max {
		return 0, fmt.Errorf("value %d out of range", n)
	}
	return n, nil
}

// nativeInt is the signed counterpart of nativeUint.
func nativeInt(raw any, lo, hi int64) (int64, error) {
	var n int64
	switch v := raw.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v)
		}
		n = i
	case int:
		n = int64(v)
	case int64:
		n = v
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", v)
		}
		n = int64(v)
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("value %d out of range", n)
	}
	return n, nil
}

// MustMarshalCanonical is like MarshalCanonical but panics on error.
// Use only in tests or for values known to be well formed.
func MustMarshalCanonical(v Value) []byte {
	data, err := MarshalCanonical(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Render returns the canonical JSON of v, or a placeholder describing the
// encoding error. Intended for diagnostics only.
func Render(v Value) string {
	data, err := MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<unencodable %T: %v>", v, err)
	}
	return string(data)
}
