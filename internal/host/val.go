package host

import (
	"fmt"

	"github.com/roach88/hostval/internal/ir"
)

// Val is the compact runtime value: a tag in the low 8 bits and a 56-bit body.
// See the package documentation for the layout of each tag.
type Val uint64

const (
	tagBits   = 8
	minorBits = 24
	minorMask = 1<<minorBits - 1

	// SmallBits is the width of the inline payload of U64Small and I64Small.
	SmallBits = 56

	// MaxU64Small is the largest u64 with an inline representation.
	MaxU64Small = 1<<SmallBits - 1
	// MinI64Small and MaxI64Small bound the i64 values with an inline representation.
	MinI64Small = -(1 << (SmallBits - 1))
	MaxI64Small = 1<<(SmallBits-1) - 1
)

// Void is the unit value.
const Void = Val(TagVoid)

// Tag returns the discriminant.
func (v Val) Tag() Tag {
	return Tag(v & 0xff)
}

// Body returns the upper 56 bits.
func (v Val) Body() uint64 {
	return uint64(v) >> tagBits
}

// Major returns the upper 32 bits.
func (v Val) Major() uint32 {
	return uint32(v >> 32)
}

// Minor returns bits 8..31.
func (v Val) Minor() uint32 {
	return uint32(v>>tagBits) & minorMask
}

func fromBody(t Tag, body uint64) Val {
	return Val(body<<tagBits | uint64(t))
}

func fromMajorMinor(t Tag, major, minor uint32) Val {
	return Val(uint64(major)<<32 | uint64(minor&minorMask)<<tagBits | uint64(t))
}

// FromBool returns True or False.
func FromBool(b bool) Val {
	if b {
		return Val(TagTrue)
	}
	return Val(TagFalse)
}

// FromU32 returns an inline u32.
func FromU32(x uint32) Val {
	return fromMajorMinor(TagU32, x, 0)
}

// FromI32 returns an inline i32.
func FromI32(x int32) Val {
	return fromMajorMinor(TagI32, uint32(x), 0)
}

// FromStatus returns an inline status.
func FromStatus(s ir.Status) Val {
	return fromMajorMinor(TagStatus, s.Code, uint32(s.Type))
}

// TryU64Small returns the inline form of x, or false if x needs an object.
func TryU64Small(x uint64) (Val, bool) {
	if x > MaxU64Small {
		return 0, false
	}
	return fromBody(TagU64Small, x), true
}

// TryI64Small returns the inline form of x, or false if x needs an object.
func TryI64Small(x int64) (Val, bool) {
	if x < MinI64Small || x > MaxI64Small {
		return 0, false
	}
	return Val(uint64(x)<<tagBits | uint64(TagI64Small)), true
}

// Bool returns the boolean payload. Only meaningful for True and False.
func (v Val) Bool() bool {
	return v.Tag() == TagTrue
}

// U32 returns the inline u32 payload.
func (v Val) U32() uint32 {
	return v.Major()
}

// I32 returns the inline i32 payload.
func (v Val) I32() int32 {
	return int32(v.Major())
}

// U64Small returns the inline u64 payload.
func (v Val) U64Small() uint64 {
	return v.Body()
}

// I64Small returns the inline i64 payload, sign-extended.
func (v Val) I64Small() int64 {
	return int64(v) >> tagBits
}

// Status returns the inline status payload.
func (v Val) Status() ir.Status {
	return ir.Status{Type: ir.StatusType(v.Minor()), Code: v.Major()}
}

// Kind returns the logical kind of v, or false if the tag is unknown.
func (v Val) Kind() (ir.Kind, bool) {
	return v.Tag().Kind()
}

// handle returns the object handle and issuing env id of an object value.
func (v Val) handle() (handle uint32, envID uint32) {
	return v.Major(), v.Minor()
}

// check validates the layout of v without resolving handles.
func (v Val) check() error {
	t := v.Tag()
	if _, ok := t.Kind(); !ok {
		return newError(ErrCodeInvalidValue, v, "unknown tag %s", t)
	}
	switch t {
	case TagFalse, TagTrue, TagVoid:
		if v.Body() != 0 {
			return newError(ErrCodeInvalidValue, v, "%s with non-zero body", t)
		}
	case TagU32, TagI32:
		if v.Minor() != 0 {
			return newError(ErrCodeInvalidValue, v, "%s with non-zero minor bits", t)
		}
	case TagStatus:
		if v.Minor() > 0xff || !ir.StatusType(v.Minor()).Valid() {
			return newError(ErrCodeInvalidValue, v, "unknown status type %d", v.Minor())
		}
	case TagSymbolSmall:
		if _, err := decodeSymbolSmall(v.Body()); err != nil {
			return newError(ErrCodeInvalidValue, v, "%v", err)
		}
	}
	return nil
}

// String renders v without resolving handles.
func (v Val) String() string {
	t := v.Tag()
	switch t {
	case TagFalse, TagTrue, TagVoid:
		return t.String()
	case TagStatus:
		return fmt.Sprintf("Status(%s,%d)", ir.StatusType(v.Minor()), v.Major())
	case TagU32:
		return fmt.Sprintf("U32(%d)", v.U32())
	case TagI32:
		return fmt.Sprintf("I32(%d)", v.I32())
	case TagU64Small:
		return fmt.Sprintf("U64Small(%d)", v.U64Small())
	case TagI64Small:
		return fmt.Sprintf("I64Small(%d)", v.I64Small())
	case TagSymbolSmall:
		s, err := decodeSymbolSmall(v.Body())
		if err != nil {
			return fmt.Sprintf("SymbolSmall(<%v>)", err)
		}
		return fmt.Sprintf("SymbolSmall(%s)", s)
	}
	if t.IsObject() {
		h, id := v.handle()
		return fmt.Sprintf("%s(#%d@%d)", t, h, id)
	}
	return fmt.Sprintf("Bad(%#016x)", uint64(v))
}
