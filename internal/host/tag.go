package host

import (
	"fmt"

	"github.com/roach88/hostval/internal/ir"
)

// Tag is the discriminant stored in the low 8 bits of a Val.
type Tag uint8

const (
	TagFalse       Tag = 0
	TagTrue        Tag = 1
	TagVoid        Tag = 2
	TagStatus      Tag = 3
	TagU32         Tag = 4
	TagI32         Tag = 5
	TagU64Small    Tag = 6
	TagI64Small    Tag = 7
	TagSymbolSmall Tag = 8

	TagU64Object    Tag = 64
	TagI64Object    Tag = 65
	TagBytesObject  Tag = 66
	TagStringObject Tag = 67
	TagSymbolObject Tag = 68
	TagVecObject    Tag = 69
	TagMapObject    Tag = 70

	// TagBad is never produced by an env. It exists so tests and generators
	// can build malformed values on purpose.
	TagBad Tag = 0x7f
)

var tagNames = map[Tag]string{
	TagFalse:        "False",
	TagTrue:         "True",
	TagVoid:         "Void",
	TagStatus:       "Status",
	TagU32:          "U32",
	TagI32:          "I32",
	TagU64Small:     "U64Small",
	TagI64Small:     "I64Small",
	TagSymbolSmall:  "SymbolSmall",
	TagU64Object:    "U64Object",
	TagI64Object:    "I64Object",
	TagBytesObject:  "BytesObject",
	TagStringObject: "StringObject",
	TagSymbolObject: "SymbolObject",
	TagVecObject:    "VecObject",
	TagMapObject:    "MapObject",
}

// String implements fmt.Stringer.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%#02x)", uint8(t))
}

// Kind maps a tag to its logical kind. Several tags share a kind (small and
// object forms). Returns false for tags no env produces.
func (t Tag) Kind() (ir.Kind, bool) {
	switch t {
	case TagFalse, TagTrue:
		return ir.KindBool, true
	case TagVoid:
		return ir.KindVoid, true
	case TagStatus:
		return ir.KindStatus, true
	case TagU32:
		return ir.KindU32, true
	case TagI32:
		return ir.KindI32, true
	case TagU64Small, TagU64Object:
		return ir.KindU64, true
	case TagI64Small, TagI64Object:
		return ir.KindI64, true
	case TagBytesObject:
		return ir.KindBytes, true
	case TagStringObject:
		return ir.KindString, true
	case TagSymbolSmall, TagSymbolObject:
		return ir.KindSymbol, true
	case TagVecObject:
		return ir.KindVec, true
	case TagMapObject:
		return ir.KindMap, true
	default:
		return 0, false
	}
}

// IsObject reports whether values with this tag carry a handle.
func (t Tag) IsObject() bool {
	return t >= TagU64Object && t <= TagMapObject
}

// Tags returns every tag an env can produce, in discriminant order.
func Tags() []Tag {
	return []Tag{
		TagFalse, TagTrue, TagVoid, TagStatus, TagU32, TagI32,
		TagU64Small, TagI64Small, TagSymbolSmall,
		TagU64Object, TagI64Object, TagBytesObject, TagStringObject,
		TagSymbolObject, TagVecObject, TagMapObject,
	}
}
