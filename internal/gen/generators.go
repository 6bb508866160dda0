package gen

import (
	"pgregory.net/rapid"

	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
)

// MaxLen bounds the length of generated vecs, maps, strings and bytes.
const MaxLen = 8

const symbolChars = "_0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// small biases integers toward a few values so that generated pairs are
// often equal, exercising the Equal branches.
func small() *rapid.Generator[uint64] {
	return rapid.OneOf(rapid.Uint64Range(0, 3), rapid.Uint64())
}

func smallInt() *rapid.Generator[int64] {
	return rapid.OneOf(rapid.Int64Range(-2, 2), rapid.Int64())
}

func symbolText(maxLen int) *rapid.Generator[string] {
	return rapid.StringOfN(rapid.RuneFrom([]rune(symbolChars)), 1, maxLen, maxLen)
}

// U32 generates U32 protos.
func U32() *rapid.Generator[Proto] {
	return rapid.Custom(func(t *rapid.T) Proto {
		return Proto{Tag: host.TagU32, U: uint64(rapid.Uint32Range(0, 5).Draw(t, "u32"))}
	})
}

// U32Vec generates vecs of u32 of independent length 0..MaxLen.
func U32Vec() *rapid.Generator[Proto] {
	elem := U32()
	return rapid.Custom(func(t *rapid.T) Proto {
		return Proto{
			Tag:   host.TagVecObject,
			Elems: rapid.SliceOfN(elem, 0, MaxLen).Draw(t, "elems"),
		}
	})
}

// U32Map generates u32 to u32 maps of 0..MaxLen entries before key dedup.
func U32Map() *rapid.Generator[Proto] {
	elem := U32()
	return rapid.Custom(func(t *rapid.T) Proto {
		n := rapid.IntRange(0, MaxLen).Draw(t, "len")
		entries := make([]ProtoEntry, n)
		for i := range entries {
			entries[i] = ProtoEntry{Key: elem.Draw(t, "key"), Val: elem.Draw(t, "val")}
		}
		return Proto{Tag: host.TagMapObject, Entries: entries}
	})
}

// Any generates protos of every tag. Composites nest at most depth levels;
// at depth 0 they are empty.
func Any(depth int) *rapid.Generator[Proto] {
	var child *rapid.Generator[Proto]
	if depth > 0 {
		child = Any(depth - 1)
	}
	tags := host.Tags()

	return rapid.Custom(func(t *rapid.T) Proto {
		p := Proto{Tag: rapid.SampledFrom(tags).Draw(t, "tag")}
		switch p.Tag {
		case host.TagStatus:
			p.Status = ir.Status{
				Type: rapid.SampledFrom(ir.StatusTypes()).Draw(t, "status_type"),
				Code: rapid.Uint32Range(0, 3).Draw(t, "status_code"),
			}
		case host.TagU32:
			p.U = uint64(rapid.Uint32().Draw(t, "u32"))
		case host.TagI32:
			p.I = int64(rapid.Int32().Draw(t, "i32"))
		case host.TagU64Small:
			p.U = rapid.Uint64Range(0, host.MaxU64Small).Draw(t, "u64")
		case host.TagU64Object:
			p.U = small().Draw(t, "u64")
		case host.TagI64Small:
			p.I = rapid.Int64Range(host.MinI64Small, host.MaxI64Small).Draw(t, "i64")
		case host.TagI64Object:
			p.I = smallInt().Draw(t, "i64")
		case host.TagBytesObject:
			p.Bytes = rapid.SliceOfN(rapid.Byte(), 0, MaxLen).Draw(t, "bytes")
		case host.TagStringObject:
			p.Text = rapid.StringN(0, MaxLen, -1).Draw(t, "string")
		case host.TagSymbolSmall:
			p.Text = symbolText(host.SymbolSmallMaxLen).Draw(t, "symbol")
		case host.TagSymbolObject:
			p.Text = symbolText(ir.SymbolMaxLen).Draw(t, "symbol")
		case host.TagVecObject:
			if child != nil {
				p.Elems = rapid.SliceOfN(child, 0, MaxLen/2).Draw(t, "elems")
			}
		case host.TagMapObject:
			if child != nil {
				n := rapid.IntRange(0, MaxLen/2).Draw(t, "len")
				p.Entries = make([]ProtoEntry, n)
				for i := range p.Entries {
					p.Entries[i] = ProtoEntry{Key: child.Draw(t, "key"), Val: child.Draw(t, "val")}
				}
			}
		}
		return p
	})
}

// Structured generates structured values of every kind, statuses included.
// Map keys may repeat; such maps order fine but do not convert to runtime.
func Structured(depth int) *rapid.Generator[ir.Value] {
	var child *rapid.Generator[ir.Value]
	if depth > 0 {
		child = Structured(depth - 1)
	}

	return rapid.Custom(func(t *rapid.T) ir.Value {
		switch rapid.SampledFrom(ir.Kinds()).Draw(t, "kind") {
		case ir.KindBool:
			return ir.Bool(rapid.Bool().Draw(t, "bool"))
		case ir.KindVoid:
			return ir.Void{}
		case ir.KindStatus:
			return ir.Status{
				Type: rapid.SampledFrom(ir.StatusTypes()).Draw(t, "status_type"),
				Code: rapid.Uint32Range(0, 3).Draw(t, "status_code"),
			}
		case ir.KindU32:
			return ir.U32(rapid.Uint32Range(0, 3).Draw(t, "u32"))
		case ir.KindI32:
			return ir.I32(rapid.Int32Range(-2, 2).Draw(t, "i32"))
		case ir.KindU64:
			return ir.U64(small().Draw(t, "u64"))
		case ir.KindI64:
			return ir.I64(smallInt().Draw(t, "i64"))
		case ir.KindBytes:
			return ir.Bytes(rapid.SliceOfN(rapid.ByteRange(0, 2), 0, 3).Draw(t, "bytes"))
		case ir.KindString:
			return ir.String(rapid.StringOfN(rapid.RuneFrom([]rune("ab")), 0, 3, -1).Draw(t, "string"))
		case ir.KindSymbol:
			return ir.Symbol(rapid.StringOfN(rapid.RuneFrom([]rune("ab_")), 1, 3, -1).Draw(t, "symbol"))
		case ir.KindVec:
			if child == nil {
				return ir.Vec{}
			}
			return ir.Vec(rapid.SliceOfN(child, 0, 3).Draw(t, "elems"))
		default:
			if child == nil {
				return ir.Map{}
			}
			n := rapid.IntRange(0, 3).Draw(t, "len")
			m := make(ir.Map, n)
			for i := range m {
				m[i] = ir.MapEntry{Key: child.Draw(t, "key"), Val: child.Draw(t, "val")}
			}
			return m
		}
	})
}
