// Package gen produces arbitrary values for property tests and the
// equivalence runner.
//
// Runtime values cannot be generated directly: they only mean something
// inside an env. Generators therefore produce Protos, env-independent
// descriptions that Build materializes into a given env. Every tag is
// reachable, including statuses and object forms of values that would
// also fit inline.
package gen

import (
	"fmt"

	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
)

// Proto describes a runtime value independently of any env.
// Which fields are meaningful depends on Tag.
type Proto struct {
	Tag     host.Tag
	U       uint64       // U32, U64Small, U64Object
	I       int64        // I32, I64Small, I64Object
	Text    string       // StringObject, SymbolSmall, SymbolObject
	Bytes   []byte       // BytesObject
	Status  ir.Status    // Status
	Elems   []Proto      // VecObject
	Entries []ProtoEntry // MapObject
}

// ProtoEntry is one entry of a map Proto.
type ProtoEntry struct {
	Key Proto
	Val Proto
}

// Build materializes p in env. Map entries whose key compares equal to an
// earlier entry's key are dropped, first one wins.
func (p Proto) Build(env *host.Env) (host.Val, error) {
	switch p.Tag {
	case host.TagFalse:
		return host.FromBool(false), nil
	case host.TagTrue:
		return host.FromBool(true), nil
	case host.TagVoid:
		return host.Void, nil
	case host.TagStatus:
		return host.FromStatus(p.Status), nil
	case host.TagU32:
		return host.FromU32(uint32(p.U)), nil
	case host.TagI32:
		return host.FromI32(int32(p.I)), nil
	case host.TagU64Small:
		v, ok := host.TryU64Small(p.U)
		if !ok {
			return 0, fmt.Errorf("u64 %d does not fit inline", p.U)
		}
		return v, nil
	case host.TagI64Small:
		v, ok := host.TryI64Small(p.I)
		if !ok {
			return 0, fmt.Errorf("i64 %d does not fit inline", p.I)
		}
		return v, nil
	case host.TagSymbolSmall:
		v, ok := host.TrySymbolSmall(p.Text)
		if !ok {
			return 0, fmt.Errorf("symbol %q does not fit inline", p.Text)
		}
		return v, nil
	case host.TagU64Object:
		return env.NewU64Object(p.U)
	case host.TagI64Object:
		return env.NewI64Object(p.I)
	case host.TagBytesObject:
		return env.NewBytes(p.Bytes)
	case host.TagStringObject:
		return env.NewString(p.Text)
	case host.TagSymbolObject:
		return env.NewSymbolObject(p.Text)

	case host.TagVecObject:
		elems := make([]host.Val, len(p.Elems))
		for i, e := range p.Elems {
			v, err := e.Build(env)
			if err != nil {
				return 0, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = v
		}
		return env.NewVec(elems)

	case host.TagMapObject:
		entries := make([]host.MapEntry, 0, len(p.Entries))
	next:
		for i, e := range p.Entries {
			key, err := e.Key.Build(env)
			if err != nil {
				return 0, fmt.Errorf("[%d].key: %w", i, err)
			}
			for _, kept := range entries {
				o, err := env.Compare(kept.Key, key)
				if err != nil {
					return 0, fmt.Errorf("[%d].key: %w", i, err)
				}
				if o == ir.Equal {
					continue next
				}
			}
			val, err := e.Val.Build(env)
			if err != nil {
				return 0, fmt.Errorf("[%d].val: %w", i, err)
			}
			entries = append(entries, host.MapEntry{Key: key, Val: val})
		}
		return env.NewMap(entries)
	}

	return 0, fmt.Errorf("cannot build tag %s", p.Tag)
}

// String renders the proto compactly, for logs and failure reports.
func (p Proto) String() string {
	switch p.Tag {
	case host.TagFalse, host.TagTrue, host.TagVoid:
		return p.Tag.String()
	case host.TagStatus:
		return fmt.Sprintf("Status(%s,%d)", p.Status.Type, p.Status.Code)
	case host.TagU32, host.TagU64Small, host.TagU64Object:
		return fmt.Sprintf("%s(%d)", p.Tag, p.U)
	case host.TagI32, host.TagI64Small, host.TagI64Object:
		return fmt.Sprintf("%s(%d)", p.Tag, p.I)
	case host.TagBytesObject:
		return fmt.Sprintf("%s(%x)", p.Tag, p.Bytes)
	case host.TagStringObject:
		return fmt.Sprintf("%s(%q)", p.Tag, p.Text)
	case host.TagSymbolSmall, host.TagSymbolObject:
		return fmt.Sprintf("%s(%s)", p.Tag, p.Text)
	case host.TagVecObject:
		return fmt.Sprintf("%s%v", p.Tag, p.Elems)
	case host.TagMapObject:
		return fmt.Sprintf("%s%v", p.Tag, p.Entries)
	}
	return p.Tag.String()
}

// String implements fmt.Stringer.
func (e ProtoEntry) String() string {
	return e.Key.String() + ":" + e.Val.String()
}
