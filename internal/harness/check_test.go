package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/gen"
	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
)

func u32(n uint64) gen.Proto { return gen.Proto{Tag: host.TagU32, U: n} }

func vecOf(elems ...gen.Proto) gen.Proto {
	return gen.Proto{Tag: host.TagVecObject, Elems: elems}
}

func status(code uint32) gen.Proto {
	return gen.Proto{Tag: host.TagStatus, Status: ir.Status{Type: ir.StatusVmError, Code: code}}
}

func TestRunCase(t *testing.T) {
	tests := []struct {
		name     string
		prop     Property
		c        Case
		limit    uint64
		outcome  Outcome
		ordering ir.Ordering
		skip     string
		cost     uint64
	}{
		{
			name:     "longer vec is greater",
			prop:     PropVecUnequalLengths,
			c:        Case{Left: vecOf(u32(1), u32(2), u32(3)), Right: vecOf(u32(1), u32(2))},
			limit:    budget.DefaultLimit,
			outcome:  OutcomePass,
			ordering: ir.Greater,
			cost:     3,
		},
		{
			name:     "shorter map is less",
			prop:     PropMapUnequalLengths,
			c: Case{
				Left: gen.Proto{Tag: host.TagMapObject, Entries: []gen.ProtoEntry{{Key: u32(1), Val: u32(10)}}},
				Right: gen.Proto{Tag: host.TagMapObject, Entries: []gen.ProtoEntry{
					{Key: u32(2), Val: u32(20)},
					{Key: u32(1), Val: u32(10)},
				}},
			},
			limit:    budget.DefaultLimit,
			outcome:  OutcomePass,
			ordering: ir.Less,
			cost:     2,
		},
		{
			name:    "starved budget skips",
			prop:    PropVecUnequalLengths,
			c:       Case{Left: vecOf(u32(1)), Right: vecOf(u32(1))},
			limit:   1,
			outcome: OutcomeSkipped,
			skip:    SkipBudget,
			cost:    2,
		},
		{
			name:    "equal tags skip",
			prop:    PropDifferentObjectsCmp,
			c:       Case{Left: u32(1), Right: u32(2)},
			limit:   budget.DefaultLimit,
			outcome: OutcomeSkipped,
			skip:    SkipEqualTags,
		},
		{
			name:    "status is unconvertible",
			prop:    PropDifferentObjectsCmp,
			c:       Case{Left: status(3), Right: u32(0)},
			limit:   budget.DefaultLimit,
			outcome: OutcomeSkipped,
			skip:    SkipUnconvertible,
			cost:    1,
		},
		{
			name:    "nested status is unconvertible",
			prop:    PropDifferentObjectsCmp,
			c:       Case{Left: u32(0), Right: vecOf(u32(1), status(0))},
			limit:   budget.DefaultLimit,
			outcome: OutcomeSkipped,
			skip:    SkipUnconvertible,
			cost:    1,
		},
		{
			name: "small and object forms agree",
			prop: PropDifferentObjectsCmp,
			c: Case{
				Left:  gen.Proto{Tag: host.TagU64Small, U: 5},
				Right: gen.Proto{Tag: host.TagU64Object, U: 5},
			},
			limit:    budget.DefaultLimit,
			outcome:  OutcomePass,
			ordering: ir.Equal,
			cost:     1,
		},
		{
			name: "small and object symbols",
			prop: PropDifferentObjectsCmp,
			c: Case{
				Left:  gen.Proto{Tag: host.TagSymbolSmall, Text: "abc"},
				Right: gen.Proto{Tag: host.TagSymbolObject, Text: "abd"},
			},
			limit:    budget.DefaultLimit,
			outcome:  OutcomePass,
			ordering: ir.Less,
			cost:     4,
		},
		{
			name:     "parity within budget",
			prop:     PropMeteringParity,
			c:        Case{Left: vecOf(u32(1), u32(2)), Right: vecOf(u32(1), u32(3)), Limit: 3},
			outcome:  OutcomePass,
			ordering: ir.Less,
			cost:     3,
		},
		{
			name:     "parity both exhausted",
			prop:     PropMeteringParity,
			c:        Case{Left: vecOf(u32(1), u32(2)), Right: vecOf(u32(1), u32(3)), Limit: 2},
			outcome:  OutcomePass,
			ordering: ir.Equal,
			cost:     3,
		},
		{
			name:    "parity skips statuses",
			prop:    PropMeteringParity,
			c:       Case{Left: status(1), Right: status(2), Limit: 10},
			outcome: OutcomeSkipped,
			skip:    SkipUnconvertible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RunCase(tt.prop, 7, tt.c, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, 7, res.Index)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.skip, res.Skip)
			assert.Equal(t, tt.cost, res.Cost)
			if tt.outcome == OutcomePass {
				assert.Equal(t, tt.ordering, res.Ordering)
			}
		})
	}
}

func TestRunCase_BuildFailureIsDefect(t *testing.T) {
	c := Case{Left: gen.Proto{Tag: host.TagU64Small, U: 1 << 60}, Right: u32(1)}

	res, err := RunCase(PropDifferentObjectsCmp, 3, c, budget.DefaultLimit)
	require.Error(t, err)
	assert.True(t, IsDefect(err))
	assert.Equal(t, OutcomeDefect, res.Outcome)

	var d *Defect
	require.ErrorAs(t, err, &d)
	assert.Equal(t, CheckBuild, d.Check)
	assert.Equal(t, 3, d.Case)
	assert.Equal(t, PropDifferentObjectsCmp, d.Property)
}

func TestRunCase_UnknownProperty(t *testing.T) {
	_, err := RunCase(Property("bogus"), 0, Case{Left: u32(1), Right: u32(2)}, budget.DefaultLimit)
	require.Error(t, err)
	assert.False(t, IsDefect(err))
	assert.Contains(t, err.Error(), `unknown property "bogus"`)
}

func TestProperties_NoDefects(t *testing.T) {
	for _, prop := range Properties() {
		t.Run(string(prop), func(t *testing.T) {
			cases := CaseGenerator(prop, 2)
			rapid.Check(t, func(t *rapid.T) {
				c := cases.Draw(t, "case")
				res, err := RunCase(prop, 0, c, budget.DefaultLimit)
				if err != nil {
					t.Fatalf("%v", err)
				}
				if res.Outcome == OutcomeDefect {
					t.Fatalf("defect outcome without error")
				}
			})
		})
	}
}

func TestCaseGenerator_DrawsParityLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := CaseGenerator(PropMeteringParity, 1).Draw(t, "case")
		if c.Limit > MaxParityLimit {
			t.Fatalf("limit %d above %d", c.Limit, MaxParityLimit)
		}
	})
}

func TestParseProperty(t *testing.T) {
	for _, p := range Properties() {
		got, err := ParseProperty(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParseProperty("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vec_unequal_lengths")
}
