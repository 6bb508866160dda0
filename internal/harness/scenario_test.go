package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostval/internal/ir"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/prefix_rules.yaml")
	require.NoError(t, err)

	assert.Equal(t, "prefix_rules", scenario.Name)
	assert.Equal(t, uint64(1000), scenario.Budget)
	require.Len(t, scenario.Cases, 6)

	first := scenario.Cases[0]
	assert.Equal(t, "longer_vec_is_greater", first.Name)
	assert.Equal(t, "greater", first.Expect)
	left, right := first.Values()
	assert.Equal(t, ir.NewVec(ir.U32(1), ir.U32(2), ir.U32(3)), left)
	assert.Equal(t, ir.NewVec(ir.U32(1), ir.U32(2)), right)

	starved := scenario.Cases[5]
	assert.Equal(t, uint64(1), starved.Budget)
	assert.Equal(t, ExpectBudgetExceeded, starved.ExpectError)
}

func TestLoadScenario_WideIntegers(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/cross_kind.yaml")
	require.NoError(t, err)

	left, right := scenario.Cases[1].Values()
	assert.Equal(t, ir.U64(18446744073709551615), left)
	assert.Equal(t, ir.U64(7), right)

	left, right = scenario.Cases[2].Values()
	assert.Equal(t, ir.I64(-1), left)
	assert.Equal(t, ir.I64(-9223372036854775808), right)
}

func TestLoadScenario_NormalizesStrings(t *testing.T) {
	path := writeScenario(t, `
name: nfc
description: "Decomposed literals are composed"
cases:
  - name: nested
    left: {vec: [{string: "e\u0301"}]}
    right:
      map:
        - {key: {string: "A\u030a"}, val: {string: "x"}}
    expect: less
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	left, right := scenario.Cases[0].Values()
	assert.Equal(t, ir.NewVec(ir.String("\u00e9")), left)
	assert.Equal(t, ir.NewMap(ir.E(ir.String("\u00c5"), ir.String("x"))), right)
}

func TestRunScenario_RawStringsKeepBytes(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: raw
description: "Canonically equivalent spellings order by bytes"
raw_strings: true
cases:
  - {name: decomposed_first, left: {string: "e\u0301"}, right: {string: "\u00e9"}, expect: less}
  - {name: same_bytes, left: {string: "\u00e9"}, right: {string: "\u00e9"}, expect: equal}
`))
	require.NoError(t, err)

	left, right := scenario.Cases[0].Values()
	assert.Equal(t, ir.String("e\u0301"), left)
	assert.Equal(t, ir.String("\u00e9"), right)

	result, err := RunScenario(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown field",
			content: `
name: typo
description: "Typo in expect"
cases:
  - name: a
    left: {u32: 1}
    right: {u32: 2}
    expected: less
`,
			wantErr: "field expected not found",
		},
		{
			name: "missing name",
			content: `
description: "Missing name"
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}, expect: less}
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: test
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}, expect: less}
`,
			wantErr: "description is required",
		},
		{
			name: "no cases",
			content: `
name: test
description: "Empty"
cases: []
`,
			wantErr: "cases list is required",
		},
		{
			name: "missing case name",
			content: `
name: test
description: "Unnamed case"
cases:
  - {left: {u32: 1}, right: {u32: 2}, expect: less}
`,
			wantErr: "cases[0]: name is required",
		},
		{
			name: "duplicate case name",
			content: `
name: test
description: "Duplicate"
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}, expect: less}
  - {name: a, left: {u32: 2}, right: {u32: 1}, expect: greater}
`,
			wantErr: `duplicate case name "a"`,
		},
		{
			name: "no expectation",
			content: `
name: test
description: "Nothing expected"
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}}
`,
			wantErr: "one of expect or expect_error is required",
		},
		{
			name: "both expectations",
			content: `
name: test
description: "Both"
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}, expect: less, expect_error: budget_exceeded}
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "bad ordering",
			content: `
name: test
description: "Bad ordering"
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}, expect: smaller}
`,
			wantErr: `unknown ordering "smaller"`,
		},
		{
			name: "unknown error",
			content: `
name: test
description: "Unknown error"
cases:
  - {name: a, left: {u32: 1}, right: {u32: 2}, expect_error: overflow}
`,
			wantErr: `unknown error "overflow"`,
		},
		{
			name: "missing operand",
			content: `
name: test
description: "No right"
cases:
  - {name: a, left: {u32: 1}, expect: less}
`,
			wantErr: "left and right are required",
		},
		{
			name: "unknown kind",
			content: `
name: test
description: "Bad value"
cases:
  - {name: a, left: {u128: 1}, right: {u32: 2}, expect: less}
`,
			wantErr: `left: unknown kind "u128"`,
		},
		{
			name: "invalid symbol",
			content: `
name: test
description: "Bad symbol"
cases:
  - {name: a, left: {u32: 1}, right: {symbol: "not-a-symbol"}, expect: less}
`,
			wantErr: "right: symbol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunScenario_ReportsWrongExpectation(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong
description: "Expectations that do not hold"
cases:
  - {name: ordering, left: {u32: 1}, right: {u32: 2}, expect: greater}
  - {name: budget, left: {u32: 1}, right: {u32: 2}, expect_error: budget_exceeded}
  - {name: duplicate, left: {vec: []}, right: {vec: []}, expect_error: duplicate_key}
  - {name: holds, left: {u32: 1}, right: {u32: 2}, expect: less}
`))
	require.NoError(t, err)

	result, err := RunScenario(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Cases, 4)
	assert.False(t, result.Cases[0].Pass)
	assert.False(t, result.Cases[1].Pass)
	assert.False(t, result.Cases[2].Pass)
	assert.True(t, result.Cases[3].Pass)

	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `case "ordering": expected greater, got env=less metered=less structured=less`)
	assert.Contains(t, result.Errors[1], `case "budget": expected budget_exceeded`)
	assert.Contains(t, result.Errors[2], `case "duplicate": expected duplicate_key`)
}

func TestRunScenario_UnexpectedConversionFailure(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: dup
description: "Duplicate keys where an ordering was expected"
cases:
  - name: a
    left:
      map:
        - {key: {symbol: k}, val: {u32: 1}}
        - {key: {symbol: k}, val: {u32: 2}}
    right: {void: {}}
    expect: greater
`))
	require.NoError(t, err)

	result, err := RunScenario(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, "duplicate_key", result.Cases[0].Error)
	assert.Contains(t, result.Errors[0], "conversion failed with duplicate_key")
}

func TestRunScenario_CaseBudgetOverridesScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: budgets
description: "Per-case budget wins"
budget: 1
cases:
  - {name: starved, left: {vec: [{u32: 1}]}, right: {vec: [{u32: 1}]}, expect_error: budget_exceeded}
  - {name: enough, left: {vec: [{u32: 1}]}, right: {vec: [{u32: 1}]}, expect: equal, budget: 2}
`))
	require.NoError(t, err)

	result, err := RunScenario(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, uint64(2), result.Cases[0].Cost)
	assert.Equal(t, uint64(2), result.Cases[1].Cost)
	assert.Equal(t, "equal", result.Cases[1].Env)
}
