package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"prefix_rules", "cross_kind"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			// To regenerate golden files:
			//   go test ./internal/harness -run TestRunWithGolden_Scenarios -update
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestRenderTrace_Failure(t *testing.T) {
	result := NewScenarioResult("broken")
	result.Cases = append(result.Cases,
		CaseTrace{Name: "a", Env: "less", Metered: "less", Structured: "less", Cost: 1, Pass: true},
		CaseTrace{Name: "b", Env: "less", Metered: "greater", Structured: "less", Cost: 4},
		CaseTrace{Name: "c", Error: "duplicate_key"},
	)
	result.AddError("case \"b\": comparers disagree")

	want := "scenario broken\n" +
		"case a: env=less metered=less structured=less cost=1 pass\n" +
		"case b: env=less metered=greater structured=less cost=4 FAIL\n" +
		"case c: error=duplicate_key FAIL\n" +
		"result: fail\n"
	assert.Equal(t, want, string(RenderTrace(result)))
}

func TestRenderTrace_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/prefix_rules.yaml")
	require.NoError(t, err)

	first, err := RunScenario(scenario)
	require.NoError(t, err)
	second, err := RunScenario(scenario)
	require.NoError(t, err)

	require.Equal(t, RenderTrace(first), RenderTrace(second), "traces must be deterministic")
}
