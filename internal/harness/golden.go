package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a scenario result as a line-oriented text trace.
// The output is deterministic: it depends only on the scenario.
func RenderTrace(r *ScenarioResult) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario %s\n", r.Name)
	for _, c := range r.Cases {
		status := "pass"
		if !c.Pass {
			status = "FAIL"
		}
		if c.Error != "" {
			fmt.Fprintf(&buf, "case %s: error=%s %s\n", c.Name, c.Error, status)
			continue
		}
		fmt.Fprintf(&buf, "case %s: env=%s metered=%s structured=%s cost=%d %s\n",
			c.Name, c.Env, c.Metered, c.Structured, c.Cost, status)
	}
	if r.Pass {
		buf.WriteString("result: pass\n")
	} else {
		buf.WriteString("result: fail\n")
	}
	return buf.Bytes()
}

// RunWithGolden runs a scenario and compares its trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*ScenarioResult, error) {
	t.Helper()

	result, err := RunScenario(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *ScenarioResult) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTrace(result))
}
