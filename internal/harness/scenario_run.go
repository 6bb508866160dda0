package harness

import (
	"fmt"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/convert"
	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
	"github.com/roach88/hostval/internal/metered"
)

// ScenarioResult contains the outcome of running a scenario.
type ScenarioResult struct {
	Name   string      `json:"name"`
	Pass   bool        `json:"pass"`
	Cases  []CaseTrace `json:"cases"`
	Errors []string    `json:"errors"`
}

// CaseTrace records what every comparer produced for one scenario case.
// Orderings are rendered as less/equal/greater, or budget_exceeded.
type CaseTrace struct {
	Name       string `json:"name"`
	Env        string `json:"env,omitempty"`
	Metered    string `json:"metered,omitempty"`
	Structured string `json:"structured,omitempty"`
	Cost       uint64 `json:"cost"`
	Error      string `json:"error,omitempty"` // conversion failure reason, if any
	Pass       bool   `json:"pass"`
}

// NewScenarioResult creates an empty result that passes until an error is added.
func NewScenarioResult(name string) *ScenarioResult {
	return &ScenarioResult{
		Name:   name,
		Pass:   true,
		Cases:  []CaseTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *ScenarioResult) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// RunScenario checks every case of s.
//
// Each case gets a fresh env. Both operands are converted into it with an
// unlimited budget, then the env comparer and the metered comparer each run
// on a budget of the case limit, next to the unmetered structured ordering.
//
// A failed expectation is reported in the result. The returned error is
// reserved for fatal host errors.
func RunScenario(s *Scenario) (*ScenarioResult, error) {
	result := NewScenarioResult(s.Name)
	for i := range s.Cases {
		c := &s.Cases[i]
		trace, err := runScenarioCase(c, caseLimit(s, c))
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		result.Cases = append(result.Cases, trace.CaseTrace)
		for _, msg := range trace.errors {
			result.AddError(fmt.Sprintf("case %q: %s", c.Name, msg))
		}
	}
	return result, nil
}

func caseLimit(s *Scenario, c *ScenarioCase) uint64 {
	switch {
	case c.Budget != 0:
		return c.Budget
	case s.Budget != 0:
		return s.Budget
	}
	return budget.DefaultLimit
}

type caseOutcome struct {
	CaseTrace
	errors []string
}

func (o *caseOutcome) fail(format string, args ...any) {
	o.errors = append(o.errors, fmt.Sprintf(format, args...))
}

func runScenarioCase(c *ScenarioCase, limit uint64) (*caseOutcome, error) {
	out := &caseOutcome{CaseTrace: CaseTrace{Name: c.Name}}
	left, right := c.Values()

	env := host.New(host.WithBudget(budget.Unlimited()))
	a, err := convert.ToRuntime(env, left)
	if err == nil {
		var b host.Val
		b, err = convert.ToRuntime(env, right)
		if err == nil {
			compareScenarioCase(out, c, env, a, b, left, right, limit)
			return finish(out), nil
		}
	}

	reason, ok := convert.ReasonOf(err)
	if !ok {
		return nil, err
	}
	out.Error = string(reason)
	if c.ExpectError != string(reason) {
		out.fail("conversion failed with %s: %v", reason, err)
	}
	return finish(out), nil
}

func compareScenarioCase(out *caseOutcome, c *ScenarioCase, env *host.Env, a, b host.Val, left, right ir.Value, limit uint64) {
	env.Budget().Reset()
	env.Budget().SetLimit(limit)
	envOrd, envErr := env.Compare(a, b)
	out.Cost = env.Budget().Consumed()
	out.Env = outcomeString(envOrd, envErr)

	mb := budget.New(limit)
	mOrd, mErr := metered.Compare(mb, left, right)
	out.Metered = outcomeString(mOrd, mErr)

	irOrd := ir.Compare(left, right)
	out.Structured = irOrd.String()

	if envErr != nil && !budget.IsExceeded(envErr) {
		out.fail("env comparer: %v", envErr)
	}
	if mErr != nil && !budget.IsExceeded(mErr) {
		out.fail("metered comparer: %v", mErr)
	}
	if out.Cost != mb.Consumed() {
		out.fail("env consumed %d, metered consumed %d", out.Cost, mb.Consumed())
	}

	if c.ExpectError != "" {
		if out.Env != c.ExpectError || out.Metered != c.ExpectError {
			out.fail("expected %s, got env=%s metered=%s", c.ExpectError, out.Env, out.Metered)
		}
		return
	}
	want := c.expect.String()
	if out.Env != want || out.Metered != want || out.Structured != want {
		out.fail("expected %s, got env=%s metered=%s structured=%s",
			want, out.Env, out.Metered, out.Structured)
	}
}

func finish(out *caseOutcome) *caseOutcome {
	out.Pass = len(out.errors) == 0
	return out
}

func outcomeString(o ir.Ordering, err error) string {
	switch {
	case err == nil:
		return o.String()
	case budget.IsExceeded(err):
		return ExpectBudgetExceeded
	}
	return "error"
}
