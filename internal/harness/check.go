package harness

import (
	"fmt"
	"math"

	"pgregory.net/rapid"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/convert"
	"github.com/roach88/hostval/internal/gen"
	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
	"github.com/roach88/hostval/internal/metered"
)

// MaxParityLimit bounds the budget limits drawn for metering_parity.
const MaxParityLimit = 200

// Case is one generated input of a property.
type Case struct {
	Left  gen.Proto
	Right gen.Proto
	Limit uint64 // metering_parity only
}

// CaseGenerator returns the generator of cases for prop. Composite values
// nest at most depth levels.
func CaseGenerator(prop Property, depth int) *rapid.Generator[Case] {
	var operand *rapid.Generator[gen.Proto]
	switch prop {
	case PropVecUnequalLengths:
		operand = gen.U32Vec()
	case PropMapUnequalLengths:
		operand = gen.U32Map()
	default:
		operand = gen.Any(depth)
	}

	return rapid.Custom(func(t *rapid.T) Case {
		c := Case{
			Left:  operand.Draw(t, "left"),
			Right: operand.Draw(t, "right"),
		}
		if prop == PropMeteringParity {
			c.Limit = rapid.Uint64Range(0, MaxParityLimit).Draw(t, "limit")
		}
		return c
	})
}

// RunCase checks one case of prop in a fresh env. limit is the budget of
// each comparison; metering_parity uses the case's own limit instead.
//
// Returns a *Defect as the error when the contract is violated.
func RunCase(prop Property, index int, c Case, limit uint64) (CaseResult, error) {
	env := host.New(host.WithBudget(budget.Unlimited()))
	chk := &checker{prop: prop, index: index, env: env, limit: limit}

	a, err := c.Left.Build(env)
	if err != nil {
		return chk.defect(CheckBuild, "building left operand", err)
	}
	b, err := c.Right.Build(env)
	if err != nil {
		return chk.defect(CheckBuild, "building right operand", err)
	}
	chk.a, chk.b = a, b

	switch prop {
	case PropVecUnequalLengths, PropMapUnequalLengths:
		return chk.checkPair(false)
	case PropDifferentObjectsCmp:
		if a.Tag() == b.Tag() {
			return chk.skip(SkipEqualTags)
		}
		return chk.checkPair(true)
	case PropMeteringParity:
		chk.limit = c.Limit
		return chk.checkParity()
	}
	return CaseResult{}, fmt.Errorf("unknown property %q", prop)
}

// checker holds the state of one case so that a defect can report
// everything computed up to the failure.
type checker struct {
	prop  Property
	index int
	env   *host.Env
	limit uint64

	a, b   host.Val
	sa, sb ir.Value

	orderings map[string]string
	cost      uint64
}

func (c *checker) record(comparer string, o ir.Ordering) {
	if c.orderings == nil {
		c.orderings = make(map[string]string)
	}
	c.orderings[comparer] = o.String()
}

func (c *checker) defect(check, msg string, err error) (CaseResult, error) {
	d := &Defect{
		Property:  c.prop,
		Case:      c.index,
		Check:     check,
		Message:   msg,
		Left:      c.env.Describe(c.a),
		Right:     c.env.Describe(c.b),
		Orderings: c.orderings,
		Err:       err,
	}
	if c.sa != nil {
		d.LeftIR = ir.Render(c.sa)
	}
	if c.sb != nil {
		d.RightIR = ir.Render(c.sb)
	}
	return CaseResult{Index: c.index, Outcome: OutcomeDefect, Cost: c.cost}, d
}

func (c *checker) skip(reason string) (CaseResult, error) {
	return CaseResult{Index: c.index, Outcome: OutcomeSkipped, Skip: reason, Cost: c.cost}, nil
}

func (c *checker) pass(o ir.Ordering) (CaseResult, error) {
	return CaseResult{Index: c.index, Outcome: OutcomePass, Ordering: o, Cost: c.cost}, nil
}

// limitEnv resets the env budget to the comparison limit.
func (c *checker) limitEnv(limit uint64) {
	c.env.Budget().Reset()
	c.env.Budget().SetLimit(limit)
}

// statusAsymmetry reports whether a forward conversion failure of v is the
// documented status asymmetry.
func statusAsymmetry(v host.Val, err error) bool {
	reason, ok := convert.ReasonOf(err)
	if !ok || reason != convert.ReasonStatusNotSerializable {
		return false
	}
	switch v.Tag() {
	case host.TagStatus, host.TagVecObject, host.TagMapObject:
		return true
	}
	return false
}

// toStructured converts both operands. It returns skip=true for the
// documented status asymmetry when allowStatus is set.
func (c *checker) toStructured(allowStatus bool) (skip bool, err error) {
	c.limitEnv(math.MaxUint64)
	for _, side := range []struct {
		v   host.Val
		dst *ir.Value
	}{{c.a, &c.sa}, {c.b, &c.sb}} {
		s, err := convert.ToStructured(c.env, side.v)
		if err == nil {
			*side.dst = s
			continue
		}
		if allowStatus && statusAsymmetry(side.v, err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (c *checker) checkPair(allowStatus bool) (CaseResult, error) {
	c.limitEnv(c.limit)
	envOrd, err := c.env.Compare(c.a, c.b)
	c.cost = c.env.Budget().Consumed()
	if budget.IsExceeded(err) {
		return c.skip(SkipBudget)
	}
	if err != nil {
		return c.defect(CheckEnvCompare, "env comparer failed", err)
	}
	c.record("env", envOrd)

	skip, err := c.toStructured(allowStatus)
	if skip {
		return c.skip(SkipUnconvertible)
	}
	if err != nil {
		return c.defect(CheckConversion, "forward conversion failed", err)
	}

	irOrd := ir.Compare(c.sa, c.sb)
	c.record("structured", irOrd)

	mOrd, err := metered.Compare(budget.New(c.limit), c.sa, c.sb)
	if budget.IsExceeded(err) {
		return c.skip(SkipBudget)
	}
	if err != nil {
		return c.defect(CheckMeteredCompare, "metered comparer failed", err)
	}
	c.record("metered", mOrd)

	if envOrd != irOrd || irOrd != mOrd {
		return c.defect(CheckOrder, "comparers disagree", nil)
	}

	partial, ok := ir.PartialCompare(c.sa, c.sb)
	if ok {
		c.record("partial", partial)
	}
	if !ok || partial != irOrd {
		return c.defect(CheckPartialOrder, "partial order disagrees with total order", nil)
	}

	if eq := ir.EqualValues(c.sa, c.sb); eq != (irOrd == ir.Equal) {
		return c.defect(CheckEquality, fmt.Sprintf("equal=%v but ordering is %s", eq, irOrd), nil)
	}

	if err := c.roundTrip(c.a, c.sa); err != nil {
		return c.defect(CheckRoundTrip, "left operand", err)
	}
	if err := c.roundTrip(c.b, c.sb); err != nil {
		return c.defect(CheckRoundTrip, "right operand", err)
	}

	return c.pass(envOrd)
}

// roundTrip converts s back into the env and checks it is order-equivalent
// to the value it came from.
func (c *checker) roundTrip(v host.Val, s ir.Value) error {
	c.limitEnv(math.MaxUint64)
	back, err := convert.ToRuntime(c.env, s)
	if err != nil {
		return fmt.Errorf("backward conversion: %w", err)
	}
	o, err := c.env.Compare(v, back)
	if err != nil {
		return fmt.Errorf("comparing with round trip: %w", err)
	}
	if o != ir.Equal {
		return fmt.Errorf("round trip %s compares %s to the original", c.env.Describe(back), o)
	}
	return nil
}

// checkParity runs both comparers on budgets of the same limit. They must
// exhaust together, and otherwise agree on ordering and consumption.
func (c *checker) checkParity() (CaseResult, error) {
	skip, err := c.toStructured(true)
	if skip {
		return c.skip(SkipUnconvertible)
	}
	if err != nil {
		return c.defect(CheckConversion, "forward conversion failed", err)
	}

	c.limitEnv(c.limit)
	envOrd, envErr := c.env.Compare(c.a, c.b)
	c.cost = c.env.Budget().Consumed()
	if envErr != nil && !budget.IsExceeded(envErr) {
		return c.defect(CheckEnvCompare, "env comparer failed", envErr)
	}

	mb := budget.New(c.limit)
	mOrd, mErr := metered.Compare(mb, c.sa, c.sb)
	if mErr != nil && !budget.IsExceeded(mErr) {
		return c.defect(CheckMeteredCompare, "metered comparer failed", mErr)
	}

	envOut, mOut := budget.IsExceeded(envErr), budget.IsExceeded(mErr)
	if envOut != mOut {
		return c.defect(CheckMeteringParity,
			fmt.Sprintf("limit %d: env exhausted=%v, metered exhausted=%v", c.limit, envOut, mOut), nil)
	}
	if c.cost != mb.Consumed() {
		return c.defect(CheckMeteringParity,
			fmt.Sprintf("limit %d: env consumed %d, metered consumed %d", c.limit, c.cost, mb.Consumed()), nil)
	}
	if envOut {
		return c.pass(ir.Equal)
	}

	c.record("env", envOrd)
	c.record("metered", mOrd)
	if envOrd != mOrd {
		return c.defect(CheckOrder, "comparers disagree", nil)
	}
	return c.pass(envOrd)
}
