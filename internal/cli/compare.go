package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/convert"
	"github.com/roach88/hostval/internal/host"
	"github.com/roach88/hostval/internal/ir"
	"github.com/roach88/hostval/internal/metered"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Budget uint64
}

// CompareResult is the outcome of comparing one pair through every comparer.
type CompareResult struct {
	Left        string `json:"left"`  // runtime form
	Right       string `json:"right"` // runtime form
	LeftDigest  string `json:"left_digest"`
	RightDigest string `json:"right_digest"`
	Env         string `json:"env"`
	Metered     string `json:"metered"`
	Structured  string `json:"structured"`
	EnvCost     uint64 `json:"env_cost"`
	MeteredCost uint64 `json:"metered_cost"`
	Agree       bool   `json:"agree"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <left> <right>",
		Short: "Compare two values through every comparer",
		Long: `Compare two values given in canonical JSON.

Both values are converted into a fresh environment, then compared by the
environment comparer and the metered comparer on budgets of --budget, and
by the structured ordering. An argument starting with @ names a file to
read the value from.

Exit codes:
  0 - All comparers agree
  1 - Comparers disagree on the ordering or the budget consumed
  2 - Command error (invalid value, unconvertible value, etc.)

Examples:
  hostval compare '{"u32":1}' '{"i32":-1}'
  hostval compare '{"vec":[{"u32":1},{"u32":2}]}' '{"vec":[{"u32":1}]}' --budget 2
  hostval compare @left.json @right.json --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().Uint64Var(&opts.Budget, "budget", budget.DefaultLimit, "budget of each metered comparison")

	return cmd
}

func runCompare(opts *CompareOptions, cmd *cobra.Command, leftArg, rightArg string) error {
	left, err := readValueArg(leftArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid left value", err)
	}
	right, err := readValueArg(rightArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid right value", err)
	}

	result, err := compareValues(left, right, opts.Budget)
	if err != nil {
		return err
	}

	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Agree {
			resp.Status = "error"
			resp.Error = &CLIError{Code: CodeDisagreement, Message: "comparers disagree"}
		}
		if err := f.JSON(resp); err != nil {
			return err
		}
	} else {
		writeCompareText(f.Writer, result)
		if !result.Agree {
			f.Error(CodeDisagreement, "comparers disagree", nil)
		}
	}

	if !result.Agree {
		return NewExitError(ExitFailure, "comparers disagree")
	}
	return nil
}

// readValueArg decodes a canonical JSON argument, or the file it names
// with a leading @.
func readValueArg(arg string) (ir.Value, error) {
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return ir.UnmarshalCanonical(data)
}

func compareValues(left, right ir.Value, limit uint64) (*CompareResult, error) {
	result := &CompareResult{}

	ld, err := ir.Digest(left)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid left value", err)
	}
	rd, err := ir.Digest(right)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid right value", err)
	}
	result.LeftDigest, result.RightDigest = ld.String(), rd.String()

	env := host.New(host.WithBudget(budget.Unlimited()))
	a, err := convert.ToRuntime(env, left)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "left value is not convertible", err)
	}
	b, err := convert.ToRuntime(env, right)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "right value is not convertible", err)
	}
	result.Left, result.Right = env.Describe(a), env.Describe(b)

	env.Budget().Reset()
	env.Budget().SetLimit(limit)
	envOrd, envErr := env.Compare(a, b)
	if envErr != nil && !budget.IsExceeded(envErr) {
		return nil, WrapExitError(ExitCommandError, "environment comparer failed", envErr)
	}
	result.Env = outcome(envOrd, envErr)
	result.EnvCost = env.Budget().Consumed()

	mb := budget.New(limit)
	mOrd, mErr := metered.Compare(mb, left, right)
	if mErr != nil && !budget.IsExceeded(mErr) {
		return nil, WrapExitError(ExitCommandError, "metered comparer failed", mErr)
	}
	result.Metered = outcome(mOrd, mErr)
	result.MeteredCost = mb.Consumed()

	result.Structured = ir.Compare(left, right).String()

	result.Agree = result.Env == result.Metered && result.EnvCost == result.MeteredCost
	if envErr == nil {
		result.Agree = result.Agree && result.Env == result.Structured
	}
	return result, nil
}

func outcome(o ir.Ordering, err error) string {
	if err != nil {
		return "budget_exceeded"
	}
	return o.String()
}

func writeCompareText(w io.Writer, r *CompareResult) {
	fmt.Fprintf(w, "left:       %s\n", r.Left)
	fmt.Fprintf(w, "            %s\n", r.LeftDigest)
	fmt.Fprintf(w, "right:      %s\n", r.Right)
	fmt.Fprintf(w, "            %s\n", r.RightDigest)
	fmt.Fprintf(w, "env:        %s (cost %d)\n", r.Env, r.EnvCost)
	fmt.Fprintf(w, "metered:    %s (cost %d)\n", r.Metered, r.MeteredCost)
	fmt.Fprintf(w, "structured: %s\n", r.Structured)
	if r.Agree {
		fmt.Fprintln(w, "✓ Comparers agree")
	} else {
		fmt.Fprintln(w, "✗ Comparers disagree")
	}
}
