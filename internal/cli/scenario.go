package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hostval/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Filter string // glob on the scenario file name
	Trace  bool   // print every case
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <path>...",
		Short: "Run comparison scenario files",
		Long: `Run YAML scenario files of concrete value pairs.

Each path is a scenario file or a directory searched recursively for *.yaml
and *.yml files. Every case is compared by the environment comparer, the
metered comparer and the structured ordering; a scenario passes when all
three match its expectations and the two metered comparers consume the
same budget.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (no scenario files, invalid scenario, etc.)

Examples:
  hostval scenario testdata/scenarios
  hostval scenario testdata/scenarios --filter "cross_*"
  hostval scenario prefix_rules.yaml --trace`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files whose name matches this glob")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the comparer outcomes of every case")

	return cmd
}

func runScenarios(opts *ScenarioOptions, cmd *cobra.Command, paths []string) error {
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
	}

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to find scenarios in %s", p), err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	f := newFormatter(opts.RootOptions, cmd)
	logger := opts.newLogger(f.GetErrWriter())
	results := make([]*harness.ScenarioResult, 0, len(files))
	for _, file := range files {
		f.VerboseLog("Running %s", file)
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", file), err)
		}
		result, err := harness.RunScenario(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s aborted", scenario.Name), err)
		}
		logger.Debug("scenario finished", "file", file, "name", result.Name, "pass", result.Pass)
		results = append(results, result)
	}

	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    CodeScenarioFailed,
				Message: fmt.Sprintf("%d of %d scenarios failed", failed, len(results)),
			}
		}
		if err := f.JSON(resp); err != nil {
			return err
		}
	} else {
		writeScenarioText(f.Writer, results, opts.Trace)
		if failed > 0 {
			f.Error(CodeScenarioFailed, fmt.Sprintf("%d of %d scenarios failed", failed, len(results)), nil)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

// findScenarioFiles returns the scenario files at path, sorted. A file path
// is returned as is; a directory is walked for .yaml/.yml files.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !matchesFilter(path, filter) {
			return nil, nil
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if matchesFilter(p, filter) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func matchesFilter(path, filter string) bool {
	if filter == "" {
		return true
	}
	matched, _ := filepath.Match(filter, filepath.Base(path))
	return matched
}

func writeScenarioText(w io.Writer, results []*harness.ScenarioResult, trace bool) {
	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
			fmt.Fprintf(w, "✓ %s\n", r.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", r.Name)
			for _, msg := range r.Errors {
				fmt.Fprintf(w, "    %s\n", msg)
			}
		}
		if trace {
			for _, c := range r.Cases {
				writeCaseTrace(w, c)
			}
		}
	}
	fmt.Fprintf(w, "\nSummary: %d passed, %d failed, %d total\n", passed, len(results)-passed, len(results))
}

func writeCaseTrace(w io.Writer, c harness.CaseTrace) {
	mark := "✓"
	if !c.Pass {
		mark = "✗"
	}
	if c.Error != "" {
		fmt.Fprintf(w, "    %s %s: error=%s\n", mark, c.Name, c.Error)
		return
	}
	fmt.Fprintf(w, "    %s %s: env=%s metered=%s structured=%s cost=%d\n",
		mark, c.Name, c.Env, c.Metered, c.Structured, c.Cost)
}
