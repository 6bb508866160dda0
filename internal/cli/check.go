package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/config"
	"github.com/roach88/hostval/internal/harness"
	"github.com/roach88/hostval/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Property string
	Cases    int
	Seed     int
	Workers  int
	Budget   uint64
	Depth    int
	Config   string // CUE run profile
	Database string // record the run here, if set

	// IDGenerator and Clock override run IDs and timestamps (for testing).
	// If nil, the runner defaults apply.
	IDGenerator harness.IDGenerator
	Clock       harness.Clock
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check an equivalence property over generated cases",
		Long: `Check an equivalence property over generated value pairs.

Case i of a run is generated from seed+i, so a defect can be reproduced
with --seed <seed+i> --cases 1. The run stops at the first defect.

Options come from a CUE run profile (--config) when given; flags set on the
command line take precedence.

Properties:
  vec_unequal_lengths     two u32 vecs of independent lengths
  map_unequal_lengths     two u32->u32 maps of independent sizes
  different_objects_cmp   two arbitrary values of different tags
  metering_parity         both comparers under the same random budget

Exit codes:
  0 - No defect found
  1 - Defect found
  2 - Command error (invalid flags, unreadable profile, etc.)

Examples:
  hostval check --property vec_unequal_lengths --cases 10000
  hostval check --config profile.cue --db runs.db
  hostval check --seed 4711 --cases 1 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Property, "property", "different_objects_cmp", "property to check")
	cmd.Flags().IntVar(&opts.Cases, "cases", 1000, "number of generated cases")
	cmd.Flags().IntVar(&opts.Seed, "seed", 0, "seed of the first case")
	cmd.Flags().IntVar(&opts.Workers, "workers", harness.DefaultWorkers, "cases checked concurrently")
	cmd.Flags().Uint64Var(&opts.Budget, "budget", budget.DefaultLimit, "budget of each comparison")
	cmd.Flags().IntVar(&opts.Depth, "depth", harness.DefaultDepth, "maximum nesting of generated values")
	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE run profile")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")

	return cmd
}

// applyProfile fills every option not set on the command line from the
// profile.
func (o *CheckOptions) applyProfile(cmd *cobra.Command) error {
	if o.Config == "" {
		return nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("property") {
		o.Property = cfg.Check.Property
	}
	if !flags.Changed("cases") {
		o.Cases = cfg.Check.Cases
	}
	if !flags.Changed("seed") {
		o.Seed = cfg.Check.Seed
	}
	if !flags.Changed("workers") {
		o.Workers = cfg.Check.Workers
	}
	if !flags.Changed("budget") {
		o.Budget = cfg.Check.Budget
	}
	if !flags.Changed("depth") {
		o.Depth = cfg.Check.MaxDepth
	}
	if !flags.Changed("db") {
		o.Database = cfg.Store.Path
	}
	return nil
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	if err := opts.applyProfile(cmd); err != nil {
		return WrapExitError(ExitCommandError, "failed to load run profile", err)
	}
	prop, err := harness.ParseProperty(opts.Property)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid property", err)
	}
	if opts.Cases < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--cases must be non-negative, got %d", opts.Cases))
	}

	logger := opts.newLogger(cmd.ErrOrStderr())
	registry := prometheus.NewRegistry()
	metrics := harness.NewMetrics()
	metrics.MustRegister(registry)

	runnerOpts := []harness.RunnerOption{
		harness.WithLogger(logger),
		harness.WithMetrics(metrics),
		harness.WithWorkers(opts.Workers),
		harness.WithBudgetLimit(opts.Budget),
		harness.WithMaxDepth(opts.Depth),
	}
	if opts.IDGenerator != nil {
		runnerOpts = append(runnerOpts, harness.WithIDGenerator(opts.IDGenerator))
	}
	if opts.Clock != nil {
		runnerOpts = append(runnerOpts, harness.WithClock(opts.Clock))
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	report, err := harness.NewRunner(runnerOpts...).Run(ctx, prop, opts.Cases, opts.Seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "run aborted", err)
	}
	logMetrics(logger, registry)

	if opts.Database != "" {
		if err := recordReport(ctx, opts.Database, report, logger); err != nil {
			return err
		}
	}

	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report, RunID: report.RunID}
		if !report.Pass() {
			resp.Status = "error"
			resp.Error = &CLIError{Code: CodeDefect, Message: report.Defect.Message}
		}
		if err := f.JSON(resp); err != nil {
			return err
		}
	} else {
		writeReportText(f.Writer, report)
		if !report.Pass() {
			f.Error(CodeDefect, report.Defect.Message, report.Defect.Orderings)
		}
	}

	if !report.Pass() {
		return NewExitError(ExitFailure, fmt.Sprintf("defect found in case %d", report.Defect.Case))
	}
	return nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	// Use command's context if available (for testing), otherwise create one
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

func recordReport(ctx context.Context, path string, report *harness.Report, logger *slog.Logger) error {
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := st.WriteReport(ctx, report); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	logger.Debug("run recorded", "path", path, "run_id", report.RunID)
	return nil
}

// logMetrics logs every counter of the run at debug level.
func logMetrics(logger *slog.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		logger.Warn("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			attrs := []any{"metric", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			logger.Debug("metric", attrs...)
		}
	}
}

func writeReportText(w io.Writer, r *harness.Report) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "Run %s: %s, seed %d\n", r.RunID, r.Property, r.Seed)
	p.Fprintf(w, "  checked %d of %d cases: %d passed, %d skipped", r.Checked, r.Cases, r.Passed, r.SkippedTotal())
	if len(r.Skipped) > 0 {
		reasons := make([]string, 0, len(r.Skipped))
		for reason := range r.Skipped {
			reasons = append(reasons, reason)
		}
		slices.Sort(reasons)
		parts := make([]string, len(reasons))
		for i, reason := range reasons {
			parts[i] = p.Sprintf("%s %d", reason, r.Skipped[reason])
		}
		fmt.Fprintf(w, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(w)

	if r.Pass() {
		fmt.Fprintln(w, "✓ No defects")
		return
	}
	fmt.Fprintln(w, "✗ Defect found")
	for _, line := range strings.Split(r.Defect.Error(), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "  reproduce: hostval check --property %s --seed %d --cases 1\n", r.Property, r.Seed+r.Defect.Case)
}
