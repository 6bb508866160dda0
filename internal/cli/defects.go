package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/roach88/hostval/internal/ir"
	"github.com/roach88/hostval/internal/store"
)

// DefectsOptions holds flags for the defects command.
type DefectsOptions struct {
	*RootOptions
	Database string
	RunID    string
	Values   bool // resolve the stored structured operands
}

// DefectView is a stored defect with its operands resolved.
type DefectView struct {
	store.DefectRecord
	LeftIR  string `json:"left_ir,omitempty"`
	RightIR string `json:"right_ir,omitempty"`
}

// NewDefectsCommand creates the defects command.
func NewDefectsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DefectsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "defects",
		Short: "List recorded defects",
		Long: `List the defects recorded by check --db.

Structured operands are stored by content digest; --values reads them back
and verifies each still hashes to its digest.

Examples:
  hostval defects --db runs.db
  hostval defects --db runs.db --run 0192f3a4-... --values`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefects(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database written by check (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only list defects of this run")
	cmd.Flags().BoolVar(&opts.Values, "values", false, "resolve structured operands by digest")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded by check --db, oldest first.

Examples:
  hostval runs --db runs.db
  hostval runs --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, database, func(ctx context.Context, st *store.Store) error {
				runs, err := st.ListRuns(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list runs", err)
				}
				f := newFormatter(rootOpts, cmd)
				if rootOpts.Format == "json" {
					return f.JSON(CLIResponse{Status: "ok", Data: runs})
				}
				writeRunsText(f.Writer, runs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "SQLite database written by check (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// withStore opens an existing database for fn. A missing database is a
// command error rather than an empty one.
func withStore(opts *RootOptions, cmd *cobra.Command, path string, fn func(context.Context, *store.Store) error) error {
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger := opts.newLogger(cmd.ErrOrStderr())
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(cmd.Context(), st)
}

func runDefects(opts *DefectsOptions, cmd *cobra.Command) error {
	return withStore(opts.RootOptions, cmd, opts.Database, func(ctx context.Context, st *store.Store) error {
		if opts.RunID != "" {
			if _, err := st.ReadRun(ctx, opts.RunID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return NewExitError(ExitCommandError, fmt.Sprintf("run %s not found", opts.RunID))
				}
				return WrapExitError(ExitCommandError, "failed to read run", err)
			}
		}

		records, err := st.ReadDefects(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read defects", err)
		}

		f := newFormatter(opts.RootOptions, cmd)
		f.VerboseLog("Read %d defect(s) from %s", len(records), opts.Database)

		views := make([]DefectView, len(records))
		for i, rec := range records {
			views[i] = DefectView{DefectRecord: rec}
			if !opts.Values {
				continue
			}
			if views[i].LeftIR, err = resolveValue(ctx, st, rec.LeftDigest); err != nil {
				return err
			}
			if views[i].RightIR, err = resolveValue(ctx, st, rec.RightDigest); err != nil {
				return err
			}
		}

		if opts.Format == "json" {
			return f.JSON(CLIResponse{Status: "ok", Data: views})
		}
		writeDefectsText(f.Writer, views)
		return nil
	})
}

// resolveValue reads a stored operand back as canonical JSON. An empty
// digest resolves to "".
func resolveValue(ctx context.Context, st *store.Store, d digest.Digest) (string, error) {
	if d == "" {
		return "", nil
	}
	v, err := st.ReadValue(ctx, d)
	if err != nil {
		return "", WrapExitError(ExitCommandError, fmt.Sprintf("failed to read value %s", d), err)
	}
	return ir.Render(v), nil
}

func writeDefectsText(w io.Writer, views []DefectView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No defects recorded")
		return
	}
	for _, v := range views {
		fmt.Fprintf(w, "✗ %s case %d (%s): %s\n", v.Property, v.Case, v.Check, v.Message)
		fmt.Fprintf(w, "    run:   %s\n", v.RunID)
		if len(v.Orderings) > 0 {
			names := make([]string, 0, len(v.Orderings))
			for name := range v.Orderings {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprint(w, "    order:")
			for _, name := range names {
				fmt.Fprintf(w, " %s=%s", name, v.Orderings[name])
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "    left:  %s\n", v.Left)
		fmt.Fprintf(w, "    right: %s\n", v.Right)
		if v.LeftIR != "" || v.RightIR != "" {
			fmt.Fprintf(w, "    left_ir:  %s\n", v.LeftIR)
			fmt.Fprintf(w, "    right_ir: %s\n", v.RightIR)
		}
		if v.Cause != "" {
			fmt.Fprintf(w, "    cause: %s\n", v.Cause)
		}
	}
	fmt.Fprintf(w, "\nSummary: %d defect(s)\n", len(views))
}

func writeRunsText(w io.Writer, runs []store.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, r := range runs {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		skipped := 0
		for _, n := range r.Skipped {
			skipped += n
		}
		fmt.Fprintf(w, "%s %s %s seed=%d checked=%d/%d passed=%d skipped=%d\n",
			mark, r.ID, r.Property, r.Seed, r.Checked, r.Cases, r.Passed, skipped)
	}
}
