package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"

	"github.com/roach88/hostval/internal/budget"
)

const (
	// DefaultWorkers is the number of cases checked concurrently.
	DefaultWorkers = 4

	// DefaultDepth bounds the nesting of generated composites.
	DefaultDepth = 3
)

// Runner checks properties over generated cases.
//
// Cases are independent: each one gets its own env, so they run on a
// bounded pool of workers. The run stops at the first defect.
type Runner struct {
	logger  *slog.Logger
	metrics *Metrics
	ids     IDGenerator
	clock   Clock
	workers int
	limit   uint64
	depth   int

	// cases builds the generator for one case. Each case builds its own,
	// so workers never share generator state.
	cases func(prop Property, depth int) *rapid.Generator[Case]
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics makes the runner count cases in m.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) RunnerOption {
	return func(r *Runner) {
		r.ids = g
	}
}

// WithClock sets the timestamp source. Default: SystemClock.
func WithClock(c Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithWorkers sets the number of concurrent cases. Values below 1 mean 1.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = max(n, 1)
	}
}

// WithBudgetLimit sets the budget of each comparison. Default:
// budget.DefaultLimit.
func WithBudgetLimit(limit uint64) RunnerOption {
	return func(r *Runner) {
		r.limit = limit
	}
}

// WithMaxDepth bounds the nesting of generated composites.
func WithMaxDepth(depth int) RunnerOption {
	return func(r *Runner) {
		r.depth = max(depth, 0)
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:     UUIDv7Generator{},
		clock:   SystemClock{},
		workers: DefaultWorkers,
		limit:   budget.DefaultLimit,
		depth:   DefaultDepth,
		cases:   CaseGenerator,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks cases 0..cases-1 of prop. Case i is generated from seed+i, so
// any single case can be reproduced without the others.
//
// A defect is reported in Report.Defect, not as an error; the error is for
// cancellation and harness failures. When several workers hit defects
// concurrently, the one with the lowest case index is kept.
func (r *Runner) Run(ctx context.Context, prop Property, cases, seed int) (*Report, error) {
	if cases < 0 {
		return nil, fmt.Errorf("cases must be non-negative, got %d", cases)
	}
	if _, err := ParseProperty(string(prop)); err != nil {
		return nil, err
	}

	report := NewReport(r.ids.Generate(), prop, seed, cases)
	report.StartedAt = r.clock.Now()
	log := r.logger.With("run_id", report.RunID, "property", string(prop))
	log.Info("run started", "cases", cases, "seed", seed, "workers", r.workers, "budget", r.limit)

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)

	var mu sync.Mutex
	for i := 0; i < cases; i++ {
		if egctx.Err() != nil {
			break
		}
		i := i
		eg.Go(func() error {
			if egctx.Err() != nil {
				return nil
			}
			res, err := r.runCase(prop, i, seed+i)
			r.metrics.observe(prop, res, err)

			mu.Lock()
			defer mu.Unlock()
			report.add(res)

			var d *Defect
			if errors.As(err, &d) {
				if report.Defect == nil || d.Case < report.Defect.Case {
					report.Defect = d
				}
				log.Error("defect found", "case", i, "check", d.Check, "message", d.Message)
				return d
			}
			if err != nil {
				return fmt.Errorf("case %d: %w", i, err)
			}
			log.Debug("case checked", "case", i, "outcome", string(res.Outcome),
				"ordering", res.Ordering.String(), "skip", res.Skip, "cost", res.Cost)
			return nil
		})
	}

	err := eg.Wait()
	report.FinishedAt = r.clock.Now()
	if err != nil && !IsDefect(err) {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	log.Info("run finished",
		"checked", report.Checked,
		"passed", report.Passed,
		"skipped", report.SkippedTotal(),
		"pass", report.Pass())
	return report, nil
}

// runCase draws case index from seed and checks it. A panic while drawing
// or inside the checked code becomes a defect.
func (r *Runner) runCase(prop Property, index, seed int) (res CaseResult, err error) {
	var drawn *Case
	defer func() {
		if p := recover(); p != nil {
			res = CaseResult{Index: index, Outcome: OutcomeDefect}
			d := &Defect{
				Property: prop,
				Case:     index,
				Check:    CheckPanic,
				Message:  fmt.Sprint(p),
			}
			if drawn != nil {
				d.Left, d.Right = drawn.Left.String(), drawn.Right.String()
			} else {
				d.Message = "generate case: " + d.Message
			}
			err = d
		}
	}()
	c := r.cases(prop, r.depth).Example(seed)
	drawn = &c
	return RunCase(prop, index, c, r.limit)
}
