// Package stress runs the primitives under sustained contention and checks
// the properties they promise: no lost updates under the spin lock, no
// interleaved critical sections, exactly-once one-shot delivery and
// exactly-once destruction behind Arc.
package stress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/rawsync/internal/config"
	"github.com/kolkov/rawsync/internal/logging"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario   string
	Kind       string
	Goroutines int
	Iterations int

	// Ops counts completed primitive round trips.
	Ops      uint64
	Elapsed  time.Duration
	Failures int

	// Violations counts tracer reports; zero unless tracing was on.
	Violations int

	Started time.Time
}

// OpsPerSec returns the throughput of the run.
func (r Result) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// OK reports whether the run saw no failures and no violations.
func (r Result) OK() bool {
	return r.Failures == 0 && r.Violations == 0
}

// workload runs one scenario kind. It returns the number of completed ops
// and of property failures; an error means the run was cut short.
type workload func(ctx context.Context, s config.Scenario) (ops uint64, failures int, err error)

var workloads = map[string]workload{
	config.KindSpinlockCounter:  spinlockCounter,
	config.KindSpinlockSequence: spinlockSequence,
	config.KindOneshotHandoff:   oneshotHandoff,
	config.KindArcChurn:         arcChurn,
}

// Runner executes scenarios one after another.
type Runner struct {
	// Trace enables the happens-before tracer for the run.
	Trace bool

	Logger *slog.Logger
}

// NewRunner returns a runner logging to the process logger.
func NewRunner(traceOn bool) *Runner {
	return &Runner{Trace: traceOn, Logger: logging.Logger()}
}

// Run executes scenarios sequentially. It stops at the first scenario that
// cannot complete (unknown kind, context done) and returns the results
// gathered so far together with the error.
func (r *Runner) Run(ctx context.Context, scenarios []config.Scenario) ([]Result, error) {
	log := r.Logger
	if log == nil {
		log = logging.Logger()
	}
	if r.Trace {
		trace.Default.Enable()
		defer trace.Default.Disable()
	}

	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		w, ok := workloads[s.Kind]
		if !ok {
			return results, fmt.Errorf("stress: scenario %q: unknown kind %q", s.Name, s.Kind)
		}
		if r.Trace {
			// Tracer slots are per goroutine; start every scenario afresh.
			trace.Default.Reset()
		}

		log.Info("stress: scenario started",
			"scenario", s.Name, "kind", s.Kind,
			"goroutines", s.Goroutines, "iterations", s.Iterations)

		started := time.Now()
		ops, failures, err := w(ctx, s)
		res := Result{
			Scenario:   s.Name,
			Kind:       s.Kind,
			Goroutines: s.Goroutines,
			Iterations: s.Iterations,
			Ops:        ops,
			Elapsed:    time.Since(started),
			Failures:   failures,
			Started:    started,
		}
		if r.Trace {
			res.Violations = len(trace.Default.Violations())
		}
		if err != nil {
			return results, fmt.Errorf("stress: scenario %q: %w", s.Name, err)
		}
		results = append(results, res)

		level := slog.LevelInfo
		if !res.OK() {
			level = slog.LevelError
		}
		log.Log(ctx, level, "stress: scenario finished",
			"scenario", s.Name,
			"ops", res.Ops,
			"elapsed", res.Elapsed,
			"ops_per_sec", int64(res.OpsPerSec()),
			"failures", res.Failures,
			"violations", res.Violations)
	}
	return results, nil
}

// fanOut runs fn on n goroutines and waits for all of them.
func fanOut(ctx context.Context, n int, fn func(ctx context.Context, worker int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
