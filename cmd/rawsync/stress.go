package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/kolkov/rawsync/internal/baseline"
	"github.com/kolkov/rawsync/internal/stress"
)

// errRunFailed reports a completed run in which some scenario failed.
var errRunFailed = errors.New("stress run reported failures")

// StressCmd runs the stress harness.
type StressCmd struct {
	Scenarios []string `short:"s" long:"scenario" description:"Run only the named scenario (repeatable)"`
	Save      bool     `long:"save" description:"Store results in the baseline directory and print deltas"`
	Trace     bool     `long:"trace" description:"Enable the happens-before tracer"`

	root *Options
}

func (c *StressCmd) Execute(_ []string) error {
	cfg, err := c.root.loadConfig()
	if err != nil {
		return err
	}
	scenarios, err := cfg.Select(c.Scenarios...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Stress.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Stress.Timeout)
		defer cancel()
	}

	runner := stress.NewRunner(c.Trace || cfg.Trace.Enabled)
	results, err := runner.Run(ctx, scenarios)
	printResults(c.root, results)
	if err != nil {
		return err
	}

	if c.Save {
		if err := saveResults(c.root, cfg.Baseline.Dir, results); err != nil {
			return err
		}
	}

	for _, res := range results {
		if !res.OK() {
			return errRunFailed
		}
	}
	return nil
}

func printResults(o *Options, results []stress.Result) {
	w := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tKIND\tGOROUTINES\tITERATIONS\tOPS\tELAPSED\tOPS/SEC\tFAILURES\tVIOLATIONS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%.0f\t%d\t%d\n",
			r.Scenario, r.Kind, r.Goroutines, r.Iterations, r.Ops,
			r.Elapsed.Round(time.Microsecond), r.OpsPerSec(), r.Failures, r.Violations)
	}
	w.Flush()
}

// saveResults prints each result's delta against the latest stored run of
// its scenario, then stores it.
func saveResults(o *Options, dir string, results []stress.Result) error {
	store, err := baseline.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, res := range results {
		prev, err := store.Latest(res.Scenario)
		switch {
		case err == nil:
			d := baseline.Compare(prev, baseline.Run{
				Scenario: res.Scenario,
				Ops:      res.Ops,
				Elapsed:  res.Elapsed,
			})
			fmt.Fprintf(o.out, "%s: %.0f -> %.0f ops/sec (%+.1f%%)\n",
				d.Scenario, d.Prev, d.Cur, d.Percent)
		case errors.Is(err, baseline.ErrNotFound):
			fmt.Fprintf(o.out, "%s: no baseline yet\n", res.Scenario)
		default:
			return err
		}
		if err := store.Put(res); err != nil {
			return fmt.Errorf("save %s: %w", res.Scenario, err)
		}
	}
	return nil
}
