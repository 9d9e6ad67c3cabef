package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/kolkov/rawsync/internal/baseline"
)

// BaselineCmd groups the baseline subcommands.
type BaselineCmd struct {
	List BaselineListCmd `command:"list" description:"List stored stress runs"`
}

// BaselineListCmd prints stored runs, oldest first.
type BaselineListCmd struct {
	Scenario string `long:"scenario" description:"Only list runs of this scenario"`

	root *Options
}

func (c *BaselineListCmd) Execute(_ []string) error {
	cfg, err := c.root.loadConfig()
	if err != nil {
		return err
	}
	store, err := baseline.Open(cfg.Baseline.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(c.root.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tTIME\tGOROUTINES\tITERATIONS\tOPS\tOPS/SEC\tFAILURES")
	err = store.List(c.Scenario, func(r baseline.Run) error {
		_, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.0f\t%d\n",
			r.Scenario, r.At.UTC().Format(time.RFC3339), r.Goroutines, r.Iterations,
			r.Ops, r.OpsPerSec(), r.Failures)
		return err
	})
	w.Flush()
	return err
}
