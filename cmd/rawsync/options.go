package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/jessevdk/go-flags"

	"github.com/kolkov/rawsync/internal/config"
	"github.com/kolkov/rawsync/internal/logging"
)

// Options is the root of the command tree. Struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"f" long:"config" description:"Configuration YAML path"`

	Stress   StressCmd   `command:"stress"   description:"Run stress scenarios against the primitives"`
	Baseline BaselineCmd `command:"baseline" description:"Inspect stored stress results"`
	Version  VersionCmd  `command:"version"  description:"Show version information"`

	out    io.Writer
	errOut io.Writer
}

func newOptions(stdout, stderr io.Writer) *Options {
	o := &Options{out: stdout, errOut: stderr}
	o.Stress.root = o
	o.Baseline.List.root = o
	o.Version.root = o
	return o
}

// run parses args, executes the selected command and returns the exit
// status.
func run(args []string, stdout, stderr io.Writer) int {
	opts := newOptions(stdout, stderr)
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "rawsync"

	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintf(stderr, "rawsync: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig returns the file configuration, or the defaults when no file
// was given, with environment overrides applied.
func (o *Options) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := o.setupLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the configured logger: the configured file when one
// is set, the command's stderr otherwise.
func (o *Options) setupLogging(cfg logging.Config) error {
	if cfg.OutputPath == "" {
		logging.InitWriter(o.errOut, cfg)
		return nil
	}
	if err := logging.Close(); err != nil {
		return err
	}
	return logging.Init(cfg)
}
