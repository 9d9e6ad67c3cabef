// Package config loads the YAML configuration of the rawsync command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/rawsync/internal/logging"
)

// Scenario kinds understood by the stress harness.
const (
	KindSpinlockCounter  = "spinlock-counter"
	KindSpinlockSequence = "spinlock-sequence"
	KindOneshotHandoff   = "oneshot-handoff"
	KindArcChurn         = "arc-churn"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvTrace    = "RAWSYNC_TRACE"
	EnvLogLevel = "RAWSYNC_LOG_LEVEL"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")

	// ErrUnknownScenario is returned by Select for names not configured.
	ErrUnknownScenario = errors.New("config: unknown scenario")
)

var kinds = map[string]bool{
	KindSpinlockCounter:  true,
	KindSpinlockSequence: true,
	KindOneshotHandoff:   true,
	KindArcChurn:         true,
}

type Config struct {
	Logging  logging.Config `yaml:"logging,omitempty" json:"logging,omitempty"`
	Trace    Trace          `yaml:"trace,omitempty" json:"trace,omitempty"`
	Baseline Baseline       `yaml:"baseline,omitempty" json:"baseline,omitempty"`
	Stress   Stress         `yaml:"stress,omitempty" json:"stress,omitempty"`
}

type Trace struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type Baseline struct {
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

type Stress struct {
	Timeout   time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Scenarios []Scenario    `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
}

// Scenario is one stress workload: Goroutines workers each running
// Iterations rounds of the workload named by Kind.
type Scenario struct {
	Name       string `yaml:"name" json:"name"`
	Kind       string `yaml:"kind" json:"kind"`
	Goroutines int    `yaml:"goroutines" json:"goroutines"`
	Iterations int    `yaml:"iterations" json:"iterations"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging:  logging.Config{Level: logging.LevelInfo, Format: "text"},
		Baseline: Baseline{Dir: ".rawsync/baseline"},
		Stress: Stress{
			Timeout: 30 * time.Second,
			Scenarios: []Scenario{
				{Name: "counter", Kind: KindSpinlockCounter, Goroutines: 8, Iterations: 100000},
				{Name: "interleave", Kind: KindSpinlockSequence, Goroutines: 2, Iterations: 1000},
				{Name: "handoff", Kind: KindOneshotHandoff, Goroutines: 4, Iterations: 2000},
				{Name: "churn", Kind: KindArcChurn, Goroutines: 8, Iterations: 20000},
			},
		},
	}
}

// Load reads the YAML file at path on top of Default and validates the
// result. A scenarios list in the file replaces the default list.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Stress.Timeout < 0 {
		return fmt.Errorf("%w: negative stress timeout %s", ErrInvalid, c.Stress.Timeout)
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}
	seen := make(map[string]bool, len(c.Stress.Scenarios))
	for i, s := range c.Stress.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("%w: scenario #%d has no name", ErrInvalid, i)
		}
		if strings.Contains(s.Name, "/") {
			return fmt.Errorf("%w: scenario %q: name must not contain '/'", ErrInvalid, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate scenario %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
		if !kinds[s.Kind] {
			return fmt.Errorf("%w: scenario %q: unknown kind %q", ErrInvalid, s.Name, s.Kind)
		}
		if s.Goroutines <= 0 || s.Iterations <= 0 {
			return fmt.Errorf("%w: scenario %q: goroutines and iterations must be positive", ErrInvalid, s.Name)
		}
	}
	return nil
}

// ApplyEnv overrides tracing and the log level from the environment.
// Unparsable values are ignored.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvTrace); ok {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Trace.Enabled = on
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = logging.Level(v)
	}
}

// Select returns the scenarios with the given names, in configuration
// order. No names selects every scenario.
func (c *Config) Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return c.Stress.Scenarios, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Scenario
	for _, s := range c.Stress.Scenarios {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, n)
	}
	return out, nil
}
