// Package baseline persists stress results so later runs can be compared
// against earlier ones.
package baseline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/kolkov/rawsync/internal/stress"
)

// ErrNotFound is returned by Latest when a scenario has no stored run.
var ErrNotFound = errors.New("baseline: not found")

const (
	keyPrefix  = "run/"
	recordSize = 8 + 8 + 4 + 4 + 4
)

// -------------------- Record --------------------

// Run is one stored stress result.
type Run struct {
	Scenario   string
	At         time.Time
	Ops        uint64
	Elapsed    time.Duration
	Goroutines uint32
	Iterations uint32
	Failures   uint32
}

// OpsPerSec returns the stored run's throughput.
func (r Run) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// binary encoding: [ops:8][elapsedNanos:8][goroutines:4][iterations:4][failures:4]
func encodeRecord(r Run) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[0:8], r.Ops)
	binary.BigEndian.PutUint64(buf[8:16], uint64(r.Elapsed))
	binary.BigEndian.PutUint32(buf[16:20], r.Goroutines)
	binary.BigEndian.PutUint32(buf[20:24], r.Iterations)
	binary.BigEndian.PutUint32(buf[24:28], r.Failures)
	return buf
}

func decodeRecord(b []byte) (Run, error) {
	if len(b) != recordSize {
		return Run{}, fmt.Errorf("baseline: invalid record length %d", len(b))
	}
	return Run{
		Ops:        binary.BigEndian.Uint64(b[0:8]),
		Elapsed:    time.Duration(binary.BigEndian.Uint64(b[8:16])),
		Goroutines: binary.BigEndian.Uint32(b[16:20]),
		Iterations: binary.BigEndian.Uint32(b[20:24]),
		Failures:   binary.BigEndian.Uint32(b[24:28]),
	}, nil
}

// -------------------- Store --------------------

// Store is a pebble-backed run history.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("baseline: open %q: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores res under its scenario and start time.
func (s *Store) Put(res stress.Result) error {
	if res.Scenario == "" {
		return errors.New("baseline: result has no scenario")
	}
	// Names are key segments; "a/b" would be listed as a run of "a".
	if strings.Contains(res.Scenario, "/") {
		return fmt.Errorf("baseline: scenario %q contains '/'", res.Scenario)
	}
	at := res.Started
	if at.IsZero() {
		at = time.Now()
	}
	rec := Run{
		Ops:        res.Ops,
		Elapsed:    res.Elapsed,
		Goroutines: uint32(res.Goroutines),
		Iterations: uint32(res.Iterations),
		Failures:   uint32(res.Failures),
	}
	return s.db.Set(keyFor(res.Scenario, at), encodeRecord(rec), pebble.Sync)
}

// Latest returns the most recent run of scenario.
func (s *Store) Latest(scenario string) (Run, error) {
	prefix := []byte(keyPrefix + scenario + "/")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return Run{}, err
	}
	defer iter.Close()

	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("%w: scenario %q", ErrNotFound, scenario)
	}
	return decodeEntry(iter.Key(), iter.Value())
}

// -------------------- Scan --------------------

// List calls fn for every stored run of scenario, oldest first. An empty
// scenario lists every run, grouped by scenario name.
func (s *Store) List(scenario string, fn func(Run) error) error {
	prefix := []byte(keyPrefix)
	if scenario != "" {
		prefix = []byte(keyPrefix + scenario + "/")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		run, err := decodeEntry(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if err := fn(run); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Compare --------------------

// Delta is the throughput change between two runs of a scenario.
type Delta struct {
	Scenario string
	Prev     float64
	Cur      float64

	// Percent is (Cur-Prev)/Prev*100; zero when Prev is zero.
	Percent float64
}

// Compare computes the throughput change from prev to cur.
func Compare(prev, cur Run) Delta {
	d := Delta{Scenario: cur.Scenario, Prev: prev.OpsPerSec(), Cur: cur.OpsPerSec()}
	if d.Prev > 0 {
		d.Percent = (d.Cur - d.Prev) / d.Prev * 100
	}
	return d
}

// -------------------- Helpers --------------------

func keyFor(scenario string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", keyPrefix, scenario, at.UnixNano()))
}

func parseKey(b []byte) (string, time.Time, error) {
	rest := bytes.TrimPrefix(b, []byte(keyPrefix))
	i := bytes.LastIndexByte(rest, '/')
	if i < 0 {
		return "", time.Time{}, fmt.Errorf("baseline: malformed key %q", b)
	}
	nanos, err := strconv.ParseInt(string(rest[i+1:]), 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("baseline: malformed key %q: %w", b, err)
	}
	return string(rest[:i]), time.Unix(0, nanos), nil
}

func decodeEntry(key, val []byte) (Run, error) {
	run, err := decodeRecord(val)
	if err != nil {
		return Run{}, err
	}
	run.Scenario, run.At, err = parseKey(key)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
