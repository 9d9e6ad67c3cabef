// Package logging owns the process-wide structured logger.
//
// Everything in rawsync that needs to say something (abort reasons, tracer
// violations, stress progress) goes through Logger(). The logger is lazily
// initialized to a text handler on stderr, so library users who never call
// Init still get readable output.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level names accepted in configuration files.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config holds logger configuration.
type Config struct {
	Level      Level  `yaml:"level,omitempty"`
	Format     string `yaml:"format,omitempty"` // "json" or "text"
	OutputPath string `yaml:"output,omitempty"` // empty for stderr
}

// ErrAlreadyInitialized is returned by Init when a logger is already set up.
var ErrAlreadyInitialized = errors.New("logging: already initialized")

var (
	mu       sync.RWMutex
	logger   *slog.Logger
	logFile  *os.File
	isInited bool

	// isDefault marks a logger installed by InitDefault, which Init may
	// replace.
	isDefault bool
)

// Init installs the global logger. It fails if Init or InitWriter was
// called before without a Close in between. A default logger installed
// lazily by Logger or by InitDefault is replaced.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if isInited && !isDefault {
		return ErrAlreadyInitialized
	}

	var w io.Writer = os.Stderr
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return fmt.Errorf("logging: create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("logging: open %q: %w", cfg.OutputPath, err)
		}
		w = f
		logFile = f
	}

	logger = slog.New(newHandler(w, cfg))
	isInited = true
	isDefault = false
	return nil
}

// InitDefault installs a text logger on stderr at INFO unless a logger is
// already set up. A later Init replaces it.
func InitDefault() {
	mu.Lock()
	defer mu.Unlock()
	if isInited {
		return
	}
	logger = slog.New(newHandler(os.Stderr, Config{}))
	isInited = true
	isDefault = true
}

// InitWriter installs a logger writing to w, replacing any logger set up
// before. cfg.OutputPath is ignored. The CLI uses it to log to the stream it
// was given.
func InitWriter(w io.Writer, cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
	logger = slog.New(newHandler(w, cfg))
	isInited = true
	isDefault = false
}

// Logger returns the global logger, initializing the default one if needed.
func Logger() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	InitDefault()
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Close releases the log file (if any) and resets the logger so Init can be
// called again.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFileLocked()
	logger = nil
	isInited = false
	isDefault = false
	return err
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ParseLevel maps a configured level name to slog. Unknown names map to INFO.
func ParseLevel(l Level) slog.Level {
	switch Level(strings.ToUpper(string(l))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
