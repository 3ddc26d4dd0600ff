// Package logger provides process-wide logging for the indexer.
// Messages go through log/slog so scheduler and pipeline events carry
// structured attributes (type, run_id, stage). When verbose mode is enabled
// via the --verbose flag, debug messages are printed as well.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Format selects the handler: "text" (default) or "json".
	Format string
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	cfg               = Config{Level: "info", Format: "text"}
	base              = build()
)

// Setup applies cfg to the process logger.
func Setup(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Level != "" {
		cfg.Level = c.Level
	}
	if c.Format != "" {
		cfg.Format = c.Format
	}
	base = build()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// L returns the structured logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns a structured logger carrying args on every record.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	L().Debug(fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func Info(format string, args ...any) {
	L().Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	L().Warn(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func Error(format string, args ...any) {
	L().Error(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// build creates the handler for the current settings (caller must hold lock).
func build() *slog.Logger {
	level := ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}
