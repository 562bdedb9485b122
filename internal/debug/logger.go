// Package debug provides the process-wide debug logger using log/slog.
package debug

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
)

// EnvVar enables debug logging when set to a true value.
const EnvVar = "TYPEDSQL_DEBUG"

var (
	// logger is the global debug logger instance
	logger = slog.New(slog.DiscardHandler)
	// enabled indicates if debug logging is enabled
	enabled bool
	// mu protects the logger and enabled flag
	mu sync.RWMutex
)

func init() {
	if on, _ := strconv.ParseBool(os.Getenv(EnvVar)); on {
		Init(true)
	}
}

// Init enables or disables debug logging to os.Stderr. When disabled, logs
// are discarded.
func Init(enable bool) {
	InitWriter(enable, os.Stderr)
}

// InitWriter is Init with a custom destination.
func InitWriter(enable bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		logger = slog.New(slog.DiscardHandler)
		return
	}
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	logger = slog.New(slog.NewTextHandler(w, opts))
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
