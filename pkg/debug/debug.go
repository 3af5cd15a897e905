// Package debug provides category-based debug logging for richieat.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): RICHIEAT_DEBUG or logging.debug in config
//   - Levels (HOW MUCH detail): logging.level in config
//
// Usage:
//
//	debug.Log("auth", "token rejected", "reason", err)
//	if debug.Enabled("http") { /* expensive formatting */ }
//
// Categories: auth, http, session, storage, config, all.
// Levels: error, warn, info, debug, trace.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At trace, truncated request and response bodies are logged.
const LevelTrace = slog.LevelDebug - 4

// categories holds the enabled set. It is replaced wholesale by Init.
var categories atomic.Pointer[map[string]bool]

func init() {
	SetCategories(os.Getenv("RICHIEAT_DEBUG"))
}

// SetCategories replaces the enabled categories with a comma-separated list.
func SetCategories(list string) {
	m := parseCategories(list)
	categories.Store(&m)
}

// Init configures the debug categories and installs a default logger on w.
// RICHIEAT_DEBUG takes precedence over configCategories.
func Init(w io.Writer, configCategories, level, format string) *slog.Logger {
	cats := os.Getenv("RICHIEAT_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	SetCategories(cats)

	logger := NewLogger(w, level, format)
	slog.SetDefault(logger)
	return logger
}

// NewLogger builds a text or JSON logger at the given level.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m["all"] || m[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceEnabled reports whether trace output is active for the given category.
func TraceEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
