package csp

import (
	"log/slog"
	"os"
)

// Logger is the leveled logging contract this package relies on for
// lifecycle-level diagnostics (channel close, spawn rejection, kill) at
// Info/Warn, and for the Kind behind a send/recv/drop that returned its
// zero-byte failure value, logged at Debug so an idle default Logger
// stays quiet under normal traffic. *slog.Logger satisfies this
// directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var defaultLogger Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// DefaultLogger returns the package-wide default Logger, an *slog.Logger
// with a text handler writing to os.Stderr at slog's default Info level.
// Individual channels and processes can
// override it with WithChannelLogger or WithProcessLogger.
func DefaultLogger() Logger { return defaultLogger }

// SetDefaultLogger replaces the package-wide default Logger used by
// channels and processes that were not given one explicitly.
func SetDefaultLogger(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}
