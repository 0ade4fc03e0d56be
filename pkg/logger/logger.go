// Package logger wraps github.com/charmbracelet/log for n8nctl, exposing
// SetupLogger/ContextWithLogger/FromContext for the rest of the CLI.
package logger

import (
	"context"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the logging surface the rest of the repo depends on.
type Logger = *charmlog.Logger

type ctxKey struct{}

// LoggerCtxKey is the context key a Logger is stored under.
var LoggerCtxKey = ctxKey{}

// Level mirrors charmlog's levels so callers never import charmlog
// directly.
type Level = charmlog.Level

const (
	DebugLevel    = charmlog.DebugLevel
	InfoLevel     = charmlog.InfoLevel
	WarnLevel     = charmlog.WarnLevel
	ErrorLevel    = charmlog.ErrorLevel
	DisabledLevel = charmlog.FatalLevel + 1
)

// SetupLogger builds a Logger writing to stderr (so stdout stays clean
// for --json output), honoring level and debug; color is ignored.
func SetupLogger(level Level, color, debug bool) Logger {
	return setupLogger(os.Stderr, level, color, debug)
}

func setupLogger(w io.Writer, level Level, color, debug bool) Logger {
	opts := charmlog.Options{
		ReportTimestamp: debug,
		ReportCaller:    debug,
	}
	l := charmlog.NewWithOptions(w, opts)
	l.SetLevel(level)
	// color is not applied: charmlog picks its color profile from the
	// writer itself, so --no-color and NO_COLOR do not change log output.
	_ = color
	return l
}

// ContextWithLogger attaches l to ctx.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

// FromContext returns the Logger attached to ctx, or a default
// stderr logger at info level if none is present.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(LoggerCtxKey).(Logger); ok && l != nil {
			return l
		}
	}
	return SetupLogger(InfoLevel, false, false)
}
