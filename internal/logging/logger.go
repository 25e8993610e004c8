// Package logging provides the zerolog-based logger shared by every sgdesk package.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// TimeFormat is the console timestamp layout.
const TimeFormat = "15:04:05"

// Logger wraps zerolog. Child loggers from Named carry a "component" field.
type Logger struct {
	zlog zerolog.Logger
}

// NewLogger creates a logger writing to stderr, tagged with the given mode
// ("gui" for the window, "cli" for commands that print and exit).
func NewLogger(mode string) *Logger {
	return NewLoggerWithOutput(mode, os.Stderr)
}

// NewLoggerWithOutput creates a logger writing console-formatted lines to w.
func NewLoggerWithOutput(mode string, w io.Writer) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
		NoColor:    w != os.Stderr,
	}
	return &Logger{
		zlog: zerolog.New(output).With().Timestamp().Str("mode", mode).Logger(),
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event { return l.zlog.Info() }

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event { return l.zlog.Warn() }

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(component string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", component).Logger()}
}

// SetGlobalLevel sets the level for every logger.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	// Quiet unless --debug or SGDESK_DEBUG
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}
