package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger and provides structured logging capabilities.
type Logger struct {
	zlog zerolog.Logger
}

// Options controls how a Logger is built.
// Out defaults to stdout. Level overrides the environment default when it
// names a valid zerolog level.
type Options struct {
	Env   string
	Level string
	Out   io.Writer
}

// New creates a new Logger instance configured for the given environment.
// In development mode, it outputs pretty-printed colored logs.
// In every other mode, it outputs JSON formatted logs.
func New(env string) *Logger {
	return NewWithOptions(Options{Env: env})
}

// NewWithOptions creates a Logger from explicit options.
func NewWithOptions(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var output io.Writer = out
	if opts.Env == "development" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	zlog := zerolog.New(output).
		Level(resolveLevel(opts.Env, opts.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func resolveLevel(env, level string) zerolog.Level {
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && parsed != zerolog.NoLevel {
			return parsed
		}
	}
	if env == "development" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.emit(l.zlog.Debug(), msg, fields)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.emit(l.zlog.Info(), msg, fields)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.emit(l.zlog.Warn(), msg, fields)
}

// Error logs an error message with an error and optional fields.
func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	l.emit(l.zlog.Error().Err(err), msg, fields)
}

// Fatal logs a fatal message and exits the application.
func (l *Logger) Fatal(msg string, err error, fields map[string]interface{}) {
	l.emit(l.zlog.Fatal().Err(err), msg, fields)
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields map[string]interface{}) {
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	event.Msg(msg)
}

// With creates a child logger with additional context fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithRequestID creates a child logger with a request ID field.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		zlog: l.zlog.With().Str("request_id", requestID).Logger(),
	}
}

// WithRun creates a child logger scoped to one screening run.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{
		zlog: l.zlog.With().Str("run_id", runID).Logger(),
	}
}

// WithRow creates a child logger scoped to one input row of a run.
func (l *Logger) WithRow(index int, address string) *Logger {
	return &Logger{
		zlog: l.zlog.With().Int("row", index).Str("address", address).Logger(),
	}
}

// GetZerolog returns the underlying zerolog.Logger for advanced usage.
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}
