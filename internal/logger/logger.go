// Package logger provides module-scoped structured logging on top of log/slog.
//
// The process installs one CentralLogger and components scope it by name:
//
//	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{DefaultLevel: "info"})
//	if err != nil {
//	    return err
//	}
//	logger.SetGlobal(cl)
//
//	log := logger.Global().Module("detection")
//	log.Info("Detection completed", logger.Int("regions", len(result.Regions)))
//
// Console output is text on stderr; the optional file output is JSON lines.
// Values that look like credentials are redacted before either is written.
package logger

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// slogLevel maps a level name to slog, defaulting to info.
func (l LogLevel) slogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(string(l))) {
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

// Logger is the logging interface passed to components
type Logger interface {
	// Module returns a logger scoped to a sub-module, named parent.child
	Module(name string) Logger

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry
	With(fields ...Field) Logger

	// WithContext returns a logger carrying the context's request ID, if any
	WithContext(ctx context.Context) Logger
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Float64 creates a float field, rounded to three decimals on output.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration creates a duration field rendered as e.g. "1.5s".
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }

// Any creates a field with an arbitrary value. Prefer the typed constructors.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Error creates an "error" field. A nil error logs a nil value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}
