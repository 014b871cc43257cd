package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	logFilePermissions = 0o600
	logDirPermissions  = 0o700
)

var (
	globalMu sync.Mutex
	global   *CentralLogger
)

// SetGlobal installs cl as the process-wide logger.
func SetGlobal(cl *CentralLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = cl
}

// Global returns the process-wide logger. Until SetGlobal is called it is a
// console logger at info level.
func Global() *CentralLogger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		global = &CentralLogger{
			handler:      newRedactingHandler(newConsoleHandler(os.Stderr, slog.LevelInfo)),
			defaultLevel: slog.LevelInfo,
		}
	}
	return global
}

// CentralLogger owns the output handlers and hands out module loggers.
type CentralLogger struct {
	mu           sync.RWMutex
	handler      slog.Handler
	defaultLevel slog.Level
	moduleLevels map[string]slog.Level
	file         *os.File
}

// NewCentralLogger builds console and optional file outputs from cfg.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, errors.New("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	tz, err := loadTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	cl := &CentralLogger{
		defaultLevel: LogLevel(cfg.DefaultLevel).slogLevel(),
		moduleLevels: make(map[string]slog.Level, len(cfg.ModuleLevels)),
	}
	for module, level := range cfg.ModuleLevels {
		cl.moduleLevels[module] = LogLevel(level).slogLevel()
	}

	var outputs fanoutHandler
	if cfg.Console != nil && cfg.Console.Enabled {
		outputs = append(outputs, newConsoleHandler(os.Stderr, LogLevel(cfg.Console.Level).slogLevel()))
	}
	if cfg.FileOutput != nil && cfg.FileOutput.Enabled {
		f, err := openLogFile(cfg.FileOutput.Path)
		if err != nil {
			return nil, err
		}
		cl.file = f
		outputs = append(outputs, newFileHandler(f, LogLevel(cfg.FileOutput.Level).slogLevel(), tz))
	}

	switch len(outputs) {
	case 0:
		cl.handler = newRedactingHandler(newConsoleHandler(os.Stderr, cl.defaultLevel))
	case 1:
		cl.handler = newRedactingHandler(outputs[0])
	default:
		cl.handler = newRedactingHandler(outputs)
	}

	return cl, nil
}

// NewSlogLogger returns a standalone JSON logger writing to w, mostly for tests.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if tz == nil {
		tz = time.UTC
	}
	return &moduleLogger{
		logger: slog.New(newRedactingHandler(newFileHandler(w, level.slogLevel(), tz))),
		level:  level.slogLevel(),
	}
}

// Module returns a logger scoped to a component
func (cl *CentralLogger) Module(name string) Logger {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	return &moduleLogger{
		module: name,
		logger: slog.New(cl.handler),
		level:  cl.levelFor(name),
	}
}

// levelFor returns the configured level of module or its top-level parent.
func (cl *CentralLogger) levelFor(module string) slog.Level {
	if level, ok := cl.moduleLevels[module]; ok {
		return level
	}
	if top, _, nested := strings.Cut(module, "."); nested {
		if level, ok := cl.moduleLevels[top]; ok {
			return level
		}
	}
	return cl.defaultLevel
}

// Flush syncs the log file to disk
func (cl *CentralLogger) Flush() error {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	if cl.file == nil {
		return nil
	}
	return cl.file.Sync()
}

// Close syncs and closes the log file, if any
func (cl *CentralLogger) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.file == nil {
		return nil
	}
	err := errors.Join(cl.file.Sync(), cl.file.Close())
	cl.file = nil
	return err
}

func loadTimezone(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", name, err)
	}
	return tz, nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, logDirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFilePermissions) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
