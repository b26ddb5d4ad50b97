// ============================================================================
// wtf - Acronym Lookup Service
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating zap-backed service loggers
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultsMu sync.RWMutex
	defaults   = LoggerConfig{Level: "info", Format: "json"}
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or component name, used as the zap logger name
	ServiceName string

	// Log level (debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: json)
	Format string

	// Output writer (default: stdout)
	Output io.Writer
}

// DefaultLoggerConfig returns the process-wide defaults for serviceName
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()

	cfg := defaults
	cfg.ServiceName = serviceName
	return cfg
}

// SetDefaults changes level, format and output used by loggers created
// afterwards. Empty values keep the current setting.
func SetDefaults(cfg LoggerConfig) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if cfg.Level != "" {
		defaults.Level = cfg.Level
	}
	if cfg.Format != "" {
		defaults.Format = cfg.Format
	}
	if cfg.Output != nil {
		defaults.Output = cfg.Output
	}
}

// NewLogger creates a zap logger from cfg
func NewLogger(cfg LoggerConfig) *zap.Logger {
	return newZapLogger(cfg, ParseLevel(cfg.Level))
}

func newZapLogger(cfg LoggerConfig, level Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "text" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), level.zapLevel())

	// Skip the Logger wrapper frame so callers show up
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named(cfg.ServiceName)
}

// Logger is a named logger taking key-value pairs
type Logger struct {
	*zap.SugaredLogger
	name string
	cfg  LoggerConfig
}

// New creates a logger for the named component using the current defaults
func New(name string) *Logger {
	return NewWithConfig(DefaultLoggerConfig(name))
}

// NewWithConfig creates a logger from an explicit configuration
func NewWithConfig(cfg LoggerConfig) *Logger {
	return &Logger{
		SugaredLogger: NewLogger(cfg).Sugar(),
		name:          cfg.ServiceName,
		cfg:           cfg,
	}
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a copy of the logger with a different minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{
		SugaredLogger: newZapLogger(l.cfg, level).Sugar(),
		name:          l.name,
		cfg:           l.cfg,
	}
}

// With returns a child logger that adds the given key-value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(keysAndValues...),
		name:          l.name,
		cfg:           l.cfg,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}
