// Package logger provides structured logging for the module.
package logger

import "context"

// Logger is the structured logging interface used throughout the module.
// All log methods accept a message followed by key-value pairs.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info-level message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning-level message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error-level message with optional key-value pairs
	Error(msg string, args ...any)

	// With creates a child logger whose entries always carry the given
	// key-value pairs
	With(args ...any) Logger

	// WithContext creates a child logger that extracts the request ID
	// from ctx when present
	WithContext(ctx context.Context) Logger
}

// nopLogger discards everything. It keeps callers free of nil checks.
type nopLogger struct{}

// NewNopLogger returns a logger that discards all output.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any)                 {}
func (nopLogger) Info(string, ...any)                  {}
func (nopLogger) Warn(string, ...any)                  {}
func (nopLogger) Error(string, ...any)                 {}
func (n nopLogger) With(...any) Logger                 { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
