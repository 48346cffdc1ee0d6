package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"
	FieldSession   = "session"

	// Protocol
	FieldCommand = "command"
	FieldTicket  = "ticket"
	FieldState   = "state"
	FieldVersion = "version"

	// Registration
	FieldFile        = "file"
	FieldProjectPart = "project_part"
	FieldCount       = "count"

	// Process
	FieldPid     = "pid"
	FieldBinary  = "binary"
	FieldAttempt = "attempt"
	FieldBackoff = "backoff"

	// Positions
	FieldLine   = "line"
	FieldColumn = "column"
	FieldOffset = "offset"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	comm, err := communicator.New(cfg.Backend, launcher, communicator.WithLogger(logger.ComponentLogger("communicator")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	sessionLogger := logger.ChildLogger(baseLogger, logger.FieldSession, sessionID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
