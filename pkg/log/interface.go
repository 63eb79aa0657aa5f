// Package log provides the structured logging interface used by the dslr
// training and prediction pipeline.
//
// The Logger interface is slog-compatible; the default implementation writes
// through zerolog. Components obtain a named logger and attach the standard
// attribute keys defined in attributes.go:
//
//	logger := log.GetLoggerWithName("linear.ovr").With(
//	    log.ModelNameKey, "OneVsRest",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1600,
//	    log.FeaturesKey, 13,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. For Error, an error value passed as
// the first field is attached as the record's error together with the stack
// trace recorded by cockroachdb/errors:
//
//	logger.Error("Model training failed",
//	    err,
//	    log.OperationKey, log.OperationFit,
//	)
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-epoch cost.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop the current run.
	Warn(msg string, fields ...any)

	// Error logs conditions that abort the current run.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	//
	//	classLogger := logger.With(
	//	    log.ModelNameKey, "BinaryClassifier",
	//	    log.ClassKey, "Ravenclaw",
	//	)
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted. Use it to
	// skip computing expensive fields:
	//
	//	if logger.Enabled(ctx, LevelDebug) {
	//	    logger.Debug("Epoch cost", log.LossKey, classifier.Cost(X, y))
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. SetProvider swaps the
// package default, which tests use to capture output.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
