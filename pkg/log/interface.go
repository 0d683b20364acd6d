// Package log provides the structured logging interface used by the cleaning
// engine, the feature preparer and the analysis dispatcher.
//
// The interface is slog-compatible and backed by zerolog. Pipeline components
// accept a Logger and fall back to GetLogger() when none is supplied.
//
// Example usage:
//
//	logger := log.GetLogger().With(log.ComponentKey, "cleaning")
//	logger.Info("Stage applied",
//	    log.StageKey, log.StageOutliers,
//	    log.RowsBeforeKey, 120,
//	    log.RowsAfterKey, 117,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. An error passed where a key is
// expected is logged under the "error" key together with its stack trace.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs an error-level message.
	//
	//   logger.Error("Family fit failed",
	//       err,
	//       log.AlgorithmKey, "kmeans",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
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
