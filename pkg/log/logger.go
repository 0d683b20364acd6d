package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	perrors "github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

const (
	ErrAttrKey = "error"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(os.Stderr, LevelInfo)
)

// SetupLogger configures the process-wide logger from a level name
// ("debug", "info", "warn", "error") and routes library warnings into it.
func SetupLogger(loglevel string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	logger := NewZerologLogger(os.Stderr, level)
	SetLogger(logger)
	perrors.SetZerologWarnFunc(func(w error) {
		logger.Warn(w.Error(), ErrAttrKey, w)
	})
	return nil
}

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger.
func SetLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// ParseLevel converts a level name into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, perrors.NewConfigError("log_level", fmt.Sprintf("invalid log level %q", level))
	}
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologLogger adapts zerolog to the Logger interface.
type zerologLogger struct {
	zl    zerolog.Logger
	level Level
}

// NewZerologLogger returns a JSON logger writing to w.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).
		Level(toZerologLevel(level)).
		With().
		Timestamp().
		Logger()
	return &zerologLogger{zl: zl, level: level}
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for _, kv := range pairs(fields) {
		ctx = ctx.Interface(kv.key, fieldValue(kv.value))
	}
	return &zerologLogger{zl: ctx.Logger(), level: l.level}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= l.level
}

func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	for _, kv := range pairs(fields) {
		if err, ok := kv.value.(error); ok {
			addError(e, kv.key, err)
			continue
		}
		e.Interface(kv.key, kv.value)
	}
	e.Msg(msg)
}

// addError logs err with its stack trace and, when available, the structured
// fields of the typed error it wraps.
func addError(e *zerolog.Event, key string, err error) {
	e.AnErr(key, err)
	if st := extractStacktrace(err); st != "" {
		e.Str(StacktraceKey, st)
	}
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		e.Object(ErrorDetailKey, m)
	}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

type keyValue struct {
	key   string
	value any
}

// pairs turns slog-style variadic fields into key/value pairs. A bare error
// in key position is keyed as "error"; a trailing key without value is
// logged under "!BADKEY" like slog does.
func pairs(fields []any) []keyValue {
	var out []keyValue
	for i := 0; i < len(fields); {
		if err, ok := fields[i].(error); ok {
			out = append(out, keyValue{key: ErrAttrKey, value: err})
			i++
			continue
		}
		if i+1 >= len(fields) {
			out = append(out, keyValue{key: "!BADKEY", value: fields[i]})
			break
		}
		out = append(out, keyValue{key: fmt.Sprint(fields[i]), value: fields[i+1]})
		i += 2
	}
	return out
}

func fieldValue(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}
