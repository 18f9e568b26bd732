package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	gferrors "github.com/YuminosukeSato/gridflow/pkg/errors"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = newZerologLogger(os.Stderr, zerolog.InfoLevel)
)

func newZerologLogger(w io.Writer, level zerolog.Level) *zerologLogger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func init() {
	// Route library warnings through the structured logger. Warning types
	// implement zerolog.LogObjectMarshaler, so their fields are preserved.
	gferrors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn(warning.Error(), ErrAttrKey, warning)
	})
}

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetDefault replaces the process-wide default logger. Intended for tests
// and for applications that want console output instead of JSON.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// SetLevel reconfigures the default logger with a new minimum level.
func SetLevel(level Level) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = newZerologLogger(os.Stderr, toZerologLevel(level))
}

// NewLogger creates a zerolog-backed Logger writing JSON lines to w.
func NewLogger(w io.Writer, level Level) Logger {
	return newZerologLogger(w, toZerologLevel(level))
}

// NewConsoleLogger creates a human-readable logger, useful in examples and
// the CLI where JSON output would be noise.
func NewConsoleLogger(level Level) Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr}
	zl := zerolog.New(cw).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
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
	// An error passed as the leading field gets stacktrace treatment.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev := l.zl.Error().Err(err)
			if st := extractStacktrace(err); st != "" {
				ev = ev.Str(StacktraceAttrKey, st)
			}
			l.emit(ev, msg, fields[1:])
			return
		}
	}
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := toKey(fields[i])
		ctx = ctx.Interface(key, fields[i+1])
	}
	zl := ctx.Logger()
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.zl.GetLevel()
}

func (l *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := toKey(fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	if len(fields)%2 != 0 {
		ev = ev.Interface("!BADKEY", fields[len(fields)-1])
	}
	ev.Msg(msg)
}

func toKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
