// Package log provides testing utilities for structured logging.
//
// TestLogger captures log output in memory so tests can assert on what a
// research run logged without touching stderr.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestLogger is a Logger implementation for tests. All messages are captured
// in an internal buffer as JSON lines for later inspection.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	fields map[string]interface{}
}

// NewTestLogger creates a TestLogger with the given minimum level and returns
// the buffer holding the captured output.
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("experiment finished", log.ExperimentIDKey, id)
//	// assert on buffer.String()
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		buffer: buffer,
		level:  level,
		fields: make(map[string]interface{}),
	}, buffer
}

func (t *TestLogger) log(level Level, msg string, fields ...any) {
	if level < t.level {
		return
	}

	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			entry[key] = err.Error()
			continue
		}
		entry[key] = fields[i+1]
	}

	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(t.buffer, `{"level":%q,"message":%q,"marshal_error":%q}`+"\n", level.String(), msg, err)
		return
	}
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.log(LevelDebug, msg, fields...) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.log(LevelInfo, msg, fields...) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.log(LevelWarn, msg, fields...) }
func (t *TestLogger) Error(msg string, fields ...any) { t.log(LevelError, msg, fields...) }

// With returns a child logger whose captured entries include the given
// fields. The child shares the parent's buffer.
func (t *TestLogger) With(fields ...any) Logger {
	child := &TestLogger{
		buffer: t.buffer,
		level:  t.level,
		fields: make(map[string]interface{}, len(t.fields)+len(fields)/2),
	}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		child.fields[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}
	return child
}

// Enabled reports whether records at the given level are captured.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return level >= t.level
}

// Contains reports whether any captured line contains the substring.
func (t *TestLogger) Contains(substr string) bool {
	return strings.Contains(t.buffer.String(), substr)
}

// Lines returns the captured output split into individual JSON lines.
func (t *TestLogger) Lines() []string {
	out := strings.TrimSpace(t.buffer.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
