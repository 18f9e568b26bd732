package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	gferrors "github.com/YuminosukeSato/gridflow/pkg/errors"
)

func TestZerologLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	logger.Info("experiment finished",
		ResearchNameKey, "grid_search",
		IterationKey, 100,
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry["message"] != "experiment finished" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[ResearchNameKey] != "grid_search" {
		t.Errorf("%s = %v, want grid_search", ResearchNameKey, entry[ResearchNameKey])
	}
	if entry[IterationKey] != float64(100) {
		t.Errorf("%s = %v, want 100", IterationKey, entry[IterationKey])
	}
}

func TestZerologLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo).With(ExperimentIDKey, "exp-001")

	logger.Info("first")
	logger.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "exp-001") {
			t.Errorf("line %q missing pre-populated field", line)
		}
	}
}

func TestZerologLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level records leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %s", out)
	}

	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("Enabled(info) should be false for a warn-level logger")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("Enabled(error) should be true for a warn-level logger")
	}
}

func TestErrorWithStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	err := gferrors.NewValueError("ParseCadence", "unparsable spec")
	logger.Error("cadence rejected", err)

	if !strings.Contains(buf.String(), "cadence rejected") {
		t.Fatalf("missing message: %s", buf.String())
	}
	if !strings.Contains(buf.String(), ErrAttrKey) {
		t.Errorf("missing error attribute: %s", buf.String())
	}
}

func TestWarningsRoutedToLogger(t *testing.T) {
	testLogger, buf := NewTestLogger(LevelDebug)
	prev := GetLogger()
	SetDefault(testLogger)
	defer SetDefault(prev)

	gferrors.Warn(gferrors.NewEmptyDomainWarning("grid_search", 2))

	if !strings.Contains(buf.String(), "empty domain") {
		t.Errorf("warning not captured: %s", buf.String())
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, buf := NewTestLogger(LevelInfo)
	child := logger.With(UnitKey, "train")
	child.Info("iteration done", IterationKey, 5)

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry[UnitKey] != "train" {
		t.Errorf("%s = %v, want train", UnitKey, entry[UnitKey])
	}
}
