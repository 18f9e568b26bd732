package research

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func row(exp, unit, metric, alias string, iter int, value float64) Row {
	return Row{
		Research:     "test",
		ExperimentID: exp,
		Unit:         unit,
		Metric:       metric,
		ConfigAlias:  alias,
		Iteration:    iter,
		Value:        value,
		Timestamp:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResultsFiltering(t *testing.T) {
	rs := NewResults()
	rs.Append(
		row("a", "train", "loss", "lr=0.1", 1, 0.9),
		row("a", "train", "loss", "lr=0.1", 2, 0.5),
		row("a", "test", "accuracy", "lr=0.1", 2, 0.8),
		row("b", "train", "loss", "lr=0.01", 1, 0.7),
		row("b", "test", "accuracy", "lr=0.01", 1, 0.6),
	)

	if got := rs.Unit("train").Metric("loss").Len(); got != 3 {
		t.Errorf("train/loss rows = %d, want 3", got)
	}
	if got := rs.Config("lr=0.01").Len(); got != 2 {
		t.Errorf("lr=0.01 rows = %d, want 2", got)
	}

	last := rs.Unit("train").LastIteration()
	if last.Len() != 2 {
		t.Fatalf("last-iteration rows = %d, want 2", last.Len())
	}
	for _, r := range last.Rows() {
		switch r.ExperimentID {
		case "a":
			if r.Iteration != 2 {
				t.Errorf("experiment a last iteration = %d, want 2", r.Iteration)
			}
		case "b":
			if r.Iteration != 1 {
				t.Errorf("experiment b last iteration = %d, want 1", r.Iteration)
			}
		}
	}

	aliases := rs.Aliases()
	if len(aliases) != 2 || aliases[0] != "lr=0.01" || aliases[1] != "lr=0.1" {
		t.Errorf("Aliases() = %v, want [lr=0.01 lr=0.1]", aliases)
	}
}

func TestResultsBestConfig(t *testing.T) {
	rs := NewResults()
	rs.Append(
		row("a", "test", "accuracy", "model=VGG7", 10, 0.90),
		row("b", "test", "accuracy", "model=VGG7", 10, 0.92),
		row("c", "test", "accuracy", "model=VGG16", 10, 0.85),
	)

	alias, value, err := rs.BestConfig("test", "accuracy", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alias != "model=VGG7" {
		t.Errorf("best alias = %q, want model=VGG7", alias)
	}
	if math.Abs(value-0.91) > 1e-12 {
		t.Errorf("best value = %v, want 0.91", value)
	}

	alias, _, err = rs.BestConfig("test", "accuracy", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alias != "model=VGG16" {
		t.Errorf("worst alias = %q, want model=VGG16", alias)
	}

	if _, _, err := rs.BestConfig("test", "no_such_metric", false); err == nil {
		t.Error("expected error for absent metric")
	}
}

func TestResultsSeries(t *testing.T) {
	rs := NewResults()
	rs.Append(
		row("a", "train", "loss", "lr=0.1", 3, 0.3),
		row("a", "train", "loss", "lr=0.1", 1, 0.9),
		row("a", "train", "loss", "lr=0.1", 2, 0.5),
		row("a", "train", "loss", "lr=0.01", 1, 0.8),
	)

	iters, values := rs.Series("train", "loss", "lr=0.1")
	wantIters := []int{1, 2, 3}
	wantValues := []float64{0.9, 0.5, 0.3}
	if len(iters) != 3 {
		t.Fatalf("series length = %d, want 3", len(iters))
	}
	for i := range iters {
		if iters[i] != wantIters[i] || values[i] != wantValues[i] {
			t.Errorf("series[%d] = (%d, %v), want (%d, %v)",
				i, iters[i], values[i], wantIters[i], wantValues[i])
		}
	}
}

func TestResultsToCSV(t *testing.T) {
	rs := NewResults()
	rs.Append(row("a", "train", "loss", "lr=0.1", 1, 0.5))

	var buf bytes.Buffer
	if err := rs.ToCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("CSV lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "research,experiment_id,update") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "train,loss,0.5") {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestResultsConcurrentAppend(t *testing.T) {
	rs := NewResults()
	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				rs.Append(row("x", "train", "loss", "lr=0.1", i, float64(i)))
			}
		}()
	}
	for w := 0; w < 8; w++ {
		<-done
	}
	if rs.Len() != 800 {
		t.Errorf("Len() = %d, want 800", rs.Len())
	}
}
