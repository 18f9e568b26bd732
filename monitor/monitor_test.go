package monitor

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorCollects(t *testing.T) {
	var calls int32
	m := New("counter", "n", 5*time.Millisecond, func() (float64, error) {
		return float64(atomic.AddInt32(&calls, 1)), nil
	})

	m.Start()
	time.Sleep(60 * time.Millisecond)
	m.Stop()

	data := m.Data()
	if len(data) == 0 {
		t.Fatal("expected samples after a monitoring cycle")
	}
	ticks := m.Ticks()
	if len(ticks) != len(data) {
		t.Fatalf("ticks = %d, data = %d, want equal", len(ticks), len(data))
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Before(ticks[i-1]) {
			t.Fatal("ticks not monotonically increasing")
		}
	}
	for i := 1; i < len(data); i++ {
		if data[i] <= data[i-1] {
			t.Errorf("data[%d] = %v, expected increasing counter", i, data[i])
		}
	}
}

func TestMonitorPersistsAcrossCycles(t *testing.T) {
	m := New("const", "n", 5*time.Millisecond, func() (float64, error) {
		return 1.0, nil
	})

	m.Start()
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	first := len(m.Data())
	if first == 0 {
		t.Fatal("expected samples from first cycle")
	}

	m.Start()
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	if len(m.Data()) <= first {
		t.Errorf("second cycle did not extend the series: %d -> %d", first, len(m.Data()))
	}

	m.Reset()
	if len(m.Data()) != 0 {
		t.Errorf("Reset left %d samples", len(m.Data()))
	}
}

func TestMonitorIdempotentStartStop(t *testing.T) {
	m := New("noop", "n", time.Millisecond, func() (float64, error) { return 0, nil })

	m.Stop() // stopping a stopped monitor must not block or panic
	m.Start()
	m.Start()
	time.Sleep(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestCPUAndMemorySample(t *testing.T) {
	if _, err := NewCPU(time.Millisecond).sample(); err != nil {
		t.Skipf("CPU sampling unavailable: %v", err)
	}

	m := NewMemory(time.Millisecond)
	v, err := m.sample()
	if err != nil {
		t.Skipf("memory sampling unavailable: %v", err)
	}
	if v < 0 || v > 100 {
		t.Errorf("memory percent = %v, want within [0, 100]", v)
	}
}

func TestRSSSample(t *testing.T) {
	m, err := NewRSS(time.Millisecond)
	if err != nil {
		t.Skipf("process monitoring unavailable: %v", err)
	}
	v, err := m.sample()
	if err != nil {
		t.Skipf("RSS sampling unavailable: %v", err)
	}
	if v <= 0 {
		t.Errorf("RSS = %v MiB, want positive", v)
	}
}

func TestSavePlot(t *testing.T) {
	m := New("plotme", "n", 2*time.Millisecond, func() (float64, error) { return 42, nil })
	m.Start()
	time.Sleep(20 * time.Millisecond)
	m.Stop()

	if len(m.Data()) == 0 {
		t.Skip("no samples collected on this machine")
	}
	path := filepath.Join(t.TempDir(), "usage.png")
	if err := m.SavePlot(path); err != nil {
		t.Fatalf("SavePlot: %v", err)
	}
}

func TestSavePlotEmpty(t *testing.T) {
	m := New("empty", "n", time.Millisecond, func() (float64, error) { return 0, nil })
	if err := m.SavePlot(filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestSaveSeriesPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.png")
	xs := []float64{1, 2, 3}
	ys := []float64{0.9, 0.5, 0.3}
	if err := SaveSeriesPlot(path, "loss", "iteration", "loss", xs, ys); err != nil {
		t.Fatalf("SaveSeriesPlot: %v", err)
	}
	if err := SaveSeriesPlot(path, "bad", "x", "y", xs, ys[:2]); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
