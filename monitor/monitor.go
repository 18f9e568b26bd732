// Package monitor samples system resources (CPU, memory, process RSS/VMS)
// on a fixed frequency while a research runs. A Monitor implements the
// research package's RunObserver, so it can be attached to a research and
// will cover exactly the run's lifetime. Collected series persist across
// Start/Stop cycles and can be rendered to a PNG.
package monitor

import (
	"sync"
	"time"

	"github.com/YuminosukeSato/gridflow/pkg/log"
)

// defaultFrequency is used when a non-positive frequency is given.
const defaultFrequency = 100 * time.Millisecond

// SampleFunc reads one measurement of the monitored resource.
type SampleFunc func() (float64, error)

// Monitor periodically samples a resource on its own goroutine between
// Start and Stop. Sample timestamps are spread linearly between the start
// and stop instants of each cycle, so the series aligns with wall-clock
// time even when individual reads jitter.
type Monitor struct {
	name   string
	unit   string
	freq   time.Duration
	sample SampleFunc
	logger log.Logger

	mu      sync.Mutex
	data    []float64
	ticks   []time.Time
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a monitor over an arbitrary sample function. name labels the
// series, unit its measurement unit (for plot axes).
func New(name, unit string, freq time.Duration, sample SampleFunc) *Monitor {
	if freq <= 0 {
		freq = defaultFrequency
	}
	return &Monitor{
		name:   name,
		unit:   unit,
		freq:   freq,
		sample: sample,
		logger: log.GetLoggerWithName("monitor").With("monitor.name", name),
	}
}

// Name returns the series label.
func (m *Monitor) Name() string { return m.name }

// Unit returns the measurement unit.
func (m *Monitor) Unit() string { return m.unit }

// Start begins sampling. Starting a running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go m.loop(stop, done)
}

// Stop ends the current sampling cycle and waits for the goroutine to
// finish. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	<-done
}

func (m *Monitor) loop(stop, done chan struct{}) {
	defer close(done)

	start := time.Now()
	var cycle []float64

	ticker := time.NewTicker(m.freq)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			m.commit(cycle, start, time.Now())
			return
		case <-ticker.C:
			v, err := m.sample()
			if err != nil {
				m.logger.Warn("sample failed", "error", err.Error())
				continue
			}
			cycle = append(cycle, v)
		}
	}
}

// commit appends a finished cycle, assigning timestamps spread linearly
// between the cycle's start and stop instants.
func (m *Monitor) commit(cycle []float64, start, stop time.Time) {
	if len(cycle) == 0 {
		return
	}
	step := stop.Sub(start) / time.Duration(len(cycle))

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range cycle {
		m.data = append(m.data, v)
		m.ticks = append(m.ticks, start.Add(step*time.Duration(i+1)))
	}
}

// Data returns a copy of all collected values.
func (m *Monitor) Data() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// Ticks returns a copy of the timestamps matching Data.
func (m *Monitor) Ticks() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.ticks))
	copy(out, m.ticks)
	return out
}

// Reset discards all collected samples. The monitor must be stopped.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.ticks = nil
}
