package research

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Row is one collected measurement: a metric value produced by an executable
// unit at one iteration of one experiment.
type Row struct {
	Research     string
	ExperimentID string
	Update       int
	Rep          int
	Iteration    int
	Unit         string
	Metric       string
	Value        float64
	ConfigAlias  string
	ConfigJSON   string
	Note         string
	Timestamp    time.Time
}

// Results is the row-oriented result table of a research run. All methods
// are safe for concurrent use; the filtering helpers return new tables, so
// queries chain:
//
//	acc := res.Unit("test_accuracy").Metric("accuracy").LastIteration()
type Results struct {
	mu   sync.RWMutex
	rows []Row
}

// NewResults creates an empty result table.
func NewResults() *Results {
	return &Results{}
}

// Append adds rows to the table.
func (rs *Results) Append(rows ...Row) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.rows = append(rs.rows, rows...)
}

// Len returns the number of rows.
func (rs *Results) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rows)
}

// Rows returns a copy of all rows.
func (rs *Results) Rows() []Row {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	rows := make([]Row, len(rs.rows))
	copy(rows, rs.rows)
	return rows
}

// Filter returns a new table with the rows matching pred.
func (rs *Results) Filter(pred func(Row) bool) *Results {
	out := NewResults()
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	for _, row := range rs.rows {
		if pred(row) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Unit filters by executable unit name.
func (rs *Results) Unit(name string) *Results {
	return rs.Filter(func(r Row) bool { return r.Unit == name })
}

// Metric filters by metric name.
func (rs *Results) Metric(name string) *Results {
	return rs.Filter(func(r Row) bool { return r.Metric == name })
}

// Config filters by configuration alias.
func (rs *Results) Config(alias string) *Results {
	return rs.Filter(func(r Row) bool { return r.ConfigAlias == alias })
}

// Update filters by domain-update counter.
func (rs *Results) Update(n int) *Results {
	return rs.Filter(func(r Row) bool { return r.Update == n })
}

// LastIteration returns the rows belonging to the highest iteration present
// per experiment.
func (rs *Results) LastIteration() *Results {
	rs.mu.RLock()
	maxIter := make(map[string]int)
	for _, row := range rs.rows {
		if row.Iteration > maxIter[row.ExperimentID] {
			maxIter[row.ExperimentID] = row.Iteration
		}
	}
	rs.mu.RUnlock()
	return rs.Filter(func(r Row) bool { return r.Iteration == maxIter[r.ExperimentID] })
}

// Values returns the metric values of all rows in order.
func (rs *Results) Values() []float64 {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]float64, len(rs.rows))
	for i, row := range rs.rows {
		out[i] = row.Value
	}
	return out
}

// Aliases returns the distinct configuration aliases, sorted.
func (rs *Results) Aliases() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	seen := make(map[string]bool)
	for _, row := range rs.rows {
		seen[row.ConfigAlias] = true
	}
	out := make([]string, 0, len(seen))
	for alias := range seen {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// MaxUpdate returns the highest update counter present, or -1 for an empty
// table.
func (rs *Results) MaxUpdate() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	maxUpdate := -1
	for _, row := range rs.rows {
		if row.Update > maxUpdate {
			maxUpdate = row.Update
		}
	}
	return maxUpdate
}

// MeanByConfig averages a unit's metric per configuration alias.
func (rs *Results) MeanByConfig(unit, metric string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	rs.mu.RLock()
	for _, row := range rs.rows {
		if row.Unit != unit || row.Metric != metric {
			continue
		}
		sums[row.ConfigAlias] += row.Value
		counts[row.ConfigAlias]++
	}
	rs.mu.RUnlock()

	out := make(map[string]float64, len(sums))
	for alias, sum := range sums {
		out[alias] = sum / float64(counts[alias])
	}
	return out
}

// BestConfig returns the configuration alias with the best mean value of a
// unit's metric. minimize selects the direction.
func (rs *Results) BestConfig(unit, metric string, minimize bool) (string, float64, error) {
	means := rs.MeanByConfig(unit, metric)
	if len(means) == 0 {
		return "", 0, errors.NewValueError("Results.BestConfig",
			fmt.Sprintf("no rows for unit %q metric %q", unit, metric))
	}

	best := ""
	bestVal := math.Inf(1)
	if !minimize {
		bestVal = math.Inf(-1)
	}
	// Iterate sorted aliases so ties break deterministically.
	aliases := make([]string, 0, len(means))
	for alias := range means {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		v := means[alias]
		if (minimize && v < bestVal) || (!minimize && v > bestVal) {
			best = alias
			bestVal = v
		}
	}
	return best, bestVal, nil
}

// Series returns iteration-ordered (iteration, value) pairs of a unit's
// metric for one configuration alias.
func (rs *Results) Series(unit, metric, alias string) ([]int, []float64) {
	type point struct {
		iter  int
		value float64
	}
	var pts []point

	rs.mu.RLock()
	for _, row := range rs.rows {
		if row.Unit == unit && row.Metric == metric && row.ConfigAlias == alias {
			pts = append(pts, point{iter: row.Iteration, value: row.Value})
		}
	}
	rs.mu.RUnlock()

	sort.Slice(pts, func(i, j int) bool { return pts[i].iter < pts[j].iter })
	iters := make([]int, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		iters[i] = p.iter
		values[i] = p.value
	}
	return iters, values
}

// csvHeader is the column order of ToCSV and the sqlite store.
var csvHeader = []string{
	"research", "experiment_id", "update", "rep", "iteration",
	"unit", "metric", "value", "config_alias", "config_json", "note", "timestamp",
}

// ToCSV writes the table as CSV, one row per measurement.
func (rs *Results) ToCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	for _, row := range rs.Rows() {
		record := []string{
			row.Research,
			row.ExperimentID,
			fmt.Sprintf("%d", row.Update),
			fmt.Sprintf("%d", row.Rep),
			fmt.Sprintf("%d", row.Iteration),
			row.Unit,
			row.Metric,
			fmt.Sprintf("%g", row.Value),
			row.ConfigAlias,
			row.ConfigJSON,
			row.Note,
			row.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
