package metrics

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// MetricFunc computes a metric over accumulated targets and predictions.
type MetricFunc func(yTrue, yPred *mat.VecDense) (float64, error)

// builtins maps metric names usable with Collector.Evaluate.
var builtins = map[string]MetricFunc{
	"accuracy":  Accuracy,
	"precision": Precision,
	"recall":    Recall,
	"f1":        F1Score,
	"mse":       MSE,
	"rmse":      RMSE,
	"mae":       MAE,
	"r2":        R2Score,
}

// Collector accumulates targets and predictions batch by batch and evaluates
// metrics over everything gathered so far. A test pipeline appends each
// batch's predictions; a research function then pulls, e.g., accuracy out of
// it at its cadence.
type Collector struct {
	mu      sync.Mutex
	targets []float64
	preds   []float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Append adds one batch of targets and matching predictions.
func (c *Collector) Append(targets, predictions []float64) error {
	if len(targets) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Collector.Append")
	}
	if len(targets) != len(predictions) {
		return errors.NewValueError("Collector.Append", "targets and predictions differ in length")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, targets...)
	c.preds = append(c.preds, predictions...)
	return nil
}

// Len returns the number of accumulated samples.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.targets)
}

// Reset clears the accumulated samples.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = c.targets[:0]
	c.preds = c.preds[:0]
}

// Evaluate computes a named built-in metric over everything accumulated.
func (c *Collector) Evaluate(name string) (float64, error) {
	fn, ok := builtins[name]
	if !ok {
		return 0, errors.NewValueError("Collector.Evaluate", "unknown metric: "+name)
	}
	return c.EvaluateWith(fn)
}

// EvaluateWith computes an arbitrary metric over everything accumulated.
func (c *Collector) EvaluateWith(fn MetricFunc) (float64, error) {
	c.mu.Lock()
	targets := make([]float64, len(c.targets))
	preds := make([]float64, len(c.preds))
	copy(targets, c.targets)
	copy(preds, c.preds)
	c.mu.Unlock()

	if len(targets) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "Collector.Evaluate")
	}
	return fn(mat.NewVecDense(len(targets), targets), mat.NewVecDense(len(preds), preds))
}
