package pipeline

import (
	"context"
	"sync"

	"github.com/YuminosukeSato/gridflow/dataset"
	"github.com/YuminosukeSato/gridflow/domain"
	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Action is one pipeline step. It receives the run state: configuration,
// iteration counter, current batch, and the variable space.
type Action func(ctx context.Context, run *Run) error

// Run is one execution of a pipeline template bound to a configuration.
// Variables live here, not on the template, so concurrent experiments are
// isolated.
type Run struct {
	pipeline *Pipeline
	config   domain.Config

	mu        sync.RWMutex
	vars      map[string]interface{}
	declared  map[string]bool
	imports   map[string]*Run
	iteration int
	stopped   bool

	generator *dataset.BatchGenerator
	batch     []int
}

// NewRun binds the template to a configuration and initializes the variable
// space (init_on_each_run semantics).
func (p *Pipeline) NewRun(config domain.Config) (*Run, error) {
	r := &Run{
		pipeline: p,
		config:   config,
		vars:     make(map[string]interface{}, len(p.varDecls)),
		declared: make(map[string]bool, len(p.varDecls)),
		imports:  make(map[string]*Run),
	}
	for _, d := range p.varDecls {
		r.declared[d.name] = true
		if d.init != nil {
			r.vars[d.name] = d.init()
		} else {
			r.vars[d.name] = nil
		}
	}
	if p.genFactory != nil {
		gen, err := p.genFactory()
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline %q: building batch generator", p.name)
		}
		r.generator = gen
	}
	return r, nil
}

// Config returns the configuration the run is bound to.
func (r *Run) Config() domain.Config { return r.config }

// Iteration returns the number of completed iterations.
func (r *Run) Iteration() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.iteration
}

// Batch returns the ids fetched for the current iteration, or nil when the
// pipeline has no generator.
func (r *Run) Batch() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.batch
}

// HasGenerator reports whether the run fetches batches from a generator.
func (r *Run) HasGenerator() bool { return r.generator != nil }

// Stopped reports whether a callback requested the run to stop.
func (r *Run) Stopped() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stopped
}

// GetVariable returns the value of a declared variable.
func (r *Run) GetVariable(name string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.declared[name] {
		return nil, errors.NewValueError("Run.GetVariable", "undeclared variable: "+name)
	}
	return r.vars[name], nil
}

// SetVariable overwrites a declared variable (mode 'w').
func (r *Run) SetVariable(name string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.declared[name] {
		return errors.NewValueError("Run.SetVariable", "undeclared variable: "+name)
	}
	r.vars[name] = value
	return nil
}

// AppendVariable appends to a list-valued declared variable (mode 'a').
func (r *Run) AppendVariable(name string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.declared[name] {
		return errors.NewValueError("Run.AppendVariable", "undeclared variable: "+name)
	}
	switch list := r.vars[name].(type) {
	case []interface{}:
		r.vars[name] = append(list, value)
	case []float64:
		f, ok := value.(float64)
		if !ok {
			return errors.NewValueError("Run.AppendVariable", "appending non-float to a float list: "+name)
		}
		r.vars[name] = append(list, f)
	default:
		return errors.NewValueError("Run.AppendVariable", "variable is not list-valued: "+name)
	}
	return nil
}

// FloatSeries returns a float-list variable as a slice.
func (r *Run) FloatSeries(name string) ([]float64, error) {
	v, err := r.GetVariable(name)
	if err != nil {
		return nil, err
	}
	series, ok := v.([]float64)
	if !ok {
		return nil, errors.NewValueError("Run.FloatSeries", "variable is not a float list: "+name)
	}
	return series, nil
}

// SetImport gives the run read access to another pipeline's run under the
// given name (the original's import_from).
func (r *Run) SetImport(name string, src *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[name] = src
}

// Imported returns a previously imported run.
func (r *Run) Imported(name string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.imports[name]
	if !ok {
		return nil, errors.NewValueError("Run.Imported", "no imported pipeline named "+name)
	}
	return src, nil
}

// Next executes one iteration: fetch a batch (when a generator is attached),
// run every action in order, then fire callbacks. It returns
// errors.ErrStopIteration (wrapped) when the generator's epoch budget is
// exhausted.
func (r *Run) Next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if r.generator != nil {
		batch, err := r.generator.Next()
		if err != nil {
			return err // ErrStopIteration or a real failure
		}
		r.mu.Lock()
		r.batch = batch
		r.mu.Unlock()
	}

	iter := r.Iteration()
	for _, a := range r.pipeline.actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.fn(ctx, r); err != nil {
			if errors.Is(err, errors.ErrStopIteration) {
				return err
			}
			return errors.NewPipelineError(r.pipeline.name, a.name, iter, err)
		}
	}

	r.mu.Lock()
	r.iteration++
	r.mu.Unlock()

	return r.fireCallbacks()
}

// Run executes up to n iterations, stopping early on context cancellation,
// generator exhaustion, or a callback stop request. Generator exhaustion is
// a normal termination, not an error.
func (r *Run) Run(ctx context.Context, n int) error {
	if n <= 0 {
		return errors.NewValidationError("n", "iteration count must be positive", n)
	}
	for i := 0; i < n; i++ {
		if r.Stopped() {
			return nil
		}
		if err := r.Next(ctx); err != nil {
			if errors.Is(err, errors.ErrStopIteration) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (r *Run) fireCallbacks() error {
	if len(r.pipeline.callbacks) == 0 {
		return nil
	}
	env := &CallbackEnv{Run: r, Iteration: r.Iteration()}
	for _, cb := range r.pipeline.callbacks {
		if err := cb(env); err != nil {
			return err
		}
	}
	if env.StopRun {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
	}
	return nil
}
