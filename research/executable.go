package research

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/gridflow/domain"
	"github.com/YuminosukeSato/gridflow/pipeline"
	"github.com/YuminosukeSato/gridflow/pkg/errors"
	"github.com/YuminosukeSato/gridflow/pkg/log"
)

// FuncContext is the environment handed to research functions: the
// experiment identity plus read access to the experiment's pipeline runs and
// the accumulated results.
type FuncContext struct {
	Research     string
	ExperimentID string
	Config       domain.Config
	Rep          int
	Update       int
	Iteration    int
	Results      *Results
	Logger       log.Logger

	runs map[string]*pipeline.Run
}

// PipelineRun returns the named pipeline's run within this experiment, so a
// function can read its variables (the original's experiment[pipeline]).
func (fc *FuncContext) PipelineRun(name string) (*pipeline.Run, error) {
	run, ok := fc.runs[name]
	if !ok {
		return nil, errors.NewValueError("FuncContext.PipelineRun", "no pipeline named "+name)
	}
	return run, nil
}

// Function is a research callable executed on a cadence. The returned map
// holds metric name to value pairs recorded as result rows.
type Function func(ctx context.Context, fc *FuncContext) (map[string]float64, error)

type unitKind int

const (
	pipelineUnit unitKind = iota
	functionUnit
)

func (k unitKind) String() string {
	if k == pipelineUnit {
		return "pipeline"
	}
	return "function"
}

// unit is one executable of a research: a pipeline advanced per iteration or
// a function invoked at its cadence.
type unit struct {
	name       string
	kind       unitKind
	ppl        *pipeline.Pipeline
	variables  []string
	cadence    Cadence
	importFrom string
	runFully   bool
	fn         Function
	returns    []string
}

// UnitOption configures a pipeline or function added to a research.
type UnitOption func(*unit) error

// WithRoot joins a root template (data feeding) in front of the unit's
// pipeline, the original's root/branch split.
func WithRoot(root *pipeline.Pipeline) UnitOption {
	return func(u *unit) error {
		if u.kind != pipelineUnit {
			return errors.NewValueError("WithRoot", "root applies to pipeline units only")
		}
		u.ppl = pipeline.Join(u.name, root, u.ppl)
		return nil
	}
}

// WithVariables names the pipeline variables collected as result rows after
// each execution. Float values and the last element of float series are
// recorded.
func WithVariables(names ...string) UnitOption {
	return func(u *unit) error {
		u.variables = append(u.variables, names...)
		return nil
	}
}

// WithExecute sets the unit's cadence from a spec string such as "%100" or
// "last".
func WithExecute(spec string) UnitOption {
	return func(u *unit) error {
		c, err := ParseCadence(spec)
		if err != nil {
			return err
		}
		u.cadence = c
		return nil
	}
}

// WithImportFrom gives the unit's pipeline read access to another pipeline's
// variable space under that pipeline's name.
func WithImportFrom(name string) UnitOption {
	return func(u *unit) error {
		if u.kind != pipelineUnit {
			return errors.NewValueError("WithImportFrom", "import applies to pipeline units only")
		}
		u.importFrom = name
		return nil
	}
}

// WithRunFully makes the unit execute its pipeline's complete loop (until
// generator exhaustion) at every cadence hit instead of advancing one
// iteration, the original's run=True. Typical for test pipelines that sweep
// a whole test set every N training iterations.
func WithRunFully() UnitOption {
	return func(u *unit) error {
		if u.kind != pipelineUnit {
			return errors.NewValueError("WithRunFully", "run-fully applies to pipeline units only")
		}
		u.runFully = true
		return nil
	}
}

// WithReturns declares the metric names a function must return. When set,
// a mismatch between the declaration and the returned map is an error.
func WithReturns(names ...string) UnitOption {
	return func(u *unit) error {
		if u.kind != functionUnit {
			return errors.NewValueError("WithReturns", "returns applies to function units only")
		}
		u.returns = append(u.returns, names...)
		return nil
	}
}

// collectVariables turns the unit's tracked pipeline variables into result
// rows. A float series contributes its latest value.
func (u *unit) collectVariables(run *pipeline.Run, base Row) ([]Row, error) {
	rows := make([]Row, 0, len(u.variables))
	for _, name := range u.variables {
		v, err := run.GetVariable(name)
		if err != nil {
			return nil, err
		}

		value := math.NaN()
		switch tv := v.(type) {
		case float64:
			value = tv
		case int:
			value = float64(tv)
		case []float64:
			if len(tv) == 0 {
				continue
			}
			value = tv[len(tv)-1]
		default:
			continue // untracked type, e.g. a model object
		}

		if !errors.IsFiniteMetric(value) {
			errors.Warn(errors.NewDivergedMetricWarning(u.name, name, base.Iteration, value))
		}

		row := base
		row.Unit = u.name
		row.Metric = name
		row.Value = value
		row.Timestamp = time.Now()
		rows = append(rows, row)
	}
	return rows, nil
}

// callFunction invokes a function unit with panic recovery and validates its
// returned metrics against the declared names.
func (u *unit) callFunction(ctx context.Context, fc *FuncContext) (map[string]float64, error) {
	var values map[string]float64
	err := errors.SafeExecute("function "+u.name, func() error {
		var fnErr error
		values, fnErr = u.fn(ctx, fc)
		return fnErr
	})
	if err != nil {
		return nil, err
	}

	if len(u.returns) > 0 {
		if len(values) != len(u.returns) {
			return nil, errors.NewValueError("function "+u.name, "returned metric set does not match declared returns")
		}
		for _, name := range u.returns {
			if _, ok := values[name]; !ok {
				return nil, errors.NewValueError("function "+u.name, "missing declared return metric: "+name)
			}
		}
	}
	return values, nil
}
