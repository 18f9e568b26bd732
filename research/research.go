// Package research orchestrates grid experiments: it runs pipeline and
// function units for every configuration of a domain, collects their metric
// values into a result table, and optionally mutates the domain between
// passes through an update callback.
package research

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/gridflow/core/parallel"
	"github.com/YuminosukeSato/gridflow/domain"
	"github.com/YuminosukeSato/gridflow/pipeline"
	"github.com/YuminosukeSato/gridflow/pkg/errors"
	"github.com/YuminosukeSato/gridflow/pkg/log"
)

// defaultMaxUpdates bounds the domain-update loop when the callback never
// returns an empty domain.
const defaultMaxUpdates = 100

// UpdateContext is handed to the domain-update callback after each pass over
// the current domain.
type UpdateContext struct {
	Research string
	Update   int
	Results  *Results
	Logger   log.Logger
}

// UpdateFunc recomputes the domain from the results collected so far. A nil
// or empty returned domain ends the research.
type UpdateFunc func(ctx context.Context, uc *UpdateContext) (*domain.Domain, error)

// RunObserver is notified when a research run starts and stops. Resource
// monitors implement it.
type RunObserver interface {
	Start()
	Stop()
}

// Research is a built-once description of a grid experiment: a domain of
// configurations, executable units, and an optional domain-update callback.
// Builder methods record errors instead of returning them, so construction
// chains; Run reports the first recorded error.
type Research struct {
	name  string
	units []*unit
	dom   *domain.Domain

	updateFn       UpdateFunc
	updateEach     int
	maxUpdates     int
	updateOnFinish bool

	observers []RunObserver
	logger    log.Logger

	buildErr    error
	lastResults *Results
}

// New creates an empty research with the given name.
func New(name string) *Research {
	return &Research{
		name:       name,
		updateEach: 1,
		maxUpdates: defaultMaxUpdates,
		logger:     log.GetLoggerWithName("research"),
	}
}

// Name returns the research name.
func (r *Research) Name() string { return r.name }

// WithLogger replaces the research logger.
func (r *Research) WithLogger(logger log.Logger) *Research {
	r.logger = logger
	return r
}

func (r *Research) recordErr(err error) {
	if r.buildErr == nil && err != nil {
		r.buildErr = err
	}
}

// AddPipeline registers a pipeline unit executed on its cadence for every
// experiment.
func (r *Research) AddPipeline(name string, ppl *pipeline.Pipeline, opts ...UnitOption) *Research {
	if ppl == nil {
		r.recordErr(errors.NewValueError("Research.AddPipeline", "nil pipeline: "+name))
		return r
	}
	u := &unit{name: name, kind: pipelineUnit, ppl: ppl, cadence: EveryIteration()}
	r.addUnit(u, opts)
	return r
}

// AddFunction registers a function unit executed on its cadence for every
// experiment. Returned metric values become result rows.
func (r *Research) AddFunction(name string, fn Function, opts ...UnitOption) *Research {
	if fn == nil {
		r.recordErr(errors.NewValueError("Research.AddFunction", "nil function: "+name))
		return r
	}
	u := &unit{name: name, kind: functionUnit, fn: fn, cadence: EveryIteration()}
	r.addUnit(u, opts)
	return r
}

func (r *Research) addUnit(u *unit, opts []UnitOption) {
	for _, existing := range r.units {
		if existing.name == u.name {
			r.recordErr(errors.NewValueError("Research.addUnit", "duplicate unit name: "+u.name))
			return
		}
	}
	for _, opt := range opts {
		if err := opt(u); err != nil {
			r.recordErr(err)
			return
		}
	}
	r.units = append(r.units, u)
}

// SetDomain sets the configuration domain the research iterates over.
func (r *Research) SetDomain(d *domain.Domain) *Research {
	r.dom = d
	return r
}

// UpdateOption configures the domain-update loop.
type UpdateOption func(*Research)

// UpdateEach invokes the update callback only after every n full passes over
// the current domain. Intermediate passes rerun the domain with fresh
// repetition numbers.
func UpdateEach(n int) UpdateOption {
	return func(r *Research) {
		if n <= 0 {
			r.recordErr(errors.NewValidationError("update_each", "pass period must be positive", n))
			return
		}
		r.updateEach = n
	}
}

// MaxUpdates bounds the number of domain updates.
func MaxUpdates(n int) UpdateOption {
	return func(r *Research) {
		if n <= 0 {
			r.recordErr(errors.NewValidationError("max_updates", "update bound must be positive", n))
			return
		}
		r.maxUpdates = n
	}
}

// UpdateOnFinish additionally invokes the callback once after the research
// ends, for side effects only; the returned domain is ignored.
func UpdateOnFinish() UpdateOption {
	return func(r *Research) { r.updateOnFinish = true }
}

// UpdateDomain registers the domain-update callback.
func (r *Research) UpdateDomain(fn UpdateFunc, opts ...UpdateOption) *Research {
	if fn == nil {
		r.recordErr(errors.NewValueError("Research.UpdateDomain", "nil update callback"))
		return r
	}
	r.updateFn = fn
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AttachObserver registers an observer started at the beginning of Run and
// stopped when Run returns.
func (r *Research) AttachObserver(o RunObserver) *Research {
	if o != nil {
		r.observers = append(r.observers, o)
	}
	return r
}

// Results returns the result table of the latest completed Run.
func (r *Research) Results() (*Results, error) {
	if r.lastResults == nil {
		return nil, errors.NewNotRunError(r.name, "Results")
	}
	return r.lastResults, nil
}

func (r *Research) validate() error {
	if r.buildErr != nil {
		return r.buildErr
	}
	if len(r.units) == 0 {
		return errors.NewValueError("Research.Run", "no executable units added")
	}
	pipelines := make(map[string]bool)
	for _, u := range r.units {
		if u.kind == pipelineUnit {
			pipelines[u.name] = true
		}
	}
	for _, u := range r.units {
		if u.importFrom == "" {
			continue
		}
		if !pipelines[u.importFrom] {
			return errors.NewValueError("Research.Run", "import source is not a pipeline unit: "+u.importFrom)
		}
		if u.importFrom == u.name {
			return errors.NewValueError("Research.Run", "unit imports from itself: "+u.name)
		}
	}
	return nil
}

// Run executes the research: every configuration of the domain times NReps
// repetitions, distributed over at most Workers concurrent experiments, then
// the domain-update loop until the callback exhausts the domain or the
// update bound is reached. A failing experiment is recorded as an error row
// and does not abort its siblings; only context cancellation and storage
// failures do.
func (r *Research) Run(ctx context.Context, cfg RunConfig) (*Results, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r.dom == nil || r.dom.IsEmpty() {
		errors.Warn(errors.NewEmptyDomainWarning(r.name, 0))
		return nil, errors.Wrapf(errors.ErrEmptyDomain, "research %q", r.name)
	}

	var store *Store
	if cfg.StorePath != "" {
		var err error
		store, err = OpenStore(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}

	for _, o := range r.observers {
		o.Start()
	}
	defer func() {
		for _, o := range r.observers {
			o.Stop()
		}
	}()

	results := NewResults()
	r.lastResults = results
	dom := r.dom
	update := 0
	passInUpdate := 0
	start := time.Now()

	r.logger.Info("research started",
		log.ResearchNameKey, r.name,
		"domain_size", dom.Size(),
		"n_reps", cfg.NReps,
		"n_iters", cfg.NIters,
		"workers", cfg.Workers,
	)

	for {
		repOffset := passInUpdate * cfg.NReps
		if err := r.runPass(ctx, cfg, dom, update, repOffset, results, store); err != nil {
			return results, err
		}
		passInUpdate++

		if r.updateFn == nil {
			break
		}
		if passInUpdate < r.updateEach {
			continue
		}
		if update >= r.maxUpdates {
			r.logger.Warn("update bound reached", log.ResearchNameKey, r.name, log.UpdateKey, update)
			break
		}

		next, err := r.invokeUpdate(ctx, update, results)
		if err != nil {
			return results, err
		}
		if next == nil || next.IsEmpty() {
			errors.Warn(errors.NewEmptyDomainWarning(r.name, update+1))
			break
		}
		dom = next
		update++
		passInUpdate = 0
		r.logger.Info("domain updated",
			log.ResearchNameKey, r.name,
			log.UpdateKey, update,
			"domain_size", dom.Size(),
		)
	}

	if r.updateOnFinish && r.updateFn != nil {
		if _, err := r.invokeUpdate(ctx, update, results); err != nil {
			return results, err
		}
	}

	r.logger.Info("research finished",
		log.ResearchNameKey, r.name,
		"rows", results.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return results, nil
}

func (r *Research) invokeUpdate(ctx context.Context, update int, results *Results) (*domain.Domain, error) {
	uc := &UpdateContext{
		Research: r.name,
		Update:   update,
		Results:  results,
		Logger:   r.logger.With(log.UpdateKey, update),
	}
	var next *domain.Domain
	err := errors.SafeExecute("domain update", func() error {
		var uerr error
		next, uerr = r.updateFn(ctx, uc)
		return uerr
	})
	return next, err
}

// runPass runs every (configuration, repetition) experiment of the current
// domain once, bounded by cfg.Workers.
func (r *Research) runPass(ctx context.Context, cfg RunConfig, dom *domain.Domain, update, repOffset int, results *Results, store *Store) error {
	type job struct {
		config domain.Config
		rep    int
	}
	configs := dom.Configs()
	jobs := make([]job, 0, len(configs)*cfg.NReps)
	for _, config := range configs {
		for rep := 0; rep < cfg.NReps; rep++ {
			jobs = append(jobs, job{config: config, rep: rep + repOffset})
		}
	}

	return parallel.ForEach(ctx, len(jobs), cfg.Workers, func(ctx context.Context, i int) error {
		return r.runExperiment(ctx, cfg, jobs[i].config, jobs[i].rep, update, results, store)
	})
}

// runExperiment executes the unit schedule for one configuration and
// repetition. Unit failures become error rows; only context cancellation and
// storage failures propagate.
func (r *Research) runExperiment(ctx context.Context, cfg RunConfig, config domain.Config, rep, update int, results *Results, store *Store) error {
	id := uuid.NewString()
	alias := config.Alias()
	logger := r.logger.With(
		log.ResearchNameKey, r.name,
		log.ExperimentIDKey, id,
		log.ConfigAliasKey, alias,
		log.RepKey, rep,
		log.UpdateKey, update,
	)

	configJSON, err := config.JSON()
	if err != nil {
		configJSON = alias
	}
	base := Row{
		Research:     r.name,
		ExperimentID: id,
		Update:       update,
		Rep:          rep,
		ConfigAlias:  alias,
		ConfigJSON:   configJSON,
	}

	runs := make(map[string]*pipeline.Run)
	for _, u := range r.units {
		if u.kind != pipelineUnit || u.runFully {
			continue
		}
		run, err := u.ppl.NewRun(config)
		if err != nil {
			return r.recordFailure(ctx, results, store, base, u.name, 0, err, logger)
		}
		runs[u.name] = run
	}
	for _, u := range r.units {
		if u.importFrom == "" || u.runFully || u.kind != pipelineUnit {
			continue
		}
		if src, ok := runs[u.importFrom]; ok {
			runs[u.name].SetImport(u.importFrom, src)
		}
	}

	logger.Info("experiment started")
	start := time.Now()

	var collected []Row
	var pending []Row
	exhausted := make(map[string]bool)

	flush := func() error {
		if store == nil || len(pending) == 0 {
			return nil
		}
		if err := store.SaveRows(ctx, pending); err != nil {
			return err
		}
		pending = pending[:0]
		return nil
	}
	record := func(rows ...Row) {
		collected = append(collected, rows...)
		if store != nil {
			pending = append(pending, rows...)
		}
	}

	for it := 1; it <= cfg.NIters; it++ {
		if err := ctx.Err(); err != nil {
			results.Append(collected...)
			return err
		}
		for _, u := range r.units {
			if !u.cadence.Matches(it, cfg.NIters) {
				continue
			}
			rows, err := r.execUnit(ctx, u, config, runs, exhausted, base, it, update, rep, id, results, logger)
			if err != nil {
				if ctx.Err() != nil {
					results.Append(collected...)
					return ctx.Err()
				}
				errRow := base
				errRow.Iteration = it
				errRow.Unit = u.name
				errRow.Metric = "error"
				errRow.Value = math.NaN()
				errRow.Note = err.Error()
				errRow.Timestamp = time.Now()
				record(errRow)
				logger.Error("experiment failed", err,
					log.UnitKey, u.name,
					log.IterationKey, it,
				)
				results.Append(collected...)
				return flush()
			}
			record(rows...)
		}
		if cfg.DumpEach > 0 && it%cfg.DumpEach == 0 {
			if err := flush(); err != nil {
				results.Append(collected...)
				return err
			}
		}
	}

	results.Append(collected...)
	if err := flush(); err != nil {
		return err
	}
	logger.Info("experiment finished",
		"rows", len(collected),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// execUnit runs one unit at one iteration and returns the result rows it
// produced.
func (r *Research) execUnit(
	ctx context.Context,
	u *unit,
	config domain.Config,
	runs map[string]*pipeline.Run,
	exhausted map[string]bool,
	base Row,
	it, update, rep int,
	id string,
	results *Results,
	logger log.Logger,
) ([]Row, error) {
	rowBase := base
	rowBase.Iteration = it

	switch u.kind {
	case functionUnit:
		fc := &FuncContext{
			Research:     r.name,
			ExperimentID: id,
			Config:       config,
			Rep:          rep,
			Update:       update,
			Iteration:    it,
			Results:      results,
			Logger:       logger.With(log.UnitKey, u.name, log.UnitKindKey, "function"),
			runs:         runs,
		}
		values, err := u.callFunction(ctx, fc)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([]Row, 0, len(names))
		for _, name := range names {
			v := values[name]
			if !errors.IsFiniteMetric(v) {
				errors.Warn(errors.NewDivergedMetricWarning(u.name, name, it, v))
			}
			row := rowBase
			row.Unit = u.name
			row.Metric = name
			row.Value = v
			row.Timestamp = time.Now()
			rows = append(rows, row)
		}
		return rows, nil

	case pipelineUnit:
		if u.runFully {
			return r.runPipelineFully(ctx, u, config, runs, rowBase)
		}

		run := runs[u.name]
		if exhausted[u.name] || run.Stopped() {
			return nil, nil
		}
		err := errors.SafeExecute("pipeline "+u.name, func() error {
			return run.Next(ctx)
		})
		if err != nil {
			if errors.Is(err, errors.ErrStopIteration) {
				exhausted[u.name] = true
				return nil, nil
			}
			return nil, err
		}
		return u.collectVariables(run, rowBase)
	}
	return nil, nil
}

// runPipelineFully executes a fresh run of the unit's pipeline to generator
// exhaustion (the original's run=True). Without a generator exactly one
// iteration runs. The fresh run replaces the unit's entry in the experiment's
// run map so functions read its final state.
func (r *Research) runPipelineFully(
	ctx context.Context,
	u *unit,
	config domain.Config,
	runs map[string]*pipeline.Run,
	rowBase Row,
) ([]Row, error) {
	run, err := u.ppl.NewRun(config)
	if err != nil {
		return nil, err
	}
	if u.importFrom != "" {
		if src, ok := runs[u.importFrom]; ok {
			run.SetImport(u.importFrom, src)
		}
	}

	err = errors.SafeExecute("pipeline "+u.name, func() error {
		for {
			if err := run.Next(ctx); err != nil {
				if errors.Is(err, errors.ErrStopIteration) {
					return nil
				}
				return err
			}
			if run.Stopped() || !run.HasGenerator() {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	runs[u.name] = run
	return u.collectVariables(run, rowBase)
}
