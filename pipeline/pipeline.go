// Package pipeline provides lazily-executed pipeline templates: ordered,
// named actions plus declared variables. A template is built once and
// executed many times, once per experiment configuration, which is what the
// research package does with it.
package pipeline

import (
	"github.com/YuminosukeSato/gridflow/dataset"
)

// GeneratorFactory builds a fresh batch generator for each run, so that
// concurrent experiments never share generator state.
type GeneratorFactory func() (*dataset.BatchGenerator, error)

type namedAction struct {
	name string
	fn   Action
}

type varDecl struct {
	name string
	init func() interface{}
}

// Pipeline is a lazy execution template. Building it performs no work;
// NewRun binds it to a configuration and Run/Next execute it.
type Pipeline struct {
	name       string
	actions    []namedAction
	varDecls   []varDecl
	genFactory GeneratorFactory
	callbacks  []Callback
}

// New creates an empty pipeline template.
func New(name string) *Pipeline {
	return &Pipeline{name: name}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// InitVariable declares a variable reinitialized at the start of every run
// (the original's init_on_each_run). init may be nil for a nil-valued
// variable.
func (p *Pipeline) InitVariable(name string, init func() interface{}) *Pipeline {
	p.varDecls = append(p.varDecls, varDecl{name: name, init: init})
	return p
}

// Do appends a named action to the template.
func (p *Pipeline) Do(name string, fn Action) *Pipeline {
	p.actions = append(p.actions, namedAction{name: name, fn: fn})
	return p
}

// WithGenerator attaches a batch generator factory. Every run gets its own
// generator; the current batch is available through Run.Batch.
func (p *Pipeline) WithGenerator(factory GeneratorFactory) *Pipeline {
	p.genFactory = factory
	return p
}

// WithCallback registers a callback invoked after every iteration of a run.
func (p *Pipeline) WithCallback(cb Callback) *Pipeline {
	p.callbacks = append(p.callbacks, cb)
	return p
}

// Join concatenates a root template (data feeding) with a branch template
// (per-configuration work): the original's root + branch composition. The
// root's generator factory wins when both are set.
func Join(name string, root, branch *Pipeline) *Pipeline {
	joined := New(name)
	if root != nil {
		joined.varDecls = append(joined.varDecls, root.varDecls...)
		joined.actions = append(joined.actions, root.actions...)
		joined.callbacks = append(joined.callbacks, root.callbacks...)
		joined.genFactory = root.genFactory
	}
	if branch != nil {
		joined.varDecls = append(joined.varDecls, branch.varDecls...)
		joined.actions = append(joined.actions, branch.actions...)
		joined.callbacks = append(joined.callbacks, branch.callbacks...)
		if joined.genFactory == nil {
			joined.genFactory = branch.genFactory
		}
	}
	return joined
}

// List initializes a variable as an empty generic list, for append-mode
// collection.
func List() interface{} { return []interface{}{} }

// FloatList initializes a variable as an empty float64 list, the common case
// for loss curves and metric series.
func FloatList() interface{} { return []float64{} }
