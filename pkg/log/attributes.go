// Package log defines standard attribute keys for research runs.
//
// Using these keys consistently across the library makes a run's log stream
// filterable per research, experiment, and executable unit. Keys follow a
// hierarchical naming convention ("research.name", "experiment.id") for
// structured log analysis.

package log

// Research and experiment context.
const (
	// ResearchNameKey identifies the research a record belongs to.
	ResearchNameKey = "research.name"

	// ExperimentIDKey is the unique id of one experiment, i.e. one
	// (configuration, repetition, update) triple.
	ExperimentIDKey = "experiment.id"

	// ConfigAliasKey is the deterministic alias of the configuration under
	// execution, e.g. "layout=cna/model=VGG7".
	ConfigAliasKey = "config.alias"

	// RepKey is the repetition counter of the experiment.
	RepKey = "experiment.rep"

	// UpdateKey is the domain-update counter the experiment belongs to.
	UpdateKey = "experiment.update"

	// IterationKey is the pipeline iteration within an experiment.
	IterationKey = "experiment.iteration"
)

// Executable unit context.
const (
	// UnitKey names the executable unit (pipeline or function) producing
	// the record.
	UnitKey = "unit.name"

	// UnitKindKey is "pipeline" or "function".
	UnitKindKey = "unit.kind"

	// ComponentKey identifies the package performing the operation.
	// Examples: "research", "pipeline", "monitor".
	ComponentKey = "component"

	// WorkerKey is the index of the pool worker running the experiment.
	WorkerKey = "worker.id"
)

// Data and performance.
const (
	// BatchSizeKey is the size of the current batch of ids.
	BatchSizeKey = "data.batch_size"

	// EpochKey is the epoch counter of a batch generator.
	EpochKey = "data.epoch"

	// DurationMsKey is the elapsed wall-clock time in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// MetricKey names a collected metric.
	MetricKey = "metric.name"

	// ValueKey is the value of a collected metric.
	ValueKey = "metric.value"
)
