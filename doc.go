// Package gridflow provides grid experiment orchestration for Go: named
// option domains, pipelines executed once per configuration, tabular metric
// collection, and runtime domain mutation between passes.
//
// A research is built from three ingredients: a domain (the cross product of
// named options, each configuration an experiment), executable units
// (pipelines advanced per iteration and functions invoked on a cadence), and
// a result table collecting every tracked metric value as a row.
//
// # Quick Start
//
//	dom, _ := domain.New(
//	    domain.MustOption("lr", 0.1, 0.01),
//	    domain.MustOption("model", "VGG7", "VGG16"),
//	)
//
//	train := pipeline.New("train").
//	    InitVariable("loss", pipeline.FloatList).
//	    Do("step", func(ctx context.Context, run *pipeline.Run) error {
//	        return run.AppendVariable("loss", trainStep(run.Config()))
//	    })
//
//	results, err := research.New("grid_search").
//	    SetDomain(dom).
//	    AddPipeline("train", train, research.WithVariables("loss")).
//	    Run(ctx, research.RunConfig{NIters: 100, NReps: 3, Workers: 8})
//
// The result table supports chained filtering and aggregation:
//
//	best, _, _ := results.BestConfig("train", "loss", true)
//
// # Packages
//
//   - domain: options, configurations, and domain algebra (products, unions)
//   - sampler: probability samplers with arithmetic, truncation, and mixing
//   - dataset: index splitting and batch generation
//   - pipeline: lazy pipeline templates executed per configuration
//   - research: the orchestrator, result table, and sqlite persistence
//   - metrics: classification and regression metrics with a batch collector
//   - monitor: CPU/memory/process sampling during runs, plot rendering
//
// The gridflow command (cmd/gridflow) inspects stored result databases.
package gridflow
