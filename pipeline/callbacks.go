package pipeline

import (
	"math"
	"time"

	"github.com/YuminosukeSato/gridflow/pkg/log"
)

// CallbackEnv is the environment handed to callbacks after each iteration.
// Setting StopRun terminates the run before the next iteration.
type CallbackEnv struct {
	Run       *Run
	Iteration int
	StopRun   bool
}

// Callback runs after each pipeline iteration.
type Callback func(env *CallbackEnv) error

// LogProgress logs the iteration counter every period iterations.
func LogProgress(logger log.Logger, period int) Callback {
	if period <= 0 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.Iteration%period == 0 {
			logger.Info("pipeline progress",
				log.UnitKey, env.Run.pipeline.Name(),
				log.IterationKey, env.Iteration,
			)
		}
		return nil
	}
}

// EarlyStopping stops the run when a float-series variable has not improved
// for the given number of iterations. minimize selects the improvement
// direction.
func EarlyStopping(variable string, rounds int, minimize bool) Callback {
	bestScore := math.Inf(1)
	if !minimize {
		bestScore = math.Inf(-1)
	}
	roundsNoImprove := 0

	return func(env *CallbackEnv) error {
		series, err := env.Run.FloatSeries(variable)
		if err != nil || len(series) == 0 {
			return err
		}
		value := series[len(series)-1]

		improved := value < bestScore
		if !minimize {
			improved = value > bestScore
		}
		if improved {
			bestScore = value
			roundsNoImprove = 0
		} else {
			roundsNoImprove++
		}

		if roundsNoImprove >= rounds {
			env.StopRun = true
		}
		return nil
	}
}

// TimeLimit stops the run after the given wall-clock duration.
func TimeLimit(maxDuration time.Duration) Callback {
	startTime := time.Now()
	return func(env *CallbackEnv) error {
		if time.Since(startTime) > maxDuration {
			env.StopRun = true
		}
		return nil
	}
}
