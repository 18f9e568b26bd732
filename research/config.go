package research

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// RunConfig holds the execution parameters of a research run. It can be
// built in code or loaded from a YAML file.
type RunConfig struct {
	// NIters is the number of iterations every experiment runs. Required.
	NIters int `yaml:"n_iters"`

	// NReps is the number of repetitions per configuration. Defaults to 1.
	NReps int `yaml:"n_reps"`

	// Workers bounds the number of experiments executed concurrently.
	// Defaults to 1.
	Workers int `yaml:"workers"`

	// StorePath, when set, makes the run persist result rows into a sqlite
	// database at this path.
	StorePath string `yaml:"store_path"`

	// DumpEach flushes an experiment's collected rows to the store every
	// DumpEach iterations. Zero flushes once per experiment.
	DumpEach int `yaml:"dump_each"`
}

// LoadRunConfig reads a RunConfig from a YAML file.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, errors.NewStorageError("LoadRunConfig", path, err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, errors.NewStorageError("LoadRunConfig", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate checks required fields and fills defaults in place.
func (c *RunConfig) Validate() error {
	if c.NIters <= 0 {
		return errors.NewValidationError("n_iters", "iteration count must be positive", c.NIters)
	}
	if c.NReps < 0 {
		return errors.NewValidationError("n_reps", "repetition count must not be negative", c.NReps)
	}
	if c.NReps == 0 {
		c.NReps = 1
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "worker count must not be negative", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.DumpEach < 0 {
		return errors.NewValidationError("dump_each", "dump period must not be negative", c.DumpEach)
	}
	return nil
}
