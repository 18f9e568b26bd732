package research

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunConfigValidateDefaults(t *testing.T) {
	cfg := RunConfig{NIters: 10}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NReps != 1 {
		t.Errorf("NReps = %d, want default 1", cfg.NReps)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want default 1", cfg.Workers)
	}
}

func TestRunConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  RunConfig
	}{
		{"missing n_iters", RunConfig{}},
		{"negative n_iters", RunConfig{NIters: -1}},
		{"negative n_reps", RunConfig{NIters: 1, NReps: -1}},
		{"negative workers", RunConfig{NIters: 1, Workers: -2}},
		{"negative dump_each", RunConfig{NIters: 1, DumpEach: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("n_iters: 50\nn_reps: 3\nworkers: 4\nstore_path: results.db\ndump_each: 10\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.NIters != 50 || cfg.NReps != 3 || cfg.Workers != 4 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.StorePath != "results.db" || cfg.DumpEach != 10 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadRunConfigErrors(t *testing.T) {
	if _, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("n_iters: [not a number"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadRunConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
