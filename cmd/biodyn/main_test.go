package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/biodyn/internal/config"
)

func newTestCommand(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addConfigFlags(cmd, "param")
	if err := cmd.ParseFlags(flags); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		value   float64
		wantErr bool
	}{
		{"beta=0.3", "beta", 0.3, false},
		{" rho = 28 ", "rho", 28, false},
		{"beta", "", 0, true},
		{"=1", "", 0, true},
		{"beta=x", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value, err := parseParam(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if name != tt.name || value != tt.value {
				t.Errorf("expected %s=%g, got %s=%g", tt.name, tt.value, name, value)
			}
		})
	}
}

func TestBuildConfigPreset(t *testing.T) {
	cmd := newTestCommand(t)
	cfg, name, err := buildConfig(cmd, []string{"lorenz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "lorenz" {
		t.Errorf("expected preset name lorenz, got %q", name)
	}
	if cfg.Grid.End != 50 {
		t.Errorf("expected preset grid end 50, got %g", cfg.Grid.End)
	}
}

func TestBuildConfigFlags(t *testing.T) {
	cmd := newTestCommand(t, "--param", "beta=0.5", "--t1", "10", "--samples", "11", "--method", "bs23", "--land")
	cfg, _, err := buildConfig(cmd, []string{"sir"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Params["beta"] != 0.5 {
		t.Errorf("expected beta 0.5, got %g", cfg.Params["beta"])
	}
	if cfg.Grid.End != 10 || cfg.Grid.Samples != 11 {
		t.Errorf("expected grid end 10 with 11 samples, got %g and %d", cfg.Grid.End, cfg.Grid.Samples)
	}
	if cfg.Solver.Method != "bs23" || !cfg.Solver.LandOnOutputs {
		t.Errorf("expected bs23 with landing, got %+v", cfg.Solver)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		args  []string
	}{
		{"no target", nil, nil},
		{"unknown field", nil, []string{"pendulum"}},
		{"unknown preset", []string{"--preset", "nope"}, nil},
		{"unknown param", []string{"--param", "zeta=1"}, []string{"sir"}},
		{"field mismatch", []string{"--preset", "sir"}, []string{"lorenz"}},
		{"bad init", []string{"--init", "1,2,3"}, []string{"harmonic"}},
		{"zero rtol", []string{"--rtol", "0"}, []string{"sir"}},
		{"zero atol", []string{"--atol", "0"}, []string{"sir"}},
		{"negative atol", []string{"--atol", "-1e-6"}, []string{"sir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestCommand(t, tt.flags...)
			if _, _, err := buildConfig(cmd, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildConfigTolerances(t *testing.T) {
	cmd := newTestCommand(t, "--rtol", "1e-4", "--atol", "1e-7")
	cfg, _, err := buildConfig(cmd, []string{"sir"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Solver.RelTol != 1e-4 || cfg.Solver.AbsTol != 1e-7 {
		t.Errorf("expected rtol 1e-4 and atol 1e-7, got %g and %g", cfg.Solver.RelTol, cfg.Solver.AbsTol)
	}
}

func TestSaveEffectiveConfig(t *testing.T) {
	if err := saveEffectiveConfig("", config.GetPreset("sir")); err != nil {
		t.Fatalf("expected empty path to be a no-op, got %v", err)
	}

	cmd := newTestCommand(t, "--param", "beta=0.5", "--t1", "10")
	cfg, _, err := buildConfig(cmd, []string{"sir"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := saveEffectiveConfig(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Field != "sir" || loaded.Params["beta"] != 0.5 || loaded.Grid.End != 10 {
		t.Errorf("expected saved overrides, got %+v", loaded)
	}

	if err := saveEffectiveConfig(filepath.Join(path, "nested.yaml"), cfg); err == nil {
		t.Error("expected error writing below a file")
	}
}

func TestVarIndex(t *testing.T) {
	if i, err := varIndex("sir", "I"); err != nil || i != 1 {
		t.Errorf("expected 1, got %d (%v)", i, err)
	}
	if i, err := varIndex("lorenz", "2"); err != nil || i != 2 {
		t.Errorf("expected 2, got %d (%v)", i, err)
	}
	if _, err := varIndex("sir", "3"); err == nil {
		t.Error("expected error for out of range index")
	}
	if _, err := varIndex("sir", "Q"); err == nil {
		t.Error("expected error for unknown name")
	}
}
