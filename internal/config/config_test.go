package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/integrators"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Field != "harmonic" {
		t.Errorf("expected field harmonic, got %s", cfg.Field)
	}
	if cfg.Grid.Samples <= 0 {
		t.Error("samples should be positive")
	}
	if err := cfg.Validate(fields.Builtin()); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("lorenz")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Grid.Samples != 5000 || cfg.Grid.End != 50 {
		t.Errorf("expected 5000 samples over [0, 50], got %+v", cfg.Grid)
	}
	if cfg.Figure.Phase == nil || cfg.Figure.Phase.Y != 2 {
		t.Errorf("expected an x-z phase view, got %+v", cfg.Figure.Phase)
	}

	cfg.Params["rho"] = 99
	cfg.Figure.Phase.Y = 1
	if Presets["lorenz"].Params["rho"] != 28 || Presets["lorenz"].Figure.Phase.Y != 2 {
		t.Error("GetPreset returned a shared config")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	want := []string{"damped", "harmonic", "logistic", "lorenz", "lotka_volterra", "seir", "sir", "vanderpol"}
	got := ListPresets()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPresetsResolve(t *testing.T) {
	reg := fields.Builtin()
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			r, err := cfg.Resolve(reg)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if len(r.Times) != cfg.Grid.Samples {
				t.Errorf("expected %d times, got %d", cfg.Grid.Samples, len(r.Times))
			}
			if r.Times[len(r.Times)-1] != cfg.Grid.End {
				t.Errorf("expected last time %g, got %g", cfg.Grid.End, r.Times[len(r.Times)-1])
			}
			if len(cfg.Figure.Series) != r.Field.Dim() && len(cfg.Figure.Series) != 1 {
				t.Errorf("expected one series label per variable, got %v", cfg.Figure.Series)
			}
			for k, v := range r.Field.DefaultParams() {
				if r.Params[k] != v {
					t.Errorf("param %s: preset %g differs from field default %g", k, r.Params[k], v)
				}
			}
		})
	}
}

func TestResolveOverlaysDefaults(t *testing.T) {
	cfg := &Config{
		Field:  "sir",
		Params: map[string]float64{"beta": 0.5},
		Grid:   Grid{Start: 0, End: 10, Samples: 11},
	}
	r, err := cfg.Resolve(fields.Builtin())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if r.Params["beta"] != 0.5 || r.Params["gamma"] != 0.1 || r.Params["N"] != 10000 {
		t.Errorf("unexpected params %v", r.Params)
	}
	if r.Initial[0] != 9900 {
		t.Errorf("expected default initial state, got %v", r.Initial)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown field", Config{Field: "pendulum", Grid: Grid{0, 1, 2}}, dynamo.ErrUnknownField},
		{"short initial", Config{Field: "lorenz", Initial: []float64{1, 1}, Grid: Grid{0, 1, 2}}, dynamo.ErrDimensionMismatch},
		{"empty grid", Config{Field: "harmonic", Grid: Grid{0, 1, 0}}, dynamo.ErrInvalidGrid},
		{"reversed grid", Config{Field: "harmonic", Grid: Grid{1, 0, 5}}, dynamo.ErrInvalidGrid},
		{"bad method", Config{Field: "harmonic", Grid: Grid{0, 1, 5}, Solver: SolverConfig{Method: "rk4"}}, dynamo.ErrInvalidOptions},
	}

	reg := fields.Builtin()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(reg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	cfg := Config{Field: "harmonic", Params: map[string]float64{"mass": 2}, Grid: Grid{0, 1, 2}}
	if err := cfg.Validate(reg); err == nil {
		t.Error("expected an error for an undeclared parameter")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("seir")
	cfg.Solver.RelTol = 1e-6
	cfg.Solver.LandOnOutputs = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Field != "seir" || loaded.Params["sigma"] != 0.2 || len(loaded.Initial) != 4 {
		t.Errorf("unexpected config %+v", loaded)
	}
	if loaded.Solver.RelTol != 1e-6 || !loaded.Solver.LandOnOutputs {
		t.Errorf("solver section lost: %+v", loaded.Solver)
	}
	if loaded.Figure.Title != "SEIR Model" || len(loaded.Figure.Series) != 4 {
		t.Errorf("figure section lost: %+v", loaded.Figure)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSolverOptions(t *testing.T) {
	s := SolverConfig{Method: integrators.MethodBS23, RelTol: 1e-4, MaxSteps: 10, LandOnOutputs: true}
	opts := s.Options()
	if opts.Method != integrators.MethodBS23 || opts.RelTol != 1e-4 || opts.MaxSteps != 10 || !opts.LandOnOutputs {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.AbsTol != 0 {
		t.Errorf("expected unset atol to stay zero, got %g", opts.AbsTol)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BIODYN_METHOD", "bs23")
	t.Setenv("BIODYN_RTOL", "1e-5")
	t.Setenv("BIODYN_MAX_STEPS", "42")

	s := SolverConfig{Method: "dopri5", AbsTol: 1e-9}
	if err := s.ApplyEnv(); err != nil {
		t.Fatalf("apply env failed: %v", err)
	}
	if s.Method != "bs23" || s.RelTol != 1e-5 || s.MaxSteps != 42 {
		t.Errorf("env not applied: %+v", s)
	}
	if s.AbsTol != 1e-9 {
		t.Errorf("expected atol untouched, got %g", s.AbsTol)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("BIODYN_RTOL", "tight")
	s := SolverConfig{}
	if err := s.ApplyEnv(); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoggingFromEnv(t *testing.T) {
	cfg, err := LoggingFromEnv()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Level != "warn" || cfg.Format != "text" {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	t.Setenv("BIODYN_LOG_LEVEL", "debug")
	t.Setenv("BIODYN_LOG_FORMAT", "json")
	cfg, err = LoggingFromEnv()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("expected env values, got %+v", cfg)
	}
}
