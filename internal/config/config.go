package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/integrators"
	"github.com/san-kum/biodyn/internal/logging"
)

const (
	DefaultStart   = 0.0
	DefaultEnd     = 20.0
	DefaultSamples = 1000
)

// Config describes one run: a field, its parameters and initial state, the
// output grid and how to solve it.
type Config struct {
	Field   string             `yaml:"field"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Initial []float64          `yaml:"initial,omitempty"`
	Grid    Grid               `yaml:"grid"`
	Solver  SolverConfig       `yaml:"solver"`
	Figure  Figure             `yaml:"figure,omitempty"`
}

// Grid is an evenly spaced output grid, both endpoints included.
type Grid struct {
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	Samples int     `yaml:"samples"`
}

// SolverConfig mirrors integrators.Options. Zero fields, tolerances
// included, select the solver defaults.
type SolverConfig struct {
	Method        string  `yaml:"method,omitempty"          env:"BIODYN_METHOD"`
	RelTol        float64 `yaml:"rtol,omitempty"            env:"BIODYN_RTOL"`
	AbsTol        float64 `yaml:"atol,omitempty"            env:"BIODYN_ATOL"`
	InitialStep   float64 `yaml:"initial_step,omitempty"    env:"BIODYN_INITIAL_STEP"`
	MinStep       float64 `yaml:"min_step,omitempty"        env:"BIODYN_MIN_STEP"`
	MaxStep       float64 `yaml:"max_step,omitempty"        env:"BIODYN_MAX_STEP"`
	MaxSteps      int     `yaml:"max_steps,omitempty"       env:"BIODYN_MAX_STEPS"`
	LandOnOutputs bool    `yaml:"land_on_outputs,omitempty" env:"BIODYN_LAND_ON_OUTPUTS"`
}

// Figure carries display labels for plots of a run.
type Figure struct {
	Title  string     `yaml:"title,omitempty"`
	XLabel string     `yaml:"xlabel,omitempty"`
	YLabel string     `yaml:"ylabel,omitempty"`
	Series []string   `yaml:"series,omitempty"`
	Phase  *PhaseView `yaml:"phase,omitempty"`
}

// PhaseView selects two state components to plot against each other.
type PhaseView struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Title  string `yaml:"title,omitempty"`
	XLabel string `yaml:"xlabel,omitempty"`
	YLabel string `yaml:"ylabel,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Field: "harmonic",
		Grid: Grid{
			Start:   DefaultStart,
			End:     DefaultEnd,
			Samples: DefaultSamples,
		},
		Solver: SolverConfig{Method: integrators.MethodDopri5},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	out.Initial = slices.Clone(c.Initial)
	out.Figure.Series = slices.Clone(c.Figure.Series)
	if c.Figure.Phase != nil {
		p := *c.Figure.Phase
		out.Figure.Phase = &p
	}
	return &out
}

func (g Grid) Times() ([]float64, error) {
	return dynamo.Linspace(g.Start, g.End, g.Samples)
}

// Options converts the solver section into integrator options. Zero fields
// keep the integrator defaults.
func (s SolverConfig) Options() integrators.Options {
	return integrators.Options{
		Method:        s.Method,
		RelTol:        s.RelTol,
		AbsTol:        s.AbsTol,
		InitialStep:   s.InitialStep,
		MinStep:       s.MinStep,
		MaxStep:       s.MaxStep,
		MaxSteps:      s.MaxSteps,
		LandOnOutputs: s.LandOnOutputs,
	}
}

// ApplyEnv overlays BIODYN_* solver variables that are set in the
// environment. Unset variables leave the current values alone.
func (s *SolverConfig) ApplyEnv() error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoggingFromEnv reads BIODYN_LOG_* into a logging config.
func LoggingFromEnv() (logging.Config, error) {
	var cfg logging.Config
	if err := env.Parse(&cfg); err != nil {
		return logging.Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Resolved is a Config bound to a registered field, ready to integrate.
type Resolved struct {
	Field   *fields.Definition
	Params  dynamo.Params
	Initial dynamo.State
	Times   []float64
	Options integrators.Options
}

// Resolve looks the field up in reg, overlays configured parameters and
// initial state on the field defaults and builds the output grid.
func (c *Config) Resolve(reg *fields.Registry) (*Resolved, error) {
	f, err := reg.Lookup(c.Field)
	if err != nil {
		return nil, err
	}

	p := f.DefaultParams()
	for k, v := range c.Params {
		if !slices.Contains(f.ParamNames(), k) {
			return nil, fmt.Errorf("field %q has no parameter %q", f.Name(), k)
		}
		p[k] = v
	}
	if missing := p.Missing(f.ParamNames()); len(missing) > 0 {
		return nil, &dynamo.MissingParameterError{Field: f.Name(), Names: missing}
	}

	x0 := f.DefaultState()
	if len(c.Initial) > 0 {
		if len(c.Initial) != f.Dim() {
			return nil, fmt.Errorf("%w: field %q has dimension %d, initial state has %d",
				dynamo.ErrDimensionMismatch, f.Name(), f.Dim(), len(c.Initial))
		}
		x0 = dynamo.State(slices.Clone(c.Initial))
	}
	if len(x0) == 0 {
		return nil, fmt.Errorf("field %q has no default initial state", f.Name())
	}

	times, err := c.Grid.Times()
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Field:   f,
		Params:  p,
		Initial: x0,
		Times:   times,
		Options: c.Solver.Options(),
	}, nil
}

// Validate reports whether the config can be resolved against reg and its
// solver options are usable.
func (c *Config) Validate(reg *fields.Registry) error {
	if _, err := c.Resolve(reg); err != nil {
		return err
	}
	if c.Solver.Method != "" && !slices.Contains(integrators.Methods(), c.Solver.Method) {
		return fmt.Errorf("%w: unknown method %q", dynamo.ErrInvalidOptions, c.Solver.Method)
	}
	if c.Solver.RelTol < 0 || c.Solver.AbsTol < 0 {
		return fmt.Errorf("%w: tolerances must be non-negative", dynamo.ErrInvalidOptions)
	}
	return nil
}
