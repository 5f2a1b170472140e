package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
)

// Scenario defines a scripted batch of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. It starts from Preset when set, else from the
// default config, and overlays the remaining fields.
type ScenarioStep struct {
	Name    string               `yaml:"name"`
	Preset  string               `yaml:"preset"`
	Field   string               `yaml:"field"`
	Params  map[string]float64   `yaml:"params"`
	Initial []float64            `yaml:"initial"`
	Grid    *config.Grid         `yaml:"grid"`
	Solver  *config.SolverConfig `yaml:"solver"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Config builds the run configuration of the step.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Field != "" && s.Field != cfg.Field {
		cfg.Field = s.Field
		cfg.Params = nil
		cfg.Initial = nil
		cfg.Figure = config.Figure{}
	}
	if len(s.Params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(s.Params))
		}
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	if len(s.Initial) > 0 {
		cfg.Initial = append([]float64(nil), s.Initial...)
	}
	if s.Grid != nil {
		cfg.Grid = *s.Grid
	}
	if s.Solver != nil {
		cfg.Solver = *s.Solver
	}
	return cfg, nil
}

func (s ScenarioStep) label(i int) string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Preset != "":
		return s.Preset
	case s.Field != "":
		return s.Field
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, runner *experiment.Runner) ([]*experiment.Result, error) {
	log := runner.LoggerFor(ctx).With(slog.String("scenario", scenario.Name))
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("running step", slog.Int("step", i+1), slog.Int("of", len(scenario.Steps)), slog.String("name", step.label(i)))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, err := runner.Run(ctx, step.label(i), cfg)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
	}

	return results, nil
}

func workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ParameterSweep varies one parameter over an evenly spaced range.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	// Track is the state component whose peak is reported.
	Track   int
	Workers int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	Peak       float64
	PeakTime   float64
	Stats      dynamo.Stats
	Err        error
}

// Values returns the swept parameter values.
func (s *ParameterSweep) Values() ([]float64, error) {
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}, nil
	}
	values, err := dynamo.Linspace(s.ParamMin, s.ParamMax, s.NumSteps)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", s.ParamName, err)
	}
	return values, nil
}

// RunSweep integrates every sweep point in parallel. Results keep the order
// of Values. A failing point records its error; only cancellation aborts
// the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, runner *experiment.Runner) ([]SweepResult, error) {
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}
	if sweep.Base == nil {
		return nil, fmt.Errorf("sweep %s: no base config", sweep.ParamName)
	}
	resolved, err := sweep.Base.Resolve(runner.Registry)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(resolved.Field.ParamNames(), sweep.ParamName) {
		return nil, fmt.Errorf("sweep: field %q has no parameter %q", resolved.Field.Name(), sweep.ParamName)
	}

	log := runner.LoggerFor(ctx).With(slog.String("param", sweep.ParamName))
	results := make([]SweepResult, len(values))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(sweep.Workers))

	for i, v := range values {
		g.Go(func() error {
			cfg := sweep.Base.Clone()
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64, 1)
			}
			cfg.Params[sweep.ParamName] = v

			res, err := runner.Run(gctx, "", cfg)
			results[i] = summarize(v, res, sweep.Track, err)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log.Debug("sweep point done", slog.Int("index", i), slog.Float64("value", v), slog.Any("error", err))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func summarize(v float64, res *experiment.Result, track int, err error) SweepResult {
	out := SweepResult{ParamValue: v, Err: err, Peak: math.NaN(), PeakTime: math.NaN()}
	if res == nil || res.Trajectory.Len() == 0 {
		return out
	}
	tr := res.Trajectory
	out.FinalState = tr.Final()
	out.Stats = tr.Stats
	if track < len(out.FinalState) {
		out.Peak, out.PeakTime = tr.States[0][track], tr.Times[0]
		for i, x := range tr.States {
			if x[track] > out.Peak {
				out.Peak, out.PeakTime = x[track], tr.Times[i]
			}
		}
	}
	return out
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation is the half-width of the uniform noise added to each
	// initial component.
	Perturbation float64
	// NonNegative clamps perturbed components at zero.
	NonNegative bool
	NumTrials   int
	Seed        int64
	// Bound is the largest state norm a trial may reach and still count as
	// stable. Zero selects 1e6.
	Bound   float64
	Workers int
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Stable     bool // Did simulation remain bounded?
	Err        error
}

// RunMonteCarlo integrates NumTrials randomly perturbed initial states.
// Perturbations are drawn up front from Seed so results do not depend on
// scheduling.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, runner *experiment.Runner) ([]MonteCarloResult, error) {
	if cfg.Base == nil {
		return nil, fmt.Errorf("monte carlo: no base config")
	}
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo: need at least one trial, got %d", cfg.NumTrials)
	}
	resolved, err := cfg.Base.Resolve(runner.Registry)
	if err != nil {
		return nil, err
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = 1e6
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	inits := make([]dynamo.State, cfg.NumTrials)
	for trial := range inits {
		initState := make(dynamo.State, len(resolved.Initial))
		for i, v := range resolved.Initial {
			initState[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
			if cfg.NonNegative && initState[i] < 0 {
				initState[i] = 0
			}
		}
		inits[trial] = initState
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(cfg.Workers))

	for trial, initState := range inits {
		g.Go(func() error {
			run := cfg.Base.Clone()
			run.Initial = initState

			res, err := runner.Run(gctx, "", run)
			r := MonteCarloResult{TrialID: trial, InitState: initState, Err: err}
			if res != nil {
				r.FinalState = res.Trajectory.Final()
				r.Stable = err == nil && withinBound(res.Trajectory, bound)
			}
			results[trial] = r
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func withinBound(tr *dynamo.Trajectory, bound float64) bool {
	for _, x := range tr.States {
		if x.Norm() > bound {
			return false
		}
	}
	return true
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
