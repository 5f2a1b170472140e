package config

import (
	"sort"

	"github.com/san-kum/biodyn/internal/integrators"
)

func dopri5() SolverConfig { return SolverConfig{Method: integrators.MethodDopri5} }

const populationAxis = "Number of individuals"

// Presets reproduce the reference models: field, parameters, initial state,
// output grid and plot labelling.
var Presets = map[string]*Config{
	"harmonic": {
		Field:   "harmonic",
		Params:  map[string]float64{"k": 1.0},
		Initial: []float64{1, 0},
		Grid:    Grid{Start: 0, End: 20, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "Gene Expression Oscillation (Harmonic Oscillator Model)",
			XLabel: "Time",
			YLabel: "Expression Level",
			Series: []string{"Gene A Expression", "Gene B Expression"},
		},
	},
	"damped": {
		Field:   "damped",
		Params:  map[string]float64{"k": 1.0, "c": 0.1},
		Initial: []float64{1, 0},
		Grid:    Grid{Start: 0, End: 50, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "Protein Level Oscillation with Degradation (Damped Oscillator Model)",
			XLabel: "Time",
			YLabel: "Protein Level",
			Series: []string{"Protein Level"},
		},
	},
	"lorenz": {
		Field:   "lorenz",
		Params:  map[string]float64{"sigma": 10, "rho": 28, "beta": 8.0 / 3.0},
		Initial: []float64{1, 1, 1},
		Grid:    Grid{Start: 0, End: 50, Samples: 5000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "Gene Regulatory Network (Lorenz System)",
			XLabel: "Time",
			YLabel: "Expression",
			Series: []string{"Gene X Expression", "Gene Y Expression", "Gene Z Expression"},
			Phase: &PhaseView{
				X:      0,
				Y:      2,
				Title:  "Gene Regulatory Network (Lorenz System)",
				XLabel: "Gene X Expression",
				YLabel: "Gene Z Expression",
			},
		},
	},
	"vanderpol": {
		Field:   "vanderpol",
		Params:  map[string]float64{"mu": 1.0},
		Initial: []float64{0.5, 0.5},
		Grid:    Grid{Start: 0, End: 50, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "Cell Cycle Progression",
			XLabel: "Time",
			YLabel: "Cell Cycle Phase",
			Series: []string{"Cell Cycle Phase"},
			Phase: &PhaseView{
				X:      0,
				Y:      1,
				Title:  "Cell Cycle Phase Space",
				XLabel: "Cell Cycle Phase",
				YLabel: "Rate of Change",
			},
		},
	},
	"lotka_volterra": {
		Field:   "lotka_volterra",
		Params:  map[string]float64{"alpha": 1.0, "beta": 0.1, "delta": 0.075, "gamma": 1.5},
		Initial: []float64{10, 5},
		Grid:    Grid{Start: 0, End: 100, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "Population Dynamics",
			XLabel: "Time",
			YLabel: "Population",
			Series: []string{"Prey", "Predator"},
			Phase: &PhaseView{
				X:      0,
				Y:      1,
				Title:  "Phase Space",
				XLabel: "Prey Population",
				YLabel: "Predator Population",
			},
		},
	},
	"logistic": {
		Field:   "logistic",
		Params:  map[string]float64{"r": 0.1, "K": 1000},
		Initial: []float64{10},
		Grid:    Grid{Start: 0, End: 100, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "Logistic Growth Model",
			XLabel: "Time",
			YLabel: "Population Size",
			Series: []string{"Population"},
		},
	},
	"sir": {
		Field:   "sir",
		Params:  map[string]float64{"N": 10000, "beta": 0.3, "gamma": 0.1},
		Initial: []float64{9900, 100, 0},
		Grid:    Grid{Start: 0, End: 100, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "SIR Model",
			XLabel: "Time",
			YLabel: populationAxis,
			Series: []string{"Susceptible", "Infected", "Recovered"},
		},
	},
	"seir": {
		Field:   "seir",
		Params:  map[string]float64{"N": 10000, "beta": 0.3, "sigma": 0.2, "gamma": 0.1},
		Initial: []float64{8900, 1000, 100, 0},
		Grid:    Grid{Start: 0, End: 100, Samples: 1000},
		Solver:  dopri5(),
		Figure: Figure{
			Title:  "SEIR Model",
			XLabel: "Time",
			YLabel: populationAxis,
			Series: []string{"Susceptible", "Exposed", "Infected", "Recovered"},
		},
	},
}

// GetPreset returns a private copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
