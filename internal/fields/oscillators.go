package fields

import "github.com/san-kum/biodyn/internal/dynamo"

// Harmonic is the undamped oscillator used as a two-gene regulation toy model.
// State: [x, v]
//
//	dx/dt = v
//	dv/dt = -k x
func Harmonic() *Definition {
	return &Definition{
		ID:       "harmonic",
		Title:    "Gene Expression Oscillation (Harmonic Oscillator Model)",
		Vars:     []string{"x", "v"},
		Params:   []string{"k"},
		Defaults: dynamo.Params{"k": 1.0},
		Initial:  dynamo.State{1, 0},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			dx[0] = s[1]
			dx[1] = -p["k"] * s[0]
		},
	}
}

// Damped adds linear degradation to the harmonic oscillator.
//
//	dx/dt = v
//	dv/dt = -k x - c v
func Damped() *Definition {
	return &Definition{
		ID:       "damped",
		Title:    "Protein Level Oscillation with Degradation (Damped Oscillator Model)",
		Vars:     []string{"x", "v"},
		Params:   []string{"k", "c"},
		Defaults: dynamo.Params{"k": 1.0, "c": 0.1},
		Initial:  dynamo.State{1, 0},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			dx[0] = s[1]
			dx[1] = -p["k"]*s[0] - p["c"]*s[1]
		},
	}
}

// VanDerPol implements the Van der Pol relaxation oscillator.
// State: [x, v] where v = dx/dt
//
//	dx/dt = v
//	dv/dt = μ(1 - x²)v - x
func VanDerPol() *Definition {
	return &Definition{
		ID:       "vanderpol",
		Title:    "Cell Cycle Progression (Van der Pol Oscillator)",
		Vars:     []string{"x", "v"},
		Params:   []string{"mu"},
		Defaults: dynamo.Params{"mu": 1.0},
		Initial:  dynamo.State{0.5, 0.5},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			x, v := s[0], s[1]
			dx[0] = v
			dx[1] = p["mu"]*(1-x*x)*v - x
		},
	}
}
