package fields

import "github.com/san-kum/biodyn/internal/dynamo"

// LotkaVolterra is the predator-prey model.
// State: [prey, predator]
//
//	dx/dt = αx - βxy
//	dy/dt = δxy - γy
func LotkaVolterra() *Definition {
	return &Definition{
		ID:       "lotka_volterra",
		Title:    "Population Dynamics (Lotka-Volterra Predator-Prey Model)",
		Vars:     []string{"prey", "predator"},
		Params:   []string{"alpha", "beta", "delta", "gamma"},
		Defaults: dynamo.Params{"alpha": 1.0, "beta": 0.1, "delta": 0.075, "gamma": 1.5},
		Initial:  dynamo.State{10, 5},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			x, y := s[0], s[1]
			dx[0] = p["alpha"]*x - p["beta"]*x*y
			dx[1] = p["delta"]*x*y - p["gamma"]*y
		},
	}
}

// Logistic is single-population growth toward a carrying capacity K.
//
//	dN/dt = rN(1 - N/K)
func Logistic() *Definition {
	return &Definition{
		ID:       "logistic",
		Title:    "Logistic Growth Model",
		Vars:     []string{"N"},
		Params:   []string{"r", "K"},
		Defaults: dynamo.Params{"r": 0.1, "K": 1000},
		Initial:  dynamo.State{10},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			n := s[0]
			dx[0] = p["r"] * n * (1 - n/p["K"])
		},
	}
}
