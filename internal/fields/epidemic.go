package fields

import "github.com/san-kum/biodyn/internal/dynamo"

// SIR is the susceptible-infected-recovered compartment model.
// S+I+R stays equal to its initial total; N only scales the contact rate.
func SIR() *Definition {
	return &Definition{
		ID:       "sir",
		Title:    "SIR Model",
		Vars:     []string{"S", "I", "R"},
		Params:   []string{"N", "beta", "gamma"},
		Defaults: dynamo.Params{"N": 10000, "beta": 0.3, "gamma": 0.1},
		Initial:  dynamo.State{9900, 100, 0},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			S, I := s[0], s[1]
			infection := p["beta"] * S * I / p["N"]
			recovery := p["gamma"] * I
			dx[0] = -infection
			dx[1] = infection - recovery
			dx[2] = recovery
		},
	}
}

// SEIR adds an exposed (latent) compartment between S and I.
func SEIR() *Definition {
	return &Definition{
		ID:       "seir",
		Title:    "SEIR Model",
		Vars:     []string{"S", "E", "I", "R"},
		Params:   []string{"N", "beta", "sigma", "gamma"},
		Defaults: dynamo.Params{"N": 10000, "beta": 0.3, "sigma": 0.2, "gamma": 0.1},
		Initial:  dynamo.State{8900, 1000, 100, 0},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			S, E, I := s[0], s[1], s[2]
			infection := p["beta"] * S * I / p["N"]
			onset := p["sigma"] * E
			recovery := p["gamma"] * I
			dx[0] = -infection
			dx[1] = infection - onset
			dx[2] = onset - recovery
			dx[3] = recovery
		},
	}
}
