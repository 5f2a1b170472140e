package fields

import "github.com/san-kum/biodyn/internal/dynamo"

// Lorenz is the three-gene feedback loop with the classic chaotic attractor.
func Lorenz() *Definition {
	return &Definition{
		ID:       "lorenz",
		Title:    "Gene Regulatory Network (Lorenz System)",
		Vars:     []string{"x", "y", "z"},
		Params:   []string{"sigma", "rho", "beta"},
		Defaults: dynamo.Params{"sigma": 10.0, "rho": 28.0, "beta": 8.0 / 3.0},
		Initial:  dynamo.State{1, 1, 1},
		Law: func(s dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
			x, y, z := s[0], s[1], s[2]
			dx[0] = p["sigma"] * (y - x)
			dx[1] = x*(p["rho"]-z) - y
			dx[2] = x*y - p["beta"]*z
		},
	}
}
