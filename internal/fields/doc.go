// Package fields is the registry of named vector fields.
//
// Each [Definition] implements [dynamo.Field] and carries the metadata the
// CLI and plotting need: variable names, required parameters, the defaults
// and initial state of the reference scripts.
//
//   - [Harmonic], [Damped], [VanDerPol]: oscillators
//   - [Lorenz]: chaotic three-gene feedback
//   - [LotkaVolterra], [Logistic]: population ecology
//   - [SIR], [SEIR]: epidemic compartment models
//
// Custom fields are added with [Registry.Register]:
//
//	err := fields.Default().Register(&fields.Definition{
//	    ID:     "decay",
//	    Vars:   []string{"x"},
//	    Params: []string{"lambda"},
//	    Law: func(x dynamo.State, _ float64, p dynamo.Params, dx dynamo.State) {
//	        dx[0] = -p["lambda"] * x[0]
//	    },
//	})
package fields
