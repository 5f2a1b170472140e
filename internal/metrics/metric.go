package metrics

import (
	"github.com/san-kum/biodyn/internal/dynamo"
)

// Metric accumulates a scalar over the samples of a trajectory.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Evaluate feeds every sample of tr through ms and returns the values by
// name. Each metric is reset first.
func Evaluate(tr *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, x := range tr.States {
			m.Observe(x, tr.Times[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}
