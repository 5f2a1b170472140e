package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Params maps parameter names to values for one integration.
type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Missing returns the names not present in p, in the order given.
func (p Params) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := p[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Field is a vector field: dx/dt = f(x, t; p).
// Implementations must be pure and safe for concurrent use.
type Field interface {
	Name() string
	Dim() int
	ParamNames() []string
	Derive(x State, t float64, p Params) State
}

// Labeled is implemented by fields that name their state components.
type Labeled interface {
	VarNames() []string
}

// StepObserver is notified of every step the integrator attempts.
type StepObserver interface {
	OnStep(t, h float64, accepted bool)
}

type Stats struct {
	Accepted    int     `json:"accepted"`
	Rejected    int     `json:"rejected"`
	Evaluations int     `json:"evaluations"`
	LastStep    float64 `json:"last_step"`
}

type Trajectory struct {
	Field  string
	Vars   []string
	Times  []float64
	States []State
	Stats  Stats
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Append(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x)
}

// Final returns the last recorded state, or nil for an empty trajectory.
func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Column extracts the time series of state component i.
func (tr *Trajectory) Column(i int) []float64 {
	col := make([]float64, len(tr.States))
	for j, s := range tr.States {
		if i < len(s) {
			col[j] = s[i]
		}
	}
	return col
}

// VarName returns the display name of component i, falling back to xN.
func (tr *Trajectory) VarName(i int) string {
	if i < len(tr.Vars) && tr.Vars[i] != "" {
		return tr.Vars[i]
	}
	return fmt.Sprintf("x%d", i)
}

// Linspace returns n evenly spaced samples over [start, end], both included.
func Linspace(start, end float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least one sample, got %d", ErrInvalidGrid, n)
	}
	if n == 1 {
		return []float64{start}, nil
	}
	if !(end > start) {
		return nil, fmt.Errorf("%w: end %g must exceed start %g", ErrInvalidGrid, end, start)
	}
	grid := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range grid {
		grid[i] = start + float64(i)*step
	}
	grid[n-1] = end
	return grid, ValidateGrid(grid)
}

// ValidateGrid reports whether grid is a non-empty, finite, strictly
// increasing sequence of sample times.
func ValidateGrid(grid []float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidGrid)
	}
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: sample %d is not finite", ErrInvalidGrid, i)
		}
		if i > 0 && !(t > grid[i-1]) {
			return fmt.Errorf("%w: sample %d (t=%g) does not follow %g", ErrInvalidGrid, i, t, grid[i-1])
		}
	}
	return nil
}
