package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}
}

func TestState_Clone(t *testing.T) {
	src := State{1, 2, 3}
	c := src.Clone()
	c[0] = 99
	if src[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestParams_Missing(t *testing.T) {
	p := Params{"beta": 0.3, "N": 1000}

	missing := p.Missing([]string{"N", "beta", "sigma", "gamma"})
	if len(missing) != 2 || missing[0] != "sigma" || missing[1] != "gamma" {
		t.Errorf("expected [sigma gamma], got %v", missing)
	}

	if got := p.Missing([]string{"N"}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestLinspace(t *testing.T) {
	grid, err := Linspace(0, 20, 1000)
	if err != nil {
		t.Fatalf("linspace failed: %v", err)
	}
	if len(grid) != 1000 {
		t.Fatalf("expected 1000 samples, got %d", len(grid))
	}
	if grid[0] != 0 || grid[999] != 20 {
		t.Errorf("expected endpoints 0 and 20, got %g and %g", grid[0], grid[999])
	}

	single, err := Linspace(3, 3, 1)
	if err != nil || len(single) != 1 || single[0] != 3 {
		t.Errorf("expected [3], got %v (%v)", single, err)
	}
}

func TestLinspace_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		n          int
	}{
		{"zero samples", 0, 1, 0},
		{"reversed", 1, 0, 10},
		{"empty span", 1, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Linspace(tt.start, tt.end, tt.n); !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestValidateGrid(t *testing.T) {
	tests := []struct {
		name  string
		grid  []float64
		valid bool
	}{
		{"single", []float64{0}, true},
		{"increasing", []float64{0, 0.5, 2}, true},
		{"empty", nil, false},
		{"duplicate", []float64{0, 1, 1}, false},
		{"decreasing", []float64{0, 2, 1}, false},
		{"nan", []float64{0, math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGrid(tt.grid)
			if tt.valid && err != nil {
				t.Errorf("expected valid grid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestTrajectory_Accessors(t *testing.T) {
	tr := &Trajectory{Vars: []string{"S", "I"}}
	if tr.Final() != nil {
		t.Error("expected nil final state for empty trajectory")
	}

	tr.Append(0, State{10, 1})
	tr.Append(1, State{9, 2})

	if tr.Len() != 2 {
		t.Errorf("expected length 2, got %d", tr.Len())
	}
	if col := tr.Column(1); col[0] != 1 || col[1] != 2 {
		t.Errorf("Column(1) = %v", col)
	}
	if tr.VarName(0) != "S" || tr.VarName(5) != "x5" {
		t.Errorf("unexpected var names %q %q", tr.VarName(0), tr.VarName(5))
	}
}

func TestTypedErrors(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		message  string
	}{
		{&UnknownFieldError{Name: "foo"}, ErrUnknownField, `dynamo: unknown vector field: "foo"`},
		{&DuplicateFieldError{Name: "sir"}, ErrDuplicateField, `dynamo: vector field already registered: "sir"`},
		{&MissingParameterError{Field: "sir", Names: []string{"beta", "gamma"}}, ErrMissingParameter, `dynamo: missing parameter: field "sir" requires beta, gamma`},
		{&NonFiniteStateError{Time: 1.5, Step: 0.25}, ErrNonFiniteState, "dynamo: non-finite state (NaN or Inf detected) at t=1.5 (h=0.25)"},
		{&StepSizeUnderflowError{Time: 2, Step: 1e-15}, ErrStepSizeUnderflow, "dynamo: adaptive timestep below minimum at t=2 (h=1e-15)"},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("%T does not match its sentinel", tt.err)
		}
		if tt.err.Error() != tt.message {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.message)
		}
	}
}
