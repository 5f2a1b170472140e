package integrators

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/biodyn/internal/dynamo"
)

const (
	MethodDopri5 = "dopri5"
	MethodBS23   = "bs23"
)

// DefaultTolerance matches the relative and absolute defaults of the
// LSODA-based reference solver.
const DefaultTolerance = 1.49012e-8

// Options configures one Solver. Zero values select the defaults.
type Options struct {
	Method string

	// RelTol and AbsTol scale the local error test. A zero tolerance is
	// read as unset and selects DefaultTolerance; a pure relative or pure
	// absolute test is not available.
	RelTol float64
	AbsTol float64

	// InitialStep skips the automatic first-step estimate when positive.
	InitialStep float64
	// MinStep is a floor below which the step is considered collapsed.
	// The floor is never smaller than ten ulps of the current time.
	MinStep float64
	// MaxStep caps every step when positive.
	MaxStep float64
	// MaxSteps bounds attempted steps (accepted and rejected) per call.
	MaxSteps int

	Safety   float64
	MinScale float64
	MaxScale float64

	// LandOnOutputs clips every step to the next requested output time so
	// no output is interpolated.
	LandOnOutputs bool

	Observer dynamo.StepObserver
	Logger   *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Method:   MethodDopri5,
		RelTol:   DefaultTolerance,
		AbsTol:   DefaultTolerance,
		MaxSteps: 500000,
		Safety:   0.9,
		MinScale: 0.2,
		MaxScale: 10.0,
	}
}

// Methods lists the available stepping schemes.
func Methods() []string {
	return []string{MethodDopri5, MethodBS23}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Method == "" {
		o.Method = d.Method
	}
	if o.RelTol == 0 {
		o.RelTol = d.RelTol
	}
	if o.AbsTol == 0 {
		o.AbsTol = d.AbsTol
	}
	if o.MaxSteps == 0 {
		o.MaxSteps = d.MaxSteps
	}
	if o.Safety == 0 {
		o.Safety = d.Safety
	}
	if o.MinScale == 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale == 0 {
		o.MaxScale = d.MaxScale
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

func (o Options) tableau() (*Tableau, error) {
	switch o.Method {
	case MethodDopri5:
		return Dopri5(), nil
	case MethodBS23:
		return BS23(), nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", dynamo.ErrInvalidOptions, o.Method)
	}
}

func (o Options) validate() error {
	switch {
	case o.RelTol < 0:
		return fmt.Errorf("%w: relative tolerance must be non-negative, got %g", dynamo.ErrInvalidOptions, o.RelTol)
	case o.AbsTol < 0:
		return fmt.Errorf("%w: absolute tolerance must be non-negative, got %g", dynamo.ErrInvalidOptions, o.AbsTol)
	case o.InitialStep < 0, o.MinStep < 0, o.MaxStep < 0:
		return fmt.Errorf("%w: step bounds must be non-negative", dynamo.ErrInvalidOptions)
	case o.MaxStep > 0 && o.MinStep > o.MaxStep:
		return fmt.Errorf("%w: min step %g exceeds max step %g", dynamo.ErrInvalidOptions, o.MinStep, o.MaxStep)
	case o.MaxSteps < 0:
		return fmt.Errorf("%w: max steps must be non-negative, got %d", dynamo.ErrInvalidOptions, o.MaxSteps)
	case o.Safety <= 0 || o.Safety > 1:
		return fmt.Errorf("%w: safety factor must be in (0, 1], got %g", dynamo.ErrInvalidOptions, o.Safety)
	case o.MinScale <= 0 || o.MinScale >= 1:
		return fmt.Errorf("%w: min scale must be in (0, 1), got %g", dynamo.ErrInvalidOptions, o.MinScale)
	case o.MaxScale <= 1:
		return fmt.Errorf("%w: max scale must exceed 1, got %g", dynamo.ErrInvalidOptions, o.MaxScale)
	}
	_, err := o.tableau()
	return err
}
