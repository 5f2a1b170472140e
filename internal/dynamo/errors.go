package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for registry and integration operations.
var (
	// ErrUnknownField indicates a lookup of a name that was never registered.
	ErrUnknownField = errors.New("dynamo: unknown vector field")

	// ErrDuplicateField indicates a second registration under the same name.
	ErrDuplicateField = errors.New("dynamo: vector field already registered")

	// ErrMissingParameter indicates a parameter set lacking a required name.
	ErrMissingParameter = errors.New("dynamo: missing parameter")

	// ErrNonFiniteState indicates a NaN or Inf in a derivative or accepted state.
	ErrNonFiniteState = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrStepSizeUnderflow indicates the adaptive step collapsed below its minimum.
	ErrStepSizeUnderflow = errors.New("dynamo: adaptive timestep below minimum")

	// ErrTooManySteps indicates the step budget of one integration ran out.
	ErrTooManySteps = errors.New("dynamo: step limit exceeded")

	// ErrInvalidGrid indicates an empty, non-finite or non-increasing time grid.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrDimensionMismatch indicates mismatched state/field dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and field")

	// ErrInvalidOptions indicates unusable solver options.
	ErrInvalidOptions = errors.New("dynamo: invalid solver options")
)

type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownField, e.Name)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

type DuplicateFieldError struct {
	Name string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateField, e.Name)
}

func (e *DuplicateFieldError) Unwrap() error { return ErrDuplicateField }

type MissingParameterError struct {
	Field string
	Names []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s: field %q requires %s", ErrMissingParameter, e.Field, strings.Join(e.Names, ", "))
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

// NonFiniteStateError reports where integration blew up. Time and Step are
// the start time and size of the step being attempted.
type NonFiniteStateError struct {
	Time float64
	Step float64
}

func (e *NonFiniteStateError) Error() string {
	return fmt.Sprintf("%s at t=%.6g (h=%.3g)", ErrNonFiniteState, e.Time, e.Step)
}

func (e *NonFiniteStateError) Unwrap() error { return ErrNonFiniteState }

type StepSizeUnderflowError struct {
	Time float64
	Step float64
}

func (e *StepSizeUnderflowError) Error() string {
	return fmt.Sprintf("%s at t=%.6g (h=%.3g)", ErrStepSizeUnderflow, e.Time, e.Step)
}

func (e *StepSizeUnderflowError) Unwrap() error { return ErrStepSizeUnderflow }
