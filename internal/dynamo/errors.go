package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrInvalidMass indicates a body with a non-positive or non-finite mass.
	ErrInvalidMass = errors.New("dynamo: body mass must be positive and finite")

	// ErrInvalidTimestep indicates a step requested with dt <= 0, NaN or Inf.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive and finite")

	// ErrNotFound indicates a lookup of an unknown body id.
	ErrNotFound = errors.New("dynamo: body not found")

	// ErrCapacity indicates the registry body limit was reached.
	ErrCapacity = errors.New("dynamo: body capacity exceeded")

	// ErrNumericInstability indicates a position or velocity became NaN or Inf.
	ErrNumericInstability = errors.New("dynamo: simulation unstable (NaN or Inf detected)")

	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrFrozen indicates an attempt to add a body after the run started.
	ErrFrozen = errors.New("dynamo: registry is frozen")

	// ErrClosed indicates the simulation was shut down.
	ErrClosed = errors.New("dynamo: simulation closed")
)

// StepError wraps a recovered per-step failure with clock context.
type StepError struct {
	Step    int
	Time    float64
	Dt      float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, dt=%g): %v", e.Step, e.Time, e.Dt, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
