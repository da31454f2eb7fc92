// Package integrators advances body state by one time step.
//
// All integrators are deterministic and never mutate their inputs: the
// acceleration map for a stage is fully computed before any position of that
// stage is produced. Instances may hold scratch buffers and are not safe for
// concurrent use.
package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

type Integrator interface {
	Name() string
	Advance(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64) ([]dynamo.Body, error)
}

// Reevaluating is implemented by integrators that need accelerations at
// intermediate states. acc holds the accelerations of the initial state.
type Reevaluating interface {
	Integrator
	AdvanceWith(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64, eval dynamo.AccelFunc) ([]dynamo.Body, error)
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	switch name {
	case "", "symplectic", "euler", "semi-implicit":
		return NewSymplecticEuler(), nil
	case "leapfrog", "verlet":
		return NewLeapfrog(), nil
	case "rk4":
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrInvalidConfig, name)
	}
}

// Names lists the canonical integrator names.
func Names() []string {
	return []string{"symplectic", "leapfrog", "rk4"}
}

func checkStep(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: got %g", dynamo.ErrInvalidTimestep, dt)
	}
	if len(acc) != len(bodies) {
		return fmt.Errorf("integrators: %d accelerations for %d bodies", len(acc), len(bodies))
	}
	return nil
}

func clone(bodies []dynamo.Body) []dynamo.Body {
	out := make([]dynamo.Body, len(bodies))
	copy(out, bodies)
	return out
}
