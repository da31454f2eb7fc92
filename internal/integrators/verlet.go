package integrators

import (
	"fmt"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Leapfrog is the kick-drift-kick scheme. It is second order, symplectic
// and time reversible, at the cost of one extra force evaluation per step.
type Leapfrog struct {
	scratch []dynamo.Vec3
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Advance(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64) ([]dynamo.Body, error) {
	return l.AdvanceWith(bodies, acc, dt, nil)
}

func (l *Leapfrog) AdvanceWith(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64, eval dynamo.AccelFunc) ([]dynamo.Body, error) {
	if err := checkStep(bodies, acc, dt); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("integrators: %s needs an acceleration evaluator", l.Name())
	}

	n := len(bodies)
	if len(l.scratch) != n {
		l.scratch = make([]dynamo.Vec3, n)
	}

	halfDt := 0.5 * dt
	result := clone(bodies)

	for i := range result {
		result[i].Velocity = result[i].Velocity.Add(acc[i].Mul(halfDt))
		result[i].Position = result[i].Position.Add(result[i].Velocity.Mul(dt))
	}

	if err := eval(result, l.scratch); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Velocity = result[i].Velocity.Add(l.scratch[i].Mul(halfDt))
	}

	return result, nil
}
