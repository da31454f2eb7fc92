package integrators

import (
	"fmt"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta method applied to
// (position, velocity). Not symplectic: energy drifts slowly over long runs.
type RK4 struct {
	k2v, k3v, k4v []dynamo.Vec3
	stage         []dynamo.Body
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k2v) != n {
		r.k2v = make([]dynamo.Vec3, n)
		r.k3v = make([]dynamo.Vec3, n)
		r.k4v = make([]dynamo.Vec3, n)
		r.stage = make([]dynamo.Body, n)
	}
}

func (r *RK4) Advance(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64) ([]dynamo.Body, error) {
	return r.AdvanceWith(bodies, acc, dt, nil)
}

func (r *RK4) AdvanceWith(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64, eval dynamo.AccelFunc) ([]dynamo.Body, error) {
	if err := checkStep(bodies, acc, dt); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("integrators: %s needs an acceleration evaluator", r.Name())
	}

	n := len(bodies)
	r.ensureScratch(n)
	copy(r.stage, bodies)
	halfDt := 0.5 * dt

	// k1 = (v, acc); stage 2 at p + v*dt/2
	for i := 0; i < n; i++ {
		r.stage[i].Position = bodies[i].Position.Add(bodies[i].Velocity.Mul(halfDt))
	}
	if err := eval(r.stage, r.k2v); err != nil {
		return nil, err
	}

	// k2p = v + k1v*dt/2; stage 3 at p + k2p*dt/2
	for i := 0; i < n; i++ {
		k2p := bodies[i].Velocity.Add(acc[i].Mul(halfDt))
		r.stage[i].Position = bodies[i].Position.Add(k2p.Mul(halfDt))
	}
	if err := eval(r.stage, r.k3v); err != nil {
		return nil, err
	}

	// k3p = v + k2v*dt/2; stage 4 at p + k3p*dt
	for i := 0; i < n; i++ {
		k3p := bodies[i].Velocity.Add(r.k2v[i].Mul(halfDt))
		r.stage[i].Position = bodies[i].Position.Add(k3p.Mul(dt))
	}
	if err := eval(r.stage, r.k4v); err != nil {
		return nil, err
	}

	result := clone(bodies)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		v := bodies[i].Velocity
		k1p := v
		k2p := v.Add(acc[i].Mul(halfDt))
		k3p := v.Add(r.k2v[i].Mul(halfDt))
		k4p := v.Add(r.k3v[i].Mul(dt))

		dp := k1p.Add(k2p.Mul(2)).Add(k3p.Mul(2)).Add(k4p)
		dv := acc[i].Add(r.k2v[i].Mul(2)).Add(r.k3v[i].Mul(2)).Add(r.k4v[i])

		result[i].Position = bodies[i].Position.Add(dp.Mul(dt6))
		result[i].Velocity = v.Add(dv.Mul(dt6))
	}

	return result, nil
}
