package integrators

import "github.com/san-kum/nbodysim/internal/dynamo"

// SymplecticEuler is the semi-implicit Euler method: velocity first, then
// position from the updated velocity.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Name() string { return "symplectic" }

func (e *SymplecticEuler) Advance(bodies []dynamo.Body, acc []dynamo.Vec3, dt float64) ([]dynamo.Body, error) {
	if err := checkStep(bodies, acc, dt); err != nil {
		return nil, err
	}

	result := clone(bodies)
	for i := range result {
		v := result[i].Velocity.Add(acc[i].Mul(dt))
		result[i].Velocity = v
		result[i].Position = result[i].Position.Add(v.Mul(dt))
	}
	return result, nil
}
