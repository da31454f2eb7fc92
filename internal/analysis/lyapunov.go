package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/physics"
)

// LyapunovExponent estimates the largest Lyapunov exponent by following a
// reference trajectory and a copy whose first body is displaced by
// perturbation along x. After every step the phase-space separation is
// logged and rescaled back to perturbation:
//
//	λ ≈ (1/t) Σ ln(d_k / d0)
//
// The input bodies are not modified.
func LyapunovExponent(
	force physics.ForceModel,
	integ integrators.Integrator,
	bodies []dynamo.Body,
	dt, duration float64,
	perturbation float64,
) (float64, error) {
	if len(bodies) == 0 {
		return 0, fmt.Errorf("%w: no bodies", dynamo.ErrInvalidConfig)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 0, fmt.Errorf("%w: got %g", dynamo.ErrInvalidTimestep, dt)
	}
	if !(perturbation > 0) || !(duration > 0) {
		return 0, fmt.Errorf("%w: perturbation and duration must be positive", dynamo.ErrInvalidConfig)
	}

	ref := clone(bodies)
	pert := clone(bodies)
	pert[0].Position[0] += perturbation

	st := stepper{force: force, integ: integ, acc: make([]dynamo.Vec3, len(bodies))}
	d0 := perturbation
	sumLog := 0.0
	t := 0.0

	var err error
	for t < duration {
		if ref, err = st.step(ref, dt); err != nil {
			return 0, err
		}
		if pert, err = st.step(pert, dt); err != nil {
			return 0, err
		}
		t += dt

		sep := separation(ref, pert)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)
		renormalize(ref, pert, d0/sep)
	}
	return sumLog / t, nil
}

type stepper struct {
	force physics.ForceModel
	integ integrators.Integrator
	acc   []dynamo.Vec3
}

func (s *stepper) step(bodies []dynamo.Body, dt float64) ([]dynamo.Body, error) {
	if _, err := s.force.Accelerations(bodies, s.acc); err != nil {
		return nil, err
	}

	var next []dynamo.Body
	var err error
	if re, ok := s.integ.(integrators.Reevaluating); ok {
		next, err = re.AdvanceWith(bodies, s.acc, dt, func(b []dynamo.Body, out []dynamo.Vec3) error {
			_, err := s.force.Accelerations(b, out)
			return err
		})
	} else {
		next, err = s.integ.Advance(bodies, s.acc, dt)
	}
	if err != nil {
		return nil, err
	}
	for _, b := range next {
		if !b.IsValid() {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrNumericInstability, b.ID)
		}
	}
	return next, nil
}

// separation is the Euclidean distance between two states over every
// position and velocity component.
func separation(a, b []dynamo.Body) float64 {
	sum := 0.0
	for i := range a {
		dp := b[i].Position.Sub(a[i].Position)
		dv := b[i].Velocity.Sub(a[i].Velocity)
		sum += dp.Dot(dp) + dv.Dot(dv)
	}
	return math.Sqrt(sum)
}

// renormalize pulls pert towards ref so their separation is scaled by k.
func renormalize(ref, pert []dynamo.Body, k float64) {
	for i := range pert {
		pert[i].Position = ref[i].Position.Add(pert[i].Position.Sub(ref[i].Position).Mul(k))
		pert[i].Velocity = ref[i].Velocity.Add(pert[i].Velocity.Sub(ref[i].Velocity).Mul(k))
	}
}

func clone(bodies []dynamo.Body) []dynamo.Body {
	out := make([]dynamo.Body, len(bodies))
	copy(out, bodies)
	return out
}
