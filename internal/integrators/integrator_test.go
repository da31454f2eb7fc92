package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// twoBody is an equal-mass circular binary with G = 1 and separation 2.
// Relative speed sqrt(G(m1+m2)/d) = 1, period 2π sqrt(d³/(G M)) = 4π.
func twoBody() []dynamo.Body {
	return []dynamo.Body{
		{ID: 0, Mass: 1, Position: dynamo.Vec3{-1, 0, 0}, Velocity: dynamo.Vec3{0, 0.5, 0}},
		{ID: 1, Mass: 1, Position: dynamo.Vec3{1, 0, 0}, Velocity: dynamo.Vec3{0, -0.5, 0}},
	}
}

const twoBodyPeriod = 4 * math.Pi

func newModel() *physics.Direct {
	cfg := dynamo.DefaultConfig()
	cfg.ParallelThreshold = 0
	return physics.NewDirect(cfg)
}

func evaluator(m physics.ForceModel) dynamo.AccelFunc {
	return func(bodies []dynamo.Body, out []dynamo.Vec3) error {
		_, err := m.Accelerations(bodies, out)
		return err
	}
}

func advance(t testing.TB, integ Integrator, bodies []dynamo.Body, dt float64, steps int) []dynamo.Body {
	t.Helper()
	eval := evaluator(newModel())
	acc := make([]dynamo.Vec3, len(bodies))

	for i := 0; i < steps; i++ {
		if err := eval(bodies, acc); err != nil {
			t.Fatal(err)
		}
		var err error
		if re, ok := integ.(Reevaluating); ok {
			bodies, err = re.AdvanceWith(bodies, acc, dt, eval)
		} else {
			bodies, err = integ.Advance(bodies, acc, dt)
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return bodies
}

func TestSymplecticEuler_UpdateOrder(t *testing.T) {
	integ := NewSymplecticEuler()
	bodies := []dynamo.Body{{Mass: 1, Position: dynamo.Vec3{1, 0, 0}, Velocity: dynamo.Vec3{0, 1, 0}}}
	acc := []dynamo.Vec3{{-2, 0, 0}}

	out, err := integ.Advance(bodies, acc, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	// v' = (0,1,0) + (-2,0,0)*0.1 = (-0.2,1,0); p' = (1,0,0) + v'*0.1
	wantV := dynamo.Vec3{-0.2, 1, 0}
	wantP := dynamo.Vec3{0.98, 0.1, 0}
	if !out[0].Velocity.ApproxEqualThreshold(wantV, 1e-12) {
		t.Errorf("velocity = %v, want %v", out[0].Velocity, wantV)
	}
	if !out[0].Position.ApproxEqualThreshold(wantP, 1e-12) {
		t.Errorf("position = %v, want %v (explicit Euler would give (1,0.1,0))", out[0].Position, wantP)
	}
}

func TestInvalidTimestep(t *testing.T) {
	eval := evaluator(newModel())
	for _, name := range Names() {
		integ, err := New(name)
		if err != nil {
			t.Fatal(err)
		}
		for _, dt := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
			bodies := twoBody()
			acc := make([]dynamo.Vec3, 2)
			eval(bodies, acc)

			var err error
			if re, ok := integ.(Reevaluating); ok {
				_, err = re.AdvanceWith(bodies, acc, dt, eval)
			} else {
				_, err = integ.Advance(bodies, acc, dt)
			}
			if !errors.Is(err, dynamo.ErrInvalidTimestep) {
				t.Errorf("%s dt=%g: expected ErrInvalidTimestep, got %v", name, dt, err)
			}
		}
	}
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	for _, name := range Names() {
		integ, _ := New(name)
		bodies := twoBody()
		before := twoBody()
		advance(t, integ, bodies, 0.01, 1)

		for i := range bodies {
			if bodies[i] != before[i] {
				t.Errorf("%s mutated body %d", name, i)
			}
		}
	}
}

func TestReevaluating_NeedsEvaluator(t *testing.T) {
	for _, integ := range []Integrator{NewLeapfrog(), NewRK4()} {
		_, err := integ.Advance(twoBody(), make([]dynamo.Vec3, 2), 0.01)
		if err == nil {
			t.Errorf("%s: expected error without evaluator", integ.Name())
		}
	}
}

func TestOrbitClosure(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		tol   float64
	}{
		{"symplectic", 12566, 0.05},
		{"leapfrog", 2000, 1e-3},
		{"rk4", 2000, 1e-4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := New(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			start := twoBody()
			dt := twoBodyPeriod / float64(tt.steps)
			end := advance(t, integ, twoBody(), dt, tt.steps)

			for i := range end {
				d := end[i].Position.Sub(start[i].Position).Len()
				if d > tt.tol {
					t.Errorf("body %d ended %.2e from start (tol %.0e)", i, d, tt.tol)
				}
			}
		})
	}
}

func TestMirrorSymmetry(t *testing.T) {
	for _, name := range Names() {
		integ, _ := New(name)
		end := advance(t, integ, twoBody(), 0.01, 1)

		if end[0].Position != end[1].Position.Mul(-1) {
			t.Errorf("%s: positions not mirrored: %v vs %v", name, end[0].Position, end[1].Position)
		}
		if end[0].Velocity != end[1].Velocity.Mul(-1) {
			t.Errorf("%s: velocities not mirrored: %v vs %v", name, end[0].Velocity, end[1].Velocity)
		}
	}
}

func TestEnergyDrift(t *testing.T) {
	model := newModel()
	initial := model.Energy(twoBody())

	for _, tt := range []struct {
		name string
		tol  float64
	}{
		{"leapfrog", 1e-3},
		{"rk4", 1e-4},
	} {
		integ, _ := New(tt.name)
		end := advance(t, integ, twoBody(), twoBodyPeriod/500, 5000)
		drift := math.Abs(model.Energy(end)-initial) / math.Abs(initial)
		if drift > tt.tol {
			t.Errorf("%s energy drift too high: %e", tt.name, drift)
		}
	}
}

func TestNew(t *testing.T) {
	for name, want := range map[string]string{
		"":              "symplectic",
		"euler":         "symplectic",
		"semi-implicit": "symplectic",
		"verlet":        "leapfrog",
		"rk4":           "rk4",
	} {
		integ, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if integ.Name() != want {
			t.Errorf("New(%q).Name() = %q, want %q", name, integ.Name(), want)
		}
	}
	if _, err := New("rk45"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
