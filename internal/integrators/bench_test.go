package integrators

import (
	"math/rand/v2"
	"testing"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

func cluster(n int) []dynamo.Body {
	rng := rand.New(rand.NewPCG(42, 42))
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		bodies[i] = dynamo.Body{
			ID:       dynamo.BodyID(i),
			Mass:     1,
			Position: dynamo.Vec3{rng.Float64(), rng.Float64(), rng.Float64()},
		}
	}
	return bodies
}

func benchIntegrator(b *testing.B, integ Integrator, n int) {
	bodies := cluster(n)
	b.ResetTimer()
	advance(b, integ, bodies, 0.001, b.N)
}

func BenchmarkSymplectic_NBody5(b *testing.B) { benchIntegrator(b, NewSymplecticEuler(), 5) }
func BenchmarkLeapfrog_NBody5(b *testing.B)   { benchIntegrator(b, NewLeapfrog(), 5) }
func BenchmarkRK4_NBody5(b *testing.B)        { benchIntegrator(b, NewRK4(), 5) }
func BenchmarkLeapfrog_NBody100(b *testing.B) { benchIntegrator(b, NewLeapfrog(), 100) }
