// Package scenario builds initial conditions: the built-in systems, seeded
// random clusters and CSV files of bodies.
package scenario

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Names lists the built-in scenarios.
func Names() []string {
	return []string{"solar", "binary", "figure-eight", "random", "random-star"}
}

// Build returns the descriptors of a built-in scenario. n and seed are only
// used by the random scenarios.
func Build(name string, n int, seed uint64) ([]dynamo.Descriptor, error) {
	switch name {
	case "solar":
		return Solar(), nil
	case "binary":
		return Binary(), nil
	case "figure-eight":
		return FigureEight(), nil
	case "random":
		return Random(n, seed)
	case "random-star":
		return RandomStar(n, seed)
	default:
		return nil, fmt.Errorf("%w: unknown scenario %q", dynamo.ErrInvalidConfig, name)
	}
}

// Binary is an equal-mass pair on a circular orbit of period 4π (G = 1).
func Binary() []dynamo.Descriptor {
	return []dynamo.Descriptor{
		{Label: "A", Mass: 1, Position: dynamo.Vec3{-1, 0, 0}, Velocity: dynamo.Vec3{0, -0.5, 0}, Radius: 0.08, Color: mustHex("#f4a261")},
		{Label: "B", Mass: 1, Position: dynamo.Vec3{1, 0, 0}, Velocity: dynamo.Vec3{0, 0.5, 0}, Radius: 0.08, Color: mustHex("#2a9d8f")},
	}
}

// FigureEight is the Chenciner-Montgomery three-body choreography (G = 1),
// period about 6.3259.
func FigureEight() []dynamo.Descriptor {
	p := dynamo.Vec3{0.97000436, -0.24308753, 0}
	v3 := dynamo.Vec3{-0.93240737, -0.86473146, 0}
	v := v3.Mul(-0.5)
	return []dynamo.Descriptor{
		{Label: "1", Mass: 1, Position: p, Velocity: v, Radius: 0.05, Color: mustHex("#e63946")},
		{Label: "2", Mass: 1, Position: p.Mul(-1), Velocity: v, Radius: 0.05, Color: mustHex("#a8dadc")},
		{Label: "3", Mass: 1, Position: dynamo.Vec3{}, Velocity: v3, Radius: 0.05, Color: mustHex("#f1fa8c")},
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func checkCount(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: body count must be at least 1, got %d", dynamo.ErrInvalidConfig, n)
	}
	return nil
}

// Random places n bodies uniformly in the cube [-5, 5]³ with small random
// velocities and masses in [0.1, 1).
func Random(n int, seed uint64) ([]dynamo.Descriptor, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	rng := newRand(seed)
	uniform := func(lo, hi float64) float64 { return lo + (hi-lo)*rng.Float64() }

	out := make([]dynamo.Descriptor, n)
	for i := range out {
		mass := uniform(0.1, 1)
		out[i] = dynamo.Descriptor{
			Label:    fmt.Sprintf("r%d", i),
			Mass:     mass,
			Position: dynamo.Vec3{uniform(-5, 5), uniform(-5, 5), uniform(-5, 5)},
			Velocity: dynamo.Vec3{uniform(-0.1, 0.1), uniform(-0.1, 0.1), uniform(-0.1, 0.1)},
			Radius:   dynamo.DefaultRadius(mass),
			Color:    hue(rng.Float64() * 360),
		}
	}
	return out, nil
}

// CentralMass is the mass of the star in RandomStar.
const CentralMass = 1000.0

// RandomStar puts a heavy star at the origin and n-1 light bodies on
// circular orbits around it in a thin disk (G = 1).
func RandomStar(n int, seed uint64) ([]dynamo.Descriptor, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	rng := newRand(seed)

	out := make([]dynamo.Descriptor, 0, n)
	out = append(out, dynamo.Descriptor{
		Label:  "star",
		Mass:   CentralMass,
		Radius: 0.3,
		Color:  mustHex("#ffd166"),
	})

	for i := 1; i < n; i++ {
		r := 1 + 9*math.Sqrt(rng.Float64())
		theta := 2 * math.Pi * rng.Float64()
		mass := 0.01 + 0.09*rng.Float64()

		dir := dynamo.Vec3{math.Cos(theta), math.Sin(theta), 0}
		tangent := dynamo.Vec3{0, 0, 1}.Cross(dir)
		speed := math.Sqrt(CentralMass / r)

		pos := dir.Mul(r)
		pos[2] = 0.05 * (2*rng.Float64() - 1)

		out = append(out, dynamo.Descriptor{
			Label:    fmt.Sprintf("s%d", i),
			Mass:     mass,
			Position: pos,
			Velocity: tangent.Mul(speed),
			Radius:   dynamo.DefaultRadius(mass),
			Color:    hue(200 + 60*r/10),
		})
	}
	return out, nil
}

func hue(h float64) colorful.Color {
	return colorful.Hcl(math.Mod(h, 360), 0.6, 0.8).Clamped()
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
