package scenario

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

const (
	// SolarG is the Gaussian gravitational constant squared, in
	// AU³ / (solar mass · day²).
	SolarG = 2.959122082855911e-4
	// SolarSoftening is about 150 km, far below any planetary separation.
	SolarSoftening = 1e-6

	kmPerAU = 1.495978707e8
)

type planet struct {
	name string
	mass float64 // solar masses
	a    float64 // km
	incl float64 // degrees
	node float64 // longitude of ascending node, degrees
	peri float64 // longitude of perihelion, degrees
	mean float64 // mean anomaly, degrees
	rad  float64
	hex  string
}

var planets = []planet{
	{"Mercury", 1.6601e-7, 57.91e6, 7.005, 48.331, 77.456, 174.795, 0.02, "#9e9e9e"},
	{"Venus", 2.4478e-6, 108.21e6, 3.39458, 76.68, 131.533, 50.115, 0.03, "#e9c46a"},
	{"Earth", 3.0035e-6, 149.6e6, 0.00005, -11.26064, 102.94719, 357.51716, 0.03, "#4895ef"},
	{"Mars", 3.2272e-7, 227.92e6, 1.85, 49.558, 336.04, 19.412, 0.025, "#e76f51"},
	{"Jupiter", 9.5479e-4, 778.57e6, 1.303, 100.464, 14.75, 340.87, 0.08, "#d4a373"},
	{"Saturn", 2.8589e-4, 1433.53e6, 2.485, 113.665, 92.43194, 14.72, 0.07, "#f6bd60"},
	{"Uranus", 4.3662e-5, 2872.46e6, 0.773, 74.006, 170.964, 244.197, 0.05, "#90e0ef"},
	{"Neptune", 5.1514e-5, 4495.06e6, 1.767975, 131.784, 44.971, 84.457, 0.05, "#4361ee"},
}

// Solar is the Sun and the eight planets on inclined circular orbits, in
// AU / day / solar-mass units. Run it with G = SolarG. The Sun is offset so
// the center of mass rests at the origin with zero total momentum.
func Solar() []dynamo.Descriptor {
	out := make([]dynamo.Descriptor, 1, len(planets)+1)

	var moment, momentum dynamo.Vec3
	for _, p := range planets {
		a := p.a / kmPerAU
		u := mgl64.DegToRad(p.peri + p.mean - p.node)
		rot := mgl64.Rotate3DZ(mgl64.DegToRad(p.node)).Mul3(mgl64.Rotate3DX(mgl64.DegToRad(p.incl)))

		speed := math.Sqrt(SolarG * (1 + p.mass) / a)
		pos := rot.Mul3x1(dynamo.Vec3{a * math.Cos(u), a * math.Sin(u), 0})
		vel := rot.Mul3x1(dynamo.Vec3{-speed * math.Sin(u), speed * math.Cos(u), 0})

		moment = moment.Add(pos.Mul(p.mass))
		momentum = momentum.Add(vel.Mul(p.mass))
		out = append(out, dynamo.Descriptor{
			Label:    p.name,
			Mass:     p.mass,
			Position: pos,
			Velocity: vel,
			Radius:   p.rad,
			Color:    mustHex(p.hex),
		})
	}

	out[0] = dynamo.Descriptor{
		Label:    "Sun",
		Mass:     1,
		Position: moment.Mul(-1),
		Velocity: momentum.Mul(-1),
		Radius:   0.15,
		Color:    mustHex("#ffb703"),
	}
	return out
}
