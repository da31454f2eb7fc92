package physics

import "github.com/san-kum/nbodysim/internal/dynamo"

func Momentum(bodies []dynamo.Body) dynamo.Vec3 {
	var p dynamo.Vec3
	for _, b := range bodies {
		p = p.Add(b.Velocity.Mul(b.Mass))
	}
	return p
}

func AngularMomentum(bodies []dynamo.Body) dynamo.Vec3 {
	var l dynamo.Vec3
	for _, b := range bodies {
		l = l.Add(b.Position.Cross(b.Velocity.Mul(b.Mass)))
	}
	return l
}

// CenterOfMass returns the mass-weighted mean position and the total mass.
func CenterOfMass(bodies []dynamo.Body) (dynamo.Vec3, float64) {
	var c dynamo.Vec3
	total := 0.0
	for _, b := range bodies {
		c = c.Add(b.Position.Mul(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return dynamo.Vec3{}, 0
	}
	return c.Mul(1 / total), total
}
