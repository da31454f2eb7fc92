// Package bodies owns the set of simulated bodies and their physical state.
package bodies

import (
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Registry is an insertion-ordered body store. It is populated once, frozen
// when the run starts, and then only mutated in place through Update.
// Registry is not safe for concurrent use; the simulation serializes access.
type Registry struct {
	bodies    []dynamo.Body
	maxBodies int
	frozen    bool
}

func NewRegistry(maxBodies int) *Registry {
	return &Registry{
		bodies:    make([]dynamo.Body, 0),
		maxBodies: maxBodies,
	}
}

// Create adds a body and returns its id. A missing or invalid radius is
// replaced by dynamo.DefaultRadius.
func (r *Registry) Create(d dynamo.Descriptor) (dynamo.BodyID, error) {
	if r.frozen {
		return 0, dynamo.ErrFrozen
	}
	if !(d.Mass > 0) || math.IsInf(d.Mass, 0) {
		return 0, fmt.Errorf("%w: %q has mass %g", dynamo.ErrInvalidMass, d.Label, d.Mass)
	}
	if !dynamo.Finite(d.Position) || !dynamo.Finite(d.Velocity) {
		return 0, fmt.Errorf("%w: %q has non-finite initial state", dynamo.ErrNumericInstability, d.Label)
	}
	if len(r.bodies) >= r.maxBodies {
		return 0, fmt.Errorf("%w: limit is %d", dynamo.ErrCapacity, r.maxBodies)
	}

	radius := d.Radius
	if !(radius > 0) || math.IsInf(radius, 0) {
		radius = dynamo.DefaultRadius(d.Mass)
	}

	id := dynamo.BodyID(len(r.bodies))
	r.bodies = append(r.bodies, dynamo.Body{
		ID:       id,
		Label:    d.Label,
		Mass:     d.Mass,
		Position: d.Position,
		Velocity: d.Velocity,
		Radius:   radius,
		Color:    d.Color,
	})
	return id, nil
}

// Freeze fixes the body count for the rest of the run.
func (r *Registry) Freeze() { r.frozen = true }

func (r *Registry) Frozen() bool { return r.frozen }

func (r *Registry) Len() int { return len(r.bodies) }

func (r *Registry) Get(id dynamo.BodyID) (dynamo.Body, error) {
	if !r.has(id) {
		return dynamo.Body{}, fmt.Errorf("%w: %v", dynamo.ErrNotFound, id)
	}
	return r.bodies[id], nil
}

// Update overwrites the kinematic state of a body.
func (r *Registry) Update(id dynamo.BodyID, pos, vel dynamo.Vec3) error {
	if !r.has(id) {
		return fmt.Errorf("%w: %v", dynamo.ErrNotFound, id)
	}
	r.bodies[id].Position = pos
	r.bodies[id].Velocity = vel
	return nil
}

// All iterates over bodies in insertion order. Yielded bodies are copies.
func (r *Registry) All() iter.Seq2[dynamo.BodyID, dynamo.Body] {
	return func(yield func(dynamo.BodyID, dynamo.Body) bool) {
		for _, b := range r.bodies {
			if !yield(b.ID, b) {
				return
			}
		}
	}
}

// Bodies returns a copy of all bodies in insertion order.
func (r *Registry) Bodies() []dynamo.Body {
	out := make([]dynamo.Body, len(r.bodies))
	copy(out, r.bodies)
	return out
}

func (r *Registry) has(id dynamo.BodyID) bool {
	return id >= 0 && int(id) < len(r.bodies)
}
