package sim

import (
	"log/slog"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Observer is notified after every committed step. bodies is a copy owned
// by the callee for the duration of the call.
type Observer interface {
	OnStep(bodies []dynamo.Body, step int, t float64)
}

type ObserverFunc func(bodies []dynamo.Body, step int, t float64)

func (f ObserverFunc) OnStep(bodies []dynamo.Body, step int, t float64) { f(bodies, step, t) }

// BodyView is the render-facing projection of a body.
type BodyView struct {
	ID       dynamo.BodyID
	Label    string
	Position dynamo.Vec3
	Radius   float64
	Color    colorful.Color
}

// Frame is a consistent snapshot of everything a renderer needs.
type Frame struct {
	Time          float64
	Step          int
	Paused        bool
	Speed         float64
	Scale         float64
	TrailsEnabled bool
	ShortOrbits   bool
	Bodies        []BodyView
}

type Option func(*Simulation)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithForceModel replaces the force model derived from the config.
func WithForceModel(m physics.ForceModel) Option {
	return func(s *Simulation) { s.force = m }
}

// WithIntegrator replaces the integrator named in the config.
func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulation) { s.integ = i }
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}
