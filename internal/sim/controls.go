package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

func (s *Simulation) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// TogglePause flips between running and paused and returns the new state.
func (s *Simulation) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

func (s *Simulation) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// AdjustSpeed adds delta to the speed multiplier, clamped to
// [MinSpeed, MaxSpeed], and returns the new value.
func (s *Simulation) AdjustSpeed(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = clamp(s.speed+delta, s.speed, s.cfg.MinSpeed, s.cfg.MaxSpeed)
	return s.speed
}

// AdjustScale changes the render scale only; physics units are untouched.
func (s *Simulation) AdjustScale(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = clamp(s.scale+delta, s.scale, s.cfg.MinScale, s.cfg.MaxScale)
	return s.scale
}

// SetTimeStep replaces the base dt. The value is checked by the next Step,
// which skips itself and records a diagnostic if it is unusable.
func (s *Simulation) SetTimeStep(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseDt = dt
}

// SetTrailEnabled turns trail recording on or off. Trails are emptied on
// every transition so re-enabling never shows a stale, disjoint segment.
func (s *Simulation) SetTrailEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled == s.trailsEnabled {
		return
	}
	s.trails.ClearAll()
	s.trailsEnabled = enabled
	s.recordTrails()
}

// SetTrailLength sets the long-trail capacity, truncating immediately.
func (s *Simulation) SetTrailLength(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: trail length must be at least 1, got %d", dynamo.ErrInvalidConfig, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trailLength = n
	return s.trails.SetMaxLength(s.effectiveTrailLength())
}

// SetShortOrbitMode caps trails at ShortTrailLength while on.
func (s *Simulation) SetShortOrbitMode(short bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortOrbits = short
	// effectiveTrailLength is always >= 1 after Validate.
	_ = s.trails.SetMaxLength(s.effectiveTrailLength())
}

func (s *Simulation) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := Frame{
		Time:          s.t,
		Step:          s.steps,
		Paused:        s.paused,
		Speed:         s.speed,
		Scale:         s.scale,
		TrailsEnabled: s.trailsEnabled,
		ShortOrbits:   s.shortOrbits,
		Bodies:        make([]BodyView, 0, s.registry.Len()),
	}
	for id, b := range s.registry.All() {
		f.Bodies = append(f.Bodies, BodyView{
			ID:       id,
			Label:    b.Label,
			Position: b.Position,
			Radius:   b.Radius,
			Color:    b.Color,
		})
	}
	return f
}

// TrailSnapshot returns the chronological trail of id, oldest first.
func (s *Simulation) TrailSnapshot(id dynamo.BodyID) ([]dynamo.Vec3, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.registry.Get(id); err != nil {
		return nil, err
	}
	return s.trails.Snapshot(id), nil
}

// PositionLog returns one record per body for the current committed state.
func (s *Simulation) PositionLog() []dynamo.PositionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dynamo.PositionRecord, 0, s.registry.Len())
	for id, b := range s.registry.All() {
		out = append(out, dynamo.PositionRecord{
			Step:     s.steps,
			Time:     s.t,
			ID:       id,
			Label:    b.Label,
			Position: b.Position,
			Velocity: b.Velocity,
			Mass:     b.Mass,
		})
	}
	return out
}

func (s *Simulation) Body(id dynamo.BodyID) (dynamo.Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Get(id)
}

func (s *Simulation) Bodies() []dynamo.Body {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Bodies()
}

// Energy returns the total energy, or NaN when the force model cannot
// report it.
func (s *Simulation) Energy() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.force.(physics.Hamiltonian); ok {
		return h.Energy(s.registry.Bodies())
	}
	return math.NaN()
}

// Diagnostics returns the most recent recovered step failures.
func (s *Simulation) Diagnostics() []dynamo.StepError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dynamo.StepError, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

func (s *Simulation) Config() dynamo.Config { return s.cfg }

func (s *Simulation) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

func (s *Simulation) Steps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

func (s *Simulation) Speed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speed
}

func (s *Simulation) Scale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scale
}

func (s *Simulation) IntegratorName() string { return s.integ.Name() }

func (s *Simulation) ForceModelName() string { return s.force.Name() }

// clamp bounds v to [lo, hi]; a NaN v keeps the previous value.
func clamp(v, prev, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return prev
	}
	return math.Min(math.Max(v, lo), hi)
}
