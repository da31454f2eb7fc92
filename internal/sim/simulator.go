// Package sim owns the step loop of the N-body engine.
//
// A [Simulation] is the single owner of the body registry, trail history,
// clock and user-controlled settings. Renderers read it through [Simulation.Snapshot]
// and [Simulation.TrailSnapshot]; input handlers drive it through the
// mutators. All methods are safe for concurrent use; Step holds the write
// lock for its whole duration, so readers only ever see committed states.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/san-kum/nbodysim/internal/bodies"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/trail"
)

const (
	maxDiagnostics = 64
	// maxFailures is how many consecutive failed steps Run tolerates.
	maxFailures = 8
)

type Simulation struct {
	mu sync.RWMutex

	cfg       dynamo.Config
	registry  *bodies.Registry
	trails    *trail.History
	force     physics.ForceModel
	integ     integrators.Integrator
	logger    *slog.Logger
	observers []Observer

	acc []dynamo.Vec3

	paused        bool
	speed         float64
	scale         float64
	baseDt        float64
	trailsEnabled bool
	shortOrbits   bool
	trailLength   int

	t           float64
	steps       int
	overBudget  bool
	closed      bool
	diagnostics []dynamo.StepError
}

// New validates cfg, registers every descriptor and freezes the registry.
// Any invalid body or setting is returned here, before the first step.
func New(descs []dynamo.Descriptor, cfg dynamo.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:           cfg,
		registry:      bodies.NewRegistry(cfg.MaxBodies),
		logger:        slog.New(slog.DiscardHandler),
		speed:         cfg.Speed,
		scale:         cfg.Scale,
		baseDt:        cfg.Dt,
		trailsEnabled: cfg.TrailsEnabled,
		trailLength:   cfg.TrailLength,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.force == nil {
		force, err := physics.New(cfg)
		if err != nil {
			return nil, err
		}
		s.force = force
	}
	if s.integ == nil {
		integ, err := integrators.New(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		s.integ = integ
	}

	for i, d := range descs {
		if _, err := s.registry.Create(d); err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
	}
	s.registry.Freeze()

	trails, err := trail.NewHistory(s.effectiveTrailLength())
	if err != nil {
		return nil, err
	}
	s.trails = trails
	s.acc = make([]dynamo.Vec3, s.registry.Len())
	s.recordTrails()

	s.logger.Info("simulation initialized",
		"bodies", s.registry.Len(),
		"force", s.force.Name(),
		"integrator", s.integ.Name(),
		"dt", cfg.Dt,
		"softening", cfg.Softening,
		"policy", string(cfg.Policy))

	return s, nil
}

// Step advances the simulation by one frame. While paused it does nothing.
// The effective step is base dt × speed, additionally scaled by
// elapsed/FrameTime in real-time mode. Recoverable failures leave the last
// valid state in place and are returned as *dynamo.StepError.
func (s *Simulation) Step(elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dynamo.ErrClosed
	}
	if s.paused {
		return nil
	}

	start := time.Now()
	dt := s.effectiveDt(elapsed)
	n, sub := s.substeps(dt)

	for i := 0; i < n; i++ {
		if err := s.advance(sub); err != nil {
			return s.recover(err, sub)
		}
	}

	s.checkBudget(time.Since(start))
	return nil
}

func (s *Simulation) effectiveDt(elapsed time.Duration) float64 {
	dt := s.baseDt * s.speed
	if s.cfg.RealTime && elapsed > 0 {
		dt *= elapsed.Seconds() / s.cfg.FrameTime.Seconds()
	}
	return dt
}

// substeps splits dt into at most MaxSubsteps equal parts no longer than MaxDt.
func (s *Simulation) substeps(dt float64) (int, float64) {
	if s.cfg.MaxDt <= 0 || !(dt > s.cfg.MaxDt) || math.IsInf(dt, 0) {
		return 1, dt
	}
	n := int(math.Ceil(dt / s.cfg.MaxDt))
	if n > s.cfg.MaxSubsteps {
		n = s.cfg.MaxSubsteps
	}
	return n, dt / float64(n)
}

// advance runs force model, integrator, write-back and trail recording, in
// that order. Nothing is written unless the whole new state is finite.
func (s *Simulation) advance(dt float64) error {
	current := s.registry.Bodies()

	report, err := s.force.Accelerations(current, s.acc)
	if err != nil {
		return err
	}
	if report.NearMisses > 0 {
		s.logger.Debug("close pairs skipped", "step", s.steps, "pairs", report.NearMisses)
	}

	var next []dynamo.Body
	if re, ok := s.integ.(integrators.Reevaluating); ok {
		next, err = re.AdvanceWith(current, s.acc, dt, s.evaluate)
	} else {
		next, err = s.integ.Advance(current, s.acc, dt)
	}
	if err != nil {
		return err
	}

	for _, b := range next {
		if !b.IsValid() {
			return fmt.Errorf("%w: %v (%s)", dynamo.ErrNumericInstability, b.ID, b.Label)
		}
	}

	for _, b := range next {
		if err := s.registry.Update(b.ID, b.Position, b.Velocity); err != nil {
			return err
		}
	}

	s.t += dt
	s.steps++

	if !s.overBudget {
		s.recordTrails()
	}
	for _, o := range s.observers {
		o.OnStep(next, s.steps, s.t)
	}
	return nil
}

func (s *Simulation) evaluate(b []dynamo.Body, out []dynamo.Vec3) error {
	_, err := s.force.Accelerations(b, out)
	return err
}

func (s *Simulation) recover(err error, dt float64) error {
	stepErr := dynamo.StepError{Step: s.steps, Time: s.t, Dt: dt, Wrapped: err}
	if len(s.diagnostics) == maxDiagnostics {
		s.diagnostics = s.diagnostics[1:]
	}
	s.diagnostics = append(s.diagnostics, stepErr)
	s.logger.Warn("step skipped", "step", s.steps, "time", s.t, "dt", dt, "err", err)
	return &stepErr
}

func (s *Simulation) checkBudget(took time.Duration) {
	budget := s.cfg.FrameBudget
	if budget <= 0 {
		return
	}
	over := took > budget
	if over && !s.overBudget {
		s.logger.Warn("step over frame budget, trail recording suspended", "took", took, "budget", budget)
	} else if !over && s.overBudget {
		s.logger.Info("step within frame budget, trail recording resumed", "took", took)
	}
	s.overBudget = over
}

func (s *Simulation) recordTrails() {
	if !s.trailsEnabled {
		return
	}
	for id, b := range s.registry.All() {
		s.trails.Record(id, b.Position)
	}
}

func (s *Simulation) effectiveTrailLength() int {
	if s.shortOrbits && s.cfg.ShortTrailLength < s.trailLength {
		return s.cfg.ShortTrailLength
	}
	return s.trailLength
}

// Run steps the simulation every tick until ctx is done, the simulation is
// closed or maxSteps committed steps have been taken (maxSteps <= 0 means no
// limit). A non-positive tick runs as fast as possible. Isolated step
// failures are skipped; after maxFailures in a row the last one is returned.
func (s *Simulation) Run(ctx context.Context, tick time.Duration, maxSteps int) error {
	failures := 0
	var ticks <-chan time.Time
	if tick > 0 {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for maxSteps <= 0 || s.Steps() < maxSteps {
		if ticks != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if s.Paused() {
				return nil
			}
		}

		err := s.Step(tick)
		if errors.Is(err, dynamo.ErrClosed) {
			return nil
		}
		var stepErr *dynamo.StepError
		if err != nil && !errors.As(err, &stepErr) {
			return err
		}
		if stepErr == nil {
			failures = 0
			continue
		}
		if failures++; failures >= maxFailures {
			return stepErr
		}
	}
	return nil
}

// Close waits for an in-flight step and rejects later ones.
func (s *Simulation) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("simulation closed", "steps", s.steps, "time", s.t)
	return nil
}
