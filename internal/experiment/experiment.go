// Package experiment runs batches of headless simulations, one per
// integrator and timestep, and ranks them by a conservation metric.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/sim"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one run. Err is set when the run failed; the
// other runs of a grid are unaffected.
type Result struct {
	Integrator string
	Dt         float64
	Steps      int
	SimTime    float64
	Elapsed    time.Duration
	Skipped    int
	Metrics    map[string]float64
	Err        error
}

type Experiment struct {
	cfg      dynamo.Config
	bodies   []dynamo.Descriptor
	duration float64
	radius   float64
	logger   *slog.Logger
}

// New prepares runs of bodies under cfg for duration units of simulated
// time. radius is the escape radius of the stability metric.
func New(bodies []dynamo.Descriptor, cfg dynamo.Config, duration, radius float64) (*Experiment, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidConfig, duration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Batch runs are judged on physics only.
	cfg.TrailsEnabled = false
	cfg.FrameBudget = 0
	cfg.RealTime = false
	cfg.Speed = 1

	return &Experiment{
		cfg:      cfg,
		bodies:   bodies,
		duration: duration,
		radius:   radius,
		logger:   slog.New(slog.DiscardHandler),
	}, nil
}

func (e *Experiment) SetLogger(l *slog.Logger) { e.logger = l }

// Run simulates the configured duration with one integrator and timestep.
func (e *Experiment) Run(ctx context.Context, integrator string, dt float64) Result {
	res := Result{Integrator: integrator, Dt: dt}

	cfg := e.cfg
	cfg.Integrator = integrator
	cfg.Dt = dt
	if err := cfg.Validate(); err != nil {
		res.Err = err
		return res
	}
	force, err := physics.New(cfg)
	if err != nil {
		res.Err = err
		return res
	}

	set := metrics.Standard(force, e.radius)
	s, err := sim.New(e.bodies, cfg,
		sim.WithForceModel(force),
		sim.WithObserver(set),
		sim.WithLogger(e.logger.With("integrator", integrator, "dt", dt)))
	if err != nil {
		res.Err = err
		return res
	}
	defer s.Close()

	start := time.Now()
	res.Err = s.Run(ctx, 0, int(math.Ceil(e.duration/dt)))
	res.Elapsed = time.Since(start)
	res.Steps = s.Steps()
	res.SimTime = s.Time()
	res.Skipped = len(s.Diagnostics())
	res.Metrics = set.Values()
	return res
}

// Grid runs every integrator with every timestep concurrently. Results are
// ordered by integrator, then timestep, as given.
func (e *Experiment) Grid(ctx context.Context, integrators []string, dts []float64) ([]Result, error) {
	if len(integrators) == 0 || len(dts) == 0 {
		return nil, fmt.Errorf("%w: empty grid", dynamo.ErrInvalidConfig)
	}

	results := make([]Result, len(integrators)*len(dts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, name := range integrators {
		for j, dt := range dts {
			g.Go(func() error {
				results[i*len(dts)+j] = e.Run(gctx, name, dt)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

// Best returns the successful result with the lowest value of metric.
func Best(results []Result, metric string) (Result, bool) {
	ok := slices.DeleteFunc(slices.Clone(results), func(r Result) bool {
		v, has := r.Metrics[metric]
		return r.Err != nil || !has || math.IsNaN(v)
	})
	if len(ok) == 0 {
		return Result{}, false
	}
	return slices.MinFunc(ok, func(a, b Result) int {
		switch {
		case a.Metrics[metric] < b.Metrics[metric]:
			return -1
		case a.Metrics[metric] > b.Metrics[metric]:
			return 1
		}
		return 0
	}), true
}
