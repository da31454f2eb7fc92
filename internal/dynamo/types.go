package dynamo

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

type Vec3 = mgl64.Vec3

// BodyID identifies a body within one registry. IDs are dense insertion
// indices and are never reused.
type BodyID int

func (id BodyID) String() string { return fmt.Sprintf("body#%d", int(id)) }

// Descriptor holds the initial parameters of a body.
type Descriptor struct {
	Label    string
	Mass     float64
	Position Vec3
	Velocity Vec3
	Radius   float64
	Color    colorful.Color
}

// Body is one simulated point mass. Radius, Color and Label are rendering
// metadata and take no part in the physics.
type Body struct {
	ID       BodyID
	Label    string
	Mass     float64
	Position Vec3
	Velocity Vec3
	Radius   float64
	Color    colorful.Color
}

func (b Body) IsValid() bool {
	return Finite(b.Position) && Finite(b.Velocity)
}

// DefaultRadius is the render radius used when none is given.
func DefaultRadius(mass float64) float64 {
	return math.Max(0.02, 0.05*math.Cbrt(mass))
}

// Finite reports whether every component of v is neither NaN nor Inf.
func Finite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// AccelFunc evaluates the acceleration of every body of a state.
type AccelFunc func(bodies []Body, out []Vec3) error

// SofteningPolicy selects how close encounters are handled by the force model.
type SofteningPolicy string

const (
	// SoftenClamp clamps the pair distance to the softening length.
	SoftenClamp SofteningPolicy = "clamp"
	// SoftenSkip drops pairs closer than the softening length.
	SoftenSkip SofteningPolicy = "skip"
	// SoftenPlummer adds the squared softening length to r².
	SoftenPlummer SofteningPolicy = "plummer"
)

func ParseSofteningPolicy(s string) (SofteningPolicy, error) {
	switch p := SofteningPolicy(s); p {
	case SoftenClamp, SoftenSkip, SoftenPlummer:
		return p, nil
	case "":
		return SoftenClamp, nil
	default:
		return "", fmt.Errorf("%w: unknown softening policy %q", ErrInvalidConfig, s)
	}
}

type Config struct {
	G         float64
	Dt        float64
	Softening float64
	Policy    SofteningPolicy

	Integrator string
	MaxBodies  int

	TrailsEnabled    bool
	TrailLength      int
	ShortTrailLength int

	Speed    float64
	MinSpeed float64
	MaxSpeed float64

	Scale    float64
	MinScale float64
	MaxScale float64

	// RealTime scales each step by elapsed/FrameTime.
	RealTime  bool
	FrameTime time.Duration

	// MaxDt splits larger effective steps into sub-steps; 0 disables.
	MaxDt       float64
	MaxSubsteps int

	// FrameBudget is the wall-clock allowance of a single Step; 0 disables.
	FrameBudget time.Duration

	// ParallelThreshold is the body count from which forces are evaluated
	// concurrently; 0 disables.
	ParallelThreshold int
	Workers           int
}

func DefaultConfig() Config {
	return Config{
		G:                 1.0,
		Dt:                0.01,
		Softening:         1e-3,
		Policy:            SoftenClamp,
		Integrator:        "symplectic",
		MaxBodies:         2048,
		TrailsEnabled:     true,
		TrailLength:       500,
		ShortTrailLength:  50,
		Speed:             1.0,
		MinSpeed:          0.01,
		MaxSpeed:          100.0,
		Scale:             1.0,
		MinScale:          0.01,
		MaxScale:          100.0,
		RealTime:          false,
		FrameTime:         time.Second / 60,
		MaxDt:             0,
		MaxSubsteps:       16,
		FrameBudget:       time.Second / 60,
		ParallelThreshold: 256,
		Workers:           0,
	}
}

func (c Config) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidConfig, name, v)
		}
		return nil
	}

	for _, f := range []struct {
		name string
		v    float64
	}{
		{"G", c.G}, {"dt", c.Dt}, {"softening", c.Softening},
		{"min speed", c.MinSpeed}, {"max speed", c.MaxSpeed},
		{"min scale", c.MinScale}, {"max scale", c.MaxScale},
	} {
		if err := positive(f.name, f.v); err != nil {
			return err
		}
	}

	if _, err := ParseSofteningPolicy(string(c.Policy)); err != nil {
		return err
	}
	if c.MaxBodies < 1 {
		return fmt.Errorf("%w: max bodies must be at least 1, got %d", ErrInvalidConfig, c.MaxBodies)
	}
	if c.TrailLength < 1 || c.ShortTrailLength < 1 {
		return fmt.Errorf("%w: trail lengths must be at least 1", ErrInvalidConfig)
	}
	if c.MinSpeed > c.MaxSpeed || c.Speed < c.MinSpeed || c.Speed > c.MaxSpeed {
		return fmt.Errorf("%w: speed %g outside [%g, %g]", ErrInvalidConfig, c.Speed, c.MinSpeed, c.MaxSpeed)
	}
	if c.MinScale > c.MaxScale || c.Scale < c.MinScale || c.Scale > c.MaxScale {
		return fmt.Errorf("%w: scale %g outside [%g, %g]", ErrInvalidConfig, c.Scale, c.MinScale, c.MaxScale)
	}
	if c.RealTime && c.FrameTime <= 0 {
		return fmt.Errorf("%w: frame time must be positive in real-time mode", ErrInvalidConfig)
	}
	if c.MaxDt < 0 || math.IsNaN(c.MaxDt) {
		return fmt.Errorf("%w: max dt must be non-negative, got %g", ErrInvalidConfig, c.MaxDt)
	}
	if c.MaxSubsteps < 1 {
		return fmt.Errorf("%w: max substeps must be at least 1", ErrInvalidConfig)
	}
	if c.ParallelThreshold < 0 || c.Workers < 0 {
		return fmt.Errorf("%w: parallel settings must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// PositionRecord is one row of the position log.
type PositionRecord struct {
	Step     int
	Time     float64
	ID       BodyID
	Label    string
	Position Vec3
	Velocity Vec3
	Mass     float64
}
