// Package config reads and writes the YAML run configuration and holds the
// named presets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

const (
	DefaultScenario = "binary"
	DefaultBodies   = 64
	DefaultSeed     = 1
	DefaultSteps    = 10000
)

type Config struct {
	Scenario string `yaml:"scenario"`
	// Input is a CSV file of initial conditions; it overrides Scenario.
	Input  string `yaml:"input,omitempty"`
	Bodies int    `yaml:"bodies"`
	Seed   uint64 `yaml:"seed"`
	Steps  int    `yaml:"steps"`

	Physics     PhysicsConfig     `yaml:"physics"`
	Trails      TrailConfig       `yaml:"trails"`
	Display     DisplayConfig     `yaml:"display"`
	Performance PerformanceConfig `yaml:"performance"`
}

type PhysicsConfig struct {
	G          float64 `yaml:"g"`
	Dt         float64 `yaml:"dt"`
	Softening  float64 `yaml:"softening"`
	Policy     string  `yaml:"policy"`
	Integrator string  `yaml:"integrator"`
	MaxBodies  int     `yaml:"max_bodies"`
}

type TrailConfig struct {
	Enabled     bool `yaml:"enabled"`
	Length      int  `yaml:"length"`
	ShortLength int  `yaml:"short_length"`
}

type DisplayConfig struct {
	Speed     float64       `yaml:"speed"`
	MinSpeed  float64       `yaml:"min_speed"`
	MaxSpeed  float64       `yaml:"max_speed"`
	Scale     float64       `yaml:"scale"`
	MinScale  float64       `yaml:"min_scale"`
	MaxScale  float64       `yaml:"max_scale"`
	RealTime  bool          `yaml:"real_time"`
	FrameTime time.Duration `yaml:"frame_time"`
}

type PerformanceConfig struct {
	MaxDt             float64       `yaml:"max_dt"`
	MaxSubsteps       int           `yaml:"max_substeps"`
	FrameBudget       time.Duration `yaml:"frame_budget"`
	ParallelThreshold int           `yaml:"parallel_threshold"`
	Workers           int           `yaml:"workers"`
}

func DefaultConfig() *Config {
	d := dynamo.DefaultConfig()
	return &Config{
		Scenario: DefaultScenario,
		Bodies:   DefaultBodies,
		Seed:     DefaultSeed,
		Steps:    DefaultSteps,
		Physics: PhysicsConfig{
			G:          d.G,
			Dt:         d.Dt,
			Softening:  d.Softening,
			Policy:     string(d.Policy),
			Integrator: d.Integrator,
			MaxBodies:  d.MaxBodies,
		},
		Trails: TrailConfig{
			Enabled:     d.TrailsEnabled,
			Length:      d.TrailLength,
			ShortLength: d.ShortTrailLength,
		},
		Display: DisplayConfig{
			Speed:     d.Speed,
			MinSpeed:  d.MinSpeed,
			MaxSpeed:  d.MaxSpeed,
			Scale:     d.Scale,
			MinScale:  d.MinScale,
			MaxScale:  d.MaxScale,
			RealTime:  d.RealTime,
			FrameTime: d.FrameTime,
		},
		Performance: PerformanceConfig{
			MaxDt:             d.MaxDt,
			MaxSubsteps:       d.MaxSubsteps,
			FrameBudget:       d.FrameBudget,
			ParallelThreshold: d.ParallelThreshold,
			Workers:           d.Workers,
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Engine maps the file configuration onto the engine configuration and
// validates it.
func (c *Config) Engine() (dynamo.Config, error) {
	policy, err := dynamo.ParseSofteningPolicy(c.Physics.Policy)
	if err != nil {
		return dynamo.Config{}, err
	}
	out := dynamo.Config{
		G:                 c.Physics.G,
		Dt:                c.Physics.Dt,
		Softening:         c.Physics.Softening,
		Policy:            policy,
		Integrator:        c.Physics.Integrator,
		MaxBodies:         c.Physics.MaxBodies,
		TrailsEnabled:     c.Trails.Enabled,
		TrailLength:       c.Trails.Length,
		ShortTrailLength:  c.Trails.ShortLength,
		Speed:             c.Display.Speed,
		MinSpeed:          c.Display.MinSpeed,
		MaxSpeed:          c.Display.MaxSpeed,
		Scale:             c.Display.Scale,
		MinScale:          c.Display.MinScale,
		MaxScale:          c.Display.MaxScale,
		RealTime:          c.Display.RealTime,
		FrameTime:         c.Display.FrameTime,
		MaxDt:             c.Performance.MaxDt,
		MaxSubsteps:       c.Performance.MaxSubsteps,
		FrameBudget:       c.Performance.FrameBudget,
		ParallelThreshold: c.Performance.ParallelThreshold,
		Workers:           c.Performance.Workers,
	}
	if err := out.Validate(); err != nil {
		return dynamo.Config{}, err
	}
	return out, nil
}

// Clone returns a deep copy; Config holds no reference types.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
