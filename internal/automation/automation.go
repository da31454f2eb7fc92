// Package automation records simulations into the run store, either one at
// a time or as a scripted sequence loaded from YAML.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/scenario"
	"github.com/san-kum/nbodysim/internal/sim"
	"github.com/san-kum/nbodysim/internal/storage"
	"gopkg.in/yaml.v3"
)

// driftSamples is the target length of a recording's energy series.
const driftSamples = 200

// Script is a named sequence of runs.
type Script struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Steps       []ScriptStep `yaml:"steps"`
}

// ScriptStep describes one run. Zero values keep the preset's (or the
// default config's) setting.
type ScriptStep struct {
	Scenario   string  `yaml:"scenario"`
	Preset     string  `yaml:"preset"`
	Input      string  `yaml:"input"`
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Steps      int     `yaml:"steps"`
	Bodies     int     `yaml:"bodies"`
	Seed       uint64  `yaml:"seed"`
	Every      int     `yaml:"every"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("%w: script %q has no steps", dynamo.ErrInvalidConfig, script.Name)
	}
	return &script, nil
}

// Config resolves the step against its preset.
func (s ScriptStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Scenario != "" {
		cfg.Scenario = s.Scenario
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Scenario, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown preset %s/%s", dynamo.ErrInvalidConfig, cfg.Scenario, s.Preset)
		}
		cfg = p
	}
	if s.Input != "" {
		cfg.Input = s.Input
	}
	if s.Integrator != "" {
		cfg.Physics.Integrator = s.Integrator
	}
	if s.Dt != 0 {
		cfg.Physics.Dt = s.Dt
	}
	if s.Steps != 0 {
		cfg.Steps = s.Steps
	}
	if s.Bodies != 0 {
		cfg.Bodies = s.Bodies
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	return cfg, nil
}

// Run records every step in order and stops at the first failure.
func (s *Script) Run(ctx context.Context, st *storage.Store, logger *slog.Logger) ([]*Recording, error) {
	recordings := make([]*Recording, 0, len(s.Steps))
	for i, step := range s.Steps {
		logger.Info("script step", "script", s.Name, "step", i+1, "of", len(s.Steps), "scenario", step.Scenario)

		cfg, err := step.Config()
		if err != nil {
			return recordings, fmt.Errorf("step %d: %w", i+1, err)
		}
		rec, err := Record(ctx, cfg, st, step.Every, logger)
		if err != nil {
			return recordings, fmt.Errorf("step %d: %w", i+1, err)
		}
		recordings = append(recordings, rec)
	}
	return recordings, nil
}

// Recording is a finished, stored run.
type Recording struct {
	Meta        storage.RunMetadata
	Drift       []float64
	Diagnostics []dynamo.StepError
	Final       []dynamo.Body
	Elapsed     time.Duration
}

// Descriptors loads cfg.Input when set, otherwise builds cfg.Scenario. The
// second result names the source.
func Descriptors(cfg *config.Config) ([]dynamo.Descriptor, string, error) {
	if cfg.Input == "" {
		descs, err := scenario.Build(cfg.Scenario, cfg.Bodies, cfg.Seed)
		return descs, cfg.Scenario, err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	descs, err := scenario.LoadCSV(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", cfg.Input, err)
	}
	return descs, "csv", nil
}

// EscapeRadius is ten times the initial extent of descs around their
// center of mass.
func EscapeRadius(descs []dynamo.Descriptor) float64 {
	bs := make([]dynamo.Body, len(descs))
	for i, d := range descs {
		bs[i] = dynamo.Body{Mass: d.Mass, Position: d.Position}
	}
	com, _ := physics.CenterOfMass(bs)
	extent := 0.0
	for _, b := range bs {
		extent = max(extent, b.Position.Sub(com).Len())
	}
	if extent == 0 {
		return 10
	}
	return 10 * extent
}

// Record runs cfg headless for cfg.Steps steps (until ctx is done when
// Steps <= 0), logging every n-th step into st. A cancelled context still
// stores what was simulated.
func Record(ctx context.Context, cfg *config.Config, st *storage.Store, every int, logger *slog.Logger) (*Recording, error) {
	physCfg, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	descs, source, err := Descriptors(cfg)
	if err != nil {
		return nil, err
	}
	force, err := physics.New(physCfg)
	if err != nil {
		return nil, err
	}

	if err := st.Init(); err != nil {
		return nil, err
	}
	run, err := st.Create(storage.RunMetadata{
		Scenario:   source,
		Seed:       cfg.Seed,
		Bodies:     len(descs),
		G:          physCfg.G,
		Dt:         physCfg.Dt,
		Softening:  physCfg.Softening,
		Policy:     string(physCfg.Policy),
		Integrator: physCfg.Integrator,
		Every:      every,
	})
	if err != nil {
		return nil, err
	}

	set := metrics.Standard(force, EscapeRadius(descs))
	opts := []sim.Option{
		sim.WithLogger(logger),
		sim.WithForceModel(force),
		sim.WithObserver(run),
		sim.WithObserver(set),
	}

	rec := &Recording{}
	if h, ok := force.(physics.Hamiltonian); ok {
		tracker := metrics.NewEnergyDrift(h)
		sampleEvery := 100
		if cfg.Steps > 0 {
			sampleEvery = max(1, cfg.Steps/driftSamples)
		}
		opts = append(opts, sim.WithObserver(sim.ObserverFunc(func(b []dynamo.Body, step int, t float64) {
			tracker.OnStep(b, step, t)
			if step%sampleEvery == 0 {
				rec.Drift = append(rec.Drift, tracker.Current())
			}
		})))
	}

	s, err := sim.New(descs, physCfg, opts...)
	if err != nil {
		run.Close(nil)
		return nil, err
	}

	start := time.Now()
	runErr := s.Run(ctx, 0, cfg.Steps)
	s.Close()
	rec.Elapsed = time.Since(start)
	rec.Diagnostics = s.Diagnostics()
	rec.Final = s.Bodies()

	if err := run.Close(set.Values()); err != nil {
		return nil, err
	}
	if runErr != nil && ctx.Err() == nil {
		return nil, runErr
	}

	meta, err := st.Load(run.ID())
	if err != nil {
		return nil, err
	}
	rec.Meta = *meta
	return rec, nil
}
