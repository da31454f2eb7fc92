package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/scenario"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario != "binary" {
		t.Errorf("expected scenario binary, got %s", cfg.Scenario)
	}
	phys, err := cfg.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if phys != dynamo.DefaultConfig() {
		t.Errorf("default file config maps to %+v, want engine defaults", phys)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
scenario: random
bodies: 12
physics:
  dt: 0.002
  policy: plummer
performance:
  frame_budget: 5ms
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario != "random" || cfg.Bodies != 12 {
		t.Errorf("scenario/bodies not loaded: %+v", cfg)
	}
	if cfg.Physics.Dt != 0.002 || cfg.Physics.Policy != "plummer" {
		t.Errorf("physics not loaded: %+v", cfg.Physics)
	}
	if cfg.Performance.FrameBudget != 5*time.Millisecond {
		t.Errorf("frame budget = %v", cfg.Performance.FrameBudget)
	}
	if cfg.Physics.G != 1.0 || cfg.Trails.Length != 500 {
		t.Error("unset keys should keep their defaults")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("solar", "inner")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("physics: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestPhysicsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"policy", func(c *Config) { c.Physics.Policy = "soft" }},
		{"dt", func(c *Config) { c.Physics.Dt = 0 }},
		{"softening", func(c *Config) { c.Physics.Softening = -1 }},
		{"trail length", func(c *Config) { c.Trails.Length = 0 }},
		{"speed", func(c *Config) { c.Display.Speed = 1000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			if _, err := cfg.Engine(); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("solar", "default")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Physics.G != scenario.SolarG {
		t.Errorf("expected solar G, got %g", cfg.Physics.G)
	}

	cfg.Physics.Dt = 99
	if GetPreset("solar", "default").Physics.Dt == 99 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("solar", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "default"); cfg != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestPresetsCoverEveryScenario(t *testing.T) {
	for _, name := range scenario.Names() {
		presets := ListPresets(name)
		if len(presets) == 0 {
			t.Errorf("no presets for scenario %s", name)
		}
		for _, p := range presets {
			cfg := GetPreset(name, p)
			if cfg.Scenario != name {
				t.Errorf("%s/%s: scenario = %s", name, p, cfg.Scenario)
			}
			if _, err := cfg.Engine(); err != nil {
				t.Errorf("%s/%s: %v", name, p, err)
			}
		}
	}

	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}
