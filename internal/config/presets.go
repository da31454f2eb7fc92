package config

import (
	"slices"

	"github.com/san-kum/nbodysim/internal/scenario"
)

func preset(edit func(*Config)) *Config {
	cfg := DefaultConfig()
	edit(cfg)
	return cfg
}

// solar switches to AU / day / solar-mass units.
func solar(c *Config) {
	c.Scenario = "solar"
	c.Physics.G = scenario.SolarG
	c.Physics.Softening = scenario.SolarSoftening
	c.Physics.Dt = 1.0
	c.Display.Scale = 1.0
}

// Presets holds named configurations per scenario.
var Presets = map[string]map[string]*Config{
	"solar": {
		"default": preset(func(c *Config) {
			solar(c)
			c.Steps = 365 * 10
		}),
		"inner": preset(func(c *Config) {
			solar(c)
			c.Physics.Dt = 0.25
			c.Physics.Integrator = "leapfrog"
			c.Display.Scale = 3.0
			c.Steps = 4 * 365
		}),
		"centuries": preset(func(c *Config) {
			solar(c)
			c.Physics.Dt = 5.0
			c.Physics.Integrator = "leapfrog"
			c.Trails.Length = 2000
			c.Steps = 100 * 73
		}),
	},
	"binary": {
		"circular": preset(func(c *Config) {
			c.Scenario = "binary"
		}),
		"precise": preset(func(c *Config) {
			c.Scenario = "binary"
			c.Physics.Integrator = "rk4"
			c.Physics.Dt = 0.005
		}),
	},
	"figure-eight": {
		"default": preset(func(c *Config) {
			c.Scenario = "figure-eight"
			c.Physics.Integrator = "leapfrog"
			c.Physics.Dt = 0.001
			c.Performance.MaxDt = 0.002
			c.Steps = 6326
		}),
	},
	"random": {
		"cluster": preset(func(c *Config) {
			c.Scenario = "random"
			c.Bodies = 64
			c.Physics.Policy = "plummer"
			c.Physics.Softening = 0.05
		}),
		"swarm": preset(func(c *Config) {
			c.Scenario = "random"
			c.Bodies = 512
			c.Physics.Policy = "plummer"
			c.Physics.Softening = 0.05
			c.Trails.Enabled = false
		}),
	},
	"random-star": {
		"disk": preset(func(c *Config) {
			c.Scenario = "random-star"
			c.Bodies = 200
			c.Physics.Integrator = "leapfrog"
			c.Physics.Policy = "skip"
			c.Physics.Softening = 0.01
			c.Trails.Length = 100
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenarioName, preset string) *Config {
	scenarioPresets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenarioName string) []string {
	scenarioPresets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
