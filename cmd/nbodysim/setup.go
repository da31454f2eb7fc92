package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/san-kum/nbodysim/internal/config"
	"github.com/spf13/cobra"
)

// resolveConfig layers preset, config file, scenario argument and changed
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Scenario = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Physics.Dt = dt
	}
	if flags.Changed("integrator") {
		cfg.Physics.Integrator = integrator
	}
	if flags.Changed("softening") {
		cfg.Physics.Softening = softening
	}
	if flags.Changed("policy") {
		cfg.Physics.Policy = policy
	}
	if flags.Changed("bodies") {
		cfg.Bodies = numBodies
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("input") {
		cfg.Input = input
	}
	return cfg, nil
}

// newLogger builds a text logger at --log-level. Output goes to --log-file
// when set, else to fallback.
func newLogger(fallback io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	out, closer := fallback, func() error { return nil }
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f.Close
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closer, nil
}
