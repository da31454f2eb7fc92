package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/san-kum/nbodysim/internal/analysis"
	"github.com/san-kum/nbodysim/internal/automation"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/experiment"
	"github.com/san-kum/nbodysim/internal/export"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/storage"
	"github.com/spf13/cobra"
)

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	physCfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	descs, source, err := automation.Descriptors(cfg)
	if err != nil {
		return err
	}

	names := args[1:]
	if len(names) == 0 {
		names = integrators.Names()
	}
	steps := dts
	if len(steps) == 0 {
		steps = []float64{physCfg.Dt}
	}

	exp, err := experiment.New(descs, physCfg, duration, automation.EscapeRadius(descs))
	if err != nil {
		return err
	}
	exp.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("comparing integrators for %s (%d bodies, time=%g)\n\n", source, len(descs), duration)
	results, err := exp.Grid(ctx, names, steps)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s  %-10s  %-8s  %-12s  %-12s  %-10s\n", "integrator", "dt", "steps", "energy_drift", "momentum", "time_ms")
	fmt.Println(strings.Repeat("-", 74))
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-12s  %-10g  error: %v\n", r.Integrator, r.Dt, r.Err)
			continue
		}
		fmt.Printf("%-12s  %-10g  %-8d  %-12.3e  %-12.3e  %-10.1f\n",
			r.Integrator, r.Dt, r.Steps,
			r.Metrics["energy_drift"], r.Metrics["momentum_drift"],
			float64(r.Elapsed.Microseconds())/1000)
	}

	if best, ok := experiment.Best(results, "energy_drift"); ok {
		fmt.Printf("\nbest energy conservation: %s at dt=%g\n", best.Integrator, best.Dt)
	}
	return nil
}

func analyzeScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	physCfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	descs, source, err := automation.Descriptors(cfg)
	if err != nil {
		return err
	}
	force, err := physics.New(physCfg)
	if err != nil {
		return err
	}
	integ, err := integrators.New(physCfg.Integrator)
	if err != nil {
		return err
	}

	bodies := make([]dynamo.Body, len(descs))
	for i, d := range descs {
		bodies[i] = dynamo.Body{
			ID: dynamo.BodyID(i), Label: d.Label, Mass: d.Mass,
			Position: d.Position, Velocity: d.Velocity,
		}
	}

	lambda, err := analysis.LyapunovExponent(force, integ, bodies, physCfg.Dt, duration, perturbation)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s (%d bodies)\n", source, len(descs))
	fmt.Printf("integrator: %s  dt: %g  time: %g\n", integ.Name(), physCfg.Dt, duration)
	fmt.Printf("largest lyapunov exponent: %.6f\n", lambda)
	return nil
}

func svgRun(cmd *cobra.Command, args []string) error {
	records, err := storage.New(dataDir).LoadPositions(args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.OrbitsSVG(w, records, svgWidth, svgHeight)
}
