package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nbodysim/internal/automation"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/scenario"
	"github.com/san-kum/nbodysim/internal/sim"
	"github.com/san-kum/nbodysim/internal/storage"
	"github.com/san-kum/nbodysim/internal/viz"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s, dt=%g)...\n", cfg.Scenario, cfg.Physics.Integrator, cfg.Physics.Dt)
	rec, err := automation.Record(ctx, cfg, storage.New(dataDir), every, logger)
	if err != nil {
		return err
	}
	printRecording(rec)

	if writeCSV != "" {
		if err := writeBodies(writeCSV, rec.Final); err != nil {
			return err
		}
		fmt.Printf("\nfinal state written to %s\n", writeCSV)
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("script %s: %d runs\n", script.Name, len(script.Steps))
	recs, err := script.Run(ctx, storage.New(dataDir), logger)
	for i, rec := range recs {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(script.Steps), rec.Meta.Scenario)
		printRecording(rec)
	}
	return err
}

func printRecording(rec *automation.Recording) {
	meta := rec.Meta
	fmt.Printf("completed in %v\n", rec.Elapsed)
	fmt.Printf("run id: %s\n", meta.ID)
	fmt.Printf("bodies: %d  steps: %d  time: %.4f\n", meta.Bodies, meta.Steps, meta.SimTime)
	if n := len(rec.Diagnostics); n > 0 {
		fmt.Printf("skipped steps: %d (last: %v)\n", n, &rec.Diagnostics[n-1])
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, meta.Metrics[name])
	}

	if len(rec.Drift) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(rec.Drift,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("relative energy drift")))
	}
}

func writeBodies(path string, bodies []dynamo.Body) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := scenario.WriteCSV(f, bodies); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// liveSimulation opens the picker when no scenario is named, otherwise the
// viewer for that scenario.
func liveSimulation(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	if len(args) == 0 && configFile == "" && input == "" {
		return viz.Run(viz.NewMenu(menuItems(), func(item viz.MenuItem) (viz.Engine, error) {
			cfg := config.GetPreset(item.Scenario, item.Preset)
			if cfg == nil {
				return nil, fmt.Errorf("unknown preset: %s", item.Title())
			}
			s, err := newEngine(cfg, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}))
	}

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	title := cfg.Scenario
	if cfg.Input != "" {
		title = cfg.Input
	}
	return viz.Run(viz.NewModel(s, title))
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*sim.Simulation, error) {
	physCfg, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	descs, _, err := automation.Descriptors(cfg)
	if err != nil {
		return nil, err
	}
	return sim.New(descs, physCfg, sim.WithLogger(logger))
}

func menuItems() []viz.MenuItem {
	var items []viz.MenuItem
	for _, name := range scenario.Names() {
		for _, p := range config.ListPresets(name) {
			items = append(items, viz.MenuItem{
				Scenario:    name,
				Preset:      p,
				Description: scenarioDescriptions[name],
			})
		}
	}
	return items
}

var scenarioDescriptions = map[string]string{
	"solar":        "sun and eight planets, AU and days",
	"binary":       "equal-mass pair on a circular orbit",
	"figure-eight": "three bodies chasing one another on a figure eight",
	"random":       "seeded cluster in a cube",
	"random-star":  "central star with a disk of light bodies",
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tSTEPS\tDT\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Steps,
			run.Dt,
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	records, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}

	var data []float64
	label := ""
	for _, r := range records {
		if int(r.ID) != plotBody {
			continue
		}
		data = append(data, r.Position.Len())
		label = r.Label
	}
	if len(data) == 0 {
		return fmt.Errorf("no data for body %d in run %s", plotBody, runID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(data))

	caption := fmt.Sprintf("body %d distance from origin", plotBody)
	if label != "" {
		caption = fmt.Sprintf("%s (body %d) distance from origin", label, plotBody)
	}
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption)))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0], withPositions)
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := scenario.Names()
	if len(args) > 0 {
		if config.ListPresets(args[0]) == nil {
			return fmt.Errorf("no presets for scenario %s (available: %v)", args[0], names)
		}
		names = args[:1]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tPRESET\tINTEG\tDT\tBODIES\tSTEPS")
	for _, name := range names {
		for _, p := range config.ListPresets(name) {
			cfg := config.GetPreset(name, p)
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%d\n",
				name, p, cfg.Physics.Integrator, cfg.Physics.Dt, cfg.Bodies, cfg.Steps)
		}
	}
	return w.Flush()
}
