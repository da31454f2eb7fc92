package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string

	dt         float64
	integrator string
	softening  float64
	policy     string
	numBodies  int
	seed       uint64
	steps      int
	input      string

	every         int
	writeCSV      string
	plotBody      int
	withPositions bool

	duration     float64
	dts          []float64
	perturbation float64
	svgOut       string
	svgWidth     int
	svgHeight    int
)

// main registers the commands and flags and opens the scenario picker when
// no subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:          "nbodysim",
		Short:        "gravitational n-body simulator",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         liveSimulation,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodysim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a headless simulation and log positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (default from config)")
	runCmd.Flags().IntVar(&every, "every", 1, "log every n-th step")
	runCmd.Flags().StringVar(&writeCSV, "write-csv", "", "write the final bodies to this CSV file")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "watch a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  liveSimulation,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body's distance from the origin",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBody, "body", 1, "body id to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&withPositions, "positions", false, "include the position log")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list preset configurations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "draw a run's orbits as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [integrator1] [integrator2] ...",
		Short: "compare integrators and timesteps on one scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)
	compareCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated time per run")
	compareCmd.Flags().Float64SliceVar(&dts, "dts", nil, "timesteps to try (default: the configured dt)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [scenario]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeScenario,
	}
	addSimFlags(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated time")
	analyzeCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-8, "initial separation")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "record a sequence of runs described in yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, svgCmd, compareCmd, analyzeCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&input, "input", "", "load bodies from a CSV file")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (symplectic, leapfrog, rk4)")
	cmd.Flags().Float64Var(&softening, "softening", 0, "softening length")
	cmd.Flags().StringVar(&policy, "policy", "", "softening policy (clamp, skip, plummer)")
	cmd.Flags().IntVar(&numBodies, "bodies", 0, "number of bodies (random scenarios)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
}
