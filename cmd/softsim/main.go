package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/softsim/internal/analysis"
	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/experiment"
	"github.com/san-kum/softsim/internal/logging"
	"github.com/san-kum/softsim/internal/storage"
	"github.com/san-kum/softsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	preset       string
	configFile   string
	saveConfig   string
	source       string
	dt           float64
	steps        int
	iterations   int
	compliance   float64
	invMass      float64
	lambdaPolicy string
	pin          string
	floorY       float64
	metricNames  []string

	theme string

	outFile   string
	imgWidth  int
	imgHeight int
	yaw       float64
	pitch     float64

	positions bool
	benchRuns int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "softsim",
		Short: "XPBD soft body simulation lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.SetLevel(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunMenu(viz.NewMenu(config.ListPresets(), describePreset, buildPresetScene))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".softsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addBodyFlags(runCmd)
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to collect (default all)")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the lowest particle height over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "landing, bounce and settle analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the height trace (or final positions) to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if positions {
				return st.ExportPositionsCSV(os.Stdout, args[0])
			}
			return st.ExportCSV(os.Stdout, args[0])
		},
	}
	exportCSVCmd.Flags().BoolVar(&positions, "positions", false, "export final positions instead of the trace")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render a run's final frame (.webp, .png) or height trace (.svg)",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "snapshot.webp", "output file")
	snapshotCmd.Flags().IntVar(&imgWidth, "width", 800, "image width")
	snapshotCmd.Flags().IntVar(&imgHeight, "height", 600, "image height")
	snapshotCmd.Flags().Float64Var(&yaw, "yaw", 0.6, "camera yaw")
	snapshotCmd.Flags().Float64Var(&pitch, "pitch", 0.35, "camera pitch")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live wireframe view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addBodyFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, describePreset(name))
			}
			return w.Flush()
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch [config]",
		Short: "re-run a config file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE:  watchConfig,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the solver on every preset",
		RunE:  benchPresets,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 3, "runs per preset")

	rootCmd.AddCommand(runCmd, listCmd, inspectCmd, plotCmd, analyzeCmd, exportJSONCmd, exportCSVCmd,
		snapshotCmd, liveCmd, presetsCmd, watchCmd, benchCmd)
	rootCmd.AddCommand(batchCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addBodyFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&source, "source", def.Mesh.Source, "mesh source (builtin:cube, builtin:sheet:N, sdf:..., or .obj path)")
	cmd.Flags().Float64Var(&dt, "dt", def.Sim.Dt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", def.Sim.Steps, "number of steps")
	cmd.Flags().IntVar(&iterations, "iterations", def.Sim.Iterations, "solver iterations per step")
	cmd.Flags().Float64Var(&compliance, "compliance", def.Body.Compliance, "constraint compliance (0 is rigid)")
	cmd.Flags().Float64Var(&invMass, "inv-mass", def.Body.InvMass, "inverse mass of free particles")
	cmd.Flags().StringVar(&lambdaPolicy, "lambda", def.Body.LambdaPolicy, "lambda policy (persist, reset)")
	cmd.Flags().StringVar(&pin, "pin", def.Body.Pin, "pin mode (top, edge)")
	cmd.Flags().Float64Var(&floorY, "floor", def.Sim.FloorY, "floor height")
}

// resolveConfig layers preset, config file and explicitly set flags, in that
// order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Mesh.Source = source
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Sim.Steps = steps
	}
	if flags.Changed("iterations") {
		cfg.Sim.Iterations = iterations
	}
	if flags.Changed("compliance") {
		cfg.Body.Compliance = compliance
	}
	if flags.Changed("inv-mass") {
		cfg.Body.InvMass = invMass
	}
	if flags.Changed("lambda") {
		cfg.Body.LambdaPolicy = lambdaPolicy
	}
	if flags.Changed("pin") {
		cfg.Body.Pin = pin
	}
	if flags.Changed("floor") {
		cfg.Sim.FloorY = floorY
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	runID, err := runAndStore(cmd.Context(), cfg)
	if runID != "" {
		fmt.Printf("run id: %s\n", runID)
	}
	return err
}

// runAndStore runs cfg and saves it. Unstable runs are stored before the
// error is returned.
func runAndStore(ctx context.Context, cfg *config.Config) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}

	metrics, err := experiment.NewRegistry().Metrics(metricNames, cfg.Sim.Dt)
	if err != nil {
		return "", err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(metrics); err != nil {
		return "", err
	}
	info := exp.Info()
	fmt.Printf("running %s: %d particles, %d constraints, %d triangles\n",
		cfg.Name, info.Particles, info.Constraints, info.Triangles)

	start := time.Now()
	result, runErr := exp.Run(ctx)
	if runErr != nil && !experiment.IsUnstable(runErr) {
		return "", runErr
	}
	elapsed := time.Since(start)

	runID, err := exp.Save(st, result)
	if err != nil {
		return "", err
	}

	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, elapsed)
	printMetrics(result.Metrics)
	return runID, runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tSTEPS\tDT\tCOMPLIANCE\tLAMBDA\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "unstable"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.4fs\t%g\t%s\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StepsTaken,
			run.Steps,
			run.Dt,
			run.Compliance,
			run.LambdaPolicy,
			status,
		)
	}
	return w.Flush()
}

func inspectRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run:         %s\n", meta.ID)
	fmt.Printf("name:        %s\n", meta.Name)
	fmt.Printf("source:      %s\n", meta.Source)
	fmt.Printf("time:        %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Printf("mesh:        %d particles, %d constraints, %d triangles\n", meta.Particles, meta.Constraints, meta.Triangles)
	fmt.Printf("steps:       %d of %d (dt=%.4f, %d iterations)\n", meta.StepsTaken, meta.Steps, meta.Dt, meta.Iterations)
	fmt.Printf("compliance:  %g (%s lambda)\n", meta.Compliance, meta.LambdaPolicy)
	if meta.Error != "" {
		fmt.Printf("error:       %s\n", meta.Error)
	}
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, minY, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(minY) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", len(minY))

	graph := asciigraph.Plot(minY,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("lowest particle height"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, minY, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	s, err := analysis.Summarize(times, minY, meta.FloorY, analysis.DefaultContactTolerance)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%d samples)\n", meta.ID, s.Samples)
	if !s.Landed {
		fmt.Printf("never reached the floor, lowest point ends at %.4f\n", s.FinalY)
		return nil
	}
	fmt.Printf("landed:    t=%.3fs\n", s.LandingTime)
	fmt.Printf("bounces:   %d\n", s.Bounces)
	if math.IsNaN(s.SettleTime) {
		fmt.Println("settled:   no")
	} else {
		fmt.Printf("settled:   t=%.3fs\n", s.SettleTime)
	}
	if s.Frequency > 0 {
		fmt.Printf("jiggle:    %.3f hz\n", s.Frequency)
	}
	return nil
}
