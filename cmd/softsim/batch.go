package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/softsim/internal/automation"
	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/optim"
	"github.com/san-kum/softsim/internal/storage"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepCount int
	sweepLog   bool

	gridSpecs  []string
	tuneMetric string

	trials  int
	perturb float64
	seed    int64
)

func batchCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a YAML scenario and store the runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and tabulate the metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addBodyFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "compliance", "parameter ("+strings.Join(config.Tunable, ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1e-7, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1e-2, "last value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 6, "number of values")
	sweepCmd.Flags().BoolVar(&sweepLog, "log", true, "space values geometrically")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the parameters that minimise a metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addBodyFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridSpecs, "grid", []string{"compliance=0,1e-6,1e-4", "iterations=2,4,8"}, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_stretch", "metric to minimise")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "drop the body repeatedly from jittered heights",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addBodyFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.25, "height jitter (m) and launch speed (m/s) bound")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	return []*cobra.Command{scenarioCmd, sweepCmd, tuneCmd, mcCmd}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, err := automation.RunScenario(cmd.Context(), sc, st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUN\tSTEPS\tSTATUS")
	for i, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "unstable"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, r.Name, r.RunID, r.Result.StepsTaken, status)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:  base,
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Count: sweepCount,
		Log:   sweepLog,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep)
	if err != nil {
		return err
	}

	names := make([]string, 0)
	if len(results) > 0 {
		for name := range results[0].Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tSTABLE", strings.ToUpper(sweepParam))
	for _, name := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(name))
	}
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%v", r.Value, r.StepsTaken, r.Stable)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.6f", r.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("grid %q: expected name=v1,v2", spec)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", spec, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	fmt.Printf("searching %d points for lowest %s\n", g.Size(), tuneMetric)
	params, best, err := g.Search(cmd.Context(), base, tuneMetric)
	if err != nil {
		return err
	}
	if params == nil {
		return fmt.Errorf("every grid point was invalid or diverged")
	}

	fmt.Printf("\nbest %s: %.6f\n", tuneMetric, best)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, params[name])
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         base,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tDROP\tLOWEST_Y\tMAX_STRETCH\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%+.3f\t%.5f\t%.4f\t%v\n", r.TrialID, r.DropOffset, r.LowestY, r.MaxStretch, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\n%d stable, %d unstable\n", stable, unstable)
	return nil
}
