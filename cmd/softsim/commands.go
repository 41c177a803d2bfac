package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/experiment"
	"github.com/san-kum/softsim/internal/export"
	"github.com/san-kum/softsim/internal/logging"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/scene"
	"github.com/san-kum/softsim/internal/storage"
	"github.com/san-kum/softsim/internal/viz"
)

func describePreset(name string) string {
	cfg, ok := config.Presets[name]
	if !ok {
		return ""
	}
	desc := fmt.Sprintf("%s, compliance %g, %s lambda", cfg.Mesh.Source, cfg.Body.Compliance, cfg.Body.LambdaPolicy)
	if cfg.Body.Pin != config.PinNone {
		desc += ", pinned " + cfg.Body.Pin
	}
	return desc
}

func buildPresetScene(name string) (*scene.Scene, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return experiment.BuildScene(cfg, mesh.Default)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := experiment.BuildScene(cfg, mesh.Default)
	if err != nil {
		return err
	}

	m := viz.NewModel(s, cfg.Name)
	if theme != "" {
		m = m.WithTheme(theme)
	}
	return viz.Run(m)
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if strings.EqualFold(filepath.Ext(outFile), ".svg") {
		times, minY, err := st.LoadTrace(runID)
		if err != nil {
			return err
		}
		svg := export.TraceToSVG(times, minY, imgWidth, imgHeight, "#00ff88")
		if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	positions, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	indices, err := runIndices(meta, len(positions))
	if err != nil {
		return err
	}

	lo, hi := bounds(positions)
	cam := viz.NewCamera()
	cam.Fit(lo, hi)
	cam.Yaw, cam.Pitch = yaw, pitch

	opts := export.DefaultRenderOptions()
	img := export.RenderWireframe(positions, indices, cam, imgWidth, imgHeight, opts)
	if err := export.SaveImage(outFile, img); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

// runIndices rebuilds the triangle indices of a stored run from its mesh
// source. Positions are stored without topology.
func runIndices(meta *storage.RunMetadata, n int) ([]int, error) {
	faces, err := mesh.Default.Load(meta.Source)
	if err != nil {
		return nil, err
	}
	m := mesh.Deduplicate(faces)
	if len(m.Points) != n {
		return nil, fmt.Errorf("mesh %s has %d vertices, run stored %d", meta.Source, len(m.Points), n)
	}
	return m.Indices, nil
}

func bounds(ps []mgl64.Vec3) (lo, hi mgl64.Vec3) {
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range ps {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi
}

func watchConfig(cmd *cobra.Command, args []string) error {
	path := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	ctx := cmd.Context()
	rerun := func() {
		cfg, err := config.Load(path)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			logging.Error("config rejected", "path", path, "err", err)
			return
		}
		runID, err := runAndStore(ctx, cfg)
		if err != nil {
			logging.Error("run failed", "path", path, "err", err)
		}
		if runID != "" {
			fmt.Printf("run id: %s\n", runID)
		}
	}

	rerun()
	fmt.Printf("watching %s (ctrl+c to stop)\n", path)

	target, _ := filepath.Abs(path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logging.Debug("config changed", "path", path, "op", event.Op.String())
			debounce = time.After(100 * time.Millisecond)
		case <-debounce:
			debounce = nil
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", "err", err)
		}
	}
}

func benchPresets(cmd *cobra.Command, args []string) error {
	if benchRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", benchRuns)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPARTICLES\tCONSTRAINTS\tSTEPS\tITER\tTIME\tSTEPS/SEC")

	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)

		var (
			total time.Duration
			info  storage.RunInfo
		)
		for i := 0; i < benchRuns; i++ {
			exp := experiment.New(cfg)
			if err := exp.Setup(nil); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			info = exp.Info()

			start := time.Now()
			if _, err := exp.Run(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			total += time.Since(start)
		}

		avg := total / time.Duration(benchRuns)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%v\t%.0f\n",
			name, info.Particles, info.Constraints, cfg.Sim.Steps, cfg.Sim.Iterations,
			avg, float64(cfg.Sim.Steps)/avg.Seconds())
	}
	return w.Flush()
}
