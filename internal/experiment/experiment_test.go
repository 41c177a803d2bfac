package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/storage"
)

func TestExperiment_CubeDrop(t *testing.T) {
	cfg := config.GetPreset("cube_drop")
	metrics, err := NewRegistry().Metrics(nil, cfg.Sim.Dt)
	if err != nil {
		t.Fatal(err)
	}

	exp := New(cfg)
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
	if err := exp.Setup(metrics); err != nil {
		t.Fatalf("setup: %v", err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.StepsTaken != cfg.Sim.Steps {
		t.Errorf("expected %d steps, got %d", cfg.Sim.Steps, result.StepsTaken)
	}
	if result.Metrics["min_height"] < -1e-3 {
		t.Errorf("body went through the floor: %f", result.Metrics["min_height"])
	}
	if result.Metrics["max_stretch"] > 1.5 {
		t.Errorf("stretch %f exceeds 1.5", result.Metrics["max_stretch"])
	}
	if result.Metrics["stability"] != 1 {
		t.Errorf("stability = %f", result.Metrics["stability"])
	}

	info := exp.Info()
	if info.Particles != 8 || info.Constraints != 18 || info.Triangles != 12 {
		t.Errorf("unexpected info %+v", info)
	}

	st := storage.New(t.TempDir())
	runID, err := exp.Save(st, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	positions, err := st.LoadPositions(runID)
	if err != nil || len(positions) != 8 {
		t.Errorf("saved %d positions, %v", len(positions), err)
	}
}

func TestBuildBody(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		pinned  int
		wantErr error
	}{
		{"cube", nil, 0, nil},
		{"pin top", func(c *config.Config) { c.Body.Pin = config.PinTop }, 4, nil},
		{"pin indices", func(c *config.Config) { c.Body.PinIndices = []int{0, 1} }, 2, nil},
		{"unknown integrator", func(c *config.Config) { c.Sim.Integrator = "rk4" }, 0, dynamo.ErrInvalidConfig},
		{"bad source", func(c *config.Config) { c.Mesh.Source = "builtin:torus" }, 0, dynamo.ErrMeshLoad},
		{"invalid", func(c *config.Config) { c.Sim.Dt = 0 }, 0, dynamo.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			body, err := BuildBody(cfg, mesh.Default)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if body != nil {
					t.Error("expected no body on error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			pinned := 0
			for _, w := range body.Particles().InvMass {
				if w == 0 {
					pinned++
				}
			}
			if pinned != tt.pinned {
				t.Errorf("expected %d pinned, got %d", tt.pinned, pinned)
			}
		})
	}
}

func TestBuildScene(t *testing.T) {
	cfg := config.GetPreset("cloth")
	s, err := BuildScene(cfg, mesh.Default)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := s.Find("cloth")
	if !ok || e.Soft == nil {
		t.Fatal("cloth entity missing")
	}
	if s.Config.Steps != cfg.Sim.Steps {
		t.Error("scene config not taken from the run config")
	}
	for i := 0; i < 10; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetIntegrator("verlet"); err != nil {
		t.Error(err)
	}
	if _, err := r.GetMetric("nope", 0.016); err == nil {
		t.Error("expected error for unknown metric")
	}
	ms, err := r.Metrics([]string{"min_height", "stability"}, 0.016)
	if err != nil || len(ms) != 2 {
		t.Errorf("got %d metrics, %v", len(ms), err)
	}
	if len(r.ListMetrics()) != 5 {
		t.Errorf("expected 5 metrics, got %v", r.ListMetrics())
	}
}

func TestWithLoader(t *testing.T) {
	calls := 0
	loader := mesh.LoaderFunc(func(source string) ([]mesh.Face, error) {
		calls++
		return mesh.UnitCube(), nil
	})
	exp := New(config.DefaultConfig()).WithLoader(loader)
	if err := exp.Setup(nil); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || exp.Body() == nil || exp.GetSimulator() == nil {
		t.Error("custom loader not used")
	}
}
