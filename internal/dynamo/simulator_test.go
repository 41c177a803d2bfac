package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// fallingBody integrates explicitly and clamps to the floor; enough to drive
// the simulator without the constraint solver.
type fallingBody struct {
	p       *Particles
	steps   int
	blowUp  int
	solved  int
	floored int
}

func newFallingBody(ys ...float64) *fallingBody {
	rest := make([]mgl64.Vec3, len(ys))
	for i, y := range ys {
		rest[i] = mgl64.Vec3{float64(i), y, 0}
	}
	return &fallingBody{p: NewParticles(rest, 1), blowUp: -1}
}

func (b *fallingBody) Integrate(dt float64, g mgl64.Vec3) {
	b.steps++
	for i := range b.p.Positions {
		cur := b.p.Positions[i]
		b.p.Positions[i] = cur.Add(cur.Sub(b.p.Previous[i])).Add(g.Mul(dt * dt))
		b.p.Previous[i] = cur
	}
	if b.steps == b.blowUp {
		b.p.Positions[0] = mgl64.Vec3{math.NaN(), 0, 0}
	}
}

func (b *fallingBody) SolveConstraints(dt float64, iterations int) { b.solved++ }

func (b *fallingBody) SolveFloorCollision(floorY float64) {
	b.floored++
	for i := range b.p.Positions {
		if b.p.Positions[i].Y() < floorY {
			b.p.Positions[i][1] = floorY
		}
	}
}

func (b *fallingBody) Particles() *Particles             { return b.p }
func (b *fallingBody) Constraints() []DistanceConstraint { return nil }

type countingMetric struct{ n int }

func (m *countingMetric) Name() string                     { return "count" }
func (m *countingMetric) Observe(_ Body, _ int, _ float64) { m.n++ }
func (m *countingMetric) Value() float64                   { return float64(m.n) }
func (m *countingMetric) Reset()                           { m.n = 0 }

type observerFunc func(b Body, step int, t float64)

func (f observerFunc) OnStep(b Body, step int, t float64) { f(b, step, t) }

func TestSimulator_Run(t *testing.T) {
	body := newFallingBody(1, 2)
	sim := New(body)
	metric := &countingMetric{}
	sim.AddMetric(metric)

	var steps []int
	sim.AddObserver(observerFunc(func(_ Body, step int, _ float64) {
		steps = append(steps, step)
	}))

	cfg := DefaultConfig()
	cfg.Steps = 50
	result, err := sim.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.StepsTaken != 50 {
		t.Errorf("expected 50 steps, got %d", result.StepsTaken)
	}
	if len(result.Times) != 51 || len(result.MinHeights) != 51 {
		t.Errorf("expected 51 samples, got %d times and %d heights", len(result.Times), len(result.MinHeights))
	}
	if result.MinHeights[0] != 1 {
		t.Errorf("initial lowest y = %v, want 1", result.MinHeights[0])
	}
	if result.MinHeights[50] != 0 {
		t.Errorf("final lowest y = %v, want floor", result.MinHeights[50])
	}
	if result.Metrics["count"] != 50 {
		t.Errorf("metric observed %v steps", result.Metrics["count"])
	}
	if len(steps) != 50 || steps[0] != 0 || steps[49] != 49 {
		t.Errorf("observer saw steps %v", steps)
	}
	if body.steps != 50 || body.solved != 50 || body.floored != 50 {
		t.Errorf("phases ran %d/%d/%d times", body.steps, body.solved, body.floored)
	}
}

func TestSimulator_RunInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Steps: 10}},
		{"negative dt", Config{Dt: -0.01, Steps: 10}},
		{"NaN dt", Config{Dt: math.NaN(), Steps: 10}},
		{"negative steps", Config{Dt: 0.01, Steps: -1}},
		{"negative iterations", Config{Dt: 0.01, Steps: 1, Iterations: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newFallingBody(1)).Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulator_RunCancelled(t *testing.T) {
	body := newFallingBody(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(body).Run(ctx, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 0 || body.steps != 0 {
		t.Errorf("cancelled run stepped %d times", body.steps)
	}
}

func TestSimulator_RunUnstable(t *testing.T) {
	body := newFallingBody(1)
	body.blowUp = 3

	result, err := New(body).Run(context.Background(), DefaultConfig())
	if !errors.Is(err, ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Step != 2 {
		t.Errorf("diverged at step %d, want 2", simErr.Step)
	}
	if result.StepsTaken != 2 || len(result.Errors) != 1 {
		t.Errorf("steps %d, errors %d", result.StepsTaken, len(result.Errors))
	}
}

func TestSimulator_ValidationDisabled(t *testing.T) {
	body := newFallingBody(1)
	body.blowUp = 1
	cfg := DefaultConfig()
	cfg.ValidateState = false
	cfg.Steps = 5

	result, err := New(body).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StepsTaken != 5 {
		t.Errorf("expected all 5 steps, got %d", result.StepsTaken)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 7, Time: 0.112, Wrapped: ErrUnstable}
	want := "step 7 (t=0.1120): dynamo: simulation unstable (state diverged)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestLowestY(t *testing.T) {
	if got := LowestY(nil); got != 0 {
		t.Errorf("nil particles: %v", got)
	}
	if got := LowestY(NewParticles(nil, 1)); got != 0 {
		t.Errorf("empty particles: %v", got)
	}
	if got := LowestY(newFallingBody(3, -2, 5).p); got != -2 {
		t.Errorf("got %v, want -2", got)
	}
}

func TestParticles(t *testing.T) {
	p := NewParticles([]mgl64.Vec3{{0, 1, 0}, {1, 1, 0}}, 0.5)
	if p.Len() != 2 {
		t.Fatalf("Len = %d", p.Len())
	}
	if p.InvMass[0] != 0.5 || p.InvMass[1] != 0.5 {
		t.Errorf("inv mass %v", p.InvMass)
	}

	c := p.Clone()
	c.Positions[0] = mgl64.Vec3{9, 9, 9}
	if p.Positions[0] == c.Positions[0] {
		t.Error("clone aliases positions")
	}

	if !p.Valid() {
		t.Error("finite particles reported invalid")
	}
	p.Positions[1][2] = math.Inf(1)
	if p.Valid() {
		t.Error("Inf position reported valid")
	}
}

func TestEnsemble(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = 20

	ens := NewEnsemble(4, func(idx int) (Body, []Metric, error) {
		return newFallingBody(float64(idx + 1)), []Metric{&countingMetric{}}, nil
	})
	results, err := ens.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.MinHeights[0] != float64(i+1) {
			t.Errorf("run %d started at %v", i, r.MinHeights[0])
		}
		if r.Metrics["count"] != 20 {
			t.Errorf("run %d observed %v steps", i, r.Metrics["count"])
		}
	}

	failing := NewEnsemble(2, func(idx int) (Body, []Metric, error) {
		if idx == 1 {
			return nil, nil, ErrEmptyMesh
		}
		return newFallingBody(1), nil, nil
	})
	if _, err := failing.Run(context.Background(), cfg); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestEnsemble_KeepsDivergedRuns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steps = 10

	ens := NewEnsemble(3, func(idx int) (Body, []Metric, error) {
		b := newFallingBody(1)
		if idx == 2 {
			b.blowUp = 3
		}
		return b, nil, nil
	})
	results, err := ens.Run(context.Background(), cfg)
	if !errors.Is(err, ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
	if results[0].StepsTaken != 10 || results[1].StepsTaken != 10 {
		t.Error("stable runs should complete")
	}
	if results[2] == nil || results[2].StepsTaken != 2 {
		t.Errorf("diverged run should keep its partial result, got %+v", results[2])
	}
}
