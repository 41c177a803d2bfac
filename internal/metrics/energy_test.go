package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
)

type stubBody struct {
	p  *dynamo.Particles
	cs []dynamo.DistanceConstraint
}

func (b *stubBody) Integrate(float64, mgl64.Vec3)            {}
func (b *stubBody) SolveConstraints(float64, int)            {}
func (b *stubBody) SolveFloorCollision(float64)              {}
func (b *stubBody) Particles() *dynamo.Particles             { return b.p }
func (b *stubBody) Constraints() []dynamo.DistanceConstraint { return b.cs }

func pair(length float64) *stubBody {
	p := dynamo.NewParticles([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, 1)
	p.Positions[1] = mgl64.Vec3{length, 0, 0}
	return &stubBody{
		p:  p,
		cs: []dynamo.DistanceConstraint{{I0: 0, I1: 1, RestLength: 1}},
	}
}

func TestKineticEnergy(t *testing.T) {
	b := pair(1)
	b.p.InvMass[1] = 0.5 // m = 2
	b.p.Previous[1] = mgl64.Vec3{1, -0.1, 0}

	m := NewKineticEnergy(0.1)
	m.Observe(b, 0, 0)

	// v = (0, 1, 0), 0.5 * 2 * 1
	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected energy 1, got %f", m.Value())
	}

	b.p.InvMass[1] = 0
	m.Observe(b, 1, 0.1)
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("pinned particle should contribute nothing; mean = %f", m.Value())
	}
	if m.Last() != 0 {
		t.Errorf("last = %f, want 0", m.Last())
	}
}

func TestKineticEnergyReset(t *testing.T) {
	b := pair(1)
	b.p.Previous[0] = mgl64.Vec3{0, 1, 0}

	m := NewKineticEnergy(0.016)
	m.Observe(b, 0, 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestStretchMetrics(t *testing.T) {
	tests := []struct {
		name          string
		lengths       []float64
		wantMax       float64
		wantStability float64
	}{
		{"at rest", []float64{1, 1}, 1, 1},
		{"compressed", []float64{0.5}, 1, 1},
		{"mild stretch", []float64{1.2, 1.1}, 1.2, 1},
		{"one violation", []float64{1, 2, 1, 1}, 2, 0.75},
		{"exactly threshold", []float64{1.5}, 1.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxStretch := NewMaxStretch()
			stability := NewStability(DefaultStretchThreshold)
			for i, l := range tt.lengths {
				b := pair(l)
				maxStretch.Observe(b, i, 0)
				stability.Observe(b, i, 0)
			}
			if math.Abs(maxStretch.Value()-tt.wantMax) > 1e-12 {
				t.Errorf("max stretch = %f, want %f", maxStretch.Value(), tt.wantMax)
			}
			if math.Abs(stability.Value()-tt.wantStability) > 1e-12 {
				t.Errorf("stability = %f, want %f", stability.Value(), tt.wantStability)
			}
		})
	}
}

func TestStabilityCountsNaN(t *testing.T) {
	b := pair(1)
	b.p.Positions[0] = mgl64.Vec3{math.NaN(), 0, 0}

	s := NewStability(DefaultStretchThreshold)
	s.Observe(b, 0, 0)
	if s.Value() != 0 {
		t.Errorf("NaN state should be unstable, got %f", s.Value())
	}
}

func TestMinHeightAndLambda(t *testing.T) {
	b := pair(1)
	h := NewMinHeight()
	l := NewLambdaMagnitude()

	if h.Value() != 0 {
		t.Errorf("unobserved min height = %f", h.Value())
	}

	b.p.Positions[0] = mgl64.Vec3{0, -0.25, 0}
	b.cs[0].Lambda = -0.3
	h.Observe(b, 0, 0)
	l.Observe(b, 0, 0)

	b.p.Positions[0] = mgl64.Vec3{0, 2, 0}
	b.cs[0].Lambda = 0.1
	h.Observe(b, 1, 0)
	l.Observe(b, 1, 0)

	if h.Value() != -0.25 {
		t.Errorf("min height = %f, want -0.25", h.Value())
	}
	if l.Value() != 0.1 {
		t.Errorf("lambda magnitude = %f, want 0.1", l.Value())
	}

	h.Reset()
	l.Reset()
	if h.Value() != 0 || l.Value() != 0 {
		t.Error("reset did not clear metrics")
	}
}

func TestDefault(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Default(0.016) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	for _, name := range []string{"min_height", "max_stretch", "kinetic_energy", "stability", "lambda_magnitude"} {
		if !seen[name] {
			t.Errorf("missing metric %s", name)
		}
	}
}
