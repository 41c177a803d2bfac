package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func twoParticleBody(t *testing.T, compliance float64, policy LambdaPolicy) *SoftBody {
	t.Helper()
	opts := DefaultOptions()
	opts.Compliance = compliance
	opts.Pinned = []int{0}
	opts.LambdaPolicy = policy
	b, err := NewSoftBodyFromEdges([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, []Edge{{0, 1}}, opts)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return b
}

func distance(b *SoftBody, i, j int) float64 {
	return b.Positions()[j].Sub(b.Positions()[i]).Len()
}

func TestSolveConstraints_RigidConvergence(t *testing.T) {
	b := twoParticleBody(t, 0, PersistLambda)
	b.Particles().Positions[1] = mgl64.Vec3{2.5, 0.5, -1}

	b.SolveConstraints(0.016, 10)

	if d := distance(b, 0, 1); math.Abs(d-1) > 1e-4 {
		t.Errorf("distance %.6f did not converge to rest length 1", d)
	}
	if b.Positions()[0] != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("pinned particle moved to %v", b.Positions()[0])
	}
}

func TestSolveConstraints_Compressed(t *testing.T) {
	b := twoParticleBody(t, 0, PersistLambda)
	b.Particles().Positions[1] = mgl64.Vec3{0.25, 0, 0}

	b.SolveConstraints(0.016, 6)

	if d := distance(b, 0, 1); math.Abs(d-1) > 1e-4 {
		t.Errorf("compressed constraint should push apart to 1, got %.6f", d)
	}
	if b.Constraints()[0].Lambda <= 0 {
		t.Errorf("compression should accumulate a positive multiplier, got %v", b.Constraints()[0].Lambda)
	}
}

func TestSolveConstraints_SoftIsPartial(t *testing.T) {
	rigid := twoParticleBody(t, 0, PersistLambda)
	soft := twoParticleBody(t, 1e-3, PersistLambda)
	rigid.Particles().Positions[1] = mgl64.Vec3{2, 0, 0}
	soft.Particles().Positions[1] = mgl64.Vec3{2, 0, 0}

	rigid.SolveConstraints(0.016, 1)
	soft.SolveConstraints(0.016, 1)

	if distance(soft, 0, 1) <= distance(rigid, 0, 1) {
		t.Errorf("compliant constraint should correct less: soft %.6f, rigid %.6f",
			distance(soft, 0, 1), distance(rigid, 0, 1))
	}
}

func TestSolveConstraints_LambdaPolicy(t *testing.T) {
	persist := twoParticleBody(t, 1e-4, PersistLambda)
	reset := twoParticleBody(t, 1e-4, ResetLambdaPerStep)

	for _, b := range []*SoftBody{persist, reset} {
		b.Particles().Positions[1] = mgl64.Vec3{1.5, 0, 0}
		b.SolveConstraints(0.016, 6)
	}
	first := persist.Constraints()[0].Lambda
	if first != reset.Constraints()[0].Lambda {
		t.Fatalf("policies should agree on the first step: %v vs %v", first, reset.Constraints()[0].Lambda)
	}

	// already satisfied: reset starts from zero, persist keeps its multiplier
	persist.SolveConstraints(0.016, 1)
	reset.SolveConstraints(0.016, 1)

	if reset.Constraints()[0].Lambda == first {
		t.Error("reset policy kept the previous step's multiplier")
	}
	if persist.Constraints()[0].Lambda == 0 {
		t.Error("persist policy dropped the multiplier")
	}
}

func TestSolveConstraints_Degenerate(t *testing.T) {
	b := twoParticleBody(t, 0, PersistLambda)
	b.Particles().Positions[1] = mgl64.Vec3{0, 0, 0}

	b.SolveConstraints(0.016, 6)

	if b.Positions()[1] != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("coincident particles should be skipped, got %v", b.Positions()[1])
	}
	if b.Constraints()[0].Lambda != 0 {
		t.Errorf("skipped constraint changed lambda to %v", b.Constraints()[0].Lambda)
	}
}

func TestSolveConstraints_BothPinnedRigid(t *testing.T) {
	b := twoParticleBody(t, 0, PersistLambda)
	b.Pin(1)
	b.Particles().Positions[1] = mgl64.Vec3{3, 0, 0}

	b.SolveConstraints(0.016, 6)

	if !b.Particles().Valid() {
		t.Fatal("positions became NaN/Inf")
	}
	if b.Positions()[1] != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("pinned particle moved to %v", b.Positions()[1])
	}
}

func TestSolveConstraints_NonPositiveDt(t *testing.T) {
	b := twoParticleBody(t, 1e-6, PersistLambda)
	b.Particles().Positions[1] = mgl64.Vec3{2, 0, 0}

	b.SolveConstraints(0, 6)

	if b.Positions()[1] != (mgl64.Vec3{2, 0, 0}) {
		t.Errorf("dt=0 should be a no-op, got %v", b.Positions()[1])
	}
}

func BenchmarkSolveConstraints(b *testing.B) {
	body, err := NewSoftBody(sheetMesh(32), DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	body.Integrate(0.016, mgl64.Vec3{0, -9.81, 0})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body.SolveConstraints(0.016, DefaultIterations)
	}
}
