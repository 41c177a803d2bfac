package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/integrators"
)

const (
	DefaultCompliance = 1e-6
	DefaultInvMass    = 1.0
	DefaultIterations = dynamo.DefaultIterations

	// Bounce is the share of the implied vertical velocity absorbed toward the
	// floor on contact: prev.y = y + (prev.y - y) * (1 - Bounce).
	Bounce = 0.2

	minConstraintLength = 1e-6
)

// LambdaPolicy selects what happens to constraint multipliers between steps.
type LambdaPolicy int

const (
	// PersistLambda carries every multiplier from step to step.
	PersistLambda LambdaPolicy = iota
	// ResetLambdaPerStep zeros every multiplier at the start of SolveConstraints.
	ResetLambdaPerStep
)

func (p LambdaPolicy) String() string {
	switch p {
	case PersistLambda:
		return "persist"
	case ResetLambdaPerStep:
		return "reset"
	default:
		return fmt.Sprintf("LambdaPolicy(%d)", int(p))
	}
}

func ParseLambdaPolicy(s string) (LambdaPolicy, error) {
	switch s {
	case "", "persist":
		return PersistLambda, nil
	case "reset":
		return ResetLambdaPerStep, nil
	default:
		return 0, fmt.Errorf("%w: unknown lambda policy %q", dynamo.ErrInvalidConfig, s)
	}
}

// Options are taken literally: a zero Compliance is a rigid constraint and a
// zero InvMass pins every particle. Start from DefaultOptions.
type Options struct {
	Compliance   float64
	InvMass      float64
	Pinned       []int
	LambdaPolicy LambdaPolicy

	// Offset translates the rest positions at construction.
	Offset mgl64.Vec3

	// LaunchOffset lowers every previous y by this amount, giving the body a
	// small upward implied velocity on its first step.
	LaunchOffset float64

	// Integrator defaults to position Verlet.
	Integrator dynamo.Integrator
}

func DefaultOptions() Options {
	return Options{
		Compliance:   DefaultCompliance,
		InvMass:      DefaultInvMass,
		LambdaPolicy: PersistLambda,
	}
}

func (o Options) validate(n int) error {
	if o.Compliance < 0 {
		return fmt.Errorf("%w: compliance must be non-negative, got %g", dynamo.ErrInvalidConfig, o.Compliance)
	}
	if o.InvMass < 0 {
		return fmt.Errorf("%w: inverse mass must be non-negative, got %g", dynamo.ErrInvalidConfig, o.InvMass)
	}
	for _, i := range o.Pinned {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: pinned index %d out of range [0,%d)", dynamo.ErrInvalidConfig, i, n)
		}
	}
	return nil
}

func (o Options) integrator() dynamo.Integrator {
	if o.Integrator != nil {
		return o.Integrator
	}
	return integrators.NewVerlet()
}
