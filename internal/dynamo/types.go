package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Particles holds the mass points of a body as parallel slices.
// All four slices have the same length. InvMass[i] == 0 pins particle i.
type Particles struct {
	Rest      []mgl64.Vec3
	Positions []mgl64.Vec3
	Previous  []mgl64.Vec3
	InvMass   []float64
}

// NewParticles sizes every buffer once from the rest positions.
// Positions and Previous start at rest; every particle gets invMass.
func NewParticles(rest []mgl64.Vec3, invMass float64) *Particles {
	n := len(rest)
	p := &Particles{
		Rest:      make([]mgl64.Vec3, n),
		Positions: make([]mgl64.Vec3, n),
		Previous:  make([]mgl64.Vec3, n),
		InvMass:   make([]float64, n),
	}
	copy(p.Rest, rest)
	copy(p.Positions, rest)
	copy(p.Previous, rest)
	for i := range p.InvMass {
		p.InvMass[i] = invMass
	}
	return p
}

func (p *Particles) Len() int { return len(p.Positions) }

func (p *Particles) Clone() *Particles {
	c := &Particles{
		Rest:      make([]mgl64.Vec3, len(p.Rest)),
		Positions: make([]mgl64.Vec3, len(p.Positions)),
		Previous:  make([]mgl64.Vec3, len(p.Previous)),
		InvMass:   make([]float64, len(p.InvMass)),
	}
	copy(c.Rest, p.Rest)
	copy(c.Positions, p.Positions)
	copy(c.Previous, p.Previous)
	copy(c.InvMass, p.InvMass)
	return c
}

// Valid reports whether every current position is finite.
func (p *Particles) Valid() bool {
	for _, v := range p.Positions {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}

// DistanceConstraint keeps particles I0 and I1 at RestLength.
// Compliance is inverse stiffness (0 = rigid). Lambda is the accumulated
// Lagrange multiplier and is carried between iterations and between steps.
type DistanceConstraint struct {
	I0, I1     int
	RestLength float64
	Compliance float64
	Lambda     float64
}

// Body is a simulated deformable body. One step is Integrate, then
// SolveConstraints, then SolveFloorCollision.
type Body interface {
	Integrate(dt float64, gravity mgl64.Vec3)
	SolveConstraints(dt float64, iterations int)
	SolveFloorCollision(floorY float64)

	// Particles and Constraints are read-only views for observers.
	Particles() *Particles
	Constraints() []DistanceConstraint
}

type Integrator interface {
	Step(p *Particles, acceleration mgl64.Vec3, dt float64)
}

type Metric interface {
	Name() string
	Observe(b Body, step int, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(b Body, step int, t float64)
}

const (
	DefaultDt         = 0.016
	DefaultSteps      = 120
	DefaultIterations = 6
	DefaultGravity    = -9.81
)

type Config struct {
	Dt            float64
	Steps         int
	Iterations    int
	Gravity       mgl64.Vec3
	FloorY        float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		Iterations:    DefaultIterations,
		Gravity:       mgl64.Vec3{0, DefaultGravity, 0},
		FloorY:        0,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be non-negative, got %d", ErrInvalidConfig, c.Iterations)
	}
	return nil
}

type Result struct {
	Times      []float64
	MinHeights []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}
