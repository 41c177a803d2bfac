package metrics

import (
	"github.com/san-kum/softsim/internal/dynamo"
)

// KineticEnergy averages the kinetic energy implied by position Verlet,
// v = (p - prev) / dt, over all observed steps. Pinned particles carry no
// mass and are skipped.
type KineticEnergy struct {
	name        string
	dt          float64
	samples     int
	totalEnergy float64
	last        float64
}

func NewKineticEnergy(dt float64) *KineticEnergy {
	return &KineticEnergy{
		name: "kinetic_energy",
		dt:   dt,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(b dynamo.Body, step int, t float64) {
	if e.dt <= 0 {
		return
	}
	e.last = Kinetic(b.Particles(), e.dt)
	e.totalEnergy += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Last is the energy at the most recent observed step.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.last = 0
	e.samples = 0
}

// Kinetic returns sum 0.5 * m * |v|^2 over the particles with m = 1/w.
func Kinetic(p *dynamo.Particles, dt float64) float64 {
	ke := 0.0
	for i, w := range p.InvMass {
		if w == 0 {
			continue
		}
		v := p.Positions[i].Sub(p.Previous[i]).Mul(1 / dt)
		ke += 0.5 / w * v.Dot(v)
	}
	return ke
}
