// Package integrators advances particle positions under a constant acceleration.
package integrators

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
)

// Verlet is position Verlet: velocity is never stored, it is the one-step
// delta between current and previous positions. Corrections applied to
// positions after integration therefore feed into the next step's velocity.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

// Step moves every particle with non-zero inverse mass. Pinned particles are
// left untouched, including their previous position.
func (v *Verlet) Step(p *dynamo.Particles, acceleration mgl64.Vec3, dt float64) {
	dt2 := dt * dt
	kick := acceleration.Mul(dt2)

	for i := range p.Positions {
		if p.InvMass[i] == 0 {
			continue
		}
		cur := p.Positions[i]
		velocity := cur.Sub(p.Previous[i])
		p.Previous[i] = cur
		p.Positions[i] = cur.Add(velocity).Add(kick)
	}
}
