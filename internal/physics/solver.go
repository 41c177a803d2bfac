package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
)

// SolveConstraints runs iterations Gauss-Seidel passes over the constraints:
// later constraints in a pass see the corrections of earlier ones. A
// non-positive dt is a no-op.
func (b *SoftBody) SolveConstraints(dt float64, iterations int) {
	if dt <= 0 {
		return
	}
	if b.policy == ResetLambdaPerStep {
		for i := range b.constraints {
			b.constraints[i].Lambda = 0
		}
	}

	for it := 0; it < iterations; it++ {
		for i := range b.constraints {
			projectDistance(b.particles, &b.constraints[i], dt)
		}
	}
}

// projectDistance applies one XPBD update to c. Coincident endpoints are
// skipped for this pass; so is a rigid constraint between two pinned particles.
func projectDistance(p *dynamo.Particles, c *dynamo.DistanceConstraint, dt float64) {
	d := p.Positions[c.I1].Sub(p.Positions[c.I0])
	length := d.Len()
	if length < minConstraintLength {
		return
	}

	w0 := p.InvMass[c.I0]
	w1 := p.InvMass[c.I1]
	alpha := c.Compliance / (dt * dt)
	denom := w0 + w1 + alpha
	if denom == 0 {
		return
	}

	violation := length - c.RestLength
	grad := mgl64.Vec3{d[0] / length, d[1] / length, d[2] / length}

	deltaLambda := (-violation - alpha*c.Lambda) / denom
	c.Lambda += deltaLambda

	p.Positions[c.I0] = p.Positions[c.I0].Sub(grad.Mul(w0 * deltaLambda))
	p.Positions[c.I1] = p.Positions[c.I1].Add(grad.Mul(w1 * deltaLambda))
}
