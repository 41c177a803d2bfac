package physics

// SolveFloorCollision lifts every free particle below floorY onto the plane
// and damps its implied vertical velocity. Only the y axis is touched.
func (b *SoftBody) SolveFloorCollision(floorY float64) {
	p := b.particles
	for i := range p.Positions {
		if p.InvMass[i] == 0 {
			continue
		}
		if p.Positions[i][1] < floorY {
			p.Positions[i][1] = floorY
			y := p.Positions[i][1]
			p.Previous[i][1] = y + (p.Previous[i][1]-y)*(1-Bounce)
		}
	}
}
