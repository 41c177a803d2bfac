package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/logging"
	"github.com/san-kum/softsim/internal/mesh"
)

var _ dynamo.Body = (*SoftBody)(nil)

// SoftBody is a mass-point / distance-constraint system. Topology (constraint
// endpoints, rest lengths, compliance) is fixed at construction; only
// positions, previous positions and multipliers change while stepping.
type SoftBody struct {
	particles   *dynamo.Particles
	constraints []dynamo.DistanceConstraint
	edges       []Edge
	indices     []int

	policy       LambdaPolicy
	launchOffset float64
	integrator   dynamo.Integrator
}

// LoadSoftBody resolves source through loader and builds a body from it. A
// load failure returns no body.
func LoadSoftBody(loader mesh.Loader, source string, opts Options) (*SoftBody, error) {
	faces, err := loader.Load(source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	m := mesh.Deduplicate(faces)
	if m.Skipped > 0 {
		logging.Debug("degenerate faces skipped", "source", source, "count", m.Skipped)
	}
	return NewSoftBody(m, opts)
}

// NewSoftBody builds particles from the deduplicated points and one
// constraint per unique triangle edge.
func NewSoftBody(m *mesh.Indexed, opts Options) (*SoftBody, error) {
	if m == nil {
		return nil, dynamo.ErrEmptyMesh
	}
	for _, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Points) {
			return nil, fmt.Errorf("%w: triangle index %d out of range", dynamo.ErrInvalidConfig, idx)
		}
	}

	b, err := NewSoftBodyFromEdges(m.Points, BuildEdges(m.Indices), opts)
	if err != nil {
		return nil, err
	}
	b.indices = append([]int(nil), m.Indices...)

	logging.Info("soft body initialized",
		"particles", b.particles.Len(),
		"triangles", len(b.indices)/3,
		"constraints", len(b.constraints),
	)
	return b, nil
}

// NewSoftBodyFromEdges builds a body from explicit points and edges with no
// triangle list.
func NewSoftBodyFromEdges(points []mgl64.Vec3, edges []Edge, opts Options) (*SoftBody, error) {
	if err := opts.validate(len(points)); err != nil {
		return nil, err
	}
	for _, e := range edges {
		if e.A < 0 || e.A >= len(points) || e.B < 0 || e.B >= len(points) {
			return nil, fmt.Errorf("%w: edge %v out of range", dynamo.ErrInvalidConfig, e)
		}
	}

	rest := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		rest[i] = p.Add(opts.Offset)
	}

	b := &SoftBody{
		particles:    dynamo.NewParticles(rest, opts.InvMass),
		edges:        append([]Edge(nil), edges...),
		policy:       opts.LambdaPolicy,
		launchOffset: opts.LaunchOffset,
		integrator:   opts.integrator(),
	}
	b.constraints = BuildConstraints(b.particles.Rest, b.edges, opts.Compliance)
	for _, i := range opts.Pinned {
		b.particles.InvMass[i] = 0
	}
	b.applyLaunch()
	return b, nil
}

func (b *SoftBody) applyLaunch() {
	if b.launchOffset == 0 {
		return
	}
	for i := range b.particles.Previous {
		b.particles.Previous[i][1] -= b.launchOffset
	}
}

// Integrate predicts new positions from the implied velocity and acceleration.
func (b *SoftBody) Integrate(dt float64, gravity mgl64.Vec3) {
	b.integrator.Step(b.particles, gravity, dt)
}

func (b *SoftBody) Particles() *dynamo.Particles { return b.particles }

func (b *SoftBody) Constraints() []dynamo.DistanceConstraint { return b.constraints }

func (b *SoftBody) Edges() []Edge { return b.edges }

// Indices is the triangle list (three entries per triangle) of the source mesh.
func (b *SoftBody) Indices() []int { return b.indices }

func (b *SoftBody) NumParticles() int { return b.particles.Len() }

func (b *SoftBody) RestPositions() []mgl64.Vec3 { return b.particles.Rest }

// Positions is the live position buffer. Callers must not write to it.
func (b *SoftBody) Positions() []mgl64.Vec3 { return b.particles.Positions }

func (b *SoftBody) LambdaPolicy() LambdaPolicy { return b.policy }

// Snapshot copies the current positions into dst, growing it if needed.
func (b *SoftBody) Snapshot(dst []mgl64.Vec3) []mgl64.Vec3 {
	n := b.particles.Len()
	if cap(dst) < n {
		dst = make([]mgl64.Vec3, n)
	}
	dst = dst[:n]
	copy(dst, b.particles.Positions)
	return dst
}

// Reset returns the body to its constructed state.
func (b *SoftBody) Reset() {
	copy(b.particles.Positions, b.particles.Rest)
	copy(b.particles.Previous, b.particles.Rest)
	b.applyLaunch()
	for i := range b.constraints {
		b.constraints[i].Lambda = 0
	}
}

func (b *SoftBody) Pin(i int) {
	b.particles.InvMass[i] = 0
}

func (b *SoftBody) Unpin(i int, invMass float64) {
	b.particles.InvMass[i] = invMass
}

// PinWhere pins every particle whose rest position satisfies pred and returns
// how many were pinned.
func (b *SoftBody) PinWhere(pred func(i int, rest mgl64.Vec3) bool) int {
	n := 0
	for i, r := range b.particles.Rest {
		if pred(i, r) {
			b.particles.InvMass[i] = 0
			n++
		}
	}
	return n
}

// PinTop pins the particles within eps of the highest rest y.
func (b *SoftBody) PinTop(eps float64) int {
	top := math.Inf(-1)
	for _, r := range b.particles.Rest {
		top = math.Max(top, r.Y())
	}
	return b.PinWhere(func(_ int, r mgl64.Vec3) bool {
		return r.Y() >= top-eps
	})
}

// PinEdge pins the particles within eps of the lowest rest z, the back edge
// of a sheet.
func (b *SoftBody) PinEdge(eps float64) int {
	edge := math.Inf(1)
	for _, r := range b.particles.Rest {
		edge = math.Min(edge, r.Z())
	}
	return b.PinWhere(func(_ int, r mgl64.Vec3) bool {
		return r.Z() <= edge+eps
	})
}

// MaxStretch returns the largest current-to-rest length ratio over all
// constraints with a non-zero rest length, or 1 when there are none.
func (b *SoftBody) MaxStretch() float64 {
	return StretchRatio(b.particles, b.constraints)
}

func StretchRatio(p *dynamo.Particles, cs []dynamo.DistanceConstraint) float64 {
	ratio := 1.0
	seen := false
	for _, c := range cs {
		if c.RestLength == 0 {
			continue
		}
		r := p.Positions[c.I1].Sub(p.Positions[c.I0]).Len() / c.RestLength
		if !seen || r > ratio {
			ratio, seen = r, true
		}
	}
	return ratio
}
