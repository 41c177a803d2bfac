package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
)

// Edge is an unordered pair of particle indices: Edge{a,b} equals Edge{b,a}.
type Edge struct {
	A, B int
}

// Key returns the canonical ordering used for set membership.
func (e Edge) Key() Edge {
	if e.A > e.B {
		return Edge{A: e.B, B: e.A}
	}
	return e
}

func (e Edge) Equal(o Edge) bool { return e.Key() == o.Key() }

// BuildEdges collects the unique undirected edges of a triangle list, in
// first-insertion order. An edge shared by adjacent triangles appears once.
// Self-loops from collapsed triangles are dropped.
func BuildEdges(indices []int) []Edge {
	seen := make(map[Edge]struct{}, len(indices))
	edges := make([]Edge, 0, len(indices)/2)

	add := func(a, b int) {
		if a == b {
			return
		}
		e := Edge{A: a, B: b}
		k := e.Key()
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		edges = append(edges, e)
	}

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		add(i0, i1)
		add(i1, i2)
		add(i2, i0)
	}
	return edges
}

// BuildConstraints creates one distance constraint per edge with the rest
// length measured between the rest positions and a zero multiplier.
func BuildConstraints(rest []mgl64.Vec3, edges []Edge, compliance float64) []dynamo.DistanceConstraint {
	cs := make([]dynamo.DistanceConstraint, 0, len(edges))
	for _, e := range edges {
		cs = append(cs, dynamo.DistanceConstraint{
			I0:         e.A,
			I1:         e.B,
			RestLength: rest[e.A].Sub(rest[e.B]).Len(),
			Compliance: compliance,
		})
	}
	return cs
}
