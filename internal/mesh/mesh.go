// Package mesh turns raw polygon faces into an indexed, triangulated point set.
//
// Sources ([Loader]) only extract vertex positions per face; [Deduplicate]
// merges identical positions into particles and fan-triangulates polygons.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/logging"
)

// Face is an ordered list of vertex positions in consistent winding order.
type Face []mgl64.Vec3

// Indexed is a deduplicated, triangulated mesh. Indices has three entries per
// triangle and refers into Points.
type Indexed struct {
	Points  []mgl64.Vec3
	Indices []int
	Skipped int // faces with fewer than 3 vertices
	Refs    int // face-vertex references seen
}

func (m *Indexed) TriangleCount() int { return len(m.Indices) / 3 }

// Bounds returns the axis-aligned box of Points. An empty mesh returns zeros.
func (m *Indexed) Bounds() (min, max mgl64.Vec3) {
	if len(m.Points) == 0 {
		return min, max
	}
	min = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range m.Points {
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], p[k])
			max[k] = math.Max(max[k], p[k])
		}
	}
	return min, max
}

// Translate shifts every point by offset.
func (m *Indexed) Translate(offset mgl64.Vec3) {
	for i := range m.Points {
		m.Points[i] = m.Points[i].Add(offset)
	}
}

// Deduplicate assigns one particle per distinct position and fan-triangulates
// every face. Positions merge only on exact equality, so vertices that differ
// in the last bit stay separate particles.
func Deduplicate(faces []Face) *Indexed {
	m := &Indexed{
		Points:  make([]mgl64.Vec3, 0),
		Indices: make([]int, 0),
	}
	seen := make(map[mgl64.Vec3]int)
	faceIdx := make([]int, 0, 4)

	for f, face := range faces {
		if len(face) < 3 {
			m.Skipped++
			logging.Debug("skipping degenerate face", "face", f, "vertices", len(face))
			continue
		}

		faceIdx = faceIdx[:0]
		for _, pos := range face {
			m.Refs++
			idx, ok := seen[pos]
			if !ok {
				idx = len(m.Points)
				m.Points = append(m.Points, pos)
				seen[pos] = idx
			}
			faceIdx = append(faceIdx, idx)
		}

		for t := 1; t < len(faceIdx)-1; t++ {
			m.Indices = append(m.Indices, faceIdx[0], faceIdx[t], faceIdx[t+1])
		}
	}

	return m
}
