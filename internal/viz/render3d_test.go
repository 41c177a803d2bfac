package viz

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/physics"
)

func TestCamera_Project(t *testing.T) {
	cam := &Camera{Zoom: 1}

	tests := []struct {
		name  string
		p     mgl64.Vec3
		wantX float64
		wantY float64
	}{
		{"origin at centre", mgl64.Vec3{0, 0, 0}, 45, 30},
		{"x is right", mgl64.Vec3{1, 0, 0}, 65, 30},
		{"y is up", mgl64.Vec3{0, 1, 0}, 45, 10},
		{"z is depth", mgl64.Vec3{0, 0, 1}, 45, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, _ := cam.Project(tt.p, 90, 60)
			if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
				t.Errorf("got (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCamera_Orbit(t *testing.T) {
	cam := &Camera{Zoom: 1}
	cam.Rotate(math.Pi/2, 0)

	x, _, depth := cam.Project(mgl64.Vec3{1, 0, 0}, 90, 60)
	if math.Abs(x-45) > 1e-9 || math.Abs(math.Abs(depth)-1) > 1e-9 {
		t.Errorf("quarter turn should move x into depth: x=%v depth=%v", x, depth)
	}

	cam.Rotate(0, 10)
	if cam.Pitch > 1.5 {
		t.Errorf("pitch not clamped: %v", cam.Pitch)
	}

	zoom := cam.Zoom
	cam.ZoomIn()
	cam.ZoomOut()
	if math.Abs(cam.Zoom-zoom) > 1e-12 {
		t.Errorf("zoom in/out not symmetric: %v", cam.Zoom)
	}
}

func TestCamera_Fit(t *testing.T) {
	cam := NewCamera()
	cam.Fit(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2})

	if cam.Target != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("target = %v", cam.Target)
	}
	x, y, _ := cam.Project(cam.Target, 100, 100)
	if math.Abs(x-50) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("target not centred: (%v, %v)", x, y)
	}
}

func TestDrawWireframe(t *testing.T) {
	m := mesh.Deduplicate(mesh.UnitCube())
	cam := NewCamera()
	cam.Fit(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})

	c := NewCanvas(40, 20)
	DrawWireframe(c, cam, m.Points, physics.BuildEdges(m.Indices))
	if c.Count() == 0 {
		t.Fatal("wireframe drew nothing")
	}

	c.Clear()
	DrawWireframe(c, cam, m.Points, nil)
	if c.Count() == 0 || c.Count() > len(m.Points) {
		t.Errorf("point mode drew %d dots for %d points", c.Count(), len(m.Points))
	}

	c.Clear()
	bad := []mgl64.Vec3{{math.NaN(), 0, 0}, {0, 0, 0}}
	DrawWireframe(c, cam, bad, []physics.Edge{{A: 0, B: 1}, {A: 0, B: 5}})
	if c.Count() != 0 {
		t.Error("edges with non-finite or missing endpoints should be skipped")
	}

	c.Clear()
	DrawFloor(c, cam, 0)
	if c.Count() == 0 {
		t.Error("floor not drawn")
	}
}
