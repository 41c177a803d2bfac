package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softsim/internal/physics"
)

// Camera is an orthographic orbit camera around Target.
type Camera struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Yaw: 0.6, Pitch: 0.35, Zoom: 1.0}
}

func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-1.5, math.Min(1.5, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(50, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.02, c.Zoom/1.2) }

// Fit centres the camera on the box and zooms so it fills most of the view.
func (c *Camera) Fit(lo, hi mgl64.Vec3) {
	c.Target = lo.Add(hi).Mul(0.5)
	if r := hi.Sub(lo).Len() / 2; r > 0 {
		c.Zoom = 1.2 / r
	}
}

// View returns p in camera space: x right, y up, z toward the viewer.
func (c *Camera) View(p mgl64.Vec3) mgl64.Vec3 {
	rot := mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
	return rot.Mul3x1(p.Sub(c.Target)).Mul(c.Zoom)
}

// Project maps p onto a w x h surface. One world unit at zoom 1 spans a third
// of the shorter side.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y, depth float64) {
	v := c.View(p)
	scale := float64(min(w, h)) / 3
	return float64(w)/2 + v.X()*scale, float64(h)/2 - v.Y()*scale, v.Z()
}

// projectInt rounds a projection to sub-pixels. Points far off the surface,
// or not finite, report false.
func (c *Camera) projectInt(p mgl64.Vec3, w, h int) (int, int, bool) {
	x, y, _ := c.Project(p, w, h)
	limit := float64(8 * (w + h))
	if !(math.Abs(x) < limit && math.Abs(y) < limit) {
		return 0, 0, false
	}
	return int(math.Round(x)), int(math.Round(y)), true
}

// FloorSegments outlines a square of the floor plane under the camera target.
func FloorSegments(cam *Camera, floorY float64) [][2]mgl64.Vec3 {
	e := 1.5 / cam.Zoom
	cx, cz := cam.Target.X(), cam.Target.Z()
	a := mgl64.Vec3{cx - e, floorY, cz - e}
	b := mgl64.Vec3{cx + e, floorY, cz - e}
	c := mgl64.Vec3{cx + e, floorY, cz + e}
	d := mgl64.Vec3{cx - e, floorY, cz + e}
	return [][2]mgl64.Vec3{{a, b}, {b, c}, {c, d}, {d, a}}
}

// DrawWireframe draws every edge of a snapshot onto the canvas. Without
// edges the particles are drawn as dots.
func DrawWireframe(c *Canvas, cam *Camera, positions []mgl64.Vec3, edges []physics.Edge) {
	if c == nil || cam == nil {
		return
	}
	w, h := c.Width*2, c.Height*4
	if len(edges) == 0 {
		for _, p := range positions {
			if x, y, ok := cam.projectInt(p, w, h); ok {
				c.Set(x, y)
			}
		}
		return
	}
	for _, e := range edges {
		if e.A >= len(positions) || e.B >= len(positions) {
			continue
		}
		x0, y0, ok0 := cam.projectInt(positions[e.A], w, h)
		x1, y1, ok1 := cam.projectInt(positions[e.B], w, h)
		if ok0 && ok1 {
			c.DrawLine(x0, y0, x1, y1)
		}
	}
}

func DrawFloor(c *Canvas, cam *Camera, floorY float64) {
	w, h := c.Width*2, c.Height*4
	for _, seg := range FloorSegments(cam, floorY) {
		x0, y0, ok0 := cam.projectInt(seg[0], w, h)
		x1, y1, ok1 := cam.projectInt(seg[1], w, h)
		if ok0 && ok1 {
			c.DrawDashed(x0, y0, x1, y1, 3)
		}
	}
}
