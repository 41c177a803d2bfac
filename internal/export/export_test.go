package export

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/viz"
)

func cubeSnapshot() ([]mgl64.Vec3, []int) {
	m := mesh.Deduplicate(mesh.UnitCube())
	return m.Points, m.Indices
}

func countNonBackground(img *image.NRGBA, bg [4]uint8) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != bg[0] || img.Pix[i+1] != bg[1] || img.Pix[i+2] != bg[2] {
			n++
		}
	}
	return n
}

func TestRenderWireframe(t *testing.T) {
	points, indices := cubeSnapshot()
	cam := viz.NewCamera()
	cam.Fit(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	opts := DefaultRenderOptions()
	bg := [4]uint8{opts.Background.R, opts.Background.G, opts.Background.B, opts.Background.A}

	tests := []struct {
		name        string
		supersample int
		floor       bool
	}{
		{"plain", 1, false},
		{"supersampled", 2, false},
		{"with floor", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			o.Supersample = tt.supersample
			o.DrawFloor = tt.floor
			img := RenderWireframe(points, indices, cam, 120, 90, o)

			if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 90 {
				t.Fatalf("unexpected size %v", img.Bounds())
			}
			if countNonBackground(img, bg) == 0 {
				t.Error("no edges were drawn")
			}
		})
	}
}

func TestRenderWireframe_Empty(t *testing.T) {
	opts := DefaultRenderOptions()
	opts.DrawFloor = false
	opts.Supersample = 1
	img := RenderWireframe(nil, nil, viz.NewCamera(), 32, 32, opts)

	bg := [4]uint8{opts.Background.R, opts.Background.G, opts.Background.B, opts.Background.A}
	if n := countNonBackground(img, bg); n != 0 {
		t.Errorf("empty snapshot drew %d pixels", n)
	}
}

func TestEncode(t *testing.T) {
	points, indices := cubeSnapshot()
	cam := viz.NewCamera()
	cam.Fit(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	img := RenderWireframe(points, indices, cam, 64, 48, DefaultRenderOptions())

	var buf bytes.Buffer
	if err := EncodeWebP(&buf, img); err != nil {
		t.Fatalf("webp: %v", err)
	}
	if b := buf.Bytes(); len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
		t.Error("output is not a RIFF/WEBP container")
	}

	buf.Reset()
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("png bounds %v, want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	for _, name := range []string{"out.png", "out.webp"} {
		path := filepath.Join(dir, name)
		if err := SaveImage(path, img); err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written", name)
		}
	}

	if err := SaveImage(filepath.Join(dir, "out.bmp"), img); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestTraceToSVG(t *testing.T) {
	svg := TraceToSVG([]float64{0, 0.1, 0.2}, []float64{1, 0.5, -0.1}, 200, 100, "#00ff88")
	if !strings.Contains(svg, "<path") || !strings.Contains(svg, "#00ff88") {
		t.Errorf("missing path: %s", svg)
	}
	if !strings.Contains(svg, "stroke-dasharray") {
		t.Error("floor line missing when the trace crosses zero")
	}
	if strings.Count(svg, " L") != 2 {
		t.Errorf("expected 2 line segments, got %d", strings.Count(svg, " L"))
	}

	if TraceToSVG([]float64{0}, []float64{1}, 10, 10, "red") != "" {
		t.Error("single point should produce no svg")
	}
	if s := TraceToSVG([]float64{0, 1}, []float64{2, 3}, 10, 10, "red"); strings.Contains(s, "stroke-dasharray") {
		t.Error("floor line drawn outside the plotted range")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)

	svg := CanvasToSVG(c, 2)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should produce empty output")
	}
}
