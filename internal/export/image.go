// Package export renders simulation snapshots to files for consumers outside
// the live view.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/san-kum/softsim/internal/physics"
	"github.com/san-kum/softsim/internal/viz"
)

type RenderOptions struct {
	// Supersample is the oversampling factor before the downscale.
	Supersample int
	LineWidth   float32

	Background color.NRGBA
	Edge       color.NRGBA
	Floor      color.NRGBA

	DrawFloor bool
	FloorY    float64
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Supersample: 2,
		LineWidth:   1.5,
		Background:  color.NRGBA{0x0a, 0x0a, 0x0a, 0xff},
		Edge:        color.NRGBA{0x00, 0xff, 0x88, 0xff},
		Floor:       color.NRGBA{0x44, 0x44, 0x66, 0xff},
		DrawFloor:   true,
	}
}

// RenderWireframe draws the triangle edges of a snapshot into a w x h image.
func RenderWireframe(positions []mgl64.Vec3, indices []int, cam *viz.Camera, w, h int, opts RenderOptions) *image.NRGBA {
	ss := max(opts.Supersample, 1)
	bw, bh := w*ss, h*ss
	lineWidth := opts.LineWidth * float32(ss)

	big := image.NewNRGBA(image.Rect(0, 0, bw, bh))
	draw.Draw(big, big.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	if opts.DrawFloor {
		floor := vector.NewRasterizer(bw, bh)
		for _, seg := range viz.FloorSegments(cam, opts.FloorY) {
			x0, y0, _ := cam.Project(seg[0], bw, bh)
			x1, y1, _ := cam.Project(seg[1], bw, bh)
			strokeLine(floor, x0, y0, x1, y1, lineWidth)
		}
		floor.Draw(big, big.Bounds(), image.NewUniform(opts.Floor), image.Point{})
	}

	edges := vector.NewRasterizer(bw, bh)
	for _, e := range physics.BuildEdges(indices) {
		if e.A >= len(positions) || e.B >= len(positions) {
			continue
		}
		x0, y0, _ := cam.Project(positions[e.A], bw, bh)
		x1, y1, _ := cam.Project(positions[e.B], bw, bh)
		strokeLine(edges, x0, y0, x1, y1, lineWidth)
	}
	edges.Draw(big, big.Bounds(), image.NewUniform(opts.Edge), image.Point{})

	if ss == 1 {
		return big
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), big, big.Bounds(), draw.Src, nil)
	return dst
}

// strokeLine adds a quad of the given width around the segment. Every quad
// is wound the same way so overlapping edges do not cancel.
func strokeLine(z *vector.Rasterizer, x0, y0, x1, y1 float64, width float32) {
	d := mgl64.Vec2{x1 - x0, y1 - y0}
	if d.Len() == 0 {
		d = mgl64.Vec2{1, 0}
	}
	n := mgl64.Vec2{-d.Y(), d.X()}.Normalize().Mul(float64(width) / 2)

	z.MoveTo(float32(x0+n.X()), float32(y0+n.Y()))
	z.LineTo(float32(x1+n.X()), float32(y1+n.Y()))
	z.LineTo(float32(x1-n.X()), float32(y1-n.Y()))
	z.LineTo(float32(x0-n.X()), float32(y0-n.Y()))
	z.ClosePath()
}

func EncodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SaveImage writes img to path, choosing the encoder from the extension.
func SaveImage(path string, img image.Image) error {
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".webp":
		encode = EncodeWebP
	case ".png":
		encode = EncodePNG
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
