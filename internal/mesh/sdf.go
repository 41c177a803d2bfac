package mesh

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
)

// DefaultSDFCells is the marching cubes resolution along the longest axis.
const DefaultSDFCells = 16

// SDFLoader tessellates sdfx primitives with uniform marching cubes. The output
// is a non-indexed triangle soup; shared corners are merged by Deduplicate.
//
// Sources: "box:X,Y,Z", "sphere:R", "cylinder:H,R".
type SDFLoader struct {
	Cells int
}

func NewSDFLoader(cells int) *SDFLoader {
	if cells <= 0 {
		cells = DefaultSDFCells
	}
	return &SDFLoader{Cells: cells}
}

func (l *SDFLoader) Load(source string) ([]Face, error) {
	s, err := l.primitive(source)
	if err != nil {
		return nil, fmt.Errorf("%w: sdf %q: %v", dynamo.ErrMeshLoad, source, err)
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(l.Cells))
	faces := make([]Face, 0, len(triangles))
	for _, tri := range triangles {
		faces = append(faces, Face{toVec(tri[0]), toVec(tri[1]), toVec(tri[2])})
	}
	return faces, nil
}

func (l *SDFLoader) primitive(source string) (sdf.SDF3, error) {
	kind, args, _ := strings.Cut(source, ":")
	switch kind {
	case "box":
		v, err := parseFloats(args, 3)
		if err != nil {
			return nil, err
		}
		return sdf.Box3D(v3.Vec{X: v[0], Y: v[1], Z: v[2]}, 0)
	case "sphere":
		v, err := parseFloats(args, 1)
		if err != nil {
			return nil, err
		}
		return sdf.Sphere3D(v[0])
	case "cylinder":
		v, err := parseFloats(args, 2)
		if err != nil {
			return nil, err
		}
		return sdf.Cylinder3D(v[0], v[1], 0)
	default:
		return nil, fmt.Errorf("unknown primitive %q", kind)
	}
}

func toVec(v v3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
