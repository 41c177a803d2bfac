package mesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/softsim/internal/dynamo"
)

// Loader resolves a mesh source into faces of vertex positions. Failures wrap
// dynamo.ErrMeshLoad.
type Loader interface {
	Load(source string) ([]Face, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc func(source string) ([]Face, error)

func (f LoaderFunc) Load(source string) ([]Face, error) { return f(source) }

// Open dispatches on the source string:
//
//	builtin:cube          unit cube
//	builtin:sheet[:N]     N x N quad sheet of side 1 (default N=8)
//	sdf:box:X,Y,Z         sdfx primitives, see SDFLoader
//	anything else         Wavefront OBJ path
func Open(source string) ([]Face, error) {
	var (
		faces []Face
		err   error
	)
	switch {
	case strings.HasPrefix(source, "builtin:"):
		faces, err = loadBuiltin(strings.TrimPrefix(source, "builtin:"))
	case strings.HasPrefix(source, "sdf:"):
		faces, err = NewSDFLoader(DefaultSDFCells).Load(strings.TrimPrefix(source, "sdf:"))
	default:
		faces, err = OBJLoader{}.Load(source)
	}
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrEmptyMesh, source)
	}
	return faces, nil
}

// Default resolves sources through Open.
var Default Loader = LoaderFunc(Open)

func loadBuiltin(name string) ([]Face, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "cube":
		return UnitCube(), nil
	case "sheet":
		n := 8
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%w: bad sheet resolution %q", dynamo.ErrMeshLoad, arg)
			}
			n = v
		}
		return Sheet(n, n, 1), nil
	default:
		return nil, fmt.Errorf("%w: unknown builtin mesh %q", dynamo.ErrMeshLoad, kind)
	}
}

// parseFloats parses a comma separated list of exactly n floats.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values, got %d in %q", n, len(parts), s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
