package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/softsim/internal/dynamo"
)

// OBJLoader extracts `v` and `f` records from Wavefront OBJ files. Normals,
// texture coordinates, groups and materials are ignored.
type OBJLoader struct{}

func (l OBJLoader) Load(path string) ([]Face, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrMeshLoad, err)
	}
	defer f.Close()

	faces, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return faces, nil
}

// ParseOBJ reads OBJ text from r.
func ParseOBJ(r io.Reader) ([]Face, error) {
	var (
		verts []mgl64.Vec3
		faces []Face
	)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", dynamo.ErrMeshLoad, line)
			}
			var v mgl64.Vec3
			for k := 0; k < 3; k++ {
				c, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", dynamo.ErrMeshLoad, line, err)
				}
				v[k] = c
			}
			verts = append(verts, v)

		case "f":
			face := make(Face, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, _, _ := strings.Cut(tok, "/")
				idx, err := strconv.Atoi(ref)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: bad face index %q", dynamo.ErrMeshLoad, line, tok)
				}
				// 1-based; negative counts back from the last vertex read so far
				if idx < 0 {
					idx = len(verts) + idx
				} else {
					idx--
				}
				if idx < 0 || idx >= len(verts) {
					return nil, fmt.Errorf("%w: line %d: face index %q out of range", dynamo.ErrMeshLoad, line, tok)
				}
				face = append(face, verts[idx])
			}
			faces = append(faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrMeshLoad, err)
	}

	return faces, nil
}
