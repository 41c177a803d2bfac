package mesh

import "github.com/go-gl/mathgl/mgl64"

// UnitCube returns the six quad faces of the cube [0,1]^3, wound
// counter-clockwise seen from outside. Deduplicated it has 8 points and 12
// triangles.
func UnitCube() []Face {
	v := [8]mgl64.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	quads := [6][4]int{
		{0, 3, 2, 1}, // back  (z=0)
		{4, 5, 6, 7}, // front (z=1)
		{0, 4, 7, 3}, // left  (x=0)
		{1, 2, 6, 5}, // right (x=1)
		{0, 1, 5, 4}, // bottom
		{3, 7, 6, 2}, // top
	}
	faces := make([]Face, 0, len(quads))
	for _, q := range quads {
		faces = append(faces, Face{v[q[0]], v[q[1]], v[q[2]], v[q[3]]})
	}
	return faces
}

// Sheet returns a cols x rows grid of quads in the XZ plane at y=0, spanning
// size x size and centred on the origin.
func Sheet(cols, rows int, size float64) []Face {
	if cols < 1 || rows < 1 {
		return nil
	}
	dx := size / float64(cols)
	dz := size / float64(rows)
	at := func(i, j int) mgl64.Vec3 {
		return mgl64.Vec3{-size/2 + float64(i)*dx, 0, -size/2 + float64(j)*dz}
	}
	faces := make([]Face, 0, cols*rows)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			faces = append(faces, Face{at(i, j), at(i, j+1), at(i+1, j+1), at(i+1, j)})
		}
	}
	return faces
}
