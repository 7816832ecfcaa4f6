// Package render holds the software render backend, mesh loading and STL
// import/export for laid-out scenes.
package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a triangle in 3D space with counter-clockwise winding.
type Triangle [3]r3.Vec

// Normal returns the unit normal of the triangle following the
// right-hand rule. Degenerate triangles return the zero vector.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	if l := r3.Norm(n); l > 0 {
		return r3.Scale(1/l, n)
	}
	return r3.Vec{}
}

// Renderer streams triangles. ReadTriangles returns io.EOF once all
// triangles have been read.
type Renderer interface {
	ReadTriangles(t []Triangle) (int, error)
}
