package render

import (
	"fmt"
	"io"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/layout"
	"gonum.org/v1/gonum/spatial/r3"
)

// NewTriangleReader returns a Renderer that reads back tris.
func NewTriangleReader(tris []Triangle) Renderer {
	return &triangleBuffer{buf: tris}
}

type triangleBuffer struct {
	buf []Triangle
}

func (b *triangleBuffer) ReadTriangles(t []Triangle) (int, error) {
	if len(b.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(t, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

// SceneTriangles returns the triangles of the named triangle segments of b,
// or of all triangle segments when no name is given. Strips are unrolled.
// Line segments are skipped.
func SceneTriangles(b *layout.Buffers, names ...string) []Triangle {
	want := func(s layout.Segment) bool {
		if s.Topology != layout.TriangleList && s.Topology != layout.TriangleStrip {
			return false
		}
		if len(names) == 0 {
			return true
		}
		for _, n := range names {
			if n == s.Name {
				return true
			}
		}
		return false
	}
	var tris []Triangle
	for _, s := range b.Segments {
		if !want(s) {
			continue
		}
		idx := layout.Primitives(s.Topology, b.SegmentIndices(s))
		for i := 0; i+2 < len(idx); i += 3 {
			tris = append(tris, Triangle{
				b.Position(int(idx[i])),
				b.Position(int(idx[i+1])),
				b.Position(int(idx[i+2])),
			})
		}
	}
	return tris
}

// TransformTriangles applies the homogeneous 4×4 transform m to every
// vertex of tris in place.
func TransformTriangles(tris []Triangle, m glscene.Mat) error {
	for i := range tris {
		for j, v := range tris[i] {
			p, err := glscene.MulVec(m, glscene.Homogeneous(glscene.R3(v)))
			if err != nil {
				return err
			}
			w := p[3]
			if w == 0 {
				return fmt.Errorf("%w: vertex %v maps to infinity", glscene.ErrDegenerate, v)
			}
			tris[i][j] = r3.Vec{X: p[0] / w, Y: p[1] / w, Z: p[2] / w}
		}
	}
	return nil
}

// PosedTriangles returns one copy of tris per pose, each transformed by the
// pose resolved at angle theta. The input is not modified.
func PosedTriangles(tris []Triangle, poses []glscene.Pose, theta float64) ([]Triangle, error) {
	out := make([]Triangle, 0, len(tris)*len(poses))
	for i, pose := range poses {
		m, err := pose.Transform(theta)
		if err != nil {
			return nil, fmt.Errorf("pose %d: %w", i, err)
		}
		n := len(out)
		out = append(out, tris...)
		if err := TransformTriangles(out[n:], m); err != nil {
			return nil, fmt.Errorf("pose %d: %w", i, err)
		}
	}
	return out, nil
}
