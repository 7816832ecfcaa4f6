package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/soypat/glscene"
	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/layout"
	"gonum.org/v1/gonum/spatial/r3"
)

// Component counts of the mesh arrays.
const (
	PositionItemSize = 3
	NormalItemSize   = 3
	IndexItemSize    = 1
)

// Mesh is an indexed triangle mesh with one normal per vertex.
type Mesh struct {
	Positions []r3.Vec
	Normals   []r3.Vec
	// Indices lists triangles as consecutive index triples.
	Indices []int
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// LoadMesh loads a mesh from an .stl, .obj or .ply file.
func LoadMesh(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		tris, err := ReadSTL(f)
		if err != nil && !errors.Is(err, ErrNormalMismatch) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err != nil {
			glscene.Logger().Warn("stl normals ignored", "file", path, "err", err)
		}
		return MeshFromTriangles(tris), nil
	case ".obj":
		fm, err := fauxgl.LoadOBJ(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return meshFromFauxgl(fm), nil
	case ".ply":
		fm, err := fauxgl.LoadPLY(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return meshFromFauxgl(fm), nil
	}
	return nil, fmt.Errorf("unsupported mesh format %q", filepath.Ext(path))
}

type vertexKey struct{ p, n r3.Vec }

// meshBuilder merges vertices that share both position and normal.
type meshBuilder struct {
	m    Mesh
	seen map[vertexKey]int
}

func (b *meshBuilder) add(p, n r3.Vec) {
	k := vertexKey{p, n}
	i, ok := b.seen[k]
	if !ok {
		i = len(b.m.Positions)
		b.seen[k] = i
		b.m.Positions = append(b.m.Positions, p)
		b.m.Normals = append(b.m.Normals, n)
	}
	b.m.Indices = append(b.m.Indices, i)
}

// MeshFromTriangles builds a flat shaded mesh from triangles.
func MeshFromTriangles(tris []Triangle) *Mesh {
	b := meshBuilder{seen: make(map[vertexKey]int)}
	for _, t := range tris {
		n := t.Normal()
		for _, v := range t {
			b.add(v, n)
		}
	}
	return &b.m
}

func meshFromFauxgl(fm *fauxgl.Mesh) *Mesh {
	b := meshBuilder{seen: make(map[vertexKey]int)}
	vec := func(v fauxgl.Vector) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
	for _, t := range fm.Triangles {
		face := Triangle{vec(t.V1.Position), vec(t.V2.Position), vec(t.V3.Position)}.Normal()
		for _, v := range [3]fauxgl.Vertex{t.V1, t.V2, t.V3} {
			n := vec(v.Normal)
			if n == (r3.Vec{}) {
				n = face
			}
			b.add(vec(v.Position), n)
		}
	}
	return &b.m
}

// Bounds returns the bounding box of the mesh vertices.
func (m *Mesh) Bounds() d3.Box { return d3.BoxOf(m.Positions) }

// Normalize centers the mesh on the origin and scales it uniformly so
// its largest side has length 1.
func (m *Mesh) Normalize() {
	b := m.Bounds()
	c, k := b.Center(), b.UnitScale()
	for i, p := range m.Positions {
		m.Positions[i] = r3.Scale(k, r3.Sub(p, c))
	}
}

// Triangles returns the mesh triangles.
func (m *Mesh) Triangles() []Triangle {
	tris := make([]Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tris = append(tris, Triangle{
			m.Positions[m.Indices[i]],
			m.Positions[m.Indices[i+1]],
			m.Positions[m.Indices[i+2]],
		})
	}
	return tris
}

// AppendTo appends the mesh to a PositionNormal planner as one
// triangle-list segment named name.
func (m *Mesh) AppendTo(p *layout.Planner, name string) (layout.Segment, error) {
	if len(m.Normals) != len(m.Positions) {
		return layout.Segment{}, fmt.Errorf("mesh has %d normals for %d positions", len(m.Normals), len(m.Positions))
	}
	base := p.Len()
	for i, pos := range m.Positions {
		if _, err := p.AppendNormalRecord(pos, m.Normals[i]); err != nil {
			return layout.Segment{}, fmt.Errorf("mesh vertex %d: %w", i, err)
		}
	}
	idx := make([]int, len(m.Indices))
	for i, v := range m.Indices {
		idx[i] = base + v
	}
	return p.AppendSegment(name, layout.TriangleList, idx)
}
