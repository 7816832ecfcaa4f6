// Package layout plans one interleaved vertex attribute buffer and one
// 16-bit index buffer shared by several indexed draw calls.
//
// Records are appended first, then named segments of indices into them.
// Segments are contiguous in the index buffer in the order they were
// appended: the offset of a segment is the sum of the counts of all
// segments appended before it plus any explicit padding.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/glscene"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrLayout is returned when a record or segment would break the layout
// invariants: an index that refers to a vertex not yet appended, an index
// that does not fit the index type, or a record that does not match the
// planner format.
var ErrLayout = errors.New("layout invariant violated")

const (
	// FloatSize is the size in bytes of one attribute component.
	FloatSize = 4
	// IndexSize is the size in bytes of one index.
	IndexSize = 2
	// MaxVertices is the number of vertices addressable by a 16-bit index.
	MaxVertices = math.MaxUint16 + 1
)

// Topology is the primitive assembly mode of a segment.
type Topology uint8

const (
	TriangleList Topology = iota
	TriangleStrip
	LineList
	LineStrip
	LineLoop
)

func (t Topology) String() string {
	switch t {
	case TriangleList:
		return "triangle-list"
	case TriangleStrip:
		return "triangle-strip"
	case LineList:
		return "line-list"
	case LineStrip:
		return "line-strip"
	case LineLoop:
		return "line-loop"
	}
	return fmt.Sprintf("Topology(%d)", uint8(t))
}

// Format selects which fields each record carries.
type Format uint8

const (
	// Position records hold x,y,z.
	Position Format = iota
	// PositionColor records hold x,y,z followed by r,g,b,a.
	PositionColor
	// PositionNormal records hold x,y,z followed by a surface normal.
	PositionNormal
)

// Field locates one attribute inside a record. Offset and Count are in
// floats. A field with Count zero is absent.
type Field struct {
	Offset int
	Count  int
}

// ByteOffset is the field offset in bytes from the start of a record.
func (f Field) ByteOffset() int { return f.Offset * FloatSize }

// Layout describes the interleaved record so that each field can be bound
// independently from the single attribute array.
type Layout struct {
	// Stride is the number of floats per record.
	Stride   int
	Position Field
	Color    Field
	Normal   Field
}

// ByteStride is the record size in bytes.
func (l Layout) ByteStride() int { return l.Stride * FloatSize }

// HasColor reports whether records carry a colour.
func (l Layout) HasColor() bool { return l.Color.Count > 0 }

// HasNormal reports whether records carry a normal.
func (l Layout) HasNormal() bool { return l.Normal.Count > 0 }

func (f Format) layout() Layout {
	switch f {
	case PositionColor:
		return Layout{Stride: 7, Position: Field{0, 3}, Color: Field{3, 4}}
	case PositionNormal:
		return Layout{Stride: 6, Position: Field{0, 3}, Normal: Field{3, 3}}
	default:
		return Layout{Stride: 3, Position: Field{0, 3}}
	}
}

// Segment is a named range [Offset, Offset+Count) of the index buffer
// drawn with one topology in one draw call.
type Segment struct {
	Name     string
	Topology Topology
	// Offset is the position of the first index in the index buffer.
	Offset int
	Count  int
}

// ByteOffset is the offset of the segment in the index buffer in bytes.
func (s Segment) ByteOffset() int { return s.Offset * IndexSize }

// End returns the index one past the last index of the segment.
func (s Segment) End() int { return s.Offset + s.Count }

// Planner accumulates records and segments. It is not safe for concurrent use.
type Planner struct {
	layout   Layout
	attrs    []float32
	indices  []uint16
	segments []Segment
	records  int
}

// NewPlanner returns an empty planner for records of format f.
func NewPlanner(f Format) *Planner {
	return &Planner{layout: f.layout()}
}

// Len returns the number of records appended so far.
func (p *Planner) Len() int { return p.records }

// IndexLen returns the current length of the index buffer.
func (p *Planner) IndexLen() int { return len(p.indices) }

// AppendRecord appends one vertex and returns its index, the record count
// before the append. color must be nil for planners without a colour
// field and hold 4 components otherwise.
func (p *Planner) AppendRecord(position r3.Vec, color []float32) (int, error) {
	if p.layout.HasNormal() {
		return 0, fmt.Errorf("%w: records need a normal, use AppendNormalRecord", ErrLayout)
	}
	if len(color) != p.layout.Color.Count {
		return 0, fmt.Errorf("%w: record has %d colour components, layout wants %d", ErrLayout, len(color), p.layout.Color.Count)
	}
	return p.appendRecord(position, color)
}

// AppendNormalRecord appends one vertex with its surface normal to a
// PositionNormal planner and returns its index.
func (p *Planner) AppendNormalRecord(position, normal r3.Vec) (int, error) {
	if !p.layout.HasNormal() {
		return 0, fmt.Errorf("%w: layout has no normal field", ErrLayout)
	}
	n, err := vec32(normal)
	if err != nil {
		return 0, err
	}
	return p.appendRecord(position, n[:])
}

func (p *Planner) appendRecord(position r3.Vec, rest []float32) (int, error) {
	if p.records >= MaxVertices {
		return 0, fmt.Errorf("%w: more than %d vertices", ErrLayout, MaxVertices)
	}
	pos, err := vec32(position)
	if err != nil {
		return 0, err
	}
	p.attrs = append(p.attrs, pos[:]...)
	p.attrs = append(p.attrs, rest...)
	p.records++
	return p.records - 1, nil
}

func vec32(v r3.Vec) ([3]float32, error) {
	f := [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
	for _, c := range f {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return f, fmt.Errorf("%w: %v not finite in float32", ErrLayout, v)
		}
	}
	return f, nil
}

// AppendSegment appends indices to the shared index buffer and records a
// segment starting at the current index buffer length. Every index must
// refer to an already appended record.
func (p *Planner) AppendSegment(name string, topology Topology, indices []int) (Segment, error) {
	if topology > LineLoop {
		return Segment{}, fmt.Errorf("%w: segment %q has unknown topology %d", ErrLayout, name, topology)
	}
	for i, idx := range indices {
		if idx < 0 || idx >= p.records {
			return Segment{}, fmt.Errorf("%w: segment %q index %d refers to vertex %d, only %d appended", ErrLayout, name, i, idx, p.records)
		}
	}
	seg := Segment{Name: name, Topology: topology, Offset: len(p.indices), Count: len(indices)}
	for _, idx := range indices {
		p.indices = append(p.indices, uint16(idx))
	}
	p.segments = append(p.segments, seg)
	glscene.Logger().Debug("layout segment", "name", name, "topology", topology, "offset", seg.Offset, "count", seg.Count)
	return seg, nil
}

// Pad appends n unused indices so that the next segment starts n entries
// later. The padding refers to vertex 0 and is never drawn.
func (p *Planner) Pad(n int) {
	for i := 0; i < n; i++ {
		p.indices = append(p.indices, 0)
	}
}

// Layout returns the record layout of the planner.
func (p *Planner) Layout() Layout { return p.layout }

// Segments returns a copy of the segments appended so far in order.
func (p *Planner) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Build returns the finished buffers. The planner may keep being used,
// later appends do not affect the returned Buffers.
func (p *Planner) Build() *Buffers {
	b := &Buffers{
		Layout:     p.layout,
		Attributes: append([]float32(nil), p.attrs...),
		Indices:    append([]uint16(nil), p.indices...),
		Segments:   p.Segments(),
	}
	glscene.Logger().Info("layout built", "records", p.records, "indices", len(b.Indices), "segments", len(b.Segments))
	return b
}

// Buffers is the immutable result of planning: one interleaved attribute
// array, one index array and the segment table over them.
type Buffers struct {
	Layout     Layout
	Attributes []float32
	Indices    []uint16
	Segments   []Segment
}

// Len returns the number of records.
func (b *Buffers) Len() int {
	if b.Layout.Stride == 0 {
		return 0
	}
	return len(b.Attributes) / b.Layout.Stride
}

// Segment returns the first segment named name.
func (b *Buffers) Segment(name string) (Segment, bool) {
	for _, s := range b.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// Position returns the position of vertex i.
func (b *Buffers) Position(i int) r3.Vec {
	o := i*b.Layout.Stride + b.Layout.Position.Offset
	a := b.Attributes[o : o+3]
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

// Color returns the colour of vertex i or opaque white when records carry
// no colour.
func (b *Buffers) Color(i int) [4]float32 {
	if !b.Layout.HasColor() {
		return [4]float32{1, 1, 1, 1}
	}
	o := i*b.Layout.Stride + b.Layout.Color.Offset
	var c [4]float32
	copy(c[:], b.Attributes[o:o+4])
	return c
}

// Normal returns the normal of vertex i or the zero vector when records
// carry no normal.
func (b *Buffers) Normal(i int) r3.Vec {
	if !b.Layout.HasNormal() {
		return r3.Vec{}
	}
	o := i*b.Layout.Stride + b.Layout.Normal.Offset
	a := b.Attributes[o : o+3]
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

// SegmentIndices returns the indices of s as a sub-slice of b.Indices.
func (b *Buffers) SegmentIndices(s Segment) []uint16 {
	return b.Indices[s.Offset:s.End()]
}

// Primitives expands the indices of a segment into the index list of its
// primitives: triples for triangle topologies and pairs for line
// topologies. Strips and loops are unrolled. Triangle strips alternate
// winding so every triangle keeps the orientation of the first.
func Primitives(t Topology, idx []uint16) []uint16 {
	var out []uint16
	switch t {
	case TriangleList:
		n := len(idx) - len(idx)%3
		out = append(out, idx[:n]...)
	case TriangleStrip:
		for i := 2; i < len(idx); i++ {
			if i%2 == 0 {
				out = append(out, idx[i-2], idx[i-1], idx[i])
			} else {
				out = append(out, idx[i-1], idx[i-2], idx[i])
			}
		}
	case LineList:
		n := len(idx) - len(idx)%2
		out = append(out, idx[:n]...)
	case LineStrip, LineLoop:
		for i := 1; i < len(idx); i++ {
			out = append(out, idx[i-1], idx[i])
		}
		if t == LineLoop && len(idx) > 2 {
			out = append(out, idx[len(idx)-1], idx[0])
		}
	}
	return out
}
