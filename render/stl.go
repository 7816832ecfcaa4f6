package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
	// trianglesInBuffer is the number of triangles streamed per write.
	trianglesInBuffer = 1 << 10
)

// ErrNormalMismatch is returned by ReadSTL alongside the triangles read when
// a stored normal disagrees with the winding of its vertices. Many
// exporters write such files, the triangles are still usable.
var ErrNormalMismatch = errors.New("STL normal does not match vertex winding")

// CreateSTL streams the triangles of r into a binary STL file at path.
func CreateSTL(path string, r Renderer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	// Triangle count is unknown until the stream ends: skip the header and
	// fill it in afterwards.
	if _, err = file.Seek(stlHeaderSize, io.SeekStart); err != nil {
		return err
	}
	rd := &stlStream{r: r}
	n, err := io.CopyBuffer(file, rd, make([]byte, stlTriangleSize*trianglesInBuffer))
	if err != nil {
		return err
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var hdr [stlHeaderSize]byte
	stlHeader{Count: uint32(n / stlTriangleSize)}.put(hdr[:])
	if _, err = file.Write(hdr[:]); err != nil {
		return err
	}
	return file.Close()
}

// WriteSTL writes model triangles to a writer in binary STL format.
func WriteSTL(w io.Writer, model []Triangle) error {
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}
	if int64(len(model)) > math.MaxUint32 {
		return errors.New("amount of triangles in model exceeds STL design limits")
	}
	var buf [stlHeaderSize]byte
	stlHeader{Count: uint32(len(model))}.put(buf[:])
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	for _, t := range model {
		stlFromTriangle(t).put(buf[:stlTriangleSize])
		if _, err := w.Write(buf[:stlTriangleSize]); err != nil {
			return err
		}
	}
	return nil
}

// ReadSTL reads a binary STL stream. When some stored normals disagree
// with their vertices the triangles are returned together with an error
// wrapping ErrNormalMismatch.
func ReadSTL(r io.Reader) (output []Triangle, readErr error) {
	var hbuf [stlHeaderSize]byte
	if _, err := io.ReadFull(r, hbuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errors.New("encountered EOF while reading STL header")
		}
		return nil, fmt.Errorf("STL header read failed: %w", err)
	}
	count := binary.LittleEndian.Uint32(hbuf[80:])
	if count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf        [stlTriangleSize]byte
		d          stlTriangle
		mismatches int
	)
	output = make([]Triangle, 0, min(int(count), 1<<16))
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%d/%d STL triangles read: %w", i, count, err)
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			if !errors.Is(err, ErrNormalMismatch) {
				return nil, fmt.Errorf("STL triangle %d: %w", i, err)
			}
			mismatches++
		}
		output = append(output, d.triangle())
	}
	if mismatches > 0 {
		readErr = fmt.Errorf("%w in %d/%d triangles", ErrNormalMismatch, mismatches, count)
	}
	return output, readErr
}

// stlStream encodes triangles read from a Renderer as STL triangle records.
type stlStream struct {
	r   Renderer
	buf [trianglesInBuffer]Triangle
}

func (s *stlStream) Read(b []byte) (int, error) {
	ntMax := min(len(b)/stlTriangleSize, len(s.buf))
	if ntMax == 0 {
		return 0, errors.New("need at least 50 bytes to write a single STL triangle")
	}
	nt, err := s.r.ReadTriangles(s.buf[:ntMax])
	for i, t := range s.buf[:nt] {
		stlFromTriangle(t).put(b[i*stlTriangleSize:])
	}
	return nt * stlTriangleSize, err
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

func (h stlHeader) put(b []byte) {
	_ = b[83] // early bounds check
	binary.LittleEndian.PutUint32(b[80:], h.Count)
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal [3]float32
	Vertex [3][3]float32
	_      uint16 // Attribute byte count
}

func stlFromTriangle(t Triangle) stlTriangle {
	var d stlTriangle
	d.Normal = to3F32(t.Normal())
	for i, v := range t {
		d.Vertex[i] = to3F32(v)
	}
	return d
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	for i, v := range t.Vertex {
		put3F32(b[12+12*i:], v)
	}
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	for i := range t.Vertex {
		get3F32(b[12+12*i:], &t.Vertex[i])
	}
	// no attributes supported yet.
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func (t stlTriangle) validate() error {
	const epsilon = 1e-12
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex[0]) || bad3F32(t.Vertex[1]) || bad3F32(t.Vertex[2]) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate(epsilon) {
		return errors.New("triangle is degenerate")
	}
	// A zero normal means "compute from vertices" for many exporters.
	if t.Normal == ([3]float32{}) {
		return nil
	}
	calc := to3F32(t.triangle().Normal())
	if !equalWithin3F32(calc, t.Normal, normTol) {
		return ErrNormalMismatch
	}
	return nil
}

// degenerate reports whether two vertices coincide.
func (t stlTriangle) degenerate(tol float32) bool {
	return equalWithin3F32(t.Vertex[0], t.Vertex[1], tol) ||
		equalWithin3F32(t.Vertex[1], t.Vertex[2], tol) ||
		equalWithin3F32(t.Vertex[2], t.Vertex[0], tol)
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}

func to3F32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) triangle() Triangle {
	return Triangle{r3From3F32(t.Vertex[0]), r3From3F32(t.Vertex[1]), r3From3F32(t.Vertex[2])}
}
