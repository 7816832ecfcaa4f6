package d3

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestFromColumnMajor(t *testing.T) {
	// Translation by (1,2,3) in column-major order.
	cm := []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		1, 2, 3, 1,
	}
	tr, err := FromColumnMajor(cm)
	if err != nil {
		t.Fatal(err)
	}
	p, w := tr.Apply(r3.Vec{X: 1, Y: 1, Z: 1})
	if w != 1 || !EqualWithin(p, r3.Vec{X: 2, Y: 3, Z: 4}, 0) {
		t.Errorf("got %v w=%g", p, w)
	}
	if d := tr.ApplyDir(r3.Vec{X: 1}); !EqualWithin(d, r3.Vec{X: 1}, 0) {
		t.Errorf("direction was translated: %v", d)
	}
	if _, err := FromColumnMajor(cm[:9]); err == nil {
		t.Error("expected error for short input")
	}
}

func TestIdentityZeroValue(t *testing.T) {
	var id Transform
	cm := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	got, _ := FromColumnMajor(cm)
	if got != id {
		t.Errorf("identity is not the zero value: %v", got.sliceCopy())
	}
}

func TestMulOrder(t *testing.T) {
	scale, _ := FromColumnMajor([]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1})
	move, _ := FromColumnMajor([]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 0, 0, 1})
	// move·scale scales first.
	p, _ := move.Mul(scale).Apply(r3.Vec{X: 1})
	if !EqualWithin(p, r3.Vec{X: 7}, 1e-15) {
		t.Errorf("move·scale: got %v", p)
	}
	p, _ = scale.Mul(move).Apply(r3.Vec{X: 1})
	if !EqualWithin(p, r3.Vec{X: 12}, 1e-15) {
		t.Errorf("scale·move: got %v", p)
	}
}

func TestNormalMatrix(t *testing.T) {
	// Non-uniform scale: normals scale by the inverse.
	s, _ := FromColumnMajor([]float32{2, 0, 0, 0, 0, 4, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1})
	n, err := s.NormalMatrix()
	if err != nil {
		t.Fatal(err)
	}
	got := n.ApplyDir(r3.Vec{X: 1, Y: 1, Z: 1})
	if !EqualWithin(got, r3.Vec{X: 0.5, Y: 0.25, Z: 1}, 1e-12) {
		t.Errorf("got %v", got)
	}
	// A rotation is its own normal matrix.
	c, sn := float32(math.Cos(0.3)), float32(math.Sin(0.3))
	rot, _ := FromColumnMajor([]float32{c, sn, 0, 0, -sn, c, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1})
	nr, err := rot.NormalMatrix()
	if err != nil {
		t.Fatal(err)
	}
	want := rot
	want.x03, want.x13, want.x23 = 0, 0, 0
	if !nr.equals(want, 1e-6) {
		t.Errorf("rotation normal matrix:\n%v\n%v", nr.sliceCopy(), want.sliceCopy())
	}
}

func TestBox(t *testing.T) {
	b := BoxOf([]r3.Vec{{X: -1, Y: 2, Z: 0}, {X: 3, Y: -2, Z: 1}, {X: 0, Y: 0, Z: 0.5}})
	if !EqualWithin(b.Size(), r3.Vec{X: 4, Y: 4, Z: 1}, 0) {
		t.Errorf("size %v", b.Size())
	}
	if !EqualWithin(b.Center(), r3.Vec{X: 1, Y: 0, Z: 0.5}, 0) {
		t.Errorf("center %v", b.Center())
	}
	if b.UnitScale() != 0.25 {
		t.Errorf("unit scale %g", b.UnitScale())
	}
	v := b.Vertices()
	if got := BoxOf(v[:]); got != b {
		t.Errorf("box of vertices %v, want %v", got, b)
	}
}

// equals tests the equality of the Transforms to within a tolerance.
func (t Transform) equals(b Transform, tolerance float64) bool {
	a, c := t.sliceCopy(), b.sliceCopy()
	for i := range a {
		if math.Abs(a[i]-c[i]) > tolerance {
			return false
		}
	}
	return true
}

// sliceCopy returns a copy of the Transform's data
// in row major storage format. It returns 16 elements.
func (t Transform) sliceCopy() []float64 {
	return []float64{
		t.d00 + 1, t.x01, t.x02, t.x03,
		t.x10, t.d11 + 1, t.x12, t.x13,
		t.x20, t.x21, t.d22 + 1, t.x23,
		t.x30, t.x31, t.x32, t.d33 + 1,
	}
}
