package d3

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a 4×4 homogeneous transform as uploaded to a shader.
// The zero value of Transform is the identity transform.
type Transform struct {
	// The identity is subtracted from the diagonal so that the zero value
	// is the identity:
	//  d00 = x00-1, d11 = x11-1, d22 = x22-1, d33 = x33-1
	d00, x01, x02, x03 float64
	x10, d11, x12, x13 float64
	x20, x21, d22, x23 float64
	x30, x31, x32, d33 float64
}

var errNotMat4 = errors.New("need 16 column-major values for a 4×4 transform")

// FromColumnMajor builds a Transform from 16 values in column-major order,
// the layout in which matrix uniforms are received. Entry (i,j) is read
// from index i+4*j.
func FromColumnMajor(a []float32) (Transform, error) {
	if len(a) != 16 {
		return Transform{}, errNotMat4
	}
	at := func(i, j int) float64 { return float64(a[i+4*j]) }
	return Transform{
		d00: at(0, 0) - 1, x01: at(0, 1), x02: at(0, 2), x03: at(0, 3),
		x10: at(1, 0), d11: at(1, 1) - 1, x12: at(1, 2), x13: at(1, 3),
		x20: at(2, 0), x21: at(2, 1), d22: at(2, 2) - 1, x23: at(2, 3),
		x30: at(3, 0), x31: at(3, 1), x32: at(3, 2), d33: at(3, 3) - 1,
	}, nil
}

// Apply transforms the point v (with homogeneous coordinate 1) and
// returns the result without the perspective divide.
func (t Transform) Apply(v r3.Vec) (p r3.Vec, w float64) {
	return r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z + t.x03,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z + t.x13,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z + t.x23,
	}, t.x30*v.X + t.x31*v.Y + t.x32*v.Z + t.d33 + 1
}

// ApplyDir transforms the direction v, ignoring translation.
func (t Transform) ApplyDir(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z,
	}
}

// Mul multiplies the Transforms t and b and returns t·b, the transform
// that applies b first.
func (t Transform) Mul(b Transform) Transform {
	if t == (Transform{}) {
		return b
	}
	if b == (Transform{}) {
		return t
	}
	x00 := t.d00 + 1
	x11 := t.d11 + 1
	x22 := t.d22 + 1
	x33 := t.d33 + 1
	y00 := b.d00 + 1
	y11 := b.d11 + 1
	y22 := b.d22 + 1
	y33 := b.d33 + 1
	var m Transform
	m.d00 = x00*y00 + t.x01*b.x10 + t.x02*b.x20 + t.x03*b.x30 - 1
	m.x10 = t.x10*y00 + x11*b.x10 + t.x12*b.x20 + t.x13*b.x30
	m.x20 = t.x20*y00 + t.x21*b.x10 + x22*b.x20 + t.x23*b.x30
	m.x30 = t.x30*y00 + t.x31*b.x10 + t.x32*b.x20 + x33*b.x30
	m.x01 = x00*b.x01 + t.x01*y11 + t.x02*b.x21 + t.x03*b.x31
	m.d11 = t.x10*b.x01 + x11*y11 + t.x12*b.x21 + t.x13*b.x31 - 1
	m.x21 = t.x20*b.x01 + t.x21*y11 + x22*b.x21 + t.x23*b.x31
	m.x31 = t.x30*b.x01 + t.x31*y11 + t.x32*b.x21 + x33*b.x31
	m.x02 = x00*b.x02 + t.x01*b.x12 + t.x02*y22 + t.x03*b.x32
	m.x12 = t.x10*b.x02 + x11*b.x12 + t.x12*y22 + t.x13*b.x32
	m.d22 = t.x20*b.x02 + t.x21*b.x12 + x22*y22 + t.x23*b.x32 - 1
	m.x32 = t.x30*b.x02 + t.x31*b.x12 + t.x32*y22 + x33*b.x32
	m.x03 = x00*b.x03 + t.x01*b.x13 + t.x02*b.x23 + t.x03*y33
	m.x13 = t.x10*b.x03 + x11*b.x13 + t.x12*b.x23 + t.x13*y33
	m.x23 = t.x20*b.x03 + t.x21*b.x13 + x22*b.x23 + t.x23*y33
	m.d33 = t.x30*b.x03 + t.x31*b.x13 + t.x32*b.x23 + x33*y33 - 1
	return m
}

// NormalMatrix returns the inverse transpose of the upper 3×3 block,
// which maps surface normals under t. A singular block yields an error.
func (t Transform) NormalMatrix() (Transform, error) {
	upper := mat.NewDense(3, 3, []float64{
		t.d00 + 1, t.x01, t.x02,
		t.x10, t.d11 + 1, t.x12,
		t.x20, t.x21, t.d22 + 1,
	})
	var inv mat.Dense
	if err := inv.Inverse(upper); err != nil {
		return Transform{}, err
	}
	n := func(i, j int) float64 { return inv.At(j, i) }
	return Transform{
		d00: n(0, 0) - 1, x01: n(0, 1), x02: n(0, 2),
		x10: n(1, 0), d11: n(1, 1) - 1, x12: n(1, 2),
		x20: n(2, 0), x21: n(2, 1), d22: n(2, 2) - 1,
	}, nil
}
