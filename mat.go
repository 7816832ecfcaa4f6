package glscene

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/mat"
)

// Mat is a dense real matrix, logically indexed M[row][col] and stored
// row-major. Mat values are immutable: every operation returns a new Mat.
// The zero value is the empty 0×0 matrix.
type Mat struct {
	d *mat.Dense // nil for the empty matrix.
}

func fromDense(d *mat.Dense) Mat { return Mat{d: d} }

// NewMat returns a matrix whose rows are copies of rows. All rows must
// have the same length.
func NewMat(rows [][]float64) (Mat, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Mat{}, nil
	}
	r, c := len(rows), len(rows[0])
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return Mat{}, errShape("row %d has length %d, want %d", i, len(row), c)
		}
		data = append(data, row...)
	}
	return fromDense(mat.NewDense(r, c, data)), nil
}

// Dims returns the number of rows and columns of m.
func (m Mat) Dims() (rows, cols int) {
	if m.d == nil {
		return 0, 0
	}
	return m.d.Dims()
}

// At returns the element at row i and column j. It panics if the indices
// are out of range.
func (m Mat) At(i, j int) float64 {
	if m.d == nil {
		panic("glscene: At on empty matrix")
	}
	return m.d.At(i, j)
}

// Row returns a copy of row i.
func (m Mat) Row(i int) Vec {
	if m.d == nil {
		panic("glscene: Row on empty matrix")
	}
	return append(Vec(nil), m.d.RawRowView(i)...)
}

// Rows returns a copy of m as a slice of rows.
func (m Mat) Rows() [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// String formats m one row per line with three decimals.
func (m Mat) String() string {
	var sb strings.Builder
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Fprintf(&sb, "%.3f\t", m.d.At(i, j))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Zero returns the rows×cols zero matrix. A zero dimension yields the
// empty matrix.
func Zero(rows, cols int) Mat {
	if rows < 0 || cols < 0 {
		panic("glscene: negative matrix dimension")
	}
	if rows == 0 || cols == 0 {
		return Mat{}
	}
	return fromDense(mat.NewDense(rows, cols, nil))
}

// Identity returns the n×n identity matrix.
func Identity(n int) Mat {
	d := make(Vec, n)
	for i := range d {
		d[i] = 1
	}
	return Diagonal(d)
}

// Diagonal returns the square matrix with values on its diagonal and
// zeros elsewhere.
func Diagonal(values Vec) Mat {
	n := len(values)
	if n == 0 {
		return Mat{}
	}
	d := mat.NewDense(n, n, nil)
	for i, v := range values {
		d.Set(i, i, v)
	}
	return fromDense(d)
}

// Transpose returns the transpose of m.
func Transpose(m Mat) Mat {
	if m.d == nil {
		return Mat{}
	}
	return fromDense(mat.DenseCopyOf(m.d.T()))
}

// Product returns the matrix product m·n. The number of columns of m
// must equal the number of rows of n.
func Product(m, n Mat) (Mat, error) {
	mr, mc := m.Dims()
	nr, nc := n.Dims()
	if mc != nr {
		return Mat{}, errShape("product of %d×%d and %d×%d", mr, mc, nr, nc)
	}
	if m.d == nil {
		return Mat{}, nil
	}
	var p mat.Dense
	p.Mul(m.d, n.d)
	return fromDense(&p), nil
}

// MatScale returns s*m.
func MatScale(s float64, m Mat) Mat {
	if m.d == nil {
		return Mat{}
	}
	var sc mat.Dense
	sc.Scale(s, m.d)
	return fromDense(&sc)
}

// MatAdd returns the elementwise sum of two matrices of equal shape.
func MatAdd(m, n Mat) (Mat, error) {
	mr, mc := m.Dims()
	nr, nc := n.Dims()
	if mr != nr || mc != nc {
		return Mat{}, errShape("sum of %d×%d and %d×%d", mr, mc, nr, nc)
	}
	if m.d == nil {
		return Mat{}, nil
	}
	var s mat.Dense
	s.Add(m.d, n.d)
	return fromDense(&s), nil
}

// MulVec returns the matrix-vector product m·v.
func MulVec(m Mat, v Vec) (Vec, error) {
	r, c := m.Dims()
	if c != len(v) {
		return nil, errShape("%d×%d matrix times %d-vector", r, c, len(v))
	}
	if m.d == nil {
		return Vec{}, nil
	}
	var dst mat.VecDense
	dst.MulVec(m.d, mat.NewVecDense(len(v), append([]float64(nil), v...)))
	return Vec(dst.RawVector().Data), nil
}

// HomogeneousEmbed lifts the n×n matrix m into (n+1)×(n+1) homogeneous
// form: m in the top-left block, a zero last column and a final row
// [0,...,0,1].
func HomogeneousEmbed(m Mat) (Mat, error) {
	r, c := m.Dims()
	if r != c {
		return Mat{}, errShape("homogeneous embedding of non-square %d×%d matrix", r, c)
	}
	h := mat.NewDense(r+1, r+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			h.Set(i, j, m.d.At(i, j))
		}
	}
	h.Set(r, r, 1)
	return fromDense(h), nil
}

// Antisymmetric returns the cross product matrix [u]× of a 3-vector such
// that [u]×·v == u×v for every 3-vector v.
func Antisymmetric(u Vec) (Mat, error) {
	if len(u) != 3 {
		return Mat{}, errShape("antisymmetric matrix of %d-vector", len(u))
	}
	return fromDense(mat.NewDense(3, 3, []float64{
		0, -u[2], u[1],
		u[2], 0, -u[0],
		-u[1], u[0], 0,
	})), nil
}

// Symmetric returns the outer product u·uᵗ. For a 3-vector this is the
// 3×3 matrix used by the axis-angle rotation.
func Symmetric(u Vec) (Mat, error) {
	if len(u) == 0 {
		return Mat{}, errShape("symmetric matrix of empty vector")
	}
	x := mat.NewVecDense(len(u), append([]float64(nil), u...))
	var s mat.Dense
	s.Outer(1, x, x)
	return fromDense(&s), nil
}

// ColumnMajorFlatten transposes m and concatenates the rows of the result
// so that entry (i,j) of m lands at index i + j*rows(m). This is the
// storage order expected by uniform upload in the draw pipeline.
func ColumnMajorFlatten(m Mat) []float64 {
	r, c := m.Dims()
	flat := make([]float64, 0, r*c)
	t := Transpose(m)
	for j := 0; j < c; j++ {
		flat = append(flat, t.d.RawRowView(j)...)
	}
	return flat
}

// ColumnMajor32 is ColumnMajorFlatten converted to single precision.
// Entries that are not finite in float32 return ErrDegenerate.
func ColumnMajor32(m Mat) ([]float32, error) {
	flat := ColumnMajorFlatten(m)
	out := make([]float32, len(flat))
	for i, v := range flat {
		f := float32(v)
		if math32.IsInf(f, 0) || math32.IsNaN(f) {
			return nil, errDegenerate("entry %d (%g) not representable as float32", i, v)
		}
		out[i] = f
	}
	return out, nil
}

// EqualApprox reports whether m and n have the same shape and all
// elements are equal within an absolute or relative tolerance tol.
func EqualApprox(m, n Mat, tol float64) bool {
	mr, mc := m.Dims()
	nr, nc := n.Dims()
	if mr != nr || mc != nc {
		return false
	}
	if m.d == nil {
		return true
	}
	return mat.EqualApprox(m.d, n.d, tol)
}
