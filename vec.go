package glscene

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is an ordered, fixed-length sequence of real numbers.
// Its dimension is its length. Operations never modify their arguments.
type Vec []float64

// Zeros returns a vector of n zeros.
func Zeros(n int) Vec { return make(Vec, n) }

// R3 converts a gonum 3-vector to a Vec of length 3.
func R3(p r3.Vec) Vec { return Vec{p.X, p.Y, p.Z} }

// ToR3 converts a length 3 vector to its gonum representation.
func ToR3(v Vec) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, errShape("want 3-vector, got length %d", len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Homogeneous returns v with a trailing homogeneous coordinate of 1.
func Homogeneous(v Vec) Vec {
	h := make(Vec, len(v)+1)
	copy(h, v)
	h[len(v)] = 1
	return h
}

// Sum returns u+v.
func Sum(u, v Vec) (Vec, error) {
	if len(u) != len(v) {
		return nil, errShape("sum of lengths %d and %d", len(u), len(v))
	}
	return floats.AddTo(make(Vec, len(u)), u, v), nil
}

// Difference returns u-v.
func Difference(u, v Vec) (Vec, error) {
	if len(u) != len(v) {
		return nil, errShape("difference of lengths %d and %d", len(u), len(v))
	}
	return floats.SubTo(make(Vec, len(u)), u, v), nil
}

// Scale returns s*v.
func Scale(s float64, v Vec) Vec {
	return floats.ScaleTo(make(Vec, len(v)), s, v)
}

// Negate returns -v.
func Negate(v Vec) Vec { return Scale(-1, v) }

// Dot returns the inner product of u and v.
func Dot(u, v Vec) (float64, error) {
	if len(u) != len(v) {
		return 0, errShape("dot of lengths %d and %d", len(u), len(v))
	}
	return floats.Dot(u, v), nil
}

// Norm returns the euclidean length of v, sqrt(dot(v,v)).
func Norm(v Vec) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// Unit returns v scaled to unit length. The zero vector and vectors
// with non-finite length have no direction and return ErrDegenerate.
func Unit(v Vec) (Vec, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, errDegenerate("cannot normalize vector of length %g", n)
	}
	return Scale(1/n, v), nil
}

// Cross returns the cross product u×v of two 3-vectors.
func Cross(u, v Vec) (Vec, error) {
	if len(u) != 3 || len(v) != 3 {
		return nil, errShape("cross product is defined for 3-vectors, got lengths %d and %d", len(u), len(v))
	}
	c := r3.Cross(r3.Vec{X: u[0], Y: u[1], Z: u[2]}, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
	return R3(c), nil
}

// EqualWithin reports whether u and v have the same length and all
// components differ by at most tol.
func EqualWithin(u, v Vec, tol float64) bool {
	return len(u) == len(v) && floats.EqualApprox(u, v, tol)
}
