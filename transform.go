package glscene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Homogeneous transform construction. Transforms compose by left
// multiplication: applying A then B to a point p is B·A·p.

// Rotation returns the 3×3 matrix that rotates by theta radians about axis
// using the Rodrigues formula
//
//	R = cos(θ)·I + sin(θ)·[u]× + (1-cos(θ))·u·uᵗ
//
// where u is axis normalized. The zero axis returns ErrDegenerate.
func Rotation(theta float64, axis Vec) (Mat, error) {
	if len(axis) != 3 {
		return Mat{}, errShape("rotation axis must be a 3-vector, got length %d", len(axis))
	}
	u, err := Unit(axis)
	if err != nil {
		return Mat{}, err
	}
	c, s := math.Cos(theta), math.Sin(theta)
	asym, err := Antisymmetric(u)
	if err != nil {
		return Mat{}, err
	}
	sym, err := Symmetric(u)
	if err != nil {
		return Mat{}, err
	}
	r, err := MatAdd(MatScale(s, asym), MatScale(1-c, sym))
	if err != nil {
		return Mat{}, err
	}
	return MatAdd(MatScale(c, Identity(3)), r)
}

// Translation returns the homogeneous (n+1)×(n+1) matrix that translates
// n-dimensional points by v.
func Translation(v Vec) Mat {
	n := len(v)
	rows := Identity(n + 1).Rows()
	for i, vi := range v {
		rows[i][n] = vi
	}
	return Must(NewMat(rows))
}

// Scaling returns the homogeneous diagonal matrix diag(v..., 1).
func Scaling(v Vec) Mat {
	return Diagonal(Homogeneous(v))
}

// Motion returns the rigid motion that rotates by theta about axis through
// the origin and then translates by v:
//
//	Motion = Translation(v) · HomogeneousEmbed(Rotation(theta, axis))
func Motion(theta float64, axis, v Vec) (Mat, error) {
	if len(v) != 3 {
		return Mat{}, errShape("motion translation must be a 3-vector, got length %d", len(v))
	}
	rot, err := Rotation(theta, axis)
	if err != nil {
		return Mat{}, err
	}
	hom, err := HomogeneousEmbed(rot)
	if err != nil {
		return Mat{}, err
	}
	return Product(Translation(v), hom)
}

// Pose places one rendered instance in world space.
type Pose struct {
	// Scale is applied first, in object space.
	Scale r3.Vec
	// Location is the world space translation.
	Location r3.Vec
	// Axis is the rotation axis. It need not be unit length but must be non-zero.
	Axis r3.Vec
}

// UniformPose returns a pose with uniform scale s at location loc rotating
// about axis.
func UniformPose(s float64, loc, axis r3.Vec) Pose {
	return Pose{Scale: r3.Vec{X: s, Y: s, Z: s}, Location: loc, Axis: axis}
}

// Transform resolves the pose at rotation angle theta into Motion·Scaling:
// scale in object space, then rotate and translate into world space.
func (p Pose) Transform(theta float64) (Mat, error) {
	motion, err := Motion(theta, R3(p.Axis), R3(p.Location))
	if err != nil {
		return Mat{}, err
	}
	return Product(motion, Scaling(R3(p.Scale)))
}
