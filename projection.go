package glscene

import "math"

// parallelTol is the smallest sine of the angle between the view direction
// and the up vector that LookAt accepts.
const parallelTol = 1e-12

// Perspective returns the OpenGL perspective projection for a vertical
// field of view in degrees:
//
//	f = 1/tan(fovy/2)
//	[ f/aspect 0  0                     0                  ]
//	[ 0        f  0                     0                  ]
//	[ 0        0  -(near+far)/(far-near) -2·near·far/(far-near) ]
//	[ 0        0  -1                    0                  ]
//
// View space z=-near maps to clip z/w=-1 and z=-far to z/w=+1.
// It requires far > near > 0, aspect > 0 and 0 < fovy < 180.
func Perspective(fovy, aspect, near, far float64) (Mat, error) {
	switch {
	case !(near > 0) || !(far > near):
		return Mat{}, errDegenerate("need far > near > 0, got near=%g far=%g", near, far)
	case !(aspect > 0):
		return Mat{}, errDegenerate("need positive aspect, got %g", aspect)
	case !(fovy > 0 && fovy < 180):
		return Mat{}, errDegenerate("vertical field of view %g° out of (0,180)", fovy)
	}
	f := 1 / math.Tan(DtoR(fovy)/2)
	d := far - near
	return NewMat([][]float64{
		{f / aspect, 0, 0, 0},
		{0, f, 0, 0},
		{0, 0, -(near + far) / d, -2 * near * far / d},
		{0, 0, -1, 0},
	})
}

// LookAt returns the view matrix of a camera at eye looking towards at.
// With forward v = unit(at-eye), right n = unit(v×up) and recomputed up
// u = unit(n×v) the rows are
//
//	[ n  -n·eye ]
//	[ u  -u·eye ]
//	[ -v  v·eye ]
//	[ 0 0 0  1  ]
//
// It returns ErrDegenerate when eye==at or up is parallel to v.
func LookAt(eye, at, up Vec) (Mat, error) {
	if len(eye) != 3 || len(at) != 3 || len(up) != 3 {
		return Mat{}, errShape("look-at needs 3-vectors, got lengths %d, %d, %d", len(eye), len(at), len(up))
	}
	fwd, _ := Difference(at, eye)
	v, err := Unit(fwd)
	if err != nil {
		return Mat{}, err
	}
	right, _ := Cross(v, up)
	if Norm(right) <= parallelTol*Norm(up) {
		return Mat{}, errDegenerate("up %v parallel to view direction %v", up, v)
	}
	n, err := Unit(right)
	if err != nil {
		return Mat{}, err
	}
	c, _ := Cross(n, v)
	u, err := Unit(c)
	if err != nil {
		return Mat{}, err
	}
	ne, _ := Dot(n, eye)
	ue, _ := Dot(u, eye)
	ve, _ := Dot(v, eye)
	return NewMat([][]float64{
		{n[0], n[1], n[2], -ne},
		{u[0], u[1], u[2], -ue},
		{-v[0], -v[1], -v[2], ve},
		{0, 0, 0, 1},
	})
}
