package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pol is a polar coordinate.
type Pol struct {
	R, Theta float64
}

// PolarToCartesian converts a polar to a cartesian coordinate.
func (a Pol) PolarToCartesian() r2.Vec {
	return r2.Vec{X: a.R * math.Cos(a.Theta), Y: a.R * math.Sin(a.Theta)}
}

// Ring returns n points evenly spaced on a circle of radius r, starting at
// angle phase and proceeding counter-clockwise.
func Ring(n int, r, phase float64) []r2.Vec {
	pts := make([]r2.Vec, n)
	for i := range pts {
		pts[i] = Pol{R: r, Theta: phase + 2*math.Pi*float64(i)/float64(n)}.PolarToCartesian()
	}
	return pts
}

// Spiral returns n points on an Archimedean spiral whose radius grows
// linearly from 0 to r over turns revolutions.
func Spiral(n int, r, turns float64) []r2.Vec {
	pts := make([]r2.Vec, n)
	if n == 1 {
		return pts
	}
	for i := range pts {
		s := float64(i) / float64(n-1)
		pts[i] = Pol{R: r * s, Theta: 2 * math.Pi * turns * s}.PolarToCartesian()
	}
	return pts
}
