package glscene

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/chewxy/math32"
)

const (
	pi  = math.Pi
	tau = 2 * pi
	// epsilon is the default absolute tolerance used by tests and helpers.
	epsilon = 1e-12
)

// DtoR converts degrees to radians
func DtoR(degrees float64) float64 {
	return degrees * pi / 180
}

// RtoD converts radians to degrees
func RtoD(radians float64) float64 {
	return radians / pi * 180
}

// ColorWheel returns an opaque RGBA colour for t in [0,2π). Red, green and
// blue are cosine waves 120 degrees apart mapped to [0,1].
func ColorWheel(t float64) [4]float32 {
	const u = tau / 3
	return [4]float32{
		float32((1 + math.Cos(t)) / 2),
		float32((1 + math.Cos(t-u)) / 2),
		float32((1 + math.Cos(t+u)) / 2),
		1,
	}
}

// RGBA converts a [0,1] float colour to an 8-bit colour. Components are
// clamped. The result is not premultiplied.
func RGBA(c [4]float32) color.NRGBA {
	b := func(f float32) uint8 {
		return uint8(255*math32.Max(0, math32.Min(1, f)) + 0.5)
	}
	return color.NRGBA{R: b(c[0]), G: b(c[1]), B: b(c[2]), A: b(c[3])}
}

// Random draws uniformly distributed values from a seeded source so that
// scenes are reproducible.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random seeded with seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Between returns a uniform value in [min, max).
func (r *Random) Between(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// Vec returns a vector of n values uniform in [min, max).
func (r *Random) Vec(n int, min, max float64) Vec {
	v := make(Vec, n)
	for i := range v {
		v[i] = r.Between(min, max)
	}
	return v
}

// Color returns an opaque colour with components uniform in [0,1).
func (r *Random) Color() [4]float32 {
	return [4]float32{float32(r.rng.Float64()), float32(r.rng.Float64()), float32(r.rng.Float64()), 1}
}
