package glscene

import (
	"image/color"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestAngleConversion(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, -180, 720} {
		if got := RtoD(DtoR(deg)); !scalar.EqualWithinAbs(got, deg, 1e-9) {
			t.Errorf("RtoD(DtoR(%g)) = %g", deg, got)
		}
	}
	if !scalar.EqualWithinAbs(DtoR(180), pi, epsilon) {
		t.Errorf("DtoR(180) = %g", DtoR(180))
	}
}

func TestColorWheel(t *testing.T) {
	if got := RGBA(ColorWheel(0)); got != (color.NRGBA{R: 255, G: 64, B: 64, A: 255}) {
		t.Errorf("wheel at 0: %v", got)
	}
	if got := RGBA([4]float32{-1, 2, 0.5, 1}); got != (color.NRGBA{R: 0, G: 255, B: 128, A: 255}) {
		t.Errorf("clamped colour %v", got)
	}
}
