package glscene

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVecArithmetic(t *testing.T) {
	u := Vec{1, 2, 3}
	v := Vec{4, -5, 6}
	sum, err := Sum(u, v)
	if err != nil {
		t.Fatal(err)
	}
	if !EqualWithin(sum, Vec{5, -3, 9}, 0) {
		t.Errorf("sum: got %v", sum)
	}
	diff, err := Difference(u, v)
	if err != nil {
		t.Fatal(err)
	}
	if !EqualWithin(diff, Vec{-3, 7, -3}, 0) {
		t.Errorf("difference: got %v", diff)
	}
	if got := Negate(u); !EqualWithin(got, Vec{-1, -2, -3}, 0) {
		t.Errorf("negate: got %v", got)
	}
	if got := Scale(2, u); !EqualWithin(got, Vec{2, 4, 6}, 0) {
		t.Errorf("scale: got %v", got)
	}
	if u[0] != 1 || v[1] != -5 {
		t.Error("operands were modified")
	}
}

func TestVecDimensionMismatch(t *testing.T) {
	a, b := Vec{1, 2}, Vec{1, 2, 3}
	if _, err := Sum(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("sum: want ErrDimensionMismatch, got %v", err)
	}
	if _, err := Difference(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("difference: want ErrDimensionMismatch, got %v", err)
	}
	if _, err := Dot(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("dot: want ErrDimensionMismatch, got %v", err)
	}
	if _, err := Cross(a, a); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("cross: want ErrDimensionMismatch, got %v", err)
	}
}

func TestDotNormUnit(t *testing.T) {
	for _, u := range []Vec{
		{3, 4},
		{1, 2, 3},
		{-0.5, 1e-3, 7, 2},
		{1e8, -1e8, 3},
	} {
		d, err := Dot(u, u)
		if err != nil {
			t.Fatal(err)
		}
		n := Norm(u)
		if !scalar.EqualWithinRel(d, n*n, 1e-12) {
			t.Errorf("dot(u,u)=%g, norm(u)^2=%g", d, n*n)
		}
		unit, err := Unit(u)
		if err != nil {
			t.Fatal(err)
		}
		if got := Norm(unit); !scalar.EqualWithinAbs(got, 1, 1e-12) {
			t.Errorf("norm(unit(%v)) = %g", u, got)
		}
	}
}

func TestUnitDegenerate(t *testing.T) {
	for _, u := range []Vec{{0, 0, 0}, {}, {math.NaN(), 1, 0}, {math.Inf(1), 0, 0}} {
		_, err := Unit(u)
		if !errors.Is(err, ErrDegenerate) {
			t.Errorf("unit(%v): want ErrDegenerate, got %v", u, err)
		}
	}
}

func TestCrossMatchesR3(t *testing.T) {
	rnd := NewRandom(1)
	for i := 0; i < 50; i++ {
		u, v := rnd.Vec(3, -10, 10), rnd.Vec(3, -10, 10)
		got, err := Cross(u, v)
		if err != nil {
			t.Fatal(err)
		}
		ru, _ := ToR3(u)
		rv, _ := ToR3(v)
		want := R3(r3.Cross(ru, rv))
		if !EqualWithin(got, want, 1e-12) {
			t.Errorf("cross(%v,%v) = %v, want %v", u, v, got, want)
		}
		// u×v is orthogonal to both operands.
		du, _ := Dot(got, u)
		dv, _ := Dot(got, v)
		if math.Abs(du) > 1e-9 || math.Abs(dv) > 1e-9 {
			t.Errorf("cross product not orthogonal: %g %g", du, dv)
		}
	}
}
