package glscene

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrDimensionMismatch is returned when the operands of a vector or
	// matrix operation have incompatible shapes.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDegenerate is returned for inputs that have no well defined result
	// such as normalizing the zero vector or a look-at whose up vector is
	// parallel to the view direction.
	ErrDegenerate = errors.New("degenerate input")
)

// errAt wraps base with the name and line of the function skip frames
// above errAt. skip=1 is the direct caller.
func errAt(skip int, base error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return fmt.Errorf("?: %w: %s", base, msg)
	}
	fn := runtime.FuncForPC(pc)
	return fmt.Errorf("%s line %d: %w: %s", fn.Name(), line, base, msg)
}

func errShape(format string, args ...any) error {
	return errAt(2, ErrDimensionMismatch, format, args...)
}

func errDegenerate(format string, args ...any) error {
	return errAt(2, ErrDegenerate, format, args...)
}

// Must panics if err is non-nil and otherwise returns v. It is meant for
// package level tables built from constant, known-good inputs.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
