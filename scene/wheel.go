package scene

import (
	"math"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/internal/d2"
	"github.com/soypat/glscene/layout"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment names of the wheel scene.
const (
	SegFill  = "fill"
	SegWheel = "wheel"
)

const wheelRadius = 0.9

// WheelScene draws a polygon or spiral coloured by ColorWheel in
// normalized device coordinates, spinning about the view axis.
type WheelScene struct {
	cfg WheelConfig
}

// NewWheel returns the colour wheel scene for a resolved config.
func NewWheel(cfg Config) *WheelScene {
	return &WheelScene{cfg: cfg.Wheel}
}

// Layout implements frame.Scene. A polygon gets a filled triangle fan
// around a white centre and a line-loop outline. A spiral is a single
// line strip.
func (s *WheelScene) Layout() (*layout.Buffers, error) {
	n := s.cfg.Vertices
	if n < 3 {
		return nil, glscene.ErrDegenerate
	}
	var pts []r2.Vec
	if s.cfg.Spiral {
		pts = d2.Spiral(n, wheelRadius, s.cfg.Turns)
	} else {
		pts = d2.Ring(n, wheelRadius, 0)
	}
	p := layout.NewPlanner(layout.PositionColor)
	for i, pt := range pts {
		c := glscene.ColorWheel(2 * math.Pi * float64(i) / float64(n))
		if _, err := p.AppendRecord(r3.Vec{X: pt.X, Y: pt.Y}, c[:]); err != nil {
			return nil, err
		}
	}
	outline := make([]int, n)
	for i := range outline {
		outline[i] = i
	}
	if s.cfg.Spiral {
		if _, err := p.AppendSegment(SegWheel, layout.LineStrip, outline); err != nil {
			return nil, err
		}
		return p.Build(), nil
	}
	centre, err := p.AppendRecord(r3.Vec{}, []float32{1, 1, 1, 1})
	if err != nil {
		return nil, err
	}
	fan := make([]int, 0, 3*n)
	for i := 0; i < n; i++ {
		fan = append(fan, centre, i, (i+1)%n)
	}
	if _, err := p.AppendSegment(SegFill, layout.TriangleList, fan); err != nil {
		return nil, err
	}
	if _, err := p.AppendSegment(SegWheel, layout.LineLoop, outline); err != nil {
		return nil, err
	}
	return p.Build(), nil
}

// Frame implements frame.Scene.
func (s *WheelScene) Frame(theta float64) (frame.Frame, error) {
	spin, err := glscene.Motion(theta, glscene.Vec{0, 0, 1}, glscene.Zeros(3))
	if err != nil {
		return frame.Frame{}, err
	}
	proj, err := matUniform(frame.UniformProjection, glscene.Identity(4))
	if err != nil {
		return frame.Frame{}, err
	}
	mv, err := matUniform(frame.UniformModelView, spin)
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{Uniforms: []frame.Uniform{
		proj, mv,
		scalar(frame.UniformUseColour, 1),
		scalar(frame.UniformAlpha, 1),
	}}, nil
}
