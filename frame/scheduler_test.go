package frame_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soypat/glscene/capture"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/layout"
	"gonum.org/v1/gonum/spatial/r3"
)

type recorder struct {
	log       []string
	uploadErr error
	bindErr   error
	// drawErrs are returned by successive Draw calls until exhausted.
	drawErrs []error
	draws    []frame.DrawRequest
}

func (r *recorder) Upload(b *layout.Buffers) (frame.Handle, error) {
	r.log = append(r.log, "upload")
	return 7, r.uploadErr
}

func (r *recorder) BindAttribute(h frame.Handle, name string, f layout.Field, stride int) error {
	r.log = append(r.log, fmt.Sprintf("bind %s %d+%d/%d", name, f.Offset, f.Count, stride))
	return r.bindErr
}

func (r *recorder) SetUniform(name string, v []float32) error {
	r.log = append(r.log, "uniform "+name)
	return nil
}

func (r *recorder) Clear() error {
	r.log = append(r.log, "clear")
	return nil
}

func (r *recorder) Draw(req frame.DrawRequest) error {
	r.log = append(r.log, "draw "+req.Segment)
	if len(r.drawErrs) > 0 {
		err := r.drawErrs[0]
		r.drawErrs = r.drawErrs[1:]
		if err != nil {
			return err
		}
	}
	r.draws = append(r.draws, req)
	return nil
}

type counter struct{ n int }

func (c *counter) Check() error { c.n++; return nil }

type testScene struct {
	layoutErr error
	thetas    []float64
	frame     frame.Frame
	onFrame   func()
}

func (s *testScene) Layout() (*layout.Buffers, error) {
	if s.layoutErr != nil {
		return nil, s.layoutErr
	}
	p := layout.NewPlanner(layout.PositionColor)
	for i := 0; i < 4; i++ {
		p.AppendRecord(r3.Vec{X: float64(i)}, []float32{1, 1, 1, 1})
	}
	p.AppendSegment("a", layout.TriangleList, []int{0, 1, 2})
	p.AppendSegment("b", layout.LineLoop, []int{0, 1, 2, 3})
	p.AppendSegment("c", layout.LineList, []int{3, 0})
	return p.Build(), nil
}

func (s *testScene) Frame(theta float64) (frame.Frame, error) {
	s.thetas = append(s.thetas, theta)
	if s.onFrame != nil {
		s.onFrame()
	}
	return s.frame, nil
}

func TestStartBindsAttributes(t *testing.T) {
	var r recorder
	s := frame.New(&r, &testScene{}, nil, frame.Config{})
	if s.State() != frame.Idle {
		t.Fatal("new scheduler not idle")
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	want := "upload|bind position 0+3/28|bind colour 3+4/28"
	if got := strings.Join(r.log, "|"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if s.State() != frame.Running {
		t.Error("scheduler not running after Start")
	}
	if err := s.Start(); !errors.Is(err, frame.ErrStarted) {
		t.Errorf("second Start: want ErrStarted, got %v", err)
	}
}

func TestStartFailureStaysIdle(t *testing.T) {
	boom := errors.New("shader did not link")
	for name, tc := range map[string]struct {
		r     *recorder
		scene *testScene
	}{
		"layout": {&recorder{}, &testScene{layoutErr: boom}},
		"upload": {&recorder{uploadErr: boom}, &testScene{}},
		"bind":   {&recorder{bindErr: boom}, &testScene{}},
	} {
		var c counter
		s := frame.New(tc.r, tc.scene, &c, frame.Config{})
		err := s.Start()
		if !errors.Is(err, frame.ErrStartup) || !errors.Is(err, boom) {
			t.Errorf("%s: want ErrStartup wrapping cause, got %v", name, err)
		}
		if s.State() != frame.Idle {
			t.Errorf("%s: state %v after failed start", name, s.State())
		}
		if err := s.Tick(); !errors.Is(err, frame.ErrNotRunning) {
			t.Errorf("%s: tick after failed start: %v", name, err)
		}
		if len(tc.r.draws) != 0 || c.n != 0 {
			t.Errorf("%s: rendered with partial state", name)
		}
	}
}

func TestTickOrderAndToggles(t *testing.T) {
	var r recorder
	var c counter
	sc := &testScene{frame: frame.Frame{
		Uniforms: []frame.Uniform{{Name: frame.UniformProjection, Value: make([]float32, 16)}},
		Passes: map[string][]frame.Pass{
			"a": {
				{{Name: frame.UniformModelView, Value: make([]float32, 16)}},
				{{Name: frame.UniformModelView, Value: make([]float32, 16)}},
			},
			"c": {{{Name: frame.UniformAlpha, Value: []float32{0.5}}}},
		},
	}}
	s := frame.New(&r, sc, &c, frame.Config{Hidden: []string{"b"}})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	r.log = nil
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	want := "clear|uniform projection|uniform modelview|draw a|uniform modelview|draw a|uniform alpha|draw c"
	if got := strings.Join(r.log, "|"); got != want {
		t.Errorf("tick:\n got %s\nwant %s", got, want)
	}
	if c.n != 1 {
		t.Errorf("capture checked %d times, want 1", c.n)
	}
	if d := r.draws[2]; d.First != 7 || d.Count != 2 || !d.Indexed || d.Buffer != 7 || d.Topology != layout.LineList {
		t.Errorf("draw request %+v", d)
	}

	s.SetVisible("b", true)
	s.SetVisible("a", false)
	r.log, r.draws = nil, nil
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(r.draws) != 2 || r.draws[0].Segment != "b" || r.draws[1].Segment != "c" {
		t.Errorf("draws after toggling: %v", r.log)
	}
	if c.n != 2 || s.Frames() != 2 {
		t.Errorf("checks %d frames %d", c.n, s.Frames())
	}
}

func TestAnimateAdvancesAngle(t *testing.T) {
	sc := &testScene{}
	s := frame.New(&recorder{}, sc, nil, frame.Config{Step: 0.25})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	s.SetAnimate(true)
	s.Tick()
	s.Tick()
	if s.ToggleAnimate() {
		t.Error("toggle should have stopped animation")
	}
	s.Tick()
	want := []float64{0, 0.25, 0.5, 0.5}
	for i, th := range sc.thetas {
		if math.Abs(th-want[i]) > 1e-15 {
			t.Errorf("frame %d theta %g, want %g", i, th, want[i])
		}
	}
	if s.Angle() != 0.5 {
		t.Errorf("angle %g", s.Angle())
	}
}

func TestFailedTickKeepsState(t *testing.T) {
	boom := errors.New("context lost")
	r := &recorder{drawErrs: []error{boom}}
	sc := &testScene{}
	snapshots := 0
	src := capture.SourceFunc(func() (image.Image, error) {
		snapshots++
		return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
	})
	c, err := capture.Setup(src, "capture-button", filepath.Join(t.TempDir(), "frame.bmp"))
	if err != nil {
		t.Fatal(err)
	}
	s := frame.New(r, sc, c, frame.Config{Step: 0.5, Animate: true})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	c.Request()
	if err := s.Tick(); !errors.Is(err, boom) {
		t.Fatalf("want draw error, got %v", err)
	}
	if !c.Pending() || snapshots != 0 {
		t.Errorf("request consumed by failed tick (pending %v, snapshots %d)", c.Pending(), snapshots)
	}
	if s.Angle() != 0 || s.Frames() != 0 {
		t.Errorf("failed tick advanced angle %g frames %d", s.Angle(), s.Frames())
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if c.Pending() || c.Written() != 1 || snapshots != 1 {
		t.Errorf("pending %v written %d snapshots %d, want one capture", c.Pending(), c.Written(), snapshots)
	}
	// The failed tick and the first good tick render the same angle.
	want := []float64{0.5, 0.5, 1}
	for i, th := range sc.thetas {
		if th != want[i] {
			t.Errorf("frame %d theta %g, want %g", i, th, want[i])
		}
	}
}

func TestTickNotReentrant(t *testing.T) {
	sc := &testScene{}
	s := frame.New(&recorder{}, sc, nil, frame.Config{})
	var inner error
	sc.onFrame = func() { inner = s.Tick() }
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, frame.ErrReentrant) {
		t.Errorf("nested tick: want ErrReentrant, got %v", inner)
	}
	if s.Frames() != 1 {
		t.Errorf("frames %d, want 1", s.Frames())
	}
}

func TestRunUntilCancelled(t *testing.T) {
	var c counter
	s := frame.New(&recorder{}, &testScene{}, &c, frame.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx, time.Millisecond); !errors.Is(err, frame.ErrNotRunning) {
		t.Fatalf("run before start: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	err := s.Run(ctx, time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want deadline exceeded, got %v", err)
	}
	if s.Frames() == 0 || uint64(c.n) != s.Frames() {
		t.Errorf("frames %d, capture checks %d", s.Frames(), c.n)
	}
}
