package scene_test

import (
	"image/color"
	"math"
	"testing"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/layout"
	"github.com/soypat/glscene/render"
	"github.com/soypat/glscene/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

func resolved(name string) scene.Config {
	cfg := scene.Config{Scene: name, Width: 64, Height: 64}
	cfg.Resolve(scene.Flags{})
	return cfg
}

func TestProjectionLayout(t *testing.T) {
	cfg := resolved("projection")
	cfg.Projection.Triangles = 2
	bufs, err := scene.NewProjection(cfg).Layout()
	if err != nil {
		t.Fatal(err)
	}
	if bufs.Len() != 2*3+9 {
		t.Errorf("records %d, want 15", bufs.Len())
	}
	want := []struct {
		name   string
		offset int
		count  int
	}{
		{scene.SegTriangles, 0, 6},
		{scene.SegFarPlane, 6, 4},
		{scene.SegNearPlane, 10, 4},
		{scene.SegBottomSide, 14, 4},
		{scene.SegRightSide, 18, 4},
		{scene.SegTopSide, 22, 4},
		{scene.SegLeftSide, 26, 4},
		{scene.SegNearEdges, 30, 4},
		{scene.SegFarEdges, 34, 4},
		{scene.SegBottomLeftEdge, 38, 2},
		{scene.SegBottomRightEdge, 40, 2},
		{scene.SegTopLeftEdge, 42, 2},
		{scene.SegTopRightEdge, 44, 2},
	}
	if len(bufs.Segments) != len(want) {
		t.Fatalf("got %d segments, want %d", len(bufs.Segments), len(want))
	}
	for i, w := range want {
		got := bufs.Segments[i]
		if got.Name != w.name || got.Offset != w.offset || got.Count != w.count {
			t.Errorf("segment %d: got %s@%d+%d, want %s@%d+%d", i, got.Name, got.Offset, got.Count, w.name, w.offset, w.count)
		}
	}
	// Camera centre is the last record.
	if p := bufs.Position(bufs.Len() - 1); p != (r3.Vec{}) {
		t.Errorf("camera centre at %v", p)
	}
	seg, _ := bufs.Segment(scene.SegBottomLeftEdge)
	if idx := bufs.SegmentIndices(seg); idx[0] != uint16(bufs.Len()-1) {
		t.Errorf("side edge starts at %d, want camera centre", idx[0])
	}
}

// The frustum corners land on the corners of normalized device space.
func TestFrustumCorners(t *testing.T) {
	cfg := resolved("projection")
	cfg.Camera.Aspect = 1.5
	s := scene.NewProjection(cfg)
	corners, err := s.Frustum()
	if err != nil {
		t.Fatal(err)
	}
	proj, err := cfg.Camera.Projection()
	if err != nil {
		t.Fatal(err)
	}
	sign := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i, c := range corners {
		clip, err := glscene.MulVec(proj, glscene.Homogeneous(glscene.R3(c)))
		if err != nil {
			t.Fatal(err)
		}
		ndc := glscene.Scale(1/clip[3], clip[:3])
		wantZ := -1.0
		if i >= 4 {
			wantZ = 1
		}
		want := glscene.Vec{sign[i%4][0], sign[i%4][1], wantZ}
		if !glscene.EqualWithin(ndc, want, 1e-9) {
			t.Errorf("corner %d maps to %v, want %v", i, ndc, want)
		}
	}
}

func TestProjectionFramePasses(t *testing.T) {
	cfg := resolved("projection")
	fr, err := scene.NewProjection(cfg).Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fr.Uniforms) != 2 || fr.Uniforms[0].Name != frame.UniformProjection || len(fr.Uniforms[1].Value) != 16 {
		t.Fatalf("uniforms %+v", fr.Uniforms)
	}
	useColour := func(seg string) float32 {
		for _, u := range fr.Passes[seg][0] {
			if u.Name == frame.UniformUseColour {
				return u.Value[0]
			}
		}
		t.Fatalf("%s: no use_colour", seg)
		return -1
	}
	if useColour(scene.SegTriangles) != 1 || useColour(scene.SegNearPlane) != 1 {
		t.Error("vertex colour disabled for triangles or planes")
	}
	if useColour(scene.SegLeftSide) != 0 || useColour(scene.SegTopRightEdge) != 0 {
		t.Error("vertex colour enabled for sides or edges")
	}
}

func TestOrbitView(t *testing.T) {
	cam := resolved("projection").Camera
	cam.Orbit = true
	mid := glscene.Vec{0, 0, -(cam.Near + cam.Far) / 2, 1}
	for _, theta := range []float64{0, 0.3, math.Pi} {
		view, err := cam.View(theta)
		if err != nil {
			t.Fatal(err)
		}
		got, _ := glscene.MulVec(view, mid)
		if !glscene.EqualWithin(got, mid, 1e-9) {
			t.Errorf("theta=%g: orbit moved its centre to %v", theta, got)
		}
	}
	cam.Eye, cam.At, cam.Up = []float64{0, 0, 1}, []float64{0, 0, 0}, []float64{0, 0, 1}
	if _, err := cam.View(0); err == nil {
		t.Error("up parallel to view direction accepted")
	}
}

func TestWheelLayout(t *testing.T) {
	cfg := resolved("wheel")
	bufs, err := scene.NewWheel(cfg).Layout()
	if err != nil {
		t.Fatal(err)
	}
	fill, ok := bufs.Segment(scene.SegFill)
	if !ok || fill.Count != 18 || fill.Topology != layout.TriangleList {
		t.Errorf("fill segment %+v", fill)
	}
	wheel, _ := bufs.Segment(scene.SegWheel)
	if wheel.Offset != 18 || wheel.Count != 6 || wheel.Topology != layout.LineLoop {
		t.Errorf("wheel segment %+v", wheel)
	}
	if c := bufs.Color(0); c != glscene.ColorWheel(0) {
		t.Errorf("first colour %v", c)
	}
	cfg.Wheel.Spiral = true
	bufs, err = scene.NewWheel(cfg).Layout()
	if err != nil {
		t.Fatal(err)
	}
	if len(bufs.Segments) != 1 || bufs.Segments[0].Topology != layout.LineStrip {
		t.Errorf("spiral segments %+v", bufs.Segments)
	}
	cfg.Wheel.Vertices = 2
	if _, err := scene.NewWheel(cfg).Layout(); err == nil {
		t.Error("two vertex wheel accepted")
	}
}

func TestLightingFrame(t *testing.T) {
	cfg := resolved("lighting")
	cfg.Lighting.Models = 3
	s := scene.NewLighting(cfg)
	const theta = 0.7
	fr, err := s.Frame(theta)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, u := range fr.Uniforms {
		names[u.Name] = true
	}
	for _, n := range []string{render.UniformLightPosition, render.UniformMaterialDiffuse, render.UniformShininess, frame.UniformNear, frame.UniformFar} {
		if !names[n] {
			t.Errorf("missing uniform %q", n)
		}
	}
	passes := fr.Passes[scene.SegModel]
	if len(passes) != 3 {
		t.Fatalf("%d passes, want 3", len(passes))
	}
	for k, pose := range s.Poses() {
		m, err := pose.Transform(theta)
		if err != nil {
			t.Fatal(err)
		}
		want := glscene.Must(glscene.ColumnMajor32(m))
		got := passes[k][0].Value
		for i := range want {
			if math.Abs(float64(got[i]-want[i])) > 1e-5 {
				t.Fatalf("instance %d modelview differs at %d: %v vs %v", k, i, got, want)
			}
		}
	}
}

func runScene(t *testing.T, cfg scene.Config, ticks int) *render.Backend {
	t.Helper()
	s, err := scene.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	be := render.NewBackend(cfg.Width, cfg.Height, 1, color.White)
	sch := frame.New(be, s, nil, frame.Config{Step: cfg.Step, Animate: true, Hidden: cfg.Hidden})
	if err := sch.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < ticks; i++ {
		if err := sch.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if sch.Frames() != uint64(ticks) {
		t.Errorf("frames %d, want %d", sch.Frames(), ticks)
	}
	return be
}

func TestScenesRender(t *testing.T) {
	for _, name := range []string{"projection", "lighting"} {
		runScene(t, resolved(name), 3)
	}
	be := runScene(t, resolved("wheel"), 1)
	img, err := be.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	// The fan centre vertex is white and the rim is coloured.
	c := color.NRGBAModel.Convert(img.At(32, 32)).(color.NRGBA)
	if c.R < 200 || c.G < 200 || c.B < 200 {
		t.Errorf("wheel centre %v", c)
	}
	if _, err := scene.New(scene.Config{Scene: "bogus"}); err == nil {
		t.Error("unknown scene accepted")
	}
}
