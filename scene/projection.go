package scene

import (
	"math"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/layout"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment names of the projection scene in declaration order.
const (
	SegTriangles       = "triangles"
	SegFarPlane        = "far-plane"
	SegNearPlane       = "near-plane"
	SegBottomSide      = "bottom-side"
	SegRightSide       = "right-side"
	SegTopSide         = "top-side"
	SegLeftSide        = "left-side"
	SegNearEdges       = "near-edges"
	SegFarEdges        = "far-edges"
	SegBottomLeftEdge  = "bottom-left-edge"
	SegBottomRightEdge = "bottom-right-edge"
	SegTopLeftEdge     = "top-left-edge"
	SegTopRightEdge    = "top-right-edge"
)

// FrustumSegments lists the segments that visualise the viewing frustum.
var FrustumSegments = []string{
	SegFarPlane, SegNearPlane,
	SegBottomSide, SegRightSide, SegTopSide, SegLeftSide,
	SegNearEdges, SegFarEdges,
	SegBottomLeftEdge, SegBottomRightEdge, SegTopLeftEdge, SegTopRightEdge,
}

// frustumPlan indexes the frustum corners. Near corners are 0-3 and far
// corners 4-7, anticlockwise from bottom left as seen from the camera.
// Vertex 8 is the camera centre.
var frustumPlan = []struct {
	name     string
	topology layout.Topology
	idx      []int
}{
	{SegFarPlane, layout.TriangleStrip, []int{5, 4, 6, 7}},
	{SegNearPlane, layout.TriangleStrip, []int{1, 0, 2, 3}},
	{SegBottomSide, layout.TriangleStrip, []int{0, 1, 4, 5}},
	{SegRightSide, layout.TriangleStrip, []int{5, 1, 6, 2}},
	{SegTopSide, layout.TriangleStrip, []int{2, 3, 6, 7}},
	{SegLeftSide, layout.TriangleStrip, []int{4, 0, 7, 3}},
	{SegNearEdges, layout.LineLoop, []int{0, 1, 2, 3}},
	{SegFarEdges, layout.LineLoop, []int{4, 5, 6, 7}},
	{SegBottomLeftEdge, layout.LineList, []int{8, 4}},
	{SegBottomRightEdge, layout.LineList, []int{8, 5}},
	{SegTopLeftEdge, layout.LineList, []int{8, 7}},
	{SegTopRightEdge, layout.LineList, []int{8, 6}},
}

var (
	sideColour = [4]float32{0.5, 0.5, 0.5, 1}
	edgeColour = [4]float32{0, 0, 0, 1}
)

// ProjectionScene draws random coloured triangles inside the viewing
// volume followed by a wireframe and translucent planes of the frustum.
type ProjectionScene struct {
	cam Camera
	cfg ProjectionConfig
	rng *glscene.Random
}

// NewProjection returns the projection scene for a resolved config.
func NewProjection(cfg Config) *ProjectionScene {
	return &ProjectionScene{cam: cfg.Camera, cfg: cfg.Projection, rng: glscene.NewRandom(cfg.Seed)}
}

// Layout implements frame.Scene.
func (s *ProjectionScene) Layout() (*layout.Buffers, error) {
	p := layout.NewPlanner(layout.PositionColor)
	d, r := s.cfg.MaxDepth, s.cfg.Radius
	for i := 0; i < s.cfg.Triangles; i++ {
		centre := r3.Vec{X: s.rng.Between(-d/2, d/2), Y: s.rng.Between(-d/2, d/2), Z: s.rng.Between(-d, 0)}
		rgba := s.rng.Color()
		for j := 0; j < 3; j++ {
			jitter := glscene.Must(glscene.ToR3(s.rng.Vec(3, -r, r)))
			if _, err := p.AppendRecord(r3.Add(centre, jitter), rgba[:]); err != nil {
				return nil, err
			}
		}
	}
	tris := make([]int, 3*s.cfg.Triangles)
	for i := range tris {
		tris[i] = i
	}
	if _, err := p.AppendSegment(SegTriangles, layout.TriangleList, tris); err != nil {
		return nil, err
	}

	base := p.Len()
	corners, err := s.Frustum()
	if err != nil {
		return nil, err
	}
	alpha := float32(s.cfg.PlaneAlpha)
	for i, c := range corners {
		colour := []float32{0, 1, 0, alpha}
		if i >= 4 {
			colour = []float32{1, 0, 0, alpha}
		}
		if _, err := p.AppendRecord(c, colour); err != nil {
			return nil, err
		}
	}
	if _, err := p.AppendRecord(r3.Vec{}, []float32{0, 0, 0, alpha}); err != nil {
		return nil, err
	}
	for _, seg := range frustumPlan {
		idx := make([]int, len(seg.idx))
		for i, v := range seg.idx {
			idx[i] = base + v
		}
		if _, err := p.AppendSegment(seg.name, seg.topology, idx); err != nil {
			return nil, err
		}
	}
	return p.Build(), nil
}

// Frustum returns the near and far plane corners in view space,
// anticlockwise from bottom left as seen from the camera.
func (s *ProjectionScene) Frustum() ([8]r3.Vec, error) {
	c := s.cam
	if _, err := c.Projection(); err != nil {
		return [8]r3.Vec{}, err
	}
	var corners [8]r3.Vec
	for i, z := range [2]float64{c.Near, c.Far} {
		top := z * math.Tan(glscene.DtoR(c.FOV)/2)
		right := top * c.Aspect
		corners[4*i+0] = r3.Vec{X: -right, Y: -top, Z: -z}
		corners[4*i+1] = r3.Vec{X: right, Y: -top, Z: -z}
		corners[4*i+2] = r3.Vec{X: right, Y: top, Z: -z}
		corners[4*i+3] = r3.Vec{X: -right, Y: top, Z: -z}
	}
	return corners, nil
}

// Frame implements frame.Scene. Triangles and the near and far planes
// use their vertex colours. Side planes and edges are drawn in a flat
// colour at half opacity.
func (s *ProjectionScene) Frame(theta float64) (frame.Frame, error) {
	us, err := cameraUniforms(s.cam, theta)
	if err != nil {
		return frame.Frame{}, err
	}
	vertexColour := []frame.Pass{{scalar(frame.UniformUseColour, 1), scalar(frame.UniformAlpha, 1)}}
	flat := func(c [4]float32) []frame.Pass {
		return []frame.Pass{{
			scalar(frame.UniformUseColour, 0),
			scalar(frame.UniformAlpha, 0.5),
			vec4(frame.UniformColour, c),
		}}
	}
	passes := map[string][]frame.Pass{
		SegTriangles: vertexColour,
		SegFarPlane:  vertexColour,
		SegNearPlane: vertexColour,
	}
	for _, name := range []string{SegBottomSide, SegRightSide, SegTopSide, SegLeftSide} {
		passes[name] = flat(sideColour)
	}
	for _, name := range FrustumSegments[6:] {
		passes[name] = flat(edgeColour)
	}
	return frame.Frame{Uniforms: us, Passes: passes}, nil
}
