package scene

import (
	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/layout"
	"github.com/soypat/glscene/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// SegModel is the segment holding the lit mesh.
const SegModel = "model"

// LightingScene draws instances of one mesh, each with its own random
// pose, under a point light.
type LightingScene struct {
	cam   Camera
	cfg   LightingConfig
	rng   *glscene.Random
	poses []glscene.Pose
}

// NewLighting returns the lit mesh scene for a resolved config. The
// poses are drawn once so every frame shows the same instances.
func NewLighting(cfg Config) *LightingScene {
	s := &LightingScene{cam: cfg.Camera, cfg: cfg.Lighting, rng: glscene.NewRandom(cfg.Seed)}
	z := -(cfg.Camera.Far + cfg.Camera.Near) / 2
	for k := 0; k < s.cfg.Models; k++ {
		scale := s.rng.Between(s.cfg.MinScale, s.cfg.MaxScale)
		loc := r3.Vec{X: s.rng.Between(-2, 2), Y: s.rng.Between(-2, 2), Z: z + s.rng.Between(-2, 2)}
		axis := glscene.Must(glscene.ToR3(s.rng.Vec(3, -1, 1)))
		if r3.Norm(axis) < 1e-3 {
			axis = r3.Vec{Y: 1}
		}
		s.poses = append(s.poses, glscene.UniformPose(scale, loc, axis))
	}
	return s
}

// Poses returns the pose of every instance.
func (s *LightingScene) Poses() []glscene.Pose { return s.poses }

// Layout implements frame.Scene. The mesh is normalized to unit size
// around the origin. Without a mesh path a unit cube is used.
func (s *LightingScene) Layout() (*layout.Buffers, error) {
	var m *render.Mesh
	if s.cfg.Mesh == "" {
		m = cubeMesh()
	} else {
		var err error
		m, err = render.LoadMesh(s.cfg.Mesh)
		if err != nil {
			return nil, err
		}
	}
	m.Normalize()
	glscene.Logger().Debug("mesh loaded", "path", s.cfg.Mesh, "vertices", m.VertexCount(), "triangles", m.TriangleCount())
	p := layout.NewPlanner(layout.PositionNormal)
	if _, err := m.AppendTo(p, SegModel); err != nil {
		return nil, err
	}
	return p.Build(), nil
}

// Frame implements frame.Scene. Light and material are bound field by
// field, then the mesh is drawn once per instance with its modelview.
func (s *LightingScene) Frame(theta float64) (frame.Frame, error) {
	proj, err := s.cam.Projection()
	if err != nil {
		return frame.Frame{}, err
	}
	view, err := s.cam.View(theta)
	if err != nil {
		return frame.Frame{}, err
	}
	pu, err := matUniform(frame.UniformProjection, proj)
	if err != nil {
		return frame.Frame{}, err
	}
	l, mat := s.cfg.Light, s.cfg.Material
	us := []frame.Uniform{
		pu,
		vec4(render.UniformLightPosition, l.Position),
		vec4(render.UniformLightAmbient, l.Ambient),
		vec4(render.UniformLightDiffuse, l.Diffuse),
		vec4(render.UniformLightSpecular, l.Specular),
		vec4(render.UniformMaterialAmbient, mat.Ambient),
		vec4(render.UniformMaterialDiffuse, mat.Diffuse),
		vec4(render.UniformMaterialSpecular, mat.Specular),
		scalar(render.UniformShininess, float64(mat.Shininess)),
		scalar(frame.UniformNear, s.cam.Near),
		scalar(frame.UniformFar, s.cam.Far),
		scalar(frame.UniformAlpha, 1),
	}
	passes := make([]frame.Pass, 0, len(s.poses))
	for _, pose := range s.poses {
		model, err := pose.Transform(theta)
		if err != nil {
			return frame.Frame{}, err
		}
		mv, err := glscene.Product(view, model)
		if err != nil {
			return frame.Frame{}, err
		}
		u, err := matUniform(frame.UniformModelView, mv)
		if err != nil {
			return frame.Frame{}, err
		}
		passes = append(passes, frame.Pass{u})
	}
	return frame.Frame{Uniforms: us, Passes: map[string][]frame.Pass{SegModel: passes}}, nil
}

// cubeFaces lists the cube triangles over d3.Box vertices, counter-clockwise
// seen from outside.
var cubeFaces = [12][3]int{
	{0, 2, 1}, {0, 3, 2}, // -z
	{4, 5, 6}, {4, 6, 7}, // +z
	{0, 1, 5}, {0, 5, 4}, // -y
	{1, 2, 6}, {1, 6, 5}, // +x
	{2, 3, 7}, {2, 7, 6}, // +y
	{3, 0, 4}, {3, 4, 7}, // -x
}

func cubeMesh() *render.Mesh {
	v := d3.Box{Min: d3.Elem(-0.5), Max: d3.Elem(0.5)}.Vertices()
	tris := make([]render.Triangle, len(cubeFaces))
	for i, f := range cubeFaces {
		tris[i] = render.Triangle{v[f[0]], v[f[1]], v[f[2]]}
	}
	return render.MeshFromTriangles(tris)
}
