package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/internal/d3"
	"github.com/soypat/glscene/layout"
	"gonum.org/v1/gonum/spatial/r3"
)

// Uniform names of the lighting model.
const (
	UniformLightPosition    = "light.position"
	UniformLightAmbient     = "light.ambient"
	UniformLightDiffuse     = "light.diffuse"
	UniformLightSpecular    = "light.specular"
	UniformMaterialAmbient  = "material.ambient"
	UniformMaterialDiffuse  = "material.diffuse"
	UniformMaterialSpecular = "material.specular"
	UniformShininess        = "material.shininess"
)

// uniformSizes lists the number of components of every uniform the
// backend understands.
var uniformSizes = map[string]int{
	frame.UniformProjection: 16,
	frame.UniformModelView:  16,
	frame.UniformUseColour:  1,
	frame.UniformAlpha:      1,
	frame.UniformColour:     4,
	frame.UniformNear:       1,
	frame.UniformFar:        1,
	UniformLightPosition:    4,
	UniformLightAmbient:     4,
	UniformLightDiffuse:     4,
	UniformLightSpecular:    4,
	UniformMaterialAmbient:  4,
	UniformMaterialDiffuse:  4,
	UniformMaterialSpecular: 4,
	UniformShininess:        1,
}

var (
	errUnknownHandle = errors.New("unknown buffer handle")
	errUnknownAttrib = errors.New("unknown attribute")
)

// Backend is a software implementation of frame.Backend that rasterizes
// into an image with fauxgl. Geometry is shaded per vertex with the
// projection·modelview transform and, when a material is set, with a
// Phong lighting model. Backend also implements capture.Source.
type Backend struct {
	ctx         *fauxgl.Context
	width       int
	height      int
	supersample int
	clear       fauxgl.Color
	next        frame.Handle
	buffers     map[frame.Handle]*bound
	uniforms    map[string][]float32
}

type bound struct {
	b      *layout.Buffers
	fields map[string]layout.Field
	stride int // in floats
}

// NewBackend returns a backend rendering width×height images. The image
// is rendered supersample times larger and downscaled on Snapshot.
// Values below 1 select no supersampling.
func NewBackend(width, height, supersample int, clear color.Color) *Backend {
	if supersample < 1 {
		supersample = 1
	}
	ctx := fauxgl.NewContext(width*supersample, height*supersample)
	ctx.Cull = fauxgl.CullNone
	ctx.AlphaBlend = true
	ctx.LineWidth = float64(supersample)
	return &Backend{
		ctx:         ctx,
		width:       width,
		height:      height,
		supersample: supersample,
		clear:       fauxgl.MakeColor(clear),
		buffers:     make(map[frame.Handle]*bound),
		uniforms:    make(map[string][]float32),
	}
}

// Upload implements frame.Backend.
func (r *Backend) Upload(b *layout.Buffers) (frame.Handle, error) {
	if b == nil || b.Layout.Stride == 0 {
		return 0, errors.New("empty buffers")
	}
	r.next++
	r.buffers[r.next] = &bound{b: b, fields: make(map[string]layout.Field)}
	return r.next, nil
}

// BindAttribute implements frame.Backend.
func (r *Backend) BindAttribute(h frame.Handle, name string, f layout.Field, byteStride int) error {
	bb, ok := r.buffers[h]
	if !ok {
		return errUnknownHandle
	}
	want := map[string]int{frame.AttribPosition: 3, frame.AttribColour: 4, frame.AttribNormal: 3}
	n, ok := want[name]
	if !ok {
		return fmt.Errorf("%w %q", errUnknownAttrib, name)
	}
	stride := byteStride / layout.FloatSize
	if f.Count != n || f.Offset < 0 || f.Offset+f.Count > stride || byteStride%layout.FloatSize != 0 {
		return fmt.Errorf("attribute %q: field %+v does not fit stride %d", name, f, byteStride)
	}
	bb.fields[name] = f
	bb.stride = stride
	return nil
}

// SetUniform implements frame.Backend.
func (r *Backend) SetUniform(name string, value []float32) error {
	n, ok := uniformSizes[name]
	if !ok {
		return nil
	}
	if len(value) != n {
		return fmt.Errorf("uniform %q wants %d values, got %d", name, n, len(value))
	}
	r.uniforms[name] = append(r.uniforms[name][:0], value...)
	return nil
}

// Clear implements frame.Backend.
func (r *Backend) Clear() error {
	r.ctx.ClearColorBufferWith(r.clear)
	r.ctx.ClearDepthBuffer()
	return nil
}

// Draw implements frame.Backend.
func (r *Backend) Draw(req frame.DrawRequest) error {
	bb, ok := r.buffers[req.Buffer]
	if !ok {
		return errUnknownHandle
	}
	if _, ok := bb.fields[frame.AttribPosition]; !ok {
		return errors.New("position attribute not bound")
	}
	var idx []uint16
	if req.Indexed {
		if req.First < 0 || req.First+req.Count > len(bb.b.Indices) {
			return fmt.Errorf("draw range [%d,%d) out of index buffer of %d", req.First, req.First+req.Count, len(bb.b.Indices))
		}
		idx = bb.b.Indices[req.First : req.First+req.Count]
	} else {
		if req.First < 0 || req.First+req.Count > bb.b.Len() {
			return fmt.Errorf("draw range [%d,%d) out of %d vertices", req.First, req.First+req.Count, bb.b.Len())
		}
		idx = make([]uint16, req.Count)
		for i := range idx {
			idx[i] = uint16(req.First + i)
		}
	}
	sh, err := r.shader()
	if err != nil {
		return err
	}
	r.ctx.Shader = sh
	prims := layout.Primitives(req.Topology, idx)
	switch req.Topology {
	case layout.TriangleList, layout.TriangleStrip:
		tris := make([]*fauxgl.Triangle, 0, len(prims)/3)
		for i := 0; i+2 < len(prims); i += 3 {
			tris = append(tris, &fauxgl.Triangle{
				V1: bb.vertex(int(prims[i])),
				V2: bb.vertex(int(prims[i+1])),
				V3: bb.vertex(int(prims[i+2])),
			})
		}
		r.ctx.DrawTriangles(tris)
	default:
		lines := make([]*fauxgl.Line, 0, len(prims)/2)
		for i := 0; i+1 < len(prims); i += 2 {
			lines = append(lines, &fauxgl.Line{
				V1: bb.vertex(int(prims[i])),
				V2: bb.vertex(int(prims[i+1])),
			})
		}
		r.ctx.DrawLines(lines)
	}
	return nil
}

// Snapshot returns a copy of the rendered image at the output size.
// It implements capture.Source.
func (r *Backend) Snapshot() (image.Image, error) {
	img := r.ctx.Image()
	if r.supersample > 1 {
		return resize.Resize(uint(r.width), uint(r.height), img, resize.Bilinear), nil
	}
	dst := image.NewNRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst, nil
}

func (bb *bound) attr(i int, name string) ([]float32, bool) {
	f, ok := bb.fields[name]
	if !ok {
		return nil, false
	}
	o := i*bb.stride + f.Offset
	return bb.b.Attributes[o : o+f.Count], true
}

func (bb *bound) vertex(i int) fauxgl.Vertex {
	var v fauxgl.Vertex
	p, _ := bb.attr(i, frame.AttribPosition)
	v.Position = fauxgl.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	v.Color = fauxgl.Color{R: 1, G: 1, B: 1, A: 1}
	if c, ok := bb.attr(i, frame.AttribColour); ok {
		v.Color = fauxgl.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
	}
	if n, ok := bb.attr(i, frame.AttribNormal); ok {
		v.Normal = fauxgl.Vector{X: float64(n[0]), Y: float64(n[1]), Z: float64(n[2])}
	}
	return v
}

func (r *Backend) mat(name string) (d3.Transform, error) {
	v, ok := r.uniforms[name]
	if !ok {
		return d3.Transform{}, nil
	}
	return d3.FromColumnMajor(v)
}

func (r *Backend) scalar(name string, def float64) float64 {
	if v, ok := r.uniforms[name]; ok {
		return float64(v[0])
	}
	return def
}

func (r *Backend) color(name string, def fauxgl.Color) fauxgl.Color {
	if v, ok := r.uniforms[name]; ok {
		return fauxgl.Color{R: float64(v[0]), G: float64(v[1]), B: float64(v[2]), A: float64(v[3])}
	}
	return def
}

func (r *Backend) shader() (*shader, error) {
	proj, err := r.mat(frame.UniformProjection)
	if err != nil {
		return nil, err
	}
	mv, err := r.mat(frame.UniformModelView)
	if err != nil {
		return nil, err
	}
	sh := &shader{
		mvp:       proj.Mul(mv),
		modelview: mv,
		useColour: r.scalar(frame.UniformUseColour, 1) != 0,
		alpha:     r.scalar(frame.UniformAlpha, 1),
		colour:    r.color(frame.UniformColour, fauxgl.White),
	}
	if _, lit := r.uniforms[UniformMaterialDiffuse]; lit {
		sh.lit = true
		sh.normal, err = mv.NormalMatrix()
		if err != nil {
			glscene.Logger().Warn("singular modelview, normals unchanged", "err", err)
			sh.normal = d3.Transform{}
		}
		lp := r.uniforms[UniformLightPosition]
		if lp == nil {
			lp = []float32{0, 0, 0, 1}
		}
		sh.light = r3.Vec{X: float64(lp[0]), Y: float64(lp[1]), Z: float64(lp[2])}
		black := fauxgl.Color{A: 1}
		sh.la = r.color(UniformLightAmbient, fauxgl.White)
		sh.ld = r.color(UniformLightDiffuse, fauxgl.White)
		sh.ls = r.color(UniformLightSpecular, fauxgl.White)
		sh.ma = r.color(UniformMaterialAmbient, black)
		sh.md = r.color(UniformMaterialDiffuse, black)
		sh.ms = r.color(UniformMaterialSpecular, black)
		sh.shininess = r.scalar(UniformShininess, 1)
	}
	return sh, nil
}

// shader implements fauxgl.Shader with per-vertex lighting in view space.
type shader struct {
	mvp       d3.Transform
	modelview d3.Transform
	normal    d3.Transform
	useColour bool
	alpha     float64
	colour    fauxgl.Color

	lit        bool
	light      r3.Vec
	la, ld, ls fauxgl.Color
	ma, md, ms fauxgl.Color
	shininess  float64
}

func (s *shader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	p := r3.Vec{X: v.Position.X, Y: v.Position.Y, Z: v.Position.Z}
	clip, w := s.mvp.Apply(p)
	v.Output = fauxgl.VectorW{X: clip.X, Y: clip.Y, Z: clip.Z, W: w}
	switch {
	case s.lit:
		n := r3.Vec{X: v.Normal.X, Y: v.Normal.Y, Z: v.Normal.Z}
		v.Color = s.shade(p, n)
	case !s.useColour:
		v.Color = s.colour
	}
	v.Color.A *= s.alpha
	return v
}

func (s *shader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	return v.Color
}

// shade evaluates the Phong model at object space point p with normal n.
// The light position is given in view space.
func (s *shader) shade(p, n r3.Vec) fauxgl.Color {
	eye, w := s.modelview.Apply(p)
	if w != 0 && w != 1 {
		eye = r3.Scale(1/w, eye)
	}
	n = s.normal.ApplyDir(n)
	if l := r3.Norm(n); l > 0 {
		n = r3.Scale(1/l, n)
	}
	toLight := r3.Sub(s.light, eye)
	if l := r3.Norm(toLight); l > 0 {
		toLight = r3.Scale(1/l, toLight)
	}
	toEye := r3.Scale(-1, eye)
	if l := r3.Norm(toEye); l > 0 {
		toEye = r3.Scale(1/l, toEye)
	}
	diff := math.Max(r3.Dot(n, toLight), 0)
	spec := 0.0
	if diff > 0 {
		refl := d3.Reflect(r3.Scale(-1, toLight), n)
		spec = math.Pow(math.Max(r3.Dot(refl, toEye), 0), s.shininess)
	}
	c := s.ma.Mul(s.la).
		Add(s.md.Mul(s.ld).MulScalar(diff)).
		Add(s.ms.Mul(s.ls).MulScalar(spec))
	c.A = s.md.A
	return c.Min(fauxgl.White)
}
