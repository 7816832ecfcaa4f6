// Package glrender implements the frame backend on OpenGL 3.3+ core
// through go-gl, with shader programs compiled by glgl. All methods must
// be called from the thread that owns the GL context.
package glrender

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/layout"
	"github.com/soypat/glscene/render"
)

//go:embed scene.glsl
var sceneSource string

// attribute locations as declared in scene.glsl.
var attribLocation = map[string]uint32{
	frame.AttribPosition: 0,
	frame.AttribColour:   1,
	frame.AttribNormal:   2,
}

// glslName maps uniform names to their GLSL identifiers where they differ.
var glslName = map[string]string{
	frame.UniformColour: "u_colour",
}

type buffers struct {
	vao, vbo, ebo uint32
	b             *layout.Buffers
}

// Backend draws laid-out buffers into the current GL framebuffer.
type Backend struct {
	prog      glgl.Program
	progID    uint32
	width     int
	height    int
	clear     [4]float32
	buffers   map[frame.Handle]*buffers
	locations map[string]int32
}

// Config configures a Backend.
type Config struct {
	Width, Height int
	// ClearColour is the RGBA background.
	ClearColour [4]float32
	// Source replaces the built-in combined shader source when not empty.
	Source string
}

// New compiles the scene shader program. A GL context must be current.
func New(cfg Config) (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	src := cfg.Source
	if src == "" {
		src = sceneSource
	}
	combined, err := glgl.ParseCombined(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	prog, err := glgl.CompileProgram(combined)
	if err != nil {
		return nil, errors.New(string(combined.Vertex) + "\n" + err.Error())
	}
	prog.Bind()
	var id int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &id)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	glscene.Logger().Info("gl program ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	return &Backend{
		prog:      prog,
		progID:    uint32(id),
		width:     cfg.Width,
		height:    cfg.Height,
		clear:     cfg.ClearColour,
		buffers:   make(map[frame.Handle]*buffers),
		locations: make(map[string]int32),
	}, nil
}

// Upload implements frame.Backend.
func (r *Backend) Upload(b *layout.Buffers) (frame.Handle, error) {
	if b == nil || len(b.Attributes) == 0 {
		return 0, errors.New("empty buffers")
	}
	var bb buffers
	bb.b = b
	gl.GenVertexArrays(1, &bb.vao)
	gl.BindVertexArray(bb.vao)
	gl.GenBuffers(1, &bb.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, bb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.Attributes)*layout.FloatSize, gl.Ptr(b.Attributes), gl.STATIC_DRAW)
	if len(b.Indices) > 0 {
		gl.GenBuffers(1, &bb.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, bb.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(b.Indices)*layout.IndexSize, gl.Ptr(b.Indices), gl.STATIC_DRAW)
	}
	if err := glError("upload"); err != nil {
		return 0, err
	}
	h := frame.Handle(bb.vao)
	r.buffers[h] = &bb
	return h, nil
}

// BindAttribute implements frame.Backend.
func (r *Backend) BindAttribute(h frame.Handle, name string, f layout.Field, byteStride int) error {
	bb, ok := r.buffers[h]
	if !ok {
		return fmt.Errorf("unknown buffer handle %d", h)
	}
	loc, ok := attribLocation[name]
	if !ok {
		return fmt.Errorf("unknown attribute %q", name)
	}
	gl.BindVertexArray(bb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, bb.vbo)
	gl.VertexAttribPointerWithOffset(loc, int32(f.Count), gl.FLOAT, false, int32(byteStride), uintptr(f.ByteOffset()))
	gl.EnableVertexAttribArray(loc)
	return glError("bind " + name)
}

// SetUniform implements frame.Backend. Uniforms absent from the program
// are ignored.
func (r *Backend) SetUniform(name string, value []float32) error {
	loc := r.location(name)
	if loc < 0 {
		return nil
	}
	switch len(value) {
	case 1:
		gl.Uniform1f(loc, value[0])
	case 3:
		gl.Uniform3fv(loc, 1, &value[0])
	case 4:
		gl.Uniform4fv(loc, 1, &value[0])
	case 16:
		// Values are already column-major.
		gl.UniformMatrix4fv(loc, 1, false, &value[0])
	default:
		return fmt.Errorf("uniform %q: unsupported size %d", name, len(value))
	}
	if name == render.UniformMaterialDiffuse {
		if lit := r.location("lit"); lit >= 0 {
			gl.Uniform1f(lit, 1)
		}
	}
	return glError("uniform " + name)
}

func (r *Backend) location(name string) int32 {
	if loc, ok := r.locations[name]; ok {
		return loc
	}
	glsl := name
	if n, ok := glslName[name]; ok {
		glsl = n
	}
	loc := gl.GetUniformLocation(r.progID, gl.Str(glsl+"\x00"))
	r.locations[name] = loc
	return loc
}

// Clear implements frame.Backend.
func (r *Backend) Clear() error {
	gl.ClearColor(r.clear[0], r.clear[1], r.clear[2], r.clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return nil
}

var glMode = map[layout.Topology]uint32{
	layout.TriangleList:  gl.TRIANGLES,
	layout.TriangleStrip: gl.TRIANGLE_STRIP,
	layout.LineList:      gl.LINES,
	layout.LineStrip:     gl.LINE_STRIP,
	layout.LineLoop:      gl.LINE_LOOP,
}

// Draw implements frame.Backend.
func (r *Backend) Draw(req frame.DrawRequest) error {
	bb, ok := r.buffers[req.Buffer]
	if !ok {
		return fmt.Errorf("unknown buffer handle %d", req.Buffer)
	}
	mode, ok := glMode[req.Topology]
	if !ok {
		return fmt.Errorf("unknown topology %v", req.Topology)
	}
	r.prog.Bind()
	gl.BindVertexArray(bb.vao)
	if req.Indexed {
		gl.DrawElementsWithOffset(mode, int32(req.Count), gl.UNSIGNED_SHORT, uintptr(req.First*layout.IndexSize))
	} else {
		gl.DrawArrays(mode, int32(req.First), int32(req.Count))
	}
	return glError("draw " + req.Segment)
}

// Snapshot reads back the framebuffer. It implements capture.Source.
func (r *Backend) Snapshot() (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if err := glError("read pixels"); err != nil {
		return nil, err
	}
	// GL rows start at the bottom.
	row := make([]byte, img.Stride)
	for y := 0; y < r.height/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bot := img.Pix[(r.height-1-y)*img.Stride : (r.height-y)*img.Stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
	return img, nil
}

// Close releases GL objects created by Upload.
func (r *Backend) Close() error {
	for h, bb := range r.buffers {
		gl.DeleteBuffers(1, &bb.vbo)
		if bb.ebo != 0 {
			gl.DeleteBuffers(1, &bb.ebo)
		}
		gl.DeleteVertexArrays(1, &bb.vao)
		delete(r.buffers, h)
	}
	return glError("close")
}

func glError(op string) error {
	var msgs bytes.Buffer
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		fmt.Fprintf(&msgs, " 0x%x", code)
	}
	if msgs.Len() == 0 {
		return nil
	}
	return fmt.Errorf("gl %s:%s", op, msgs.String())
}
