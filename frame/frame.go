// Package frame drives a scene one virtual frame at a time.
//
// A Scheduler starts Idle. Start performs the one-time setup: the scene
// lays out its buffers, the backend uploads them and binds the attribute
// fields. On success the scheduler is Running for good. Each Tick then
// advances the animation angle, recomputes the frame uniforms, draws every
// visible segment in declaration order and checks for a pending capture.
package frame

import (
	"errors"

	"github.com/soypat/glscene/layout"
)

var (
	// ErrStartup wraps any failure during Start. A scheduler whose startup
	// failed stays Idle and never draws.
	ErrStartup = errors.New("frame startup failed")
	// ErrReentrant is returned by Tick when called while a tick is in progress.
	ErrReentrant = errors.New("tick already in progress")
	// ErrNotRunning is returned when ticking a scheduler that was not started.
	ErrNotRunning = errors.New("scheduler not running")
	// ErrStarted is returned by Start on a running scheduler.
	ErrStarted = errors.New("scheduler already started")
)

// Uniform names bound by the scenes in this module.
const (
	UniformProjection = "projection"
	UniformModelView  = "modelview"
	UniformUseColour  = "use_colour"
	UniformAlpha      = "alpha"
	UniformColour     = "colour"
	UniformNear       = "near"
	UniformFar        = "far"
)

// Attribute names bound by Start.
const (
	AttribPosition = "position"
	AttribColour   = "colour"
	AttribNormal   = "normal"
)

// Handle is an opaque reference to buffers owned by a Backend.
type Handle uint32

// DrawRequest asks the backend to draw a range of uploaded geometry.
type DrawRequest struct {
	Buffer   Handle
	Topology layout.Topology
	// Indexed selects whether First and Count address the index buffer
	// or the vertex records directly.
	Indexed bool
	First   int
	Count   int
	// Segment names the segment being drawn, for diagnostics.
	Segment string
}

// Backend uploads geometry and executes draw requests. It also receives
// named uniform values and attribute bindings on behalf of the shader
// program it owns. The backend compiles and links that program itself.
type Backend interface {
	// Upload copies b into backend storage and returns a handle to it.
	Upload(b *layout.Buffers) (Handle, error)
	// BindAttribute binds the named shader attribute to field f of the
	// records in h. byteStride is the record size in bytes.
	BindAttribute(h Handle, name string, f layout.Field, byteStride int) error
	// SetUniform sets a named uniform. Matrices are column-major.
	// Unknown names are ignored.
	SetUniform(name string, value []float32) error
	// Clear clears the colour and depth targets.
	Clear() error
	Draw(req DrawRequest) error
}

// Capturer is consulted exactly once per completed tick. Check writes a
// capture when one was requested since the previous check.
type Capturer interface {
	Check() error
}

// Uniform is one named uniform value.
type Uniform struct {
	Name  string
	Value []float32
}

// Pass is one draw of a segment preceded by its uniforms.
type Pass []Uniform

// Frame holds everything a scene computes for one frame.
type Frame struct {
	// Uniforms are set once before any segment is drawn.
	Uniforms []Uniform
	// Passes lists the draws of a segment by name. A visible segment with
	// no entry is drawn once without extra uniforms. A segment mapped to
	// an empty, non-nil slice is not drawn.
	Passes map[string][]Pass
}

// Scene supplies the geometry once and the per-frame uniforms.
type Scene interface {
	// Layout builds the scene buffers. It is called once by Start.
	Layout() (*layout.Buffers, error)
	// Frame computes the uniforms of one frame at animation angle theta.
	Frame(theta float64) (Frame, error)
}
