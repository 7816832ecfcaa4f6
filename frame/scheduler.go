package frame

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/layout"
)

// State of a Scheduler.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// DefaultStep is the angle advance per frame while animating.
const DefaultStep = 0.01

// Config configures a Scheduler.
type Config struct {
	// Step is the angle in radians added each frame while animating.
	// Zero selects DefaultStep.
	Step float64
	// Animate is the initial state of the animate flag.
	Animate bool
	// Hidden lists segments that start hidden.
	Hidden []string
}

// Scheduler runs a Scene against a Backend. Several schedulers may run
// independently; all of their state lives in the Scheduler value.
type Scheduler struct {
	backend Backend
	scene   Scene
	capture Capturer
	step    float64

	state   atomic.Int32
	ticking atomic.Bool
	animate atomic.Bool
	frames  atomic.Uint64

	// angle is only touched inside Tick.
	angle float64

	mu     sync.Mutex
	hidden map[string]bool

	buffers *layout.Buffers
	handle  Handle
}

// New returns an Idle scheduler. capture may be nil.
func New(b Backend, s Scene, c Capturer, cfg Config) *Scheduler {
	if cfg.Step == 0 {
		cfg.Step = DefaultStep
	}
	sch := &Scheduler{
		backend: b,
		scene:   s,
		capture: c,
		step:    cfg.Step,
		hidden:  make(map[string]bool),
	}
	sch.animate.Store(cfg.Animate)
	for _, name := range cfg.Hidden {
		sch.hidden[name] = true
	}
	return sch
}

// State returns the current scheduler state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Start performs the one-time setup and moves the scheduler to Running.
// Any failure is wrapped in ErrStartup and leaves the scheduler Idle.
func (s *Scheduler) Start() error {
	if s.State() == Running {
		return ErrStarted
	}
	bufs, err := s.scene.Layout()
	if err != nil {
		return fmt.Errorf("%w: scene layout: %w", ErrStartup, err)
	}
	h, err := s.backend.Upload(bufs)
	if err != nil {
		return fmt.Errorf("%w: upload: %w", ErrStartup, err)
	}
	l := bufs.Layout
	bind := []struct {
		name  string
		field layout.Field
	}{
		{AttribPosition, l.Position},
		{AttribColour, l.Color},
		{AttribNormal, l.Normal},
	}
	for _, b := range bind {
		if b.field.Count == 0 {
			continue
		}
		if err := s.backend.BindAttribute(h, b.name, b.field, l.ByteStride()); err != nil {
			return fmt.Errorf("%w: bind %q: %w", ErrStartup, b.name, err)
		}
	}
	s.buffers, s.handle = bufs, h
	s.state.Store(int32(Running))
	glscene.Logger().Info("scheduler running", "records", bufs.Len(), "segments", len(bufs.Segments))
	return nil
}

// SetAnimate sets the animate flag. Safe for concurrent use.
func (s *Scheduler) SetAnimate(on bool) { s.animate.Store(on) }

// ToggleAnimate flips the animate flag and returns its new value.
func (s *Scheduler) ToggleAnimate() bool {
	for {
		old := s.animate.Load()
		if s.animate.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Animating reports the animate flag.
func (s *Scheduler) Animating() bool { return s.animate.Load() }

// SetVisible shows or hides the named segment. Safe for concurrent use.
func (s *Scheduler) SetVisible(segment string, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if visible {
		delete(s.hidden, segment)
	} else {
		s.hidden[segment] = true
	}
}

// Visible reports whether the named segment is drawn.
func (s *Scheduler) Visible(segment string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hidden[segment]
}

// Frames returns the number of completed ticks.
func (s *Scheduler) Frames() uint64 { return s.frames.Load() }

// Angle returns the animation angle. It must not be called concurrently
// with Tick.
func (s *Scheduler) Angle() float64 { return s.angle }

// Buffers returns the buffers laid out by Start, or nil while Idle.
func (s *Scheduler) Buffers() *layout.Buffers { return s.buffers }

// Tick runs one frame. It is synchronous and returns ErrReentrant when
// called while another Tick has not returned.
func (s *Scheduler) Tick() error {
	if s.State() != Running {
		return ErrNotRunning
	}
	if s.ticking.Swap(true) {
		return ErrReentrant
	}
	defer s.ticking.Store(false)

	// The advanced angle is committed only once the frame is drawn.
	next := s.angle
	if s.animate.Load() {
		next += s.step
	}
	fr, err := s.scene.Frame(next)
	if err != nil {
		return fmt.Errorf("frame %d: %w", s.frames.Load(), err)
	}
	if err := s.backend.Clear(); err != nil {
		return err
	}
	if err := s.setUniforms(fr.Uniforms); err != nil {
		return err
	}
	log := glscene.Logger()
	for _, seg := range s.buffers.Segments {
		if !s.Visible(seg.Name) {
			continue
		}
		passes, ok := fr.Passes[seg.Name]
		if !ok {
			passes = []Pass{nil}
		}
		for _, pass := range passes {
			if err := s.setUniforms(pass); err != nil {
				return err
			}
			req := DrawRequest{
				Buffer:   s.handle,
				Topology: seg.Topology,
				Indexed:  true,
				First:    seg.Offset,
				Count:    seg.Count,
				Segment:  seg.Name,
			}
			log.Debug("draw", "segment", seg.Name, "topology", seg.Topology, "first", seg.Offset, "count", seg.Count)
			if err := s.backend.Draw(req); err != nil {
				return fmt.Errorf("draw %q: %w", seg.Name, err)
			}
		}
	}
	s.angle = next
	if s.capture != nil {
		if err := s.capture.Check(); err != nil {
			log.Warn("capture failed", "err", err)
		}
	}
	s.frames.Add(1)
	return nil
}

func (s *Scheduler) setUniforms(us []Uniform) error {
	for _, u := range us {
		if err := s.backend.SetUniform(u.Name, u.Value); err != nil {
			return fmt.Errorf("uniform %q: %w", u.Name, err)
		}
	}
	return nil
}

// Run calls Tick at the nominal interval until ctx is done or a tick
// fails. A tick that overruns the interval delays the next one; ticks
// never overlap.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if s.State() != Running {
		return ErrNotRunning
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}
