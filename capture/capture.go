// Package capture saves a rendered frame to a file on request.
//
// A UI event calls Request, possibly from another goroutine. The frame
// loop calls Check once per frame which consumes the request, reads the
// frame from the Source and encodes it. Each request is handled exactly
// once.
//
// Importing capture registers the tga image format with an empty magic
// string, so image.Decode no longer detects other formats in the same
// binary. Decode with the format package directly, e.g. png.Decode.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/HugoSmits86/nativewebp"
	"github.com/fogleman/fauxgl"
	"github.com/ftrvxmtrx/tga"
	"github.com/nfnt/resize"
	"github.com/soypat/glscene"
	"golang.org/x/image/bmp"
)

// ErrFormat is returned for output names whose extension has no encoder.
var ErrFormat = errors.New("unsupported capture format")

// Source provides the current frame.
type Source interface {
	Snapshot() (image.Image, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (image.Image, error)

// Snapshot calls f.
func (f SourceFunc) Snapshot() (image.Image, error) { return f() }

// Capture is a one-shot capture registration.
type Capture struct {
	source    Source
	trigger   string
	output    string
	width     uint
	height    uint
	requested atomic.Bool
	written   atomic.Uint64
}

// Setup registers a capture of target triggered by the control named
// trigger and written to output. The output extension selects the
// encoder: .png, .webp, .tga or .bmp.
func Setup(target Source, trigger, output string) (*Capture, error) {
	if target == nil {
		return nil, errors.New("nil capture source")
	}
	if _, err := formatOf(output); err != nil {
		return nil, err
	}
	return &Capture{source: target, trigger: trigger, output: output}, nil
}

// Resize makes captures be scaled to width×height before encoding. Zero
// for one dimension preserves the aspect ratio. Resize(0,0) disables it.
func (c *Capture) Resize(width, height uint) {
	c.width, c.height = width, height
}

// Trigger returns the name of the control that requests a capture.
func (c *Capture) Trigger() string { return c.trigger }

// Output returns the file the next capture is written to.
func (c *Capture) Output() string { return c.output }

// Request asks for the next Check to write a capture. Requests made
// before that Check coalesce into one capture. Safe for concurrent use.
func (c *Capture) Request() { c.requested.Store(true) }

// Pending reports whether a capture was requested and not yet handled.
func (c *Capture) Pending() bool { return c.requested.Load() }

// Written returns the number of captures written so far.
func (c *Capture) Written() uint64 { return c.written.Load() }

// Check reads and clears the request flag. When a request was pending it
// snapshots the source and writes the output file.
func (c *Capture) Check() error {
	if !c.requested.Swap(false) {
		return nil
	}
	img, err := c.source.Snapshot()
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}
	if c.width != 0 || c.height != 0 {
		img = resize.Resize(c.width, c.height, img, resize.Bilinear)
	}
	if err := Save(c.output, img); err != nil {
		return err
	}
	c.written.Add(1)
	glscene.Logger().Info("capture written", "file", c.output, "bounds", img.Bounds())
	return nil
}

// Save writes img to path in the format selected by its extension.
func Save(path string, img image.Image) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	if format == "png" {
		return fauxgl.SavePNG(path, img)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = Encode(f, img, format)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Encode writes img to w as format, one of "png", "webp", "tga" or "bmp".
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	case "tga":
		return tga.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}

func formatOf(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "webp", "tga", "bmp":
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, path)
}
