// Command labview runs a lab scene in a desktop window. The scene is
// rasterized in software and shown with ebiten.
//
// Click the window to start or stop the animation. Press C to capture
// the next frame, F to toggle the frustum and T to toggle the triangles.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/soypat/glscene"
	"github.com/soypat/glscene/capture"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/internal/cli"
	"github.com/soypat/glscene/render"
	"github.com/soypat/glscene/scene"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "labview:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	s, err := scene.New(cfg)
	if err != nil {
		return err
	}
	backend := render.NewBackend(cfg.Width, cfg.Height, 1, color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	cpt, err := capture.Setup(backend, cfg.Capture.Trigger, cfg.Capture.Output)
	if err != nil {
		return err
	}
	cpt.Resize(cfg.Capture.Width, cfg.Capture.Height)
	sch := frame.New(backend, s, cpt, frame.Config{Step: cfg.Step, Animate: cfg.Animate, Hidden: cfg.Hidden})
	if err := sch.Start(); err != nil {
		return err
	}
	g := &game{sch: sch, backend: backend, capture: cpt, width: cfg.Width, height: cfg.Height}
	ebiten.SetWindowTitle("glscene: " + cfg.Scene)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(max(1, int(time.Second/cfg.Interval)))
	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	sch     *frame.Scheduler
	backend *render.Backend
	capture *capture.Capture
	width   int
	height  int
	rgba    *image.RGBA
	screen  *ebiten.Image
}

func (g *game) Update() error {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		on := g.sch.ToggleAnimate()
		glscene.Logger().Info("animate", "on", on, "angle", glscene.RtoD(g.sch.Angle()))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.capture.Request()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		show := !g.sch.Visible(scene.SegNearEdges)
		for _, seg := range scene.FrustumSegments {
			g.sch.SetVisible(seg, show)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.sch.SetVisible(scene.SegTriangles, !g.sch.Visible(scene.SegTriangles))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return g.sch.Tick()
}

func (g *game) Draw(screen *ebiten.Image) {
	img, err := g.backend.Snapshot()
	if err != nil {
		return
	}
	if g.rgba == nil {
		g.rgba = image.NewRGBA(image.Rect(0, 0, g.width, g.height))
		g.screen = ebiten.NewImage(g.width, g.height)
	}
	draw.Draw(g.rgba, g.rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	g.screen.WritePixels(g.rgba.Pix)
	screen.DrawImage(g.screen, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
