// Command labgl runs a lab scene in an OpenGL window.
//
// Click the window to start or stop the animation. Press C to capture
// the next frame and F to toggle the frustum.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glscene/capture"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/internal/cli"
	"github.com/soypat/glscene/render/glrender"
	"github.com/soypat/glscene/scene"
)

func init() {
	runtime.LockOSThread() // For GL.
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "labgl:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	window, terminate, err := glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "glscene: " + cfg.Scene,
		Version: [2]int{4, 6},
		Width:   cfg.Width,
		Height:  cfg.Height,
	})
	if err != nil {
		return fmt.Errorf("start GLFW: %w", err)
	}
	defer terminate()

	s, err := scene.New(cfg)
	if err != nil {
		return err
	}
	backend, err := glrender.New(glrender.Config{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ClearColour: [4]float32{0.9, 0.9, 0.9, 1},
	})
	if err != nil {
		return err
	}
	defer backend.Close()
	cpt, err := capture.Setup(backend, cfg.Capture.Trigger, cfg.Capture.Output)
	if err != nil {
		return err
	}
	cpt.Resize(cfg.Capture.Width, cfg.Capture.Height)
	sch := frame.New(backend, s, cpt, frame.Config{Step: cfg.Step, Animate: cfg.Animate, Hidden: cfg.Hidden})
	if err := sch.Start(); err != nil {
		return err
	}

	window.SetMouseButtonCallback(func(_ *glfw.Window, b glfw.MouseButton, a glfw.Action, _ glfw.ModifierKey) {
		if b == glfw.MouseButtonLeft && a == glfw.Press {
			sch.ToggleAnimate()
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, a glfw.Action, _ glfw.ModifierKey) {
		if a != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyC:
			cpt.Request()
		case glfw.KeyF:
			show := !sch.Visible(scene.SegNearEdges)
			for _, seg := range scene.FrustumSegments {
				sch.SetVisible(seg, show)
			}
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for !window.ShouldClose() {
		if err := sch.Tick(); err != nil {
			return err
		}
		window.SwapBuffers()
		glfw.PollEvents()
		<-ticker.C
	}
	return nil
}
