// Command labrender renders a lab scene headless. It runs the frame loop
// for a number of frames with the software backend, captures the last
// frame and optionally exports the scene triangles as STL. Mesh instances
// are exported in world space.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/soypat/glscene"
	"github.com/soypat/glscene/capture"
	"github.com/soypat/glscene/frame"
	"github.com/soypat/glscene/internal/cli"
	"github.com/soypat/glscene/render"
	"github.com/soypat/glscene/scene"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "labrender:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		frames      = flag.Int("frames", 120, "number of frames to render")
		supersample = flag.Int("ss", 2, "supersampling factor")
		stlPath     = flag.String("stl", "", "export the scene triangles to this STL file")
	)
	cfg, err := cli.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	s, err := scene.New(cfg)
	if err != nil {
		return err
	}
	backend := render.NewBackend(cfg.Width, cfg.Height, *supersample, color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	cpt, err := capture.Setup(backend, cfg.Capture.Trigger, cfg.Capture.Output)
	if err != nil {
		return err
	}
	cpt.Resize(cfg.Capture.Width, cfg.Capture.Height)
	sch := frame.New(backend, s, cpt, frame.Config{Step: cfg.Step, Animate: true, Hidden: cfg.Hidden})
	if err := sch.Start(); err != nil {
		return err
	}

	pb := progressbar.Default(int64(*frames), "rendering "+cfg.Scene)
	defer pb.Close()
	for i := 0; i < *frames; i++ {
		if i == *frames-1 {
			cpt.Request()
		}
		if err := sch.Tick(); err != nil {
			return err
		}
		pb.Add(1)
	}
	if cpt.Written() == 0 {
		return fmt.Errorf("no capture written to %s", cpt.Output())
	}
	glscene.Logger().Info("rendered", "frames", sch.Frames(), "angle", glscene.RtoD(sch.Angle()), "capture", cpt.Output())

	if *stlPath != "" {
		tris := render.SceneTriangles(sch.Buffers())
		if len(tris) == 0 {
			return fmt.Errorf("scene %q has no triangles to export", cfg.Scene)
		}
		// Instanced scenes are exported as posed at the final angle.
		if posed, ok := s.(interface{ Poses() []glscene.Pose }); ok {
			tris, err = render.PosedTriangles(tris, posed.Poses(), sch.Angle())
			if err != nil {
				return err
			}
		}
		if err := render.CreateSTL(*stlPath, render.NewTriangleReader(tris)); err != nil {
			return err
		}
		glscene.Logger().Info("stl written", "file", *stlPath, "triangles", len(tris))
	}
	return nil
}
