// Package cli holds the flag and logging setup shared by the lab commands.
package cli

import (
	"flag"
	"log/slog"
	"os"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/scene"
)

// Parse parses the common command line flags, installs the logger and
// returns the resolved scene configuration.
func Parse(fs *flag.FlagSet, args []string) (scene.Config, error) {
	var (
		flags   scene.Flags
		cfgPath = fs.String("config", "", "YAML scene configuration file")
		verbose = fs.Bool("v", false, "log per-frame diagnostics")
	)
	fs.StringVar(&flags.Scene, "scene", "", "scene to run: projection, wheel or lighting")
	fs.IntVar(&flags.Width, "width", 0, "canvas width in pixels")
	fs.IntVar(&flags.Height, "height", 0, "canvas height in pixels")
	fs.Int64Var(&flags.Seed, "seed", 0, "random seed")
	fs.StringVar(&flags.Mesh, "mesh", "", "mesh file (.obj, .ply, .stl) for the lighting scene")
	fs.StringVar(&flags.Output, "o", "", "capture output file (.png, .webp, .bmp, .tga)")
	fs.IntVar(&flags.Models, "models", 0, "number of mesh instances in the lighting scene")
	fs.BoolVar(&flags.Animate, "animate", false, "start animating")
	fs.DurationVar(&flags.Interval, "interval", 0, "frame interval")
	if err := fs.Parse(args); err != nil {
		return scene.Config{}, err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	glscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg scene.Config
	if *cfgPath != "" {
		var err error
		cfg, err = scene.Load(*cfgPath)
		if err != nil {
			return scene.Config{}, err
		}
	}
	cfg.Resolve(flags)
	glscene.Logger().Debug("config resolved", "scene", cfg.Scene, "width", cfg.Width, "height", cfg.Height, "seed", cfg.Seed)
	return cfg, nil
}
