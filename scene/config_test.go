package scene_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soypat/glscene/scene"
)

const lightingYAML = `
scene: lighting
width: 320
interval: 20ms
hidden: [model]
camera:
  fov: 30
lighting:
  models: 3
  light:
    position: [1, 2, 3, 1]
`

func TestLoadResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.yml")
	if err := os.WriteFile(path, []byte(lightingYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := scene.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Resolve(scene.Flags{Models: 5, Output: "out.webp"})
	if cfg.Scene != "lighting" || cfg.Width != 320 || cfg.Height != 512 {
		t.Errorf("scene %q size %dx%d", cfg.Scene, cfg.Width, cfg.Height)
	}
	if cfg.Interval != 20*time.Millisecond {
		t.Errorf("interval %v", cfg.Interval)
	}
	if len(cfg.Hidden) != 1 || cfg.Hidden[0] != "model" {
		t.Errorf("hidden %v", cfg.Hidden)
	}
	cam := cfg.Camera
	if cam.FOV != 30 || cam.Near != 7 || cam.Far != 12 || cam.Aspect != 320.0/512 {
		t.Errorf("camera %+v", cam)
	}
	if cfg.Lighting.Models != 5 {
		t.Errorf("flag did not override models: %d", cfg.Lighting.Models)
	}
	if cfg.Lighting.Light.Position != [4]float32{1, 2, 3, 1} {
		t.Errorf("light position %v", cfg.Lighting.Light.Position)
	}
	if cfg.Lighting.Material.Diffuse != [4]float32{0.5, 0.4, 0.2, 1} {
		t.Errorf("default material not applied: %+v", cfg.Lighting.Material)
	}
	if cfg.Capture.Output != "out.webp" || cfg.Capture.Trigger == "" {
		t.Errorf("capture %+v", cfg.Capture)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := scene.Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("missing file accepted")
	}
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("width: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := scene.Load(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestResolveDefaults(t *testing.T) {
	var cfg scene.Config
	cfg.Resolve(scene.Flags{})
	if cfg.Scene != "projection" {
		t.Fatalf("default scene %q", cfg.Scene)
	}
	p := cfg.Projection
	if p.Triangles != 10 || p.Radius != 50 || p.MaxDepth != 100 {
		t.Errorf("projection defaults %+v", p)
	}
	if cfg.Camera.FOV != 90 || cfg.Camera.Near != 50 || cfg.Camera.Far != 100 || cfg.Camera.Aspect != 1 {
		t.Errorf("camera defaults %+v", cfg.Camera)
	}
	if cfg.Step != 0.01 || cfg.Interval != time.Second/60 {
		t.Errorf("loop defaults step=%g interval=%v", cfg.Step, cfg.Interval)
	}
	if len(cfg.Hidden) != len(scene.FrustumSegments) || cfg.Hidden[0] != scene.SegFarPlane {
		t.Errorf("default hidden %v, want the frustum segments", cfg.Hidden)
	}
}

func TestResolveShowsFrustumWhenHiddenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "show.yml")
	if err := os.WriteFile(path, []byte("scene: projection\nhidden: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := scene.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Resolve(scene.Flags{})
	if cfg.Hidden == nil || len(cfg.Hidden) != 0 {
		t.Errorf("hidden %v, want empty", cfg.Hidden)
	}
}
