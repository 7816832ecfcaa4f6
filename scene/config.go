package scene

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the scene, camera and capture settings of a lab run.
type Config struct {
	// Scene selects the scene: "projection", "wheel" or "lighting".
	Scene  string `yaml:"scene"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Seed   int64  `yaml:"seed"`

	// Frame loop
	Step     float64       `yaml:"step"`
	Interval time.Duration `yaml:"interval"`
	Animate  bool          `yaml:"animate"`
	Hidden   []string      `yaml:"hidden"`

	Camera     Camera           `yaml:"camera"`
	Projection ProjectionConfig `yaml:"projection"`
	Wheel      WheelConfig      `yaml:"wheel"`
	Lighting   LightingConfig   `yaml:"lighting"`
	Capture    CaptureConfig    `yaml:"capture"`
}

// Camera describes the viewing frustum and viewpoint.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV    float64 `yaml:"fov"`
	Aspect float64 `yaml:"aspect"`
	Near   float64 `yaml:"near"`
	Far    float64 `yaml:"far"`
	// Eye, At and Up define the view with LookAt. A nil Eye keeps the
	// camera at the origin looking down -z.
	Eye []float64 `yaml:"eye"`
	At  []float64 `yaml:"at"`
	Up  []float64 `yaml:"up"`
	// Orbit rotates the scene about the middle of the frustum by the
	// animation angle.
	Orbit bool `yaml:"orbit"`
}

// ProjectionConfig configures the random triangle scene.
type ProjectionConfig struct {
	Triangles int     `yaml:"triangles"`
	Radius    float64 `yaml:"radius"`
	MaxDepth  float64 `yaml:"max_depth"`
	// PlaneAlpha is the opacity of the frustum planes.
	PlaneAlpha float64 `yaml:"plane_alpha"`
}

// WheelConfig configures the colour wheel scene.
type WheelConfig struct {
	Vertices int     `yaml:"vertices"`
	Spiral   bool    `yaml:"spiral"`
	Turns    float64 `yaml:"turns"`
}

// LightingConfig configures the lit mesh scene.
type LightingConfig struct {
	Models   int      `yaml:"models"`
	Mesh     string   `yaml:"mesh"`
	Light    Light    `yaml:"light"`
	Material Material `yaml:"material"`
	// MinScale and MaxScale bound the random uniform scale of each model.
	MinScale float64 `yaml:"min_scale"`
	MaxScale float64 `yaml:"max_scale"`
}

// Light is a point light. Position is in view space.
type Light struct {
	Position [4]float32 `yaml:"position"`
	Ambient  [4]float32 `yaml:"ambient"`
	Diffuse  [4]float32 `yaml:"diffuse"`
	Specular [4]float32 `yaml:"specular"`
}

// Material holds the Phong reflectance of a surface.
type Material struct {
	Ambient   [4]float32 `yaml:"ambient"`
	Diffuse   [4]float32 `yaml:"diffuse"`
	Specular  [4]float32 `yaml:"specular"`
	Shininess float32    `yaml:"shininess"`
}

// CaptureConfig registers the one-shot capture.
type CaptureConfig struct {
	Trigger string `yaml:"trigger"`
	Output  string `yaml:"output"`
	// Width and Height resize captured images when non-zero.
	Width  uint `yaml:"width"`
	Height uint `yaml:"height"`
}

// Flags are command line overrides. Zero values leave the config as is.
type Flags struct {
	Scene    string
	Width    int
	Height   int
	Seed     int64
	Mesh     string
	Output   string
	Models   int
	Animate  bool
	Interval time.Duration
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies flag overrides and fills every unset field with the
// defaults of the selected scene.
func (c *Config) Resolve(flags Flags) {
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Seed != 0 {
		c.Seed = flags.Seed
	}
	if flags.Mesh != "" {
		c.Lighting.Mesh = flags.Mesh
	}
	if flags.Output != "" {
		c.Capture.Output = flags.Output
	}
	if flags.Models > 0 {
		c.Lighting.Models = flags.Models
	}
	if flags.Animate {
		c.Animate = true
	}
	if flags.Interval > 0 {
		c.Interval = flags.Interval
	}

	if c.Scene == "" {
		c.Scene = "projection"
	}
	setInt(&c.Width, 512)
	setInt(&c.Height, 512)
	if c.Seed == 0 {
		c.Seed = 1
	}
	setFloat(&c.Step, 0.01)
	if c.Interval <= 0 {
		c.Interval = time.Second / 60
	}
	setFloat(&c.Camera.Aspect, float64(c.Width)/float64(c.Height))
	switch c.Scene {
	case "projection":
		setFloat(&c.Camera.FOV, 90)
		setFloat(&c.Camera.Near, 50)
		setFloat(&c.Camera.Far, 100)
		setInt(&c.Projection.Triangles, 10)
		setFloat(&c.Projection.Radius, 50)
		setFloat(&c.Projection.MaxDepth, 100)
		setFloat(&c.Projection.PlaneAlpha, 0.25)
		// The frustum starts hidden. An explicit empty list shows it.
		if c.Hidden == nil {
			c.Hidden = append([]string(nil), FrustumSegments...)
		}
	case "lighting":
		setFloat(&c.Camera.FOV, 20)
		setFloat(&c.Camera.Near, 7)
		setFloat(&c.Camera.Far, 12)
		setInt(&c.Lighting.Models, 1)
		setFloat(&c.Lighting.MinScale, 1)
		setFloat(&c.Lighting.MaxScale, 1)
		if c.Lighting.Light == (Light{}) {
			c.Lighting.Light = Light{
				Position: [4]float32{10, 5, 10, 1},
				Ambient:  [4]float32{1, 1, 1, 1},
				Diffuse:  [4]float32{1, 1, 1, 1},
				Specular: [4]float32{1, 1, 1, 1},
			}
		}
		if c.Lighting.Material == (Material{}) {
			c.Lighting.Material = Material{
				Ambient:   [4]float32{0.5, 0.4, 0.2, 1},
				Diffuse:   [4]float32{0.5, 0.4, 0.2, 1},
				Specular:  [4]float32{0, 0, 0, 1},
				Shininess: 0.0001,
			}
		}
	default:
		setInt(&c.Wheel.Vertices, 6)
		setFloat(&c.Wheel.Turns, 3)
	}
	if c.Capture.Trigger == "" {
		c.Capture.Trigger = "capture-button"
	}
	if c.Capture.Output == "" {
		c.Capture.Output = "capture.png"
	}
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setFloat(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}
