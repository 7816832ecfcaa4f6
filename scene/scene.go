// Package scene holds the lab scenes: random triangles seen through a
// perspective frustum, a colour wheel and lit mesh instances. Each scene
// lays out its geometry once with a layout.Planner and computes its
// uniforms per frame from the animation angle.
package scene

import (
	"fmt"

	"github.com/soypat/glscene"
	"github.com/soypat/glscene/frame"
)

// New returns the scene selected by cfg.Scene. cfg should be resolved.
func New(cfg Config) (frame.Scene, error) {
	switch cfg.Scene {
	case "projection":
		return NewProjection(cfg), nil
	case "wheel":
		return NewWheel(cfg), nil
	case "lighting":
		return NewLighting(cfg), nil
	}
	return nil, fmt.Errorf("unknown scene %q", cfg.Scene)
}

// Projection returns the perspective matrix of the camera.
func (c Camera) Projection() (glscene.Mat, error) {
	return glscene.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// View returns the view matrix at animation angle theta. With Orbit set
// the scene is rotated about the y axis through the middle of the
// frustum before the LookAt view is applied.
func (c Camera) View(theta float64) (glscene.Mat, error) {
	view := glscene.Identity(4)
	if c.Eye != nil {
		up := glscene.Vec(c.Up)
		if up == nil {
			up = glscene.Vec{0, 1, 0}
		}
		at := glscene.Vec(c.At)
		if at == nil {
			at = glscene.Zeros(3)
		}
		var err error
		view, err = glscene.LookAt(c.Eye, at, up)
		if err != nil {
			return glscene.Mat{}, err
		}
	}
	if !c.Orbit {
		return view, nil
	}
	mid := glscene.Vec{0, 0, -(c.Near + c.Far) / 2}
	orbit, err := glscene.Motion(theta, glscene.Vec{0, 1, 0}, mid)
	if err != nil {
		return glscene.Mat{}, err
	}
	orbit, err = glscene.Product(orbit, glscene.Translation(glscene.Negate(mid)))
	if err != nil {
		return glscene.Mat{}, err
	}
	return glscene.Product(view, orbit)
}

func matUniform(name string, m glscene.Mat) (frame.Uniform, error) {
	v, err := glscene.ColumnMajor32(m)
	if err != nil {
		return frame.Uniform{}, fmt.Errorf("%s: %w", name, err)
	}
	return frame.Uniform{Name: name, Value: v}, nil
}

func scalar(name string, v float64) frame.Uniform {
	return frame.Uniform{Name: name, Value: []float32{float32(v)}}
}

func vec4(name string, v [4]float32) frame.Uniform {
	return frame.Uniform{Name: name, Value: v[:]}
}

// cameraUniforms returns the projection and modelview uniforms.
func cameraUniforms(c Camera, theta float64) ([]frame.Uniform, error) {
	proj, err := c.Projection()
	if err != nil {
		return nil, err
	}
	view, err := c.View(theta)
	if err != nil {
		return nil, err
	}
	pu, err := matUniform(frame.UniformProjection, proj)
	if err != nil {
		return nil, err
	}
	mu, err := matUniform(frame.UniformModelView, view)
	if err != nil {
		return nil, err
	}
	return []frame.Uniform{pu, mu}, nil
}
