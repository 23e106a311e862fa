package scene

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Fov      float64 // Vertical field of view, in degrees
	Aspect   float64
	Near     float64
	Far      float64
	Position fauxgl.Vector
	Target   fauxgl.Vector
	Up       fauxgl.Vector
}

// NewCamera builds a Y-up camera looking at the origin. An aspect that is not a positive finite number
// falls back to 1.
func NewCamera(fov, aspect, near, far float64, position fauxgl.Vector) *Camera {
	if !(aspect > 0) || math.IsInf(aspect, 1) {
		aspect = 1
	}
	return &Camera{
		Fov:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
		Position: position,
		Up:       fauxgl.Vector{Y: 1},
	}
}

// SetAspect updates the projection for a new viewport shape. Non-positive and infinite values are ignored.
func (c *Camera) SetAspect(aspect float64) {
	if aspect > 0 && !math.IsInf(aspect, 1) {
		c.Aspect = aspect
	}
}

// View returns the world to camera matrix.
func (c *Camera) View() fauxgl.Matrix {
	return fauxgl.LookAt(c.Position, c.Target, c.Up)
}

// Matrix returns the full world to clip space matrix.
func (c *Camera) Matrix() fauxgl.Matrix {
	return c.View().Perspective(c.Fov, c.Aspect, c.Near, c.Far)
}
