// Package orbit implements damped orbit camera controls: the camera rotates around, dollies towards and
// pans its target, smoothing the user input over several frames when damping is enabled.
package orbit

import (
	"math"

	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-6

// Controls moves a camera around its target. Input methods accumulate motion; Update applies it.
type Controls struct {
	cam *scene.Camera
	// Tunables (set at construction, may be changed later)
	EnableDamping            bool
	DampingFactor            float64
	RotateSpeed              float64
	ZoomSpeed                float64
	PanSpeed                 float64
	MinDistance, MaxDistance float64
	MinPolarAngle            float64
	MaxPolarAngle            float64
	// Pending motion
	deltaTheta, deltaPhi float64
	scale                float64
	panOffset            fauxgl.Vector
	saved                Pose
}

// Pose is the part of the camera owned by the controls.
type Pose struct {
	Position, Target fauxgl.Vector
}

// New attaches controls to cam, with the defaults of the usual orbit controls (no damping).
func New(cam *scene.Camera) *Controls {
	c := &Controls{
		cam:           cam,
		DampingFactor: 0.05,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		MinDistance:   0,
		MaxDistance:   math.Inf(1),
		MinPolarAngle: 0,
		MaxPolarAngle: math.Pi,
		scale:         1,
	}
	c.SaveState()
	return c
}

// Rotate orbits by a pointer drag of (dx, dy) pixels over a viewport of the given height.
func (c *Controls) Rotate(dx, dy, height float64) {
	if height <= 0 {
		return
	}
	c.deltaTheta -= 2 * math.Pi * dx / height * c.RotateSpeed
	c.deltaPhi -= 2 * math.Pi * dy / height * c.RotateSpeed
}

// Dolly moves towards the target for steps > 0 (wheel up) and away for steps < 0.
func (c *Controls) Dolly(steps float64) {
	c.scale *= math.Pow(0.95, c.ZoomSpeed*steps)
}

// Pan moves the target (and camera) parallel to the view plane by a drag of (dx, dy) pixels.
func (c *Controls) Pan(dx, dy, height float64) {
	if height <= 0 {
		return
	}
	offset := c.cam.Position.Sub(c.cam.Target)
	// Half of the fov is center to top of screen
	targetDistance := offset.Length() * math.Tan(c.cam.Fov/2*math.Pi/180)
	forward := offset.Negate().Normalize()
	right := forward.Cross(c.cam.Up).Normalize()
	up := right.Cross(forward)
	c.panOffset = c.panOffset.
		Add(right.MulScalar(-2 * dx * targetDistance / height * c.PanSpeed)).
		Add(up.MulScalar(2 * dy * targetDistance / height * c.PanSpeed))
}

// Update advances the damped state by one step and moves the camera. It returns whether the camera moved.
func (c *Controls) Update() bool {
	offset := c.cam.Position.Sub(c.cam.Target)
	radius, phi, theta := toSpherical(offset)

	factor := 1.
	if c.EnableDamping {
		factor = c.DampingFactor
	}
	theta += c.deltaTheta * factor
	phi += c.deltaPhi * factor
	phi = mgl64.Clamp(phi, math.Max(eps, c.MinPolarAngle), math.Min(math.Pi-eps, c.MaxPolarAngle))
	radius = mgl64.Clamp(radius*c.scale, math.Max(eps, c.MinDistance), c.MaxDistance)

	target := c.cam.Target.Add(c.panOffset.MulScalar(factor))
	position := target.Add(fromSpherical(radius, phi, theta))
	moved := position.Sub(c.cam.Position).LengthSquared() > eps*eps || target.Sub(c.cam.Target).LengthSquared() > eps*eps
	c.cam.Target = target
	c.cam.Position = position

	if c.EnableDamping {
		c.deltaTheta *= 1 - c.DampingFactor
		c.deltaPhi *= 1 - c.DampingFactor
		c.panOffset = c.panOffset.MulScalar(1 - c.DampingFactor)
	} else {
		c.deltaTheta, c.deltaPhi = 0, 0
		c.panOffset = fauxgl.Vector{}
	}
	c.scale = 1
	return moved
}

// SaveState remembers the current camera pose for Reset.
func (c *Controls) SaveState() {
	c.saved = Pose{Position: c.cam.Position, Target: c.cam.Target}
}

// Reset restores the saved pose and drops any pending motion.
func (c *Controls) Reset() {
	c.cam.Position = c.saved.Position
	c.cam.Target = c.saved.Target
	c.deltaTheta, c.deltaPhi, c.scale = 0, 0, 1
	c.panOffset = fauxgl.Vector{}
}

// toSpherical converts a Y-up offset to (radius, polar angle from +Y, azimuth around Y from +Z).
func toSpherical(v fauxgl.Vector) (radius, phi, theta float64) {
	if v.Length() < eps {
		return 0, math.Pi / 2, 0
	}
	// mathgl uses Z as the polar axis, so rotate the axes: (x, y, z) -> (z, x, y)
	return mgl64.CartesianToSpherical(mgl64.Vec3{v.Z, v.X, v.Y})
}

func fromSpherical(radius, phi, theta float64) fauxgl.Vector {
	v := mgl64.SphericalToCartesian(radius, phi, theta)
	return fauxgl.Vector{X: v[1], Y: v[2], Z: v[0]}
}
