package scene

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// Light is implemented by every light node.
type Light interface {
	Node
	// Contribution returns the radiance reaching point p and the normalized direction from p towards the light.
	// Ambient lights return a zero direction.
	Contribution(p fauxgl.Vector) (fauxgl.Color, fauxgl.Vector)
}

// Positioned is implemented by lights that have a world position (and may therefore have a helper).
type Positioned interface {
	Light
	WorldPosition() fauxgl.Vector
}

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Label     string
	Color     fauxgl.Color
	Intensity float64 `panel:"intensity" min:"0" max:"2" step:"0.01"`
}

func (l *AmbientLight) Name() string { return l.Label }

func (l *AmbientLight) Contribution(_ fauxgl.Vector) (fauxgl.Color, fauxgl.Vector) {
	return l.Color.MulScalar(l.Intensity), fauxgl.Vector{}
}

// DirectionalLight shines from Position towards Target, with no attenuation.
type DirectionalLight struct {
	Label     string
	Color     fauxgl.Color
	Intensity float64       `panel:"intensity" min:"0" max:"2" step:"0.01"`
	Position  fauxgl.Vector `panel:"position" min:"-5" max:"5" step:"0.1"`
	Target    fauxgl.Vector
}

func (l *DirectionalLight) Name() string { return l.Label }

func (l *DirectionalLight) WorldPosition() fauxgl.Vector { return l.Position }

func (l *DirectionalLight) Contribution(_ fauxgl.Vector) (fauxgl.Color, fauxgl.Vector) {
	dir := l.Position.Sub(l.Target)
	if dir.Length() == 0 {
		return fauxgl.Color{}, fauxgl.Vector{}
	}
	return l.Color.MulScalar(l.Intensity), dir.Normalize()
}

// PointLight emits from Position in every direction.
// A Distance of 0 means unlimited range; Decay is the physically based falloff exponent (2 is realistic).
type PointLight struct {
	Label     string
	Color     fauxgl.Color
	Intensity float64       `panel:"intensity" min:"0" max:"2" step:"0.01"`
	Position  fauxgl.Vector `panel:"position" min:"-5" max:"5" step:"0.1"`
	Distance  float64       `panel:"distance" min:"0" max:"20" step:"0.1"`
	Decay     float64       `panel:"decay" min:"0" max:"2" step:"0.1"`
}

func (l *PointLight) Name() string { return l.Label }

func (l *PointLight) WorldPosition() fauxgl.Vector { return l.Position }

func (l *PointLight) Contribution(p fauxgl.Vector) (fauxgl.Color, fauxgl.Vector) {
	toLight := l.Position.Sub(p)
	d := toLight.Length()
	if d == 0 {
		return l.Color.MulScalar(l.Intensity), fauxgl.Vector{}
	}
	return l.Color.MulScalar(l.Intensity * Attenuation(d, l.Distance, l.Decay)), toLight.DivScalar(d)
}

// Attenuation is the punctual light falloff: inverse power decay, smoothly windowed to zero at cutoff (if > 0).
func Attenuation(d, cutoff, decay float64) float64 {
	f := 1 / math.Max(math.Pow(d, decay), 0.01)
	if cutoff > 0 {
		w := 1 - math.Pow(d/cutoff, 4)
		w = math.Max(0, math.Min(1, w))
		f *= w * w
	}
	return f
}

// LightHelper marks the position of a light with a small wireframe gizmo.
type LightHelper struct {
	Label   string
	Light   Positioned
	Size    float64
	Visible bool
}

func (h *LightHelper) Name() string { return h.Label }

// NewLightHelper creates a visible helper for l, named after it.
func NewLightHelper(l Positioned, size float64) *LightHelper {
	return &LightHelper{Label: l.Name() + " Helper", Light: l, Size: size, Visible: true}
}
