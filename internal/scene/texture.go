package scene

import (
	"image"

	"github.com/fogleman/fauxgl"
)

// Mapping tells the rasterizer how a texture is projected.
type Mapping int

const (
	MappingUV                        Mapping = iota // Regular UV coordinates of the mesh
	MappingEquirectangularReflection                // Latitude/longitude map sampled by reflected view direction
)

func (m Mapping) String() string {
	switch m {
	case MappingUV:
		return "uv"
	case MappingEquirectangularReflection:
		return "equirectangular-reflection"
	default:
		return "unknown"
	}
}

// Texture is a decoded image ready to be sampled.
type Texture struct {
	Name    string
	Path    string // Source file, if any (used for hot reloading)
	Mapping Mapping
	img     image.Image
	sampler fauxgl.Texture
	mean    fauxgl.Color
}

// NewTexture wraps an already decoded image.
func NewTexture(name string, img image.Image) *Texture {
	t := &Texture{Name: name, Mapping: MappingUV}
	t.SetImage(img)
	return t
}

// SetImage replaces the pixels of the texture, keeping its identity (bindings to it stay valid).
func (t *Texture) SetImage(img image.Image) {
	t.img = img
	t.sampler = fauxgl.NewImageTexture(img)
	t.mean = meanColor(img)
}

// Image returns the decoded pixels.
func (t *Texture) Image() image.Image {
	return t.img
}

// Sample returns the color at the given UV coordinates (wrapping).
func (t *Texture) Sample(u, v float64) fauxgl.Color {
	return t.sampler.Sample(u, v)
}

// Mean is the average color of the texture, used as diffuse environment light.
func (t *Texture) Mean() fauxgl.Color {
	return t.mean
}

func meanColor(img image.Image) fauxgl.Color {
	b := img.Bounds()
	if b.Empty() {
		return fauxgl.Black
	}
	// Sparse sampling is enough for an average
	stepX := max(1, b.Dx()/64)
	stepY := max(1, b.Dy()/32)
	var sum fauxgl.Color
	n := 0.
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			sum = sum.Add(fauxgl.MakeColor(img.At(x, y)))
			n++
		}
	}
	return sum.DivScalar(n)
}
