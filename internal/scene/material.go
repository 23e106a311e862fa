package scene

import (
	"github.com/fogleman/fauxgl"
)

// TextureSlot is either None or Named(texture). The zero value is None.
type TextureSlot struct {
	tex *Texture
}

// NoTexture is the empty slot.
func NoTexture() TextureSlot {
	return TextureSlot{}
}

// Named fills a slot with t. A nil texture is a programming error: use NoTexture instead.
func Named(t *Texture) TextureSlot {
	if t == nil {
		panic("scene.Named: nil texture (use NoTexture)")
	}
	return TextureSlot{tex: t}
}

// Texture returns the texture in the slot and whether there is one.
func (s TextureSlot) Texture() (*Texture, bool) {
	return s.tex, s.tex != nil
}

// IsNone reports whether the slot is empty.
func (s TextureSlot) IsNone() bool {
	return s.tex == nil
}

func (s TextureSlot) String() string {
	if s.tex == nil {
		return "None"
	}
	return s.tex.Name
}

// Material is the physically based surface description (a subset of a standard metal/roughness material).
type Material struct {
	Color             fauxgl.Color
	Wireframe         bool    `panel:"wireframe"`
	Roughness         float64 `panel:"roughness" min:"0" max:"1" step:"0.01"`
	Metalness         float64 `panel:"metalness" min:"0" max:"1" step:"0.01"`
	Reflectivity      float64 `panel:"reflectivity" min:"0" max:"1" step:"0.01"`
	DisplacementScale float64 `panel:"displacementScale" min:"0" max:"1" step:"0.01"`
	Map               TextureSlot // Albedo
	NormalMap         TextureSlot // Tangent space normals
	RoughnessMap      TextureSlot // Green channel multiplies Roughness
	DisplacementMap   TextureSlot // Red channel displaces along the normal, times DisplacementScale
}

// NewMaterial returns the default white material.
func NewMaterial() *Material {
	return &Material{
		Color:             fauxgl.White,
		Roughness:         1,
		Metalness:         0,
		Reflectivity:      0.5,
		DisplacementScale: 1,
	}
}
