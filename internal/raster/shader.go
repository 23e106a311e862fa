package raster

import (
	"math"

	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/fogleman/fauxgl"
)

// standardShader is a fauxgl.Shader for scene.Material: Blinn-Phong lobes driven by roughness and metalness,
// plus an image based term when the scene has an environment map.
type standardShader struct {
	viewProjection fauxgl.Matrix
	model, normal  fauxgl.Matrix
	eye            fauxgl.Vector
	material       *scene.Material
	lights         []scene.Light
	environment    *scene.Texture // nil if none
}

func newStandardShader(cam *scene.Camera, mesh *scene.Mesh, lights []scene.Light, env *scene.Texture) *standardShader {
	model := mesh.Transform.Matrix()
	return &standardShader{
		viewProjection: cam.Matrix(),
		model:          model,
		normal:         model.Inverse().Transpose(),
		eye:            cam.Position,
		material:       mesh.Material,
		lights:         lights,
		environment:    env,
	}
}

func (s *standardShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	if tex, ok := s.material.DisplacementMap.Texture(); ok && s.material.DisplacementScale != 0 {
		h := tex.Sample(v.Texture.X, v.Texture.Y).R * s.material.DisplacementScale
		v.Position = v.Position.Add(v.Normal.MulScalar(h))
	}
	v.Position = s.model.MulPosition(v.Position) // Fragments receive world space positions and normals
	if n := s.normal.MulDirection(v.Normal); n.Length() > 0 {
		v.Normal = n.Normalize()
	}
	v.Output = s.viewProjection.MulPositionW(v.Position)
	return v
}

func (s *standardShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	m := s.material
	base := m.Color
	if tex, ok := m.Map.Texture(); ok {
		base = mulColor(base, tex.Sample(v.Texture.X, v.Texture.Y))
	}
	n := v.Normal
	if n.Length() == 0 {
		n = fauxgl.Vector{Z: 1}
	}
	n = n.Normalize()
	if tex, ok := m.NormalMap.Texture(); ok {
		n = perturbNormal(n, tex.Sample(v.Texture.X, v.Texture.Y))
	}
	roughness := m.Roughness
	if tex, ok := m.RoughnessMap.Texture(); ok {
		roughness *= tex.Sample(v.Texture.X, v.Texture.Y).G
	}
	roughness = clamp01(roughness)
	metalness := clamp01(m.Metalness)

	toEye := s.eye.Sub(v.Position)
	if toEye.Length() == 0 {
		toEye = n
	}
	toEye = toEye.Normalize()
	diffuse := base.MulScalar(1 - metalness)
	f0 := lerpColor(fauxgl.Gray(0.16*m.Reflectivity*m.Reflectivity), base, metalness)
	shininess := math.Max(2/(math.Pow(roughness, 4)+1e-4)-2, 1)

	var out fauxgl.Color
	for _, l := range s.lights {
		radiance, toLight := l.Contribution(v.Position)
		if toLight == (fauxgl.Vector{}) { // Ambient
			out = out.Add(mulColor(diffuse, radiance))
			continue
		}
		nDotL := n.Dot(toLight)
		if nDotL <= 0 {
			continue
		}
		h := toLight.Add(toEye).Normalize()
		spec := f0.MulScalar((shininess + 2) / 8 * math.Pow(math.Max(n.Dot(h), 0), shininess))
		out = out.Add(mulColor(diffuse.Add(spec), radiance).MulScalar(nDotL))
	}
	if s.environment != nil {
		out = out.Add(mulColor(diffuse, s.environment.Mean()))
		nDotV := math.Max(n.Dot(toEye), 0)
		fresnel := lerpColor(f0, fauxgl.White, math.Pow(1-nDotV, 5))
		reflected := reflect(toEye.Negate(), n)
		out = out.Add(mulColor(fresnel, SampleEquirect(s.environment, reflected)).MulScalar((1 - roughness) * (1 - roughness)))
	}
	return opaque(out)
}

// perturbNormal applies a tangent space normal map sample. The tangent frame is derived from the normal alone,
// which is only exact for the UV layouts of the built-in geometries.
func perturbNormal(n fauxgl.Vector, c fauxgl.Color) fauxgl.Vector {
	up := fauxgl.Vector{Y: 1}
	if math.Abs(n.Y) > 0.99 {
		up = fauxgl.Vector{Z: -1}
	}
	t := up.Cross(n).Normalize()
	b := n.Cross(t)
	res := t.MulScalar(2*c.R - 1).Add(b.MulScalar(2*c.G - 1)).Add(n.MulScalar(2*c.B - 1))
	if res.Length() == 0 {
		return n
	}
	return res.Normalize()
}

// SampleEquirect returns the color of a latitude/longitude map in the given (Y up) direction.
func SampleEquirect(t *scene.Texture, dir fauxgl.Vector) fauxgl.Color {
	if dir.Length() == 0 {
		return t.Mean()
	}
	dir = dir.Normalize()
	u := math.Atan2(dir.Z, dir.X)/(2*math.Pi) + 0.5
	v := math.Asin(math.Max(-1, math.Min(1, dir.Y)))/math.Pi + 0.5
	return t.Sample(u, v)
}

// reflect mirrors the incoming direction d around the unit normal n.
func reflect(d, n fauxgl.Vector) fauxgl.Vector {
	return d.Sub(n.MulScalar(2 * d.Dot(n)))
}

func mulColor(a, b fauxgl.Color) fauxgl.Color {
	return fauxgl.Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B, A: a.A * b.A}
}

func lerpColor(a, b fauxgl.Color, t float64) fauxgl.Color {
	return a.MulScalar(1 - t).Add(b.MulScalar(t))
}

func opaque(c fauxgl.Color) fauxgl.Color {
	return fauxgl.Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: 1}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
