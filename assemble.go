package ui

import (
	"fmt"
	"log"

	"github.com/Yeicor/scene-ui/internal/config"
	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/fogleman/fauxgl"
)

// Helper sizes, as drawn around the light position
const (
	directionalHelperSize = 1
	pointHelperSize       = 0.5
)

// pendingAsset is an asynchronous load whose result still has to be attached to the scene.
type pendingAsset struct {
	name   string
	done   <-chan struct{}
	attach func() // Runs on the session goroutine once done is closed
}

// assemble builds the scene graph and camera from the config, decodes the static textures and issues the
// asynchronous model and environment loads.
func (s *Session) assemble() error {
	cfg := s.cfg
	w, h := s.surface.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("surface size %dx%d must be positive", w, h)
	}
	s.camera = scene.NewCamera(cfg.Camera.Fov, float64(w)/float64(h), cfg.Camera.Near, cfg.Camera.Far, toVector(cfg.Camera.Position))
	s.camera.Target = toVector(cfg.Camera.Target)
	s.scene = scene.New()
	s.scene.Background = cfg.Environment.Background

	for _, lc := range cfg.Lights {
		light, err := newLight(lc)
		if err != nil {
			return err
		}
		s.scene.Add(light)
		if p, ok := light.(scene.Positioned); ok && lc.Helper {
			size := float64(pointHelperSize)
			if lc.Kind == config.LightDirectional {
				size = directionalHelperSize
			}
			s.scene.Add(scene.NewLightHelper(p, size))
		}
	}

	for _, tc := range cfg.Textures {
		tex, err := s.loader.LoadTexture(tc.Path)
		if err != nil {
			return fmt.Errorf("texture %q: %w", tc.Name, err)
		}
		tex.Name = tc.Name
		s.textures[tc.Name] = tex
	}

	for _, mc := range cfg.Meshes {
		mesh, err := s.newMesh(mc)
		if err != nil {
			return fmt.Errorf("mesh %q: %w", mc.Name, err)
		}
		s.scene.Add(mesh)
	}

	if path := cfg.Environment.Path; path != "" {
		f := s.loader.LoadEnvironment(path)
		s.pending = append(s.pending, pendingAsset{name: path, done: f.Done(), attach: func() {
			tex, err := f.Result()
			if err == nil {
				err = s.scene.SetEnvironment(tex)
			}
			if err != nil {
				s.envErr = err
				if s.startMode == config.StartAfterEnvironment {
					log.Println("[Session] Environment map failed, the render loop will not start:", err)
				}
				return
			}
			log.Println("[Session] Environment map attached:", tex.Name)
			s.open()
		}})
	}
	return nil
}

func newLight(lc config.Light) (scene.Light, error) {
	rgb, err := config.ParseColor(lc.Color)
	if err != nil {
		return nil, fmt.Errorf("light %q: %w", lc.Name, err)
	}
	c := toColor(rgb)
	switch lc.Kind {
	case config.LightAmbient:
		return &scene.AmbientLight{Label: lc.Name, Color: c, Intensity: lc.Intensity}, nil
	case config.LightDirectional:
		return &scene.DirectionalLight{Label: lc.Name, Color: c, Intensity: lc.Intensity, Position: toVector(lc.Position)}, nil
	case config.LightPoint:
		return &scene.PointLight{Label: lc.Name, Color: c, Intensity: lc.Intensity, Position: toVector(lc.Position),
			Distance: lc.Distance, Decay: lc.Decay}, nil
	default:
		return nil, fmt.Errorf("light %q: unknown kind %q", lc.Name, lc.Kind)
	}
}

func (s *Session) newMesh(mc config.Mesh) (*scene.Mesh, error) {
	material, err := s.newMaterial(mc.Material)
	if err != nil {
		return nil, err
	}
	mesh := scene.NewMesh(mc.Name, nil, material)
	mesh.Transform = scene.Transform{Position: toVector(mc.Position), Rotation: toVector(mc.Rotation), Scale: toVector(mc.Scale)}

	g := mc.Geometry
	switch g.Kind {
	case config.GeometryBox:
		mesh.Geometry, err = scene.NewBox(toVector(g.Size), g.Segments)
	case config.GeometryRoundedBox:
		mesh.Geometry, err = scene.NewRoundedBox(toVector(g.Size), g.Round, g.Cells)
	case config.GeometryModel: // Attached whenever it finishes loading; the rest of the scene renders meanwhile
		f := s.loader.LoadModel(g.Path, g.Fit)
		s.models[g.Path] = append(s.models[g.Path], mesh)
		s.pending = append(s.pending, pendingAsset{name: g.Path, done: f.Done(), attach: func() {
			if geom, err := f.Result(); err == nil {
				mesh.Geometry = geom
				log.Println("[Session] Model attached:", mesh.Label, "-", len(geom.Triangles), "triangles")
			}
		}})
	default:
		err = fmt.Errorf("unknown geometry %q", g.Kind)
	}
	if err != nil {
		return nil, err
	}
	return mesh, nil
}

func (s *Session) newMaterial(mc config.Material) (*scene.Material, error) {
	m := scene.NewMaterial()
	rgb, err := config.ParseColor(mc.Color)
	if err != nil {
		return nil, err
	}
	m.Color = toColor(rgb)
	m.Wireframe = mc.Wireframe
	for _, o := range []struct {
		dst *float64
		src *float64
	}{
		{&m.Roughness, mc.Roughness},
		{&m.Metalness, mc.Metalness},
		{&m.Reflectivity, mc.Reflectivity},
		{&m.DisplacementScale, mc.DisplacementScale},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	for slot, name := range mc.Slots() {
		if name == "" {
			continue
		}
		tex, ok := s.textures[name]
		if !ok {
			return nil, fmt.Errorf("unknown texture %q", name)
		}
		*materialSlot(m, slot) = scene.Named(tex)
	}
	return m, nil
}

// materialSlot returns the material field behind a config slot name.
func materialSlot(m *scene.Material, slot string) *scene.TextureSlot {
	switch slot {
	case config.SlotMap:
		return &m.Map
	case config.SlotNormalMap:
		return &m.NormalMap
	case config.SlotRoughnessMap:
		return &m.RoughnessMap
	case config.SlotDisplacementMap:
		return &m.DisplacementMap
	}
	panic("unknown texture slot " + slot) // Validated by the config package
}

// pollAssets attaches every finished load. Loads that are still running stay pending.
func (s *Session) pollAssets() {
	remaining := s.pending[:0]
	for _, p := range s.pending {
		select {
		case <-p.done:
			p.attach()
		default:
			remaining = append(remaining, p)
		}
	}
	clear(s.pending[len(remaining):])
	s.pending = remaining
}

func toVector(v [3]float64) fauxgl.Vector {
	return fauxgl.Vector{X: v[0], Y: v[1], Z: v[2]}
}

func toColor(rgb [3]float64) fauxgl.Color {
	return fauxgl.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: 1}
}
