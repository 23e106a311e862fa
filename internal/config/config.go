// Package config decodes scene description files (TOML). Relative asset paths are resolved against the
// directory of the file, so scenes can be moved around together with their assets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid wraps every validation error.
var ErrInvalid = errors.New("invalid scene config")

// StartMode decides when the render loop may start.
type StartMode string

const (
	StartImmediate        StartMode = "immediate"         // Render right away, assets attach when ready
	StartAfterEnvironment StartMode = "after-environment" // Wait for the environment map
)

// Light kinds
const (
	LightAmbient     = "ambient"
	LightDirectional = "directional"
	LightPoint       = "point"
)

// Geometry kinds
const (
	GeometryBox        = "box"
	GeometryRoundedBox = "rounded-box"
	GeometryModel      = "model"
)

// Texture slots
const (
	SlotMap             = "map"
	SlotNormalMap       = "normal_map"
	SlotRoughnessMap    = "roughness_map"
	SlotDisplacementMap = "displacement_map"
)

// Scene is the root of a scene file.
type Scene struct {
	Title       string      `toml:"title"`
	Start       StartMode   `toml:"start"`
	Window      Window      `toml:"window"`
	Camera      Camera      `toml:"camera"`
	Controls    Controls    `toml:"controls"`
	Environment Environment `toml:"environment"`
	Lights      []Light     `toml:"lights"`
	Textures    []Texture   `toml:"textures"`
	Meshes      []Mesh      `toml:"meshes"`
	Panel       Panel       `toml:"panel"`
	HotReload   bool        `toml:"hot_reload"`
	// Dir is the directory relative paths were resolved against (not decoded)
	Dir string `toml:"-"`
}

type Window struct {
	Width     int  `toml:"width"`
	Height    int  `toml:"height"`
	Resizable bool `toml:"resizable"`
}

type Camera struct {
	Fov      float64    `toml:"fov"`
	Near     float64    `toml:"near"`
	Far      float64    `toml:"far"`
	Position [3]float64 `toml:"position"`
	Target   [3]float64 `toml:"target"`
}

type Controls struct {
	Damping       bool    `toml:"damping"`
	DampingFactor float64 `toml:"damping_factor"`
	RotateSpeed   float64 `toml:"rotate_speed"`
	ZoomSpeed     float64 `toml:"zoom_speed"`
	PanSpeed      float64 `toml:"pan_speed"`
	MinDistance   float64 `toml:"min_distance"`
	MaxDistance   float64 `toml:"max_distance"`
}

type Environment struct {
	Path       string  `toml:"path"`
	Background bool    `toml:"background"`
	Exposure   float64 `toml:"exposure"`
	MaxWidth   int     `toml:"max_width"` // Downscale larger maps (they are only sampled for reflections)
}

type Light struct {
	Name      string     `toml:"name"`
	Kind      string     `toml:"kind"`
	Color     string     `toml:"color"`
	Intensity float64    `toml:"intensity"`
	Position  [3]float64 `toml:"position"`
	Distance  float64    `toml:"distance"`
	Decay     float64    `toml:"decay"`
	Helper    bool       `toml:"helper"`
}

// Texture declares an image available to the texture slots named by Slot.
type Texture struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
	Slot string `toml:"slot"`
}

type Mesh struct {
	Name     string     `toml:"name"`
	Geometry Geometry   `toml:"geometry"`
	Position [3]float64 `toml:"position"`
	Rotation [3]float64 `toml:"rotation"`
	Scale    [3]float64 `toml:"scale"`
	Material Material   `toml:"material"`
}

type Geometry struct {
	Kind     string     `toml:"kind"`
	Size     [3]float64 `toml:"size"`
	Segments int        `toml:"segments"`
	Round    float64    `toml:"round"`
	Cells    int        `toml:"cells"`
	Path     string     `toml:"path"`
	Fit      bool       `toml:"fit"` // Scale the model to fit in a 2x2x2 box centered at the origin
}

type Material struct {
	Color             string   `toml:"color"`
	Wireframe         bool     `toml:"wireframe"`
	Roughness         *float64 `toml:"roughness"`
	Metalness         *float64 `toml:"metalness"`
	Reflectivity      *float64 `toml:"reflectivity"`
	DisplacementScale *float64 `toml:"displacement_scale"`
	Map               string   `toml:"map"`
	NormalMap         string   `toml:"normal_map"`
	RoughnessMap      string   `toml:"roughness_map"`
	DisplacementMap   string   `toml:"displacement_map"`
}

type Panel struct {
	Enabled bool   `toml:"enabled"`
	Remote  string `toml:"remote"` // Listen address of the remote panel service (empty disables it)
}

// Default is the configuration used for missing keys.
func Default() *Scene {
	return &Scene{
		Title:    "scene-ui",
		Start:    StartImmediate,
		Window:   Window{Width: 1280, Height: 720, Resizable: true},
		Camera:   Camera{Fov: 75, Near: 0.1, Far: 1000, Position: [3]float64{0, 0, 5}},
		Controls: Controls{DampingFactor: 0.05, RotateSpeed: 1, ZoomSpeed: 1, PanSpeed: 1},
		Environment: Environment{
			Exposure: 1,
			MaxWidth: 1024,
		},
	}
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return Decode(f, dir)
}

// Decode reads a scene from r, resolving relative paths against dir. Unknown keys are rejected.
func Decode(r io.Reader, dir string) (*Scene, error) {
	s := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	s.Dir = dir
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.resolvePaths()
	return s, nil
}

// Parse is Decode for in-memory documents.
func Parse(data []byte, dir string) (*Scene, error) {
	return Decode(bytes.NewReader(data), dir)
}

func (s *Scene) applyDefaults() {
	for i := range s.Lights {
		l := &s.Lights[i]
		if l.Color == "" {
			l.Color = "#ffffff"
		}
		if l.Name == "" {
			l.Name = defaultLightName(l.Kind)
		}
		if l.Kind == LightPoint && l.Decay == 0 {
			l.Decay = 2
		}
	}
	for i := range s.Meshes {
		m := &s.Meshes[i]
		if m.Name == "" {
			m.Name = fmt.Sprintf("Mesh %d", i+1)
		}
		if m.Scale == [3]float64{} {
			m.Scale = [3]float64{1, 1, 1}
		}
		if m.Geometry.Kind == "" {
			m.Geometry.Kind = GeometryBox
		}
		if m.Geometry.Size == [3]float64{} {
			m.Geometry.Size = [3]float64{1, 1, 1}
		}
		if m.Material.Color == "" {
			m.Material.Color = "#ffffff"
		}
	}
}

func defaultLightName(kind string) string {
	switch kind {
	case LightAmbient:
		return "Ambient Light"
	case LightDirectional:
		return "Directional Light"
	case LightPoint:
		return "Point Light"
	}
	return kind
}

// Validate checks every value that cannot be checked by the decoder.
func (s *Scene) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	switch s.Start {
	case StartImmediate:
	case StartAfterEnvironment:
		if s.Environment.Path == "" {
			bad("start = %q needs an environment path", s.Start)
		}
	default:
		bad("unknown start mode %q", s.Start)
	}
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		bad("window size must be positive")
	}
	if s.Camera.Fov <= 0 || s.Camera.Fov >= 180 {
		bad("camera fov must be in (0, 180)")
	}
	if s.Camera.Near <= 0 || s.Camera.Far <= s.Camera.Near {
		bad("camera planes must satisfy 0 < near < far")
	}
	if s.Controls.DampingFactor < 0 || s.Controls.DampingFactor > 1 {
		bad("controls damping factor must be in [0, 1]")
	}
	if s.Controls.MaxDistance != 0 && s.Controls.MaxDistance < s.Controls.MinDistance {
		bad("controls max distance is below min distance")
	}
	if s.Environment.Exposure <= 0 {
		bad("environment exposure must be positive")
	}
	for _, l := range s.Lights {
		switch l.Kind {
		case LightAmbient, LightDirectional, LightPoint:
		default:
			bad("light %q: unknown kind %q", l.Name, l.Kind)
		}
		if _, err := ParseColor(l.Color); err != nil {
			bad("light %q: %v", l.Name, err)
		}
		if l.Intensity < 0 || l.Distance < 0 || l.Decay < 0 {
			bad("light %q: intensity, distance and decay cannot be negative", l.Name)
		}
		if l.Helper && l.Kind == LightAmbient {
			bad("light %q: ambient lights have no helper", l.Name)
		}
		if strings.Contains(l.Name, "/") {
			bad("light %q: names cannot contain '/' (it separates panel paths)", l.Name)
		}
	}
	textures := map[string]Texture{}
	for _, t := range s.Textures {
		if t.Name == "" || t.Path == "" {
			bad("textures need a name and a path")
		}
		if _, dup := textures[t.Name]; dup {
			bad("texture %q declared twice", t.Name)
		}
		switch t.Slot {
		case SlotMap, SlotNormalMap, SlotRoughnessMap, SlotDisplacementMap:
		default:
			bad("texture %q: unknown slot %q", t.Name, t.Slot)
		}
		textures[t.Name] = t
	}
	for _, m := range s.Meshes {
		if strings.Contains(m.Name, "/") {
			bad("mesh %q: names cannot contain '/' (it separates panel paths)", m.Name)
		}
		switch m.Geometry.Kind {
		case GeometryBox, GeometryRoundedBox:
			if m.Geometry.Size[0] <= 0 || m.Geometry.Size[1] <= 0 || m.Geometry.Size[2] <= 0 {
				bad("mesh %q: size must be positive", m.Name)
			}
		case GeometryModel:
			if m.Geometry.Path == "" {
				bad("mesh %q: model geometry needs a path", m.Name)
			}
		default:
			bad("mesh %q: unknown geometry %q", m.Name, m.Geometry.Kind)
		}
		if _, err := ParseColor(m.Material.Color); err != nil {
			bad("mesh %q: %v", m.Name, err)
		}
		for slot, name := range m.Material.Slots() {
			if name == "" {
				continue
			}
			if t, ok := textures[name]; !ok {
				bad("mesh %q: unknown texture %q", m.Name, name)
			} else if t.Slot != slot {
				bad("mesh %q: texture %q is declared for %s, not %s", m.Name, name, t.Slot, slot)
			}
		}
	}
	return errors.Join(errs...)
}

// Slots maps every texture slot to the texture name assigned in the file (empty for none).
func (m Material) Slots() map[string]string {
	return map[string]string{
		SlotMap:             m.Map,
		SlotNormalMap:       m.NormalMap,
		SlotRoughnessMap:    m.RoughnessMap,
		SlotDisplacementMap: m.DisplacementMap,
	}
}

// TexturesFor lists the declared textures of a slot, in file order.
func (s *Scene) TexturesFor(slot string) []Texture {
	var res []Texture
	for _, t := range s.Textures {
		if t.Slot == slot {
			res = append(res, t)
		}
	}
	return res
}

func (s *Scene) resolvePaths() {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) && !strings.Contains(*p, "://") {
			*p = filepath.Join(s.Dir, *p)
		}
	}
	resolve(&s.Environment.Path)
	for i := range s.Textures {
		resolve(&s.Textures[i].Path)
	}
	for i := range s.Meshes {
		resolve(&s.Meshes[i].Geometry.Path)
	}
}

// ParseColor reads "#rrggbb", "#rgb" or "0xrrggbb" into 0..1 components.
func ParseColor(s string) ([3]float64, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	var r, g, b uint8
	if len(h) != 6 {
		return [3]float64{}, fmt.Errorf("bad color %q", s)
	}
	if _, err := fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b); err != nil {
		return [3]float64{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return [3]float64{float64(r) / 255, float64(g) / 255, float64(b) / 255}, nil
}
