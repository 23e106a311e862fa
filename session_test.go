package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Yeicor/scene-ui/internal/config"
	"github.com/Yeicor/scene-ui/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSurface records what the session asks of its output.
type countingSurface struct {
	w, h           int
	draws, resizes int
}

func (c *countingSurface) Resize(w, h int) bool {
	if w <= 0 || h <= 0 || (w == c.w && h == c.h) {
		return false
	}
	c.w, c.h = w, h
	c.resizes++
	return true
}

func (c *countingSurface) Size() (int, int) {
	return c.w, c.h
}

func (c *countingSurface) Draw(_ *scene.Scene, _ *scene.Camera) *image.NRGBA {
	c.draws++
	return image.NewNRGBA(image.Rect(0, 0, c.w, c.h))
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

const texturedCube = `
title = "Textured cube"

[[lights]]
kind = "ambient"
intensity = 1

[[lights]]
kind = "directional"
intensity = 1
position = [2, 2, 2]
helper = true

[[lights]]
kind = "point"
intensity = 1
position = [0.3, -1.5, 1]
distance = 10
helper = true

[[textures]]
name = "Colour"
path = "text/colour.png"
slot = "map"

[[textures]]
name = "Normal"
path = "text/normal.png"
slot = "normal_map"

[[meshes]]
name = "Cube"
geometry = { kind = "box", size = [3, 1, 2] }

[meshes.material]
map = "Colour"
normal_map = "Normal"
roughness = 0.8

[panel]
enabled = true
`

// newTestSession writes the textures of texturedCube (plus extra) to a temporary directory and starts a session on it.
func newTestSession(t *testing.T, extra string, opts ...Option) (*Session, *countingSurface, string) {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "text", "colour.png"), color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	writePNG(t, filepath.Join(dir, "text", "normal.png"), color.NRGBA{R: 128, G: 128, B: 255, A: 255})
	cfg, err := config.Parse([]byte(texturedCube+extra), dir)
	require.NoError(t, err)
	surface := &countingSurface{w: 320, h: 240}
	s, err := NewSession(cfg, append([]Option{OptSurface(surface)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, surface, dir
}

func TestSessionAssembly(t *testing.T) {
	s, _, _ := newTestSession(t, "")
	assert.Len(t, s.Scene().Lights(), 3)
	require.Len(t, s.Scene().Helpers(), 2)
	assert.Equal(t, "Directional Light Helper", s.Scene().Helpers()[0].Label)
	require.Len(t, s.Scene().Meshes(), 1)

	m := s.Scene().Meshes()[0]
	assert.Equal(t, "Cube", m.Label)
	require.NotNil(t, m.Geometry)
	assert.Equal(t, 0.8, m.Material.Roughness)
	tex, ok := m.Material.Map.Texture()
	require.True(t, ok)
	assert.Equal(t, "Colour", tex.Name)
	assert.True(t, m.Material.RoughnessMap.IsNone())
	assert.Nil(t, s.Scene().Environment())
	assert.InDelta(t, 320./240., s.Camera().Aspect, 1e-12)
}

func TestSessionOptionsValidation(t *testing.T) {
	_, err := NewSession(nil, OptSurface(&countingSurface{w: 1, h: 1}), OptStartMode(config.StartAfterEnvironment))
	assert.ErrorIs(t, err, config.ErrInvalid, "after-environment without an environment map")
	_, err = NewSession(nil, OptSurface(&countingSurface{w: 1, h: 1}), OptStartMode("later"))
	assert.ErrorIs(t, err, config.ErrInvalid)
	_, err = NewSession(nil, OptSurface(&countingSurface{w: 1, h: 1}), OptRemotePanel("127.0.0.1:0"))
	assert.ErrorIs(t, err, config.ErrInvalid, "remote panel without a panel")

	s, err := NewSession(nil, OptSurface(&countingSurface{w: 1, h: 1}))
	require.NoError(t, err)
	assert.Nil(t, s.Registry(), "the panel is disabled by default")
	assert.Empty(t, s.Scene().Nodes())
}

func TestSessionOwnsItsConfig(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "text", "colour.png"), color.White)
	writePNG(t, filepath.Join(dir, "text", "normal.png"), color.White)
	cfg, err := config.Parse([]byte(texturedCube), dir)
	require.NoError(t, err)
	s, err := NewSession(cfg, OptSurface(&countingSurface{w: 32, h: 32}))
	require.NoError(t, err)
	defer s.Close()

	// Editing the caller's config (shared slices and pointers included) must not reach the session
	*cfg.Meshes[0].Material.Roughness = 0.1
	cfg.Textures[0].Slot = config.SlotRoughnessMap
	cfg.Lights[1].Name = "Renamed"
	assert.Equal(t, 0.8, *s.cfg.Meshes[0].Material.Roughness)
	assert.Len(t, s.cfg.TexturesFor(config.SlotMap), 1)
	assert.Equal(t, "Directional Light", s.cfg.Lights[1].Name)
}

func TestSessionRejectsEmptySurface(t *testing.T) {
	for _, size := range [][2]int{{320, 0}, {0, 240}, {-1, -1}} {
		_, err := NewSession(nil, OptSurface(&countingSurface{w: size[0], h: size[1]}))
		assert.Error(t, err, fmt.Sprint(size))
	}
}

func TestSignals(t *testing.T) {
	assert.Contains(t, signals(), os.Interrupt)
}

func TestSessionFramesAreSequential(t *testing.T) {
	s, surface, _ := newTestSession(t, "")
	drawn, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drawn, "immediate sessions draw from the first frame")

	// An iteration that has not returned yet blocks the next one
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.True(t, s.loop.guard.TryLock(ctx))
	drawn, err = s.Frame()
	assert.ErrorIs(t, err, ErrFrameOverlap)
	assert.False(t, drawn)
	s.loop.guard.Unlock()

	drawn, err = s.Frame()
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, 2, surface.draws)
	assert.Equal(t, uint64(2), s.Frames())
	assert.NotNil(t, s.LastFrame())
}

func TestSessionResize(t *testing.T) {
	s, surface, _ := newTestSession(t, "")
	s.Resize(800, 400)
	assert.Equal(t, 2., s.Camera().Aspect)
	assert.Equal(t, 1, surface.resizes)

	s.Resize(800, 400)
	assert.Equal(t, 2., s.Camera().Aspect)
	assert.Equal(t, 1, surface.resizes, "same size again changes nothing")

	s.Resize(0, 400)
	s.Resize(800, -1)
	assert.Equal(t, 2., s.Camera().Aspect, "minimized windows are ignored")
	w, h := surface.Size()
	assert.Equal(t, [2]int{800, 400}, [2]int{w, h})
}

func TestSessionWaitsForEnvironment(t *testing.T) {
	s, surface, _ := newTestSession(t, `
[environment]
path = "env/studio.png"
background = true
`, OptStartMode(config.StartAfterEnvironment), OptLoaderWorkers(1))
	for i := 0; i < 3; i++ {
		drawn, err := s.Frame()
		require.NoError(t, err)
		assert.False(t, drawn)
	}
	assert.Zero(t, surface.draws, "nothing is drawn before the environment map")
	select {
	case <-s.Ready():
		t.Fatal("the start gate opened without an environment map")
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitAssets(ctx))
	assert.Error(t, s.envErr, "env/studio.png was never written")
	drawn, _ := s.Frame()
	assert.False(t, drawn, "a failed environment map keeps the loop stopped")
	assert.Contains(t, s.statusText(), "environment map failed")
}

func TestSessionStartsAfterEnvironment(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "colour.png"), color.White)
	writePNG(t, filepath.Join(dir, "studio.png"), color.NRGBA{R: 90, G: 120, B: 200, A: 255})
	cfg, err := config.Parse([]byte(`
start = "after-environment"
[environment]
path = "studio.png"
[[meshes]]
name = "Cube"
[panel]
enabled = true
`), dir)
	require.NoError(t, err)
	surface := &countingSurface{w: 64, h: 64}
	s, err := NewSession(cfg, OptSurface(surface))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitAssets(ctx))
	select {
	case <-s.Ready():
	default:
		t.Fatal("the start gate is still closed")
	}
	env := s.Scene().Environment()
	require.NotNil(t, env)
	assert.Equal(t, scene.MappingEquirectangularReflection, env.Mapping)

	drawn, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, 1, surface.draws)

	bg := s.Registry().Find("Environment/background")
	require.NotNil(t, bg)
	require.NoError(t, bg.Set(true))
	assert.True(t, s.Scene().Background)
}

func TestSessionPanel(t *testing.T) {
	s, _, _ := newTestSession(t, "")
	reg := s.Registry()
	require.NotNil(t, reg)
	assert.Nil(t, reg.Find("Environment/background"), "no environment map, no toggle")

	var directional *scene.DirectionalLight
	for _, l := range s.Scene().Lights() {
		if d, ok := l.(*scene.DirectionalLight); ok {
			directional = d
		}
	}
	require.NotNil(t, directional)
	intensity := reg.Find("Lights/Directional Light/intensity")
	require.NotNil(t, intensity)
	for _, tc := range []struct{ in, want float64 }{{3.5, 2}, {-1, 0}, {1.23, 1.23}} {
		require.NoError(t, intensity.Set(tc.in))
		assert.Equal(t, tc.want, directional.Intensity, fmt.Sprint(tc.in))
	}
	assert.Equal(t, "Lights/Directional Light/intensity = 1.23", s.lastEdit)

	helper := reg.Find("Lights/Directional Light Helper")
	require.NotNil(t, helper)
	require.NoError(t, helper.Set(false))
	assert.False(t, s.Scene().Helpers()[0].Visible)
	assert.True(t, s.Scene().Helpers()[1].Visible)

	m := s.Scene().Meshes()[0]
	maps := reg.Find("Maps/Map")
	require.NotNil(t, maps)
	assert.Equal(t, []string{"None", "Colour"}, maps.Labels())
	require.NoError(t, maps.Select("None"))
	assert.True(t, m.Material.Map.IsNone())
	require.NoError(t, maps.Select("Colour"))
	tex, ok := m.Material.Map.Texture()
	require.True(t, ok)
	assert.Same(t, s.textures["Colour"], tex)
	assert.Nil(t, reg.Find("Maps/RoughnessMap"), "slots without declared textures get no selector")

	require.NoError(t, reg.Find("Material/wireframe").Set(true))
	assert.True(t, m.Material.Wireframe)
	require.NoError(t, reg.Find("Mesh/rotation/Y").Set(10))
	assert.InDelta(t, 6.283, m.Transform.Rotation.Y, 1e-3)
	require.NoError(t, reg.Find("Mesh/Visible").Set(false))
	assert.False(t, m.Visible)

	reg.Revert()
	assert.Equal(t, 1., directional.Intensity)
	assert.True(t, m.Visible)
	assert.False(t, m.Material.Wireframe)
}

func TestSessionPanelSeveralMeshes(t *testing.T) {
	s, _, _ := newTestSession(t, `
[[meshes]]
name = "Floor"
geometry = { kind = "rounded-box", size = [4, 0.1, 4], round = 0.05 }
`)
	reg := s.Registry()
	assert.NotNil(t, reg.Find("Cube/Material/roughness"))
	assert.NotNil(t, reg.Find("Floor/Mesh/position/X"))
	assert.Nil(t, reg.Find("Material/roughness"), "per mesh groups once there are several meshes")
}

const triangleOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

const quadOBJ = triangleOBJ + `v 1 1 0
f 2 4 3
`

func TestSessionModelAttach(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.obj"), []byte(triangleOBJ), 0o644))
	cfg, err := config.Parse([]byte(`
[[lights]]
kind = "ambient"
[[meshes]]
name = "Model"
geometry = { kind = "model", path = "model.obj" }
[panel]
enabled = true
`), dir)
	require.NoError(t, err)
	s, err := NewSession(cfg, OptSurface(&countingSurface{w: 32, h: 32}))
	require.NoError(t, err)
	defer s.Close()

	m := s.Scene().Meshes()[0]
	assert.Nil(t, m.Geometry, "attached by the host loop only")
	assert.NotNil(t, s.Registry().Find("Mesh/scale/X"), "the panel binds meshes that are still loading")
	drawn, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drawn, "the rest of the scene renders while the model loads")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitAssets(ctx))
	require.NotNil(t, m.Geometry)
	assert.Len(t, m.Geometry.Triangles, 1)
}

func TestSessionHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.obj")
	require.NoError(t, os.WriteFile(path, []byte(triangleOBJ), 0o644))
	cfg, err := config.Parse([]byte(`
[[meshes]]
name = "Model"
geometry = { kind = "model", path = "model.obj" }
`), dir)
	require.NoError(t, err)
	s, err := NewSession(cfg, OptSurface(&countingSurface{w: 32, h: 32}), OptHotReload(true))
	require.NoError(t, err)
	defer s.Close()
	if s.watcher == nil {
		t.Skip("file watching is not supported here")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitAssets(ctx))
	m := s.Scene().Meshes()[0]
	require.Len(t, m.Geometry.Triangles, 1)

	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))
	pollHotReload(t, s, func() bool { return len(m.Geometry.Triangles) == 2 })
}

// replaceFile writes a PNG next to path and renames it over path, like editors that save atomically.
func replaceFile(t *testing.T, path string, c color.Color) {
	t.Helper()
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	writePNG(t, tmp, c)
	require.NoError(t, os.Rename(tmp, path))
}

// pollHotReload drives the host step until done reports true.
func pollHotReload(t *testing.T, s *Session, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		require.True(t, time.Now().Before(deadline), "the file was not reloaded")
		time.Sleep(10 * time.Millisecond)
		s.pollReloads()
		s.pollAssets()
	}
}

func TestSessionHotReloadTexture(t *testing.T) {
	s, _, dir := newTestSession(t, "", OptHotReload(true))
	if s.watcher == nil {
		t.Skip("file watching is not supported here")
	}
	m := s.Scene().Meshes()[0]
	before, ok := m.Material.Map.Texture()
	require.True(t, ok)
	require.InDelta(t, 200./255, before.Mean().R, 1e-6)

	replaceFile(t, filepath.Join(dir, "text", "colour.png"), color.NRGBA{R: 10, G: 220, B: 10, A: 255})
	pollHotReload(t, s, func() bool { return before.Mean().G > 0.5 })
	after, _ := m.Material.Map.Texture()
	assert.Same(t, before, after, "reloaded in place")
	assert.Same(t, s.textures["Colour"], after)
}

func TestSessionHotReloadOpensGate(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`
start = "after-environment"
hot_reload = true
[environment]
path = "studio.png"
[[meshes]]
name = "Cube"
`), dir)
	require.NoError(t, err)
	surface := &countingSurface{w: 64, h: 64}
	s, err := NewSession(cfg, OptSurface(surface))
	require.NoError(t, err)
	defer s.Close()
	if s.watcher == nil {
		t.Skip("file watching is not supported here")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitAssets(ctx))
	require.Error(t, s.envErr, "studio.png does not exist yet")
	drawn, _ := s.Frame()
	require.False(t, drawn)

	replaceFile(t, filepath.Join(dir, "studio.png"), color.NRGBA{R: 90, G: 120, B: 200, A: 255})
	pollHotReload(t, s, func() bool {
		select {
		case <-s.Ready():
			return true
		default:
			return false
		}
	})
	assert.NoError(t, s.envErr)
	require.NotNil(t, s.Scene().Environment())
	drawn, err = s.Frame()
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, 1, surface.draws)
}

func TestSessionRemotePanel(t *testing.T) {
	s, _, _ := newTestSession(t, "", OptRemotePanel("127.0.0.1:0"))
	require.NotEmpty(t, s.RemoteAddr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := DialPanel(ctx, s.RemoteAddr())
	require.NoError(t, err)
	defer client.Close()

	type result struct {
		state ControlState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := client.Set("Lights/Ambient Light/intensity", "0.25")
		done <- result{st, err}
	}()
	var res result
	for waiting := true; waiting; {
		select {
		case res = <-done:
			waiting = false
		case <-ctx.Done():
			t.Fatal(ctx.Err())
		case <-time.After(5 * time.Millisecond):
			s.ApplyRemote() // Edits are only applied by the host loop
		}
	}
	require.NoError(t, res.err)
	assert.Equal(t, "0.25", res.state.Value)
	ambient := s.Scene().Lights()[0].(*scene.AmbientLight)
	assert.Equal(t, 0.25, ambient.Intensity)
}
