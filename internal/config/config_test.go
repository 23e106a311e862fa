package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeScene = `
title = "Textured cube"
start = "immediate"

[camera]
position = [0, 0, 5]

[controls]
damping = true
damping_factor = 0.01

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
path = "text/colour.jpg"
slot = "map"

[[textures]]
name = "Height"
path = "text/height.png"
slot = "displacement_map"

[[meshes]]
name = "Cube"
geometry = { kind = "box", size = [3, 1, 2] }

[meshes.material]
map = "Colour"
roughness = 0.8

[panel]
enabled = true
`

func TestParseCubeScene(t *testing.T) {
	s, err := Parse([]byte(cubeScene), "/scenes")
	require.NoError(t, err)
	assert.Equal(t, "Textured cube", s.Title)
	assert.Equal(t, StartImmediate, s.Start)
	assert.Equal(t, 75., s.Camera.Fov, "missing keys keep their defaults")
	assert.Equal(t, 1280, s.Window.Width)
	assert.True(t, s.Controls.Damping)
	assert.Equal(t, 0.01, s.Controls.DampingFactor)

	require.Len(t, s.Lights, 3)
	assert.Equal(t, "Ambient Light", s.Lights[0].Name)
	assert.Equal(t, "#ffffff", s.Lights[0].Color)
	assert.Equal(t, "Point Light", s.Lights[2].Name)
	assert.Equal(t, 2., s.Lights[2].Decay, "point lights decay physically by default")

	require.Len(t, s.Meshes, 1)
	m := s.Meshes[0]
	assert.Equal(t, [3]float64{3, 1, 2}, m.Geometry.Size)
	assert.Equal(t, [3]float64{1, 1, 1}, m.Scale)
	require.NotNil(t, m.Material.Roughness)
	assert.Equal(t, 0.8, *m.Material.Roughness)
	assert.Nil(t, m.Material.Metalness)

	assert.Equal(t, filepath.Join("/scenes", "text/colour.jpg"), s.Textures[0].Path)
	assert.Equal(t, []Texture{s.Textures[1]}, s.TexturesFor(SlotDisplacementMap))
	assert.Empty(t, s.TexturesFor(SlotNormalMap))
	assert.True(t, s.Panel.Enabled)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("titel = \"typo\"\n"), ".")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "titel")
}

func TestValidate(t *testing.T) {
	for name, doc := range map[string]string{
		"start mode":          `start = "later"`,
		"env needed":          `start = "after-environment"`,
		"fov":                 "[camera]\nfov = 0",
		"planes":              "[camera]\nnear = 2\nfar = 1",
		"light kind":          "[[lights]]\nkind = \"spot\"",
		"light color":         "[[lights]]\nkind = \"point\"\ncolor = \"#zzzzzz\"",
		"ambient helper":      "[[lights]]\nkind = \"ambient\"\nhelper = true",
		"negative intensity":  "[[lights]]\nkind = \"point\"\nintensity = -1",
		"geometry kind":       "[[meshes]]\ngeometry = { kind = \"torus\" }",
		"model path":          "[[meshes]]\ngeometry = { kind = \"model\" }",
		"box size":            "[[meshes]]\ngeometry = { kind = \"box\", size = [1, -1, 1] }",
		"unknown texture":     "[[meshes]]\n[meshes.material]\nmap = \"Colour\"",
		"texture slot":        "[[textures]]\nname = \"A\"\npath = \"a.png\"\nslot = \"bump\"",
		"texture wrong slot":  "[[textures]]\nname = \"A\"\npath = \"a.png\"\nslot = \"normal_map\"\n[[meshes]]\n[meshes.material]\nmap = \"A\"",
		"duplicated texture":  "[[textures]]\nname = \"A\"\npath = \"a.png\"\nslot = \"map\"\n[[textures]]\nname = \"A\"\npath = \"b.png\"\nslot = \"map\"",
		"damping factor":      "[controls]\ndamping_factor = 2",
		"distance limits":     "[controls]\nmin_distance = 5\nmax_distance = 1",
		"exposure":            "[environment]\nexposure = 0",
		"light name path":     "[[lights]]\nname = \"Key/Fill\"\nkind = \"point\"",
		"mesh name path":      "[[meshes]]\nname = \"Cube/1\"",
	} {
		_, err := Parse([]byte(doc), ".")
		assert.ErrorIs(t, err, ErrInvalid, name)
	}

	s, err := Parse([]byte("start = \"after-environment\"\n[environment]\npath = \"/abs/studio.hdr\""), "/scenes")
	require.NoError(t, err)
	assert.Equal(t, "/abs/studio.hdr", s.Environment.Path, "absolute paths are kept")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(cubeScene), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir)
	assert.Equal(t, filepath.Join(dir, "text", "colour.jpg"), s.Textures[0].Path)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 128. / 255, 0}, c)
	c, err = ParseColor("0xFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 1, 1}, c)
	c, err = ParseColor("#f00")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 0, 0}, c)
	_, err = ParseColor("red")
	assert.Error(t, err)
}
