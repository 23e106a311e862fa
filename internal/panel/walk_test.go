package panel

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedTransform struct {
	Position vec     `min:"-5" max:"5" step:"0.1"`
	Rotation vec     `min:"0" max:"2pi" step:"0.01"`
	Scale    vec     `panel:"Size" min:"0.1" max:"2" step:"0.1"`
	Ignored  float64 `panel:"-" min:"0" max:"1"`
	Untagged float64
}

type taggedMaterial struct {
	Wireframe bool    `panel:"Wireframe"`
	Roughness float64 `min:"0" max:"1" step:"0.01"`
	Flat      bool
	Map       slot
	Transform taggedTransform `panel:"Mesh"`
}

func TestBindStruct(t *testing.T) {
	reg := NewRegistry()
	m := &taggedMaterial{Roughness: 0.5, Transform: taggedTransform{Scale: vec{1, 1, 1}}}
	require.NoError(t, BindStruct(reg.Root(), m))

	var paths []string
	for _, c := range reg.Controls() {
		paths = append(paths, c.Path())
	}
	assert.Equal(t, []string{
		"Wireframe", "Roughness",
		"Mesh/Position/X", "Mesh/Position/Y", "Mesh/Position/Z",
		"Mesh/Rotation/X", "Mesh/Rotation/Y", "Mesh/Rotation/Z",
		"Mesh/Size/X", "Mesh/Size/Y", "Mesh/Size/Z",
	}, paths)

	require.NoError(t, reg.Find("Mesh/Position/Y").Set(9))
	assert.Equal(t, 5., m.Transform.Position.Y, "nested fields inherit the parent range")
	require.NoError(t, reg.Find("Mesh/Rotation/Z").Set(10))
	assert.InDelta(t, 2*math.Pi, m.Transform.Rotation.Z, 1e-12)
	require.NoError(t, reg.Find("Mesh/Size/X").Set(0))
	assert.Equal(t, 0.1, m.Transform.Scale.X)
	require.NoError(t, reg.Find("Wireframe").Set(true))
	assert.True(t, m.Wireframe)
	_, _, step := reg.Find("Roughness").Range()
	assert.Equal(t, 0.01, step)
}

func TestBindStructErrors(t *testing.T) {
	assert.ErrorIs(t, BindStruct(NewRegistry().Root(), taggedMaterial{}), ErrTarget)

	type bad struct {
		Name string `min:"0" max:"1"`
	}
	assert.ErrorIs(t, BindStruct(NewRegistry().Root(), &bad{}), ErrFieldType)

	type badTag struct {
		V float64 `min:"zero" max:"1"`
	}
	assert.ErrorIs(t, BindStruct(NewRegistry().Root(), &badTag{}), ErrDomain)
}

func TestTagFloat(t *testing.T) {
	for tag, want := range map[string]float64{
		`max:"2pi"`:  2 * math.Pi,
		`max:"pi"`:   math.Pi,
		`max:"-pi"`:  -math.Pi,
		`max:"0.5"`:  0.5,
		`other:"1"`:  0,
		`max:"1e-2"`: 0.01,
	} {
		got, err := tagFloat(reflect.StructTag(tag), "max")
		require.NoError(t, err, tag)
		assert.InDelta(t, want, got, 1e-12, tag)
	}
}
