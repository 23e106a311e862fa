package ui

import (
	"fmt"
	"log"

	"github.com/Yeicor/scene-ui/internal/config"
	"github.com/Yeicor/scene-ui/internal/panel"
	"github.com/Yeicor/scene-ui/internal/scene"
)

// buildPanel registers the debug panel controls over the assembled scene:
//
//	Lights/<light>/...       intensity, position (and distance/decay for point lights)
//	Lights/<helper>          helper visibility toggles
//	Material/...             wireframe, roughness, metalness, reflectivity, displacementScale
//	Maps/<slot>              None or one of the textures declared for the slot
//	Mesh/...                 rotation, position, scale
//	Environment/background   only if there is an environment map
//
// With several meshes, the last three groups are nested under a group per mesh.
func (s *Session) buildPanel() (*panel.Registry, error) {
	reg := panel.NewRegistry()
	root := reg.Root()

	lights := root.Group("Lights")
	for _, l := range s.scene.Lights() {
		if err := panel.BindStruct(lights.Group(l.Name()), l); err != nil {
			return nil, fmt.Errorf("light %q: %w", l.Name(), err)
		}
	}
	for _, h := range s.scene.Helpers() {
		c, err := panel.BindBoolean(lights, h, "Visible")
		if err != nil {
			return nil, err
		}
		c.Name(h.Label)
	}

	meshes := s.scene.Meshes()
	for _, m := range meshes {
		g := root
		if len(meshes) > 1 {
			g = root.Group(m.Label)
		}
		if err := s.bindMesh(g, m); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", m.Label, err)
		}
	}

	if s.cfg.Environment.Path != "" {
		c, err := panel.BindBoolean(root.Group("Environment"), s.scene, "Background")
		if err != nil {
			return nil, err
		}
		c.Name("background")
	}

	for _, c := range reg.Controls() {
		c.OnChange(func(_ any) {
			s.lastEdit = c.Path() + " = " + c.String()
		})
	}
	log.Println("[Session] Panel ready with", len(reg.Controls()), "controls")
	return reg, nil
}

func (s *Session) bindMesh(g *panel.Group, m *scene.Mesh) error {
	if err := panel.BindStruct(g.Group("Material"), m.Material); err != nil {
		return err
	}
	maps := g.Group("Maps")
	for _, slot := range []struct {
		name, field string
	}{
		{config.SlotMap, "Map"},
		{config.SlotNormalMap, "NormalMap"},
		{config.SlotRoughnessMap, "RoughnessMap"},
		{config.SlotDisplacementMap, "DisplacementMap"},
	} {
		declared := s.cfg.TexturesFor(slot.name)
		if len(declared) == 0 {
			continue
		}
		choices := []panel.Choice[scene.TextureSlot]{{Label: "None", Value: scene.NoTexture()}}
		for _, t := range declared {
			choices = append(choices, panel.Choice[scene.TextureSlot]{Label: t.Name, Value: scene.Named(s.textures[t.Name])})
		}
		if _, err := panel.BindChoice(maps, m.Material, slot.field, choices...); err != nil {
			return err
		}
	}
	meshGroup := g.Group("Mesh")
	if err := panel.BindStruct(meshGroup, &m.Transform); err != nil {
		return err
	}
	_, err := panel.BindBoolean(meshGroup, m, "Visible")
	return err
}
