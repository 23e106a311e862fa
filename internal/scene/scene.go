// Package scene holds the live scene graph: lights, meshes, the environment slot and the camera.
// Everything here is mutated from the host goroutine only (panel edits, resize events and asset attachment)
// and read by the rasterizer on the same goroutine, so no value is locked.
package scene

import (
	"errors"
	"fmt"

	"github.com/fogleman/fauxgl"
)

// ErrMapping is returned when a texture that is not tagged for equirectangular reflection is used as environment.
var ErrMapping = errors.New("scene: environment texture must use equirectangular reflection mapping")

// Node is any entity that lives in the scene graph. Nodes are identified by reference.
type Node interface {
	Name() string
}

// Scene is the ordered set of nodes drawn every frame.
type Scene struct {
	nodes       []Node
	environment *Texture
	// Background paints the environment behind the meshes (otherwise BackgroundColor is used)
	Background      bool
	BackgroundColor fauxgl.Color
}

// New creates an empty scene with a black background.
func New() *Scene {
	return &Scene{BackgroundColor: fauxgl.Black}
}

// Add appends the given nodes, keeping insertion order.
func (s *Scene) Add(nodes ...Node) {
	s.nodes = append(s.nodes, nodes...)
}

// Replace swaps old for repl in place, returning false if old is not part of the scene.
func (s *Scene) Replace(old, repl Node) bool {
	for i, n := range s.nodes {
		if n == old {
			s.nodes[i] = repl
			return true
		}
	}
	return false
}

// Nodes returns the nodes in insertion order. The slice must not be modified.
func (s *Scene) Nodes() []Node {
	return s.nodes
}

// Find returns the last node registered with the given name.
func (s *Scene) Find(name string) Node {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		if s.nodes[i].Name() == name {
			return s.nodes[i]
		}
	}
	return nil
}

// Meshes returns the mesh nodes in insertion order.
func (s *Scene) Meshes() []*Mesh {
	var res []*Mesh
	for _, n := range s.nodes {
		if m, ok := n.(*Mesh); ok {
			res = append(res, m)
		}
	}
	return res
}

// Lights returns the light nodes in insertion order.
func (s *Scene) Lights() []Light {
	var res []Light
	for _, n := range s.nodes {
		if l, ok := n.(Light); ok {
			res = append(res, l)
		}
	}
	return res
}

// Helpers returns the light helper nodes in insertion order.
func (s *Scene) Helpers() []*LightHelper {
	var res []*LightHelper
	for _, n := range s.nodes {
		if h, ok := n.(*LightHelper); ok {
			res = append(res, h)
		}
	}
	return res
}

// SetEnvironment assigns the environment slot. The texture must be tagged with MappingEquirectangularReflection.
func (s *Scene) SetEnvironment(t *Texture) error {
	if t == nil {
		return fmt.Errorf("%w: nil texture", ErrMapping)
	}
	if t.Mapping != MappingEquirectangularReflection {
		return fmt.Errorf("%w: %q uses %s", ErrMapping, t.Name, t.Mapping)
	}
	s.environment = t
	return nil
}

// Environment returns the current environment map (nil if none was attached yet).
func (s *Scene) Environment() *Texture {
	return s.environment
}
