// Package panel is the live parameter registry behind the debug panel: a tree of named groups holding typed,
// range-constrained controls bound to fields of scene objects. Every edit writes through to the bound field
// immediately, with no intermediate state. It is independent of the drawing backend.
package panel

import (
	"strings"
)

// Registry is the root of a control tree.
type Registry struct {
	root *Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{root: &Group{}}
}

// Root is the unnamed top level group.
func (r *Registry) Root() *Group {
	return r.root
}

// Group is an ordered, named collection of controls and nested groups. Insertion order is display order.
type Group struct {
	name      string
	parent    *Group
	entries   []entry
	Collapsed bool // Only affects presentation (Rows)
}

type entry struct {
	group   *Group
	control *Control
}

// Group registers a new nested group. Names do not need to be unique: duplicates are all kept and shown.
func (g *Group) Group(name string) *Group {
	sub := &Group{name: name, parent: g}
	g.entries = append(g.entries, entry{group: sub})
	return sub
}

func (g *Group) add(c *Control) {
	c.group = g
	g.entries = append(g.entries, entry{control: c})
}

// Name returns the group name (empty for the root).
func (g *Group) Name() string {
	return g.name
}

// Path is the slash separated list of group names from the root.
func (g *Group) Path() string {
	if g.parent == nil {
		return ""
	}
	if p := g.parent.Path(); p != "" {
		return p + "/" + g.name
	}
	return g.name
}

// Groups returns the direct child groups in insertion order.
func (g *Group) Groups() []*Group {
	var res []*Group
	for _, e := range g.entries {
		if e.group != nil {
			res = append(res, e.group)
		}
	}
	return res
}

// Controls returns the direct child controls in insertion order.
func (g *Group) Controls() []*Control {
	var res []*Control
	for _, e := range g.entries {
		if e.control != nil {
			res = append(res, e.control)
		}
	}
	return res
}

// Revert restores every control below this group to its value at bind time.
func (g *Group) Revert() {
	for _, e := range g.entries {
		if e.group != nil {
			e.group.Revert()
		} else {
			e.control.Revert()
		}
	}
}

// Revert restores every control to its value at bind time.
func (r *Registry) Revert() {
	r.root.Revert()
}

// Controls lists every control of the tree in display order.
func (r *Registry) Controls() []*Control {
	var res []*Control
	var walk func(g *Group)
	walk = func(g *Group) {
		for _, e := range g.entries {
			if e.group != nil {
				walk(e.group)
			} else {
				res = append(res, e.control)
			}
		}
	}
	walk(r.root)
	return res
}

// Find resolves a "Group/Sub/Control" path. When names are duplicated, the last registered one wins.
func (r *Registry) Find(path string) *Control {
	parts := strings.Split(path, "/")
	g := r.root
	for _, name := range parts[:len(parts)-1] {
		var next *Group
		for _, sub := range g.Groups() {
			if sub.name == name {
				next = sub
			}
		}
		if next == nil {
			return nil
		}
		g = next
	}
	var res *Control
	for _, c := range g.Controls() {
		if c.label == parts[len(parts)-1] {
			res = c
		}
	}
	return res
}

// Row is one line of the flattened tree: either a group header or a control.
type Row struct {
	Depth   int
	Group   *Group
	Control *Control
}

// Rows flattens the tree in display order, hiding the children of collapsed groups.
func (r *Registry) Rows() []Row {
	var res []Row
	var walk func(g *Group, depth int)
	walk = func(g *Group, depth int) {
		for _, e := range g.entries {
			if e.group != nil {
				res = append(res, Row{Depth: depth, Group: e.group})
				if !e.group.Collapsed {
					walk(e.group, depth+1)
				}
			} else {
				res = append(res, Row{Depth: depth, Control: e.control})
			}
		}
	}
	walk(r.root, 0)
	return res
}
