package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ReadModel loads a triangle mesh (.glb/.gltf, .obj, .stl or .ply). With fit, the mesh is scaled and centered
// to fill the -1..1 cube.
func ReadModel(path string, fit bool) (*fauxgl.Mesh, error) {
	var mesh *fauxgl.Mesh
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		mesh, err = readGLTF(path)
	case ".obj":
		mesh, err = fauxgl.LoadOBJ(path)
	case ".stl":
		mesh, err = fauxgl.LoadSTL(path)
	case ".ply":
		mesh, err = fauxgl.LoadPLY(path)
	default:
		return nil, fmt.Errorf("%w: model %q", ErrFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("model %s has no triangles", path)
	}
	if fit {
		mesh.BiUnitCube()
	}
	return mesh, nil
}

func readGLTF(path string) (*fauxgl.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default: // No scenes: every node without a parent is a root
		isChild := map[int]bool{}
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				isChild[c] = true
			}
		}
		for i := range doc.Nodes {
			if !isChild[i] {
				roots = append(roots, i)
			}
		}
	}
	var triangles []*fauxgl.Triangle
	var walk func(i int, parent fauxgl.Matrix, depth int) error
	walk = func(i int, parent fauxgl.Matrix, depth int) error {
		if i < 0 || i >= len(doc.Nodes) || depth > 64 {
			return fmt.Errorf("gltf: bad node hierarchy at node %d", i)
		}
		n := doc.Nodes[i]
		world := parent.Mul(nodeMatrix(n))
		if n.Mesh != nil && *n.Mesh < len(doc.Meshes) {
			tris, err := gltfTriangles(doc, doc.Meshes[*n.Mesh], world)
			if err != nil {
				return err
			}
			triangles = append(triangles, tris...)
		}
		for _, c := range n.Children {
			if err := walk(c, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := walk(r, fauxgl.Identity(), 0); err != nil {
			return nil, err
		}
	}
	return fauxgl.NewTriangleMesh(triangles), nil
}

func gltfTriangles(doc *gltf.Document, mesh *gltf.Mesh, world fauxgl.Matrix) ([]*fauxgl.Triangle, error) {
	var res []*fauxgl.Triangle
	for _, p := range mesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue // Points and lines are not rendered
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("gltf %s positions: %w", mesh.Name, err)
		}
		var normals [][3]float32
		if i, ok := p.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[i], nil); err != nil {
				return nil, fmt.Errorf("gltf %s normals: %w", mesh.Name, err)
			}
		}
		var uvs [][2]float32
		if i, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[i], nil); err != nil {
				return nil, fmt.Errorf("gltf %s uvs: %w", mesh.Name, err)
			}
		}
		var indices []uint32
		if p.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil); err != nil {
				return nil, fmt.Errorf("gltf %s indices: %w", mesh.Name, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		vertex := func(i uint32) fauxgl.Vertex {
			v := fauxgl.Vertex{Color: fauxgl.White}
			if int(i) >= len(positions) {
				return v
			}
			p := positions[i]
			v.Position = world.MulPosition(fauxgl.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])})
			if int(i) < len(normals) {
				n := normals[i]
				v.Normal = world.MulDirection(fauxgl.Vector{X: float64(n[0]), Y: float64(n[1]), Z: float64(n[2])})
			}
			if int(i) < len(uvs) { // glTF puts the texture origin at the top left
				v.Texture = fauxgl.Vector{X: float64(uvs[i][0]), Y: 1 - float64(uvs[i][1])}
			}
			return v
		}
		for i := 0; i+2 < len(indices); i += 3 {
			t := &fauxgl.Triangle{V1: vertex(indices[i]), V2: vertex(indices[i+1]), V3: vertex(indices[i+2])}
			if normals == nil {
				faceNormals(t)
			}
			res = append(res, t)
		}
	}
	return res, nil
}

// faceNormals sets the flat normal of the triangle on its three vertices.
func faceNormals(t *fauxgl.Triangle) {
	n := t.V2.Position.Sub(t.V1.Position).Cross(t.V3.Position.Sub(t.V1.Position))
	if n.Length() > 0 {
		n = n.Normalize()
	}
	t.V1.Normal, t.V2.Normal, t.V3.Normal = n, n, n
}

// nodeMatrix is the local transform of a glTF node: either its matrix or translation * rotation * scale.
func nodeMatrix(n *gltf.Node) fauxgl.Matrix {
	if m := n.Matrix; m != [16]float64{} && m != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} {
		// Column major
		return fauxgl.Matrix{
			X00: m[0], X01: m[4], X02: m[8], X03: m[12],
			X10: m[1], X11: m[5], X12: m[9], X13: m[13],
			X20: m[2], X21: m[6], X22: m[10], X23: m[14],
			X30: m[3], X31: m[7], X32: m[11], X33: m[15],
		}
	}
	s := n.Scale
	if s == [3]float64{} {
		s = [3]float64{1, 1, 1}
	}
	q := n.Rotation
	if q == [4]float64{} {
		q = [4]float64{0, 0, 0, 1}
	}
	t := n.Translation
	return fauxgl.Translate(fauxgl.Vector{X: t[0], Y: t[1], Z: t[2]}).
		Mul(quaternionMatrix(q)).
		Mul(fauxgl.Scale(fauxgl.Vector{X: s[0], Y: s[1], Z: s[2]}))
}

func quaternionMatrix(q [4]float64) fauxgl.Matrix {
	x, y, z, w := q[0], q[1], q[2], q[3]
	return fauxgl.Matrix{
		X00: 1 - 2*(y*y+z*z), X01: 2 * (x*y - z*w), X02: 2 * (x*z + y*w),
		X10: 2 * (x*y + z*w), X11: 1 - 2*(x*x+z*z), X12: 2 * (y*z - x*w),
		X20: 2 * (x*z - y*w), X21: 2 * (y*z + x*w), X22: 1 - 2*(x*x+y*y),
		X33: 1,
	}
}
