package scene

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"
)

// Transform is the local placement of a mesh. Rotation holds XYZ Euler angles in radians.
type Transform struct {
	Rotation fauxgl.Vector `panel:"rotation" min:"0" max:"2pi" step:"0.01"`
	Position fauxgl.Vector `panel:"position" min:"-5" max:"5" step:"0.1"`
	Scale    fauxgl.Vector `panel:"scale" min:"0.1" max:"2" step:"0.1"`
}

// IdentityTransform leaves the geometry untouched.
func IdentityTransform() Transform {
	return Transform{Scale: fauxgl.Vector{X: 1, Y: 1, Z: 1}}
}

// Matrix returns T * Rx * Ry * Rz * S.
func (t Transform) Matrix() fauxgl.Matrix {
	return fauxgl.Identity().
		Scale(t.Scale).
		Rotate(fauxgl.Vector{Z: 1}, t.Rotation.Z).
		Rotate(fauxgl.Vector{Y: 1}, t.Rotation.Y).
		Rotate(fauxgl.Vector{X: 1}, t.Rotation.X).
		Translate(t.Position)
}

// Mesh is a renderable node: geometry in local space, a material and a transform.
type Mesh struct {
	Label     string
	Geometry  *fauxgl.Mesh
	Material  *Material
	Transform Transform
	Visible   bool
}

func (m *Mesh) Name() string { return m.Label }

// NewMesh creates a visible mesh node with an identity transform.
func NewMesh(label string, geometry *fauxgl.Mesh, material *Material) *Mesh {
	if material == nil {
		material = NewMaterial()
	}
	return &Mesh{Label: label, Geometry: geometry, Material: material, Transform: IdentityTransform(), Visible: true}
}

//-----------------------------------------------------------------------------
// GEOMETRY BUILDERS
//-----------------------------------------------------------------------------

// boxFaces lists (normal, right, up) for each face, with right x up == normal so triangles wind counter-clockwise.
var boxFaces = [6][3]fauxgl.Vector{
	{{X: 1}, {Z: -1}, {Y: 1}},
	{{X: -1}, {Z: 1}, {Y: 1}},
	{{Y: 1}, {X: 1}, {Z: -1}},
	{{Y: -1}, {X: 1}, {Z: 1}},
	{{Z: 1}, {X: 1}, {Y: 1}},
	{{Z: -1}, {X: -1}, {Y: 1}},
}

// NewBox builds an axis aligned box centered at the origin, with 0..1 UVs on every face.
// segments subdivides every face in a grid (useful for displacement maps).
func NewBox(size fauxgl.Vector, segments int) (*fauxgl.Mesh, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %v", size)
	}
	if segments < 1 {
		segments = 1
	}
	extent := func(axis fauxgl.Vector) float64 {
		return math.Abs(axis.X)*size.X + math.Abs(axis.Y)*size.Y + math.Abs(axis.Z)*size.Z
	}
	var triangles []*fauxgl.Triangle
	for _, face := range boxFaces {
		normal, right, up := face[0], face[1], face[2]
		center := normal.MulScalar(extent(normal) / 2)
		wr, wu := extent(right), extent(up)
		vertex := func(ix, iy int) fauxgl.Vertex {
			u := float64(ix) / float64(segments)
			v := float64(iy) / float64(segments)
			pos := center.Add(right.MulScalar((u - 0.5) * wr)).Add(up.MulScalar((v - 0.5) * wu))
			return fauxgl.Vertex{Position: pos, Normal: normal, Texture: fauxgl.Vector{X: u, Y: v}, Color: fauxgl.White}
		}
		for iy := 0; iy < segments; iy++ {
			for ix := 0; ix < segments; ix++ {
				a, b := vertex(ix, iy), vertex(ix+1, iy)
				c, d := vertex(ix+1, iy+1), vertex(ix, iy+1)
				triangles = append(triangles,
					&fauxgl.Triangle{V1: a, V2: b, V3: c},
					&fauxgl.Triangle{V1: a, V2: c, V3: d})
			}
		}
	}
	return fauxgl.NewTriangleMesh(triangles), nil
}

// NewRoundedBox meshes a box with rounded edges from its signed distance function (marching cubes).
// UVs are box projected along the dominant normal axis of each triangle.
func NewRoundedBox(size fauxgl.Vector, round float64, cells int) (*fauxgl.Mesh, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %v", size)
	}
	if round < 0 || 2*round > math.Min(size.X, math.Min(size.Y, size.Z)) {
		return nil, fmt.Errorf("box round %v must be in [0, half the smallest side]", round)
	}
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, round)
	if err != nil {
		return nil, err
	}
	if cells <= 0 {
		cells = 64
	}
	var triangles []*fauxgl.Triangle
	triChan := make(chan []*render.Triangle3)
	go func() {
		render.NewMarchingCubesUniform(cells).Render(s, triChan)
		close(triChan)
	}()
	for tris := range triChan {
		for _, tri := range tris {
			triangles = append(triangles, convertTriangle(tri, size))
		}
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("rounded box %v produced no triangles", size)
	}
	mesh := fauxgl.NewTriangleMesh(triangles)
	mesh.SmoothNormalsThreshold(math.Pi / 6)
	return mesh, nil
}

func convertTriangle(tri *render.Triangle3, size fauxgl.Vector) *fauxgl.Triangle {
	normal := toVector(tri.Normal())
	res := &fauxgl.Triangle{}
	for i, v := range []*fauxgl.Vertex{&res.V1, &res.V2, &res.V3} {
		pos := toVector(tri.V[i])
		*v = fauxgl.Vertex{Position: pos, Normal: normal, Texture: boxProject(pos, normal, size), Color: fauxgl.White}
	}
	return res
}

func boxProject(p, n, size fauxgl.Vector) fauxgl.Vector {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ax >= ay && ax >= az:
		return fauxgl.Vector{X: p.Z/size.Z + 0.5, Y: p.Y/size.Y + 0.5}
	case ay >= az:
		return fauxgl.Vector{X: p.X/size.X + 0.5, Y: p.Z/size.Z + 0.5}
	default:
		return fauxgl.Vector{X: p.X/size.X + 0.5, Y: p.Y/size.Y + 0.5}
	}
}

func toVector(v v3.Vec) fauxgl.Vector {
	return fauxgl.Vector{X: v.X, Y: v.Y, Z: v.Z}
}
