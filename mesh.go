package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is the payload of a NodeTypeMesh node. Geometry and materials are
// shared references; the mesh holds one reference on each.
type Mesh struct {
	Geometry  *Geometry
	Materials []*Material
	DrawMode  DrawMode

	// Skinning. Skeleton is nil for rigid meshes.
	Skeleton          *Skeleton
	BindMatrix        mgl32.Mat4
	BindMatrixInverse mgl32.Mat4

	MorphTargetInfluences []float32
}

// NewMesh creates a mesh node drawing geometry with one material per group.
// A single material is used for the whole geometry when it has no groups.
func NewMesh(name string, geometry *Geometry, materials ...*Material) *Node {
	n := &Node{Name: name, Type: NodeTypeMesh}
	nodeDefaults(n)
	n.Mesh = &Mesh{
		BindMatrix:        mgl32.Ident4(),
		BindMatrixInverse: mgl32.Ident4(),
	}
	n.Mesh.SetGeometry(geometry)
	n.Mesh.SetMaterials(materials...)
	return n
}

// NewSkinnedMesh creates a mesh node deformed by skeleton. The bind matrix is
// identity.
func NewSkinnedMesh(name string, geometry *Geometry, skeleton *Skeleton, materials ...*Material) *Node {
	n := NewMesh(name, geometry, materials...)
	n.Mesh.Skeleton = skeleton
	return n
}

// Material returns the first material, or nil.
func (m *Mesh) Material() *Material {
	if len(m.Materials) == 0 {
		return nil
	}
	return m.Materials[0]
}

// SetGeometry replaces the geometry, moving the holder reference.
func (m *Mesh) SetGeometry(g *Geometry) {
	if m.Geometry == g {
		return
	}
	if g != nil {
		Retain(g)
	}
	if m.Geometry != nil {
		Release(m.Geometry)
	}
	m.Geometry = g
}

// SetMaterials replaces the material list, moving the holder references.
func (m *Mesh) SetMaterials(materials ...*Material) {
	for _, mat := range materials {
		Retain(mat)
	}
	for _, mat := range m.Materials {
		Release(mat)
	}
	m.Materials = append(m.Materials[:0:0], materials...)
}

// Bind attaches a skeleton with the given bind matrix.
func (m *Mesh) Bind(skeleton *Skeleton, bindMatrix mgl32.Mat4) {
	m.Skeleton = skeleton
	m.BindMatrix = bindMatrix
	m.BindMatrixInverse = invertOrIdentity(bindMatrix, "Mesh.Bind")
}

func (m *Mesh) release() {
	m.SetGeometry(nil)
	m.SetMaterials()
	m.Skeleton = nil
}
