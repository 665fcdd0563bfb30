package arbor

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Sphere ---

// Sphere is a bounding sphere. A negative radius marks an empty sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// Empty reports whether the sphere bounds nothing.
func (s Sphere) Empty() bool { return s.Radius < 0 }

// ApplyMatrix returns the sphere transformed by m. The radius is scaled by the
// largest axis scale of m, which over-estimates for non-uniform scale.
func (s Sphere) ApplyMatrix(m mgl32.Mat4) Sphere {
	c := m.Mul4x1(s.Center.Vec4(1)).Vec3()
	return Sphere{Center: c, Radius: s.Radius * maxScaleOnAxis(m)}
}

// ContainsPoint reports whether p lies inside or on the sphere.
func (s Sphere) ContainsPoint(p mgl32.Vec3) bool {
	return p.Sub(s.Center).LenSqr() <= s.Radius*s.Radius
}

// --- Box3 ---

// Box3 is an axis-aligned bounding box. Min > Max on any axis marks it empty.
type Box3 struct {
	Min, Max mgl32.Vec3
}

// EmptyBox returns a box that expands to fit the first point added.
func EmptyBox() Box3 {
	inf := math32.Inf(1)
	return Box3{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Empty reports whether b contains no points.
func (b Box3) Empty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint grows b to include p.
func (b *Box3) ExpandByPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Center returns the midpoint of b.
func (b Box3) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// ApplyMatrix returns the box enclosing b's eight corners transformed by m.
func (b Box3) ApplyMatrix(m mgl32.Mat4) Box3 {
	if b.Empty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out.ExpandByPoint(m.Mul4x1(corner.Vec4(1)).Vec3())
	}
	return out
}

// --- Plane ---

// Plane is the set of points p with Normal·p + Constant = 0. Distances are
// positive on the side the normal points to.
type Plane struct {
	Normal   mgl32.Vec3
	Constant float32
}

// DistanceToPoint returns the signed distance from p to the plane.
func (p Plane) DistanceToPoint(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.Constant
}

// ApplyMatrix returns the plane transformed by m.
func (p Plane) ApplyMatrix(m mgl32.Mat4) Plane {
	normalMatrix := invertOrIdentity(m, "Plane.ApplyMatrix").Transpose()
	point := m.Mul4x1(p.Normal.Mul(-p.Constant).Vec4(1)).Vec3()
	normal := normalMatrix.Mul4x1(p.Normal.Vec4(0)).Vec3().Normalize()
	return Plane{Normal: normal, Constant: -point.Dot(normal)}
}

func planeFromVec4(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), Constant: v[3] / l}
}

// --- Frustum ---

// Frustum holds six inward-facing planes: left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// SetFromProjectionMatrix extracts the planes of a projection-view matrix
// (Gribb/Hartmann).
func (f *Frustum) SetFromProjectionMatrix(m mgl32.Mat4) {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	f.Planes[0] = planeFromVec4(r3.Add(r0))
	f.Planes[1] = planeFromVec4(r3.Sub(r0))
	f.Planes[2] = planeFromVec4(r3.Add(r1))
	f.Planes[3] = planeFromVec4(r3.Sub(r1))
	f.Planes[4] = planeFromVec4(r3.Add(r2))
	f.Planes[5] = planeFromVec4(r3.Sub(r2))
}

// IntersectsSphere reports whether s is not entirely behind any plane.
// Spheres straddling a plane count as intersecting.
func (f *Frustum) IntersectsSphere(s Sphere) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// IntersectsBox reports whether b is not entirely behind any plane, testing
// the corner furthest along each plane normal.
func (f *Frustum) IntersectsBox(b Box3) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		var v mgl32.Vec3
		for a := 0; a < 3; a++ {
			if p.Normal[a] > 0 {
				v[a] = b.Max[a]
			} else {
				v[a] = b.Min[a]
			}
		}
		if p.DistanceToPoint(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether v lies inside all six planes.
func (f *Frustum) ContainsPoint(v mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(v) < 0 {
			return false
		}
	}
	return true
}

// --- Visibility ---

// VisibilityFunc decides whether a mesh node is drawn for a camera node.
// Hosts replace the default to add LOD or distance culling.
type VisibilityFunc func(object, camera *Node) bool

// CheckVisibility is the default VisibilityFunc. Nodes with Renderable false
// are never visible. Nodes or cameras with frustum culling disabled are always
// visible. Otherwise the geometry's bounding sphere, moved to world space, is
// tested against the camera frustum.
func CheckVisibility(object, camera *Node) bool {
	if !object.Renderable {
		return false
	}
	if !object.FrustumCulled || camera.Camera == nil || !camera.Camera.FrustumCulled {
		return true
	}
	if object.Mesh == nil || object.Mesh.Geometry == nil {
		return true
	}
	sphere := object.Mesh.Geometry.BoundingSphere()
	if sphere.Empty() {
		return true
	}
	return camera.Camera.frustum.IntersectsSphere(sphere.ApplyMatrix(object.worldMatrix))
}
