package arbor

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Plane ---

// NewPlaneGeometry creates a grid of cols x rows cells in the XY plane,
// centered on the origin and facing +Z.
func NewPlaneGeometry(width, height float32, cols, rows int) *Geometry {
	cols = max(cols, 1)
	rows = max(rows, 1)
	vcols := cols + 1
	vrows := rows + 1

	positions := make([]float32, 0, vcols*vrows*3)
	normals := make([]float32, 0, vcols*vrows*3)
	uvs := make([]float32, 0, vcols*vrows*2)
	cellW := width / float32(cols)
	cellH := height / float32(rows)
	for r := 0; r < vrows; r++ {
		for c := 0; c < vcols; c++ {
			x := -width/2 + float32(c)*cellW
			y := height/2 - float32(r)*cellH
			positions = append(positions, x, y, 0)
			normals = append(normals, 0, 0, 1)
			uvs = append(uvs, float32(c)/float32(cols), 1-float32(r)/float32(rows))
		}
	}

	indices := make([]uint32, 0, cols*rows*6)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tl := uint32(r*vcols + c)
			tr := tl + 1
			bl := uint32((r+1)*vcols + c)
			br := bl + 1
			indices = append(indices, tl, bl, tr, tr, bl, br)
		}
	}

	return NewGeometry("plane").
		SetAttribute(AttributePosition, NewAttribute(positions, 3)).
		SetAttribute(AttributeNormal, NewAttribute(normals, 3)).
		SetAttribute(AttributeUV, NewAttribute(uvs, 2)).
		SetIndex(indices)
}

// --- Box ---

// boxFaces lists each face's normal and in-plane axes, with u x v = normal so
// faces wind counter-clockwise seen from outside. Order: +X, -X, +Y, -Y, +Z, -Z.
var boxFaces = [6]struct{ n, u, v mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// NewBoxGeometry creates an axis-aligned box centered on the origin. Each face
// is a group whose material index is the face index, so a mesh given six
// materials shades each face separately.
func NewBoxGeometry(width, height, depth float32) *Geometry {
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}
	positions := make([]float32, 0, 6*4*3)
	normals := make([]float32, 0, 6*4*3)
	uvs := make([]float32, 0, 6*4*2)
	indices := make([]uint32, 0, 6*6)

	g := NewGeometry("box")
	for f, face := range boxFaces {
		center := mgl32.Vec3{face.n[0] * half[0], face.n[1] * half[1], face.n[2] * half[2]}
		su := absVec(face.u).Dot(half)
		sv := absVec(face.v).Dot(half)
		base := uint32(len(positions) / 3)
		// tl, tr, bl, br
		for _, corner := range [4][2]float32{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}} {
			p := center.Add(face.u.Mul(corner[0] * su)).Add(face.v.Mul(corner[1] * sv))
			positions = append(positions, p[0], p[1], p[2])
			normals = append(normals, face.n[0], face.n[1], face.n[2])
			uvs = append(uvs, (corner[0]+1)/2, (corner[1]+1)/2)
		}
		indices = append(indices, base, base+2, base+1, base+1, base+2, base+3)
		g.AddGroup(f*6, 6, f)
	}

	return g.
		SetAttribute(AttributePosition, NewAttribute(positions, 3)).
		SetAttribute(AttributeNormal, NewAttribute(normals, 3)).
		SetAttribute(AttributeUV, NewAttribute(uvs, 2)).
		SetIndex(indices)
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Abs(v[0]), math32.Abs(v[1]), math32.Abs(v[2])}
}

// --- Sphere ---

// NewSphereGeometry creates a latitude/longitude sphere centered on the
// origin.
func NewSphereGeometry(radius float32, widthSegments, heightSegments int) *Geometry {
	ws := max(widthSegments, 3)
	hs := max(heightSegments, 2)

	positions := make([]float32, 0, (ws+1)*(hs+1)*3)
	normals := make([]float32, 0, (ws+1)*(hs+1)*3)
	uvs := make([]float32, 0, (ws+1)*(hs+1)*2)
	for iy := 0; iy <= hs; iy++ {
		v := float32(iy) / float32(hs)
		for ix := 0; ix <= ws; ix++ {
			u := float32(ix) / float32(ws)
			n := mgl32.Vec3{
				-math32.Cos(u*2*math32.Pi) * math32.Sin(v*math32.Pi),
				math32.Cos(v * math32.Pi),
				math32.Sin(u*2*math32.Pi) * math32.Sin(v*math32.Pi),
			}
			p := n.Mul(radius)
			positions = append(positions, p[0], p[1], p[2])
			normals = append(normals, n[0], n[1], n[2])
			uvs = append(uvs, u, 1-v)
		}
	}

	indices := make([]uint32, 0, ws*hs*6)
	row := uint32(ws + 1)
	for iy := 0; iy < hs; iy++ {
		for ix := 0; ix < ws; ix++ {
			a := uint32(iy)*row + uint32(ix) + 1
			b := uint32(iy)*row + uint32(ix)
			c := uint32(iy+1)*row + uint32(ix)
			d := uint32(iy+1)*row + uint32(ix) + 1
			if iy != 0 {
				indices = append(indices, a, b, d)
			}
			if iy != hs-1 {
				indices = append(indices, b, c, d)
			}
		}
	}

	return NewGeometry("sphere").
		SetAttribute(AttributePosition, NewAttribute(positions, 3)).
		SetAttribute(AttributeNormal, NewAttribute(normals, 3)).
		SetAttribute(AttributeUV, NewAttribute(uvs, 2)).
		SetIndex(indices)
}
