package arbor

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ErrNoPositionAttribute is returned when a geometry has no "position"
// attribute to compute bounds or draw from.
var ErrNoPositionAttribute = errors.New("arbor: geometry has no position attribute")

// Common attribute names.
const (
	AttributePosition   = "position"
	AttributeNormal     = "normal"
	AttributeUV         = "uv"
	AttributeColor      = "color"
	AttributeSkinIndex  = "skinIndex"
	AttributeSkinWeight = "skinWeight"
)

var geometryIDCounter uint32

// Attribute is a flat float buffer with ItemSize components per vertex.
type Attribute struct {
	Data     []float32
	ItemSize int
}

// NewAttribute wraps data as an attribute of itemSize components.
func NewAttribute(data []float32, itemSize int) *Attribute {
	return &Attribute{Data: data, ItemSize: itemSize}
}

// Count returns the number of vertices in the attribute.
func (a *Attribute) Count() int {
	if a == nil || a.ItemSize <= 0 {
		return 0
	}
	return len(a.Data) / a.ItemSize
}

// Vec3 returns the first three components of vertex i.
func (a *Attribute) Vec3(i int) mgl32.Vec3 {
	o := i * a.ItemSize
	var v mgl32.Vec3
	for c := 0; c < 3 && c < a.ItemSize; c++ {
		v[c] = a.Data[o+c]
	}
	return v
}

// Group is a sub-range of a geometry drawn with one material of a
// multi-material mesh.
type Group struct {
	Start         int
	Count         int
	MaterialIndex int
}

// DrawRange limits the vertices (or indices) drawn. Count < 0 means all.
type DrawRange struct {
	Start int
	Count int
}

// Geometry holds vertex attributes keyed by semantic name, an optional index
// buffer, groups and morph targets. Geometries may be shared by many meshes;
// lifetime is managed through Resources.
type Geometry struct {
	ID   uint32
	UUID uuid.UUID
	Name string

	attributes           map[string]*Attribute
	Index                []uint32
	Groups               []Group
	DrawRange            DrawRange
	MorphAttributes      map[string][]*Attribute
	MorphTargetsRelative bool

	boundingSphere *Sphere
	boundingBox    *Box3

	handle *handle
}

// NewGeometry creates an empty geometry.
func NewGeometry(name string) *Geometry {
	geometryIDCounter++
	return &Geometry{
		ID:         geometryIDCounter,
		UUID:       uuid.New(),
		Name:       name,
		attributes: make(map[string]*Attribute),
		DrawRange:  DrawRange{Count: -1},
	}
}

func (g *Geometry) resourceHandle() *handle {
	if g.handle == nil {
		g.handle = newHandle(g.Name, func() {
			g.attributes = map[string]*Attribute{}
			g.MorphAttributes = nil
			g.Index = nil
			g.boundingSphere = nil
			g.boundingBox = nil
		})
	}
	return g.handle
}

// SetAttribute stores attr under name and invalidates cached bounds when the
// positions change.
func (g *Geometry) SetAttribute(name string, attr *Attribute) *Geometry {
	g.attributes[name] = attr
	if name == AttributePosition {
		g.boundingSphere = nil
		g.boundingBox = nil
	}
	return g
}

// Attribute returns the attribute stored under name, or nil.
func (g *Geometry) Attribute(name string) *Attribute {
	return g.attributes[name]
}

// DeleteAttribute removes the named attribute.
func (g *Geometry) DeleteAttribute(name string) {
	delete(g.attributes, name)
	if name == AttributePosition {
		g.boundingSphere = nil
		g.boundingBox = nil
	}
}

// SetIndex sets the index buffer.
func (g *Geometry) SetIndex(index []uint32) *Geometry {
	g.Index = index
	return g
}

// AddGroup appends a material group.
func (g *Geometry) AddGroup(start, count, materialIndex int) {
	g.Groups = append(g.Groups, Group{Start: start, Count: count, MaterialIndex: materialIndex})
}

// ClearGroups removes all material groups.
func (g *Geometry) ClearGroups() {
	g.Groups = g.Groups[:0]
}

// SetDrawRange limits drawing to count elements starting at start.
func (g *Geometry) SetDrawRange(start, count int) {
	g.DrawRange = DrawRange{Start: start, Count: count}
}

// ComputeBoundingBox recomputes the local-space box from the position
// attribute and morph targets.
func (g *Geometry) ComputeBoundingBox() error {
	pos := g.attributes[AttributePosition]
	if pos == nil {
		b := EmptyBox()
		g.boundingBox = &b
		return fmt.Errorf("compute bounding box of %q: %w", g.Name, ErrNoPositionAttribute)
	}
	box := EmptyBox()
	for i := 0; i < pos.Count(); i++ {
		box.ExpandByPoint(pos.Vec3(i))
	}
	for _, morph := range g.MorphAttributes[AttributePosition] {
		for i := 0; i < morph.Count(); i++ {
			p := morph.Vec3(i)
			if g.MorphTargetsRelative && i < pos.Count() {
				p = p.Add(pos.Vec3(i))
			}
			box.ExpandByPoint(p)
		}
	}
	g.boundingBox = &box
	return nil
}

// ComputeBoundingSphere recomputes the local-space sphere. The center is the
// box center; the radius is the furthest position from it.
func (g *Geometry) ComputeBoundingSphere() error {
	pos := g.attributes[AttributePosition]
	if pos == nil {
		g.boundingSphere = &Sphere{Radius: -1}
		return fmt.Errorf("compute bounding sphere of %q: %w", g.Name, ErrNoPositionAttribute)
	}
	if g.boundingBox == nil {
		if err := g.ComputeBoundingBox(); err != nil {
			return err
		}
	}
	if g.boundingBox.Empty() {
		g.boundingSphere = &Sphere{Radius: -1}
		return nil
	}
	center := g.boundingBox.Center()
	var maxSq float32
	for i := 0; i < pos.Count(); i++ {
		maxSq = max(maxSq, pos.Vec3(i).Sub(center).LenSqr())
	}
	for _, morph := range g.MorphAttributes[AttributePosition] {
		for i := 0; i < morph.Count(); i++ {
			p := morph.Vec3(i)
			if g.MorphTargetsRelative && i < pos.Count() {
				p = p.Add(pos.Vec3(i))
			}
			maxSq = max(maxSq, p.Sub(center).LenSqr())
		}
	}
	g.boundingSphere = &Sphere{Center: center, Radius: math32.Sqrt(maxSq)}
	return nil
}

// BoundingSphere returns the local-space bounding sphere, computing it on
// first use. A geometry without positions yields an empty sphere.
func (g *Geometry) BoundingSphere() Sphere {
	if g.boundingSphere == nil {
		if err := g.ComputeBoundingSphere(); err != nil {
			Logger().Warn("arbor: bounding sphere unavailable", "geometry", g.Name, "err", err)
		}
	}
	return *g.boundingSphere
}

// BoundingBox returns the local-space bounding box, computing it on first use.
func (g *Geometry) BoundingBox() Box3 {
	if g.boundingBox == nil {
		if err := g.ComputeBoundingBox(); err != nil {
			Logger().Warn("arbor: bounding box unavailable", "geometry", g.Name, "err", err)
		}
	}
	return *g.boundingBox
}

// ElementCount returns the number of indices, or vertices when not indexed.
func (g *Geometry) ElementCount() int {
	if g.Index != nil {
		return len(g.Index)
	}
	return g.attributes[AttributePosition].Count()
}

// drawSpan returns the element range to draw for group, clamped by DrawRange.
func (g *Geometry) drawSpan(group *Group) (start, count int) {
	total := g.ElementCount()
	start, end := 0, total
	if group != nil {
		start = group.Start
		end = group.Start + group.Count
	}
	rs := g.DrawRange.Start
	re := total
	if g.DrawRange.Count >= 0 {
		re = rs + g.DrawRange.Count
	}
	start = max(start, rs)
	end = min(end, re, total)
	if end < start {
		return start, 0
	}
	return start, end - start
}
