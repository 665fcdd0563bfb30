package arbor

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingSphereOfBox(t *testing.T) {
	g := NewBoxGeometry(2, 2, 2)
	s := g.BoundingSphere()
	assert.InDelta(t, 0, s.Center.Len(), 1e-5)
	assert.InDelta(t, math32.Sqrt(3), s.Radius, 1e-5)
}

func TestBoundingBoxOffCenter(t *testing.T) {
	g := NewGeometry("tri").SetAttribute(AttributePosition, NewAttribute([]float32{
		1, 1, 1,
		3, 1, 1,
		1, 5, 1,
	}, 3))
	b := g.BoundingBox()
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, b.Min)
	assert.Equal(t, mgl32.Vec3{3, 5, 1}, b.Max)
	assert.Equal(t, mgl32.Vec3{2, 3, 1}, g.BoundingSphere().Center)
}

func TestBoundingSphereWithoutPositions(t *testing.T) {
	g := NewGeometry("empty")
	err := g.ComputeBoundingSphere()
	require.ErrorIs(t, err, ErrNoPositionAttribute)
	assert.True(t, g.BoundingSphere().Empty())
}

func TestBoundingSphereIncludesMorphTargets(t *testing.T) {
	g := NewGeometry("morph").SetAttribute(AttributePosition, NewAttribute([]float32{
		-1, 0, 0,
		1, 0, 0,
	}, 3))
	g.MorphAttributes = map[string][]*Attribute{
		AttributePosition: {NewAttribute([]float32{0, 0, 0, 4, 0, 0}, 3)},
	}
	g.MorphTargetsRelative = true
	require.NoError(t, g.ComputeBoundingBox())
	assert.Equal(t, float32(5), g.BoundingBox().Max[0])
}

func TestSetAttributeInvalidatesBounds(t *testing.T) {
	g := NewBoxGeometry(2, 2, 2)
	before := g.BoundingSphere().Radius
	g.SetAttribute(AttributePosition, NewAttribute([]float32{0, 0, 0, 10, 0, 0}, 3))
	after := g.BoundingSphere().Radius
	assert.NotEqual(t, before, after)
	assert.InDelta(t, 5, after, 1e-5)
}

func TestElementCount(t *testing.T) {
	assert.Equal(t, 36, NewBoxGeometry(1, 1, 1).ElementCount())

	g := NewGeometry("points").SetAttribute(AttributePosition, NewAttribute(make([]float32, 12), 3))
	assert.Equal(t, 4, g.ElementCount())
	assert.Equal(t, 0, NewGeometry("none").ElementCount())
}

func TestDrawSpanClampsToDrawRange(t *testing.T) {
	g := NewBoxGeometry(1, 1, 1)

	start, count := g.drawSpan(nil)
	assert.Equal(t, 0, start)
	assert.Equal(t, 36, count)

	g.SetDrawRange(3, 9)
	start, count = g.drawSpan(nil)
	assert.Equal(t, 3, start)
	assert.Equal(t, 9, count)

	// Group 1 spans [6,12); the range ends at 12.
	start, count = g.drawSpan(&g.Groups[1])
	assert.Equal(t, 6, start)
	assert.Equal(t, 6, count)

	// Group 2 spans [12,18), entirely outside the range.
	_, count = g.drawSpan(&g.Groups[2])
	assert.Equal(t, 0, count)
}

func TestGroups(t *testing.T) {
	g := NewGeometry("g")
	g.AddGroup(0, 3, 0)
	g.AddGroup(3, 3, 1)
	require.Len(t, g.Groups, 2)
	assert.Equal(t, Group{Start: 3, Count: 3, MaterialIndex: 1}, g.Groups[1])
	g.ClearGroups()
	assert.Empty(t, g.Groups)
}

func TestDeleteAttribute(t *testing.T) {
	g := NewBoxGeometry(1, 1, 1)
	g.DeleteAttribute(AttributeNormal)
	assert.Nil(t, g.Attribute(AttributeNormal))
	assert.NotNil(t, g.Attribute(AttributePosition))
}

// --- Primitives ---

func TestBoxGeometryLayout(t *testing.T) {
	g := NewBoxGeometry(2, 4, 6)
	assert.Equal(t, 24, g.Attribute(AttributePosition).Count())
	assert.Equal(t, 24, g.Attribute(AttributeNormal).Count())
	assert.Len(t, g.Index, 36)
	require.Len(t, g.Groups, 6)
	for i, group := range g.Groups {
		assert.Equal(t, i, group.MaterialIndex)
		assert.Equal(t, i*6, group.Start)
	}
	b := g.BoundingBox()
	assert.Equal(t, mgl32.Vec3{-1, -2, -3}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Max)
}

func TestBoxGeometryWindsOutward(t *testing.T) {
	g := NewBoxGeometry(2, 2, 2)
	pos := g.Attribute(AttributePosition)
	nrm := g.Attribute(AttributeNormal)
	for i := 0; i < len(g.Index); i += 3 {
		a, b, c := pos.Vec3(int(g.Index[i])), pos.Vec3(int(g.Index[i+1])), pos.Vec3(int(g.Index[i+2]))
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, face.Dot(nrm.Vec3(int(g.Index[i]))), float32(0), "triangle %d", i/3)
	}
}

func TestPlaneGeometryLayout(t *testing.T) {
	g := NewPlaneGeometry(4, 2, 2, 1)
	assert.Equal(t, 6, g.Attribute(AttributePosition).Count())
	assert.Len(t, g.Index, 12)
	b := g.BoundingBox()
	assert.Equal(t, mgl32.Vec3{-2, -1, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, b.Max)
}

func TestSphereGeometryRadius(t *testing.T) {
	g := NewSphereGeometry(3, 16, 8)
	assert.InDelta(t, 3, g.BoundingSphere().Radius, 1e-4)
	assert.NotEmpty(t, g.Index)
}
