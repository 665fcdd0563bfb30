package arbor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueFixture builds meshes sharing one geometry and material so the sort
// falls through to distance.
type queueFixture struct {
	geo    *Geometry
	mat    *Material
	camera *Node
}

func newQueueFixture(transparent bool) *queueFixture {
	mat := NewMaterial("shared", MaterialBasic)
	mat.Transparent = transparent
	return &queueFixture{
		geo:    NewBoxGeometry(1, 1, 1),
		mat:    mat,
		camera: newTestCamera(mgl32.Vec3{}),
	}
}

func (f *queueFixture) mesh(name string, z float32) *Node {
	n := NewMesh(name, f.geo, f.mat)
	n.SetPosition(0, 0, z)
	n.UpdateMatrix(false)
	return n
}

func itemNames(items []RenderItem) []string {
	names := make([]string, len(items))
	for i := range items {
		names[i] = items[i].Object.Name
	}
	return names
}

func layerIDs(q *RenderQueue) []int {
	ids := make([]int, 0, len(q.Layers()))
	for _, l := range q.Layers() {
		ids = append(ids, l.ID)
	}
	return ids
}

// --- Sorting ---

func TestOpaqueSortedFrontToBack(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	q.Begin()
	q.Push(f.mesh("far", -30), f.camera)
	q.Push(f.mesh("near", -10), f.camera)
	q.Push(f.mesh("mid", -20), f.camera)
	q.End()

	layer := q.Layer(0)
	require.NotNil(t, layer)
	assert.Equal(t, []string{"near", "mid", "far"}, itemNames(layer.Opaque))
	assert.InDelta(t, 10, layer.Opaque[0].Distance, 1e-4)
}

func TestTransparentSortedBackToFront(t *testing.T) {
	f := newQueueFixture(true)
	q := NewRenderQueue()
	q.Begin()
	q.Push(f.mesh("near", -10), f.camera)
	q.Push(f.mesh("far", -30), f.camera)
	q.Push(f.mesh("mid", -20), f.camera)
	q.End()

	layer := q.Layer(0)
	assert.Empty(t, layer.Opaque)
	assert.Equal(t, []string{"far", "mid", "near"}, itemNames(layer.Transparent))
}

func TestRenderOrderBeatsDistance(t *testing.T) {
	f := newQueueFixture(true)
	q := NewRenderQueue()
	q.Begin()
	far := f.mesh("far", -30)
	near := f.mesh("near", -10)
	near.RenderOrder = -1
	q.Push(far, f.camera)
	q.Push(near, f.camera)
	q.End()

	assert.Equal(t, []string{"near", "far"}, itemNames(q.Layer(0).Transparent))
}

func TestOpaqueGroupsByMaterialBeforeDistance(t *testing.T) {
	f := newQueueFixture(false)
	other := NewMaterial("other", MaterialBasic)
	q := NewRenderQueue()
	q.Begin()
	a := NewMesh("other-near", f.geo, other)
	a.SetPosition(0, 0, -5)
	a.UpdateMatrix(false)
	q.Push(a, f.camera)
	q.Push(f.mesh("shared-far", -40), f.camera)
	q.End()

	// f.mat was created first and has the lower ID.
	assert.Equal(t, []string{"shared-far", "other-near"}, itemNames(q.Layer(0).Opaque))
}

func TestEqualKeysKeepPushOrder(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	q.Begin()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		q.Push(f.mesh(name, -10), f.camera)
	}
	q.End()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, itemNames(q.Layer(0).Opaque))
}

func TestSortObjectsDisabled(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	q.SortObjects = false
	q.Begin()
	q.Push(f.mesh("far", -30), f.camera)
	q.Push(f.mesh("near", -10), f.camera)
	q.End()
	assert.Equal(t, []string{"far", "near"}, itemNames(q.Layer(0).Opaque))
}

func TestCustomSortFunc(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	q.OpaqueLess = func(a, b *RenderItem) bool { return a.Distance >= b.Distance }
	q.Begin()
	q.Push(f.mesh("near", -10), f.camera)
	q.Push(f.mesh("far", -30), f.camera)
	q.End()
	assert.Equal(t, []string{"far", "near"}, itemNames(q.Layer(0).Opaque))
}

func TestMergeSortLarge(t *testing.T) {
	items := make([]RenderItem, 37)
	for i := range items {
		items[i] = RenderItem{Distance: float32((i * 17) % 37), order: i}
	}
	buf := mergeSort(items, nil, func(a, b *RenderItem) bool { return a.Distance <= b.Distance })
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Distance, items[i].Distance)
	}
	assert.GreaterOrEqual(t, cap(buf), len(items))
}

// --- Layers ---

func TestLayersCreatedLazilyInSortedOrder(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	q.Begin()
	for _, id := range []int{5, 0, -1, 5} {
		n := f.mesh("m", -10)
		n.RenderLayer = id
		q.Push(n, f.camera)
	}
	q.End()

	assert.Equal(t, []int{-1, 0, 5}, layerIDs(q))
	assert.Equal(t, 2, q.Layer(5).Len())
	assert.Nil(t, q.Layer(3))
	assert.Equal(t, 4, q.Len())
}

func TestBeginReusesLayersAndStorage(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	q.Begin()
	for range 8 {
		q.Push(f.mesh("m", -10), f.camera)
	}
	q.End()
	layer := q.Layer(0)
	capacity := cap(layer.Opaque)

	q.Begin()
	assert.Same(t, layer, q.Layer(0))
	assert.Equal(t, 0, layer.Len())
	assert.Equal(t, capacity, cap(layer.Opaque))

	q.Push(f.mesh("again", -10), f.camera)
	q.End()
	assert.Equal(t, []string{"again"}, itemNames(layer.Opaque))
}

// --- Push ---

func TestPushOutsideBracketIgnored(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	assert.Equal(t, 0, q.Push(f.mesh("m", -10), f.camera))
	assert.Equal(t, 0, q.Len())

	q.Begin()
	q.End()
	assert.Equal(t, 0, q.Push(f.mesh("m", -10), f.camera))
	assert.Equal(t, 0, q.Len())
}

func TestPushSkipsGeometryWithoutPositions(t *testing.T) {
	f := newQueueFixture(false)
	q := NewRenderQueue()
	n := NewMesh("bad", NewGeometry("empty"), f.mat)
	n.UpdateMatrix(false)
	q.Begin()
	assert.Equal(t, 0, q.Push(n, f.camera))
	q.End()
	assert.Equal(t, 0, q.Len())
}

func TestPushMultiMaterialGroups(t *testing.T) {
	camera := newTestCamera(mgl32.Vec3{})
	mats := make([]*Material, 6)
	for i := range mats {
		mats[i] = NewMaterial("face", MaterialBasic)
	}
	mats[2].Transparent = true
	mats[5].Visible = false

	n := NewMesh("box", NewBoxGeometry(1, 1, 1), mats...)
	n.SetPosition(0, 0, -5)
	n.UpdateMatrix(false)

	q := NewRenderQueue()
	q.Begin()
	assert.Equal(t, 5, q.Push(n, camera))
	q.End()

	layer := q.Layer(0)
	assert.Len(t, layer.Opaque, 4)
	require.Len(t, layer.Transparent, 1)
	item := layer.Transparent[0]
	assert.Same(t, mats[2], item.Material)
	require.NotNil(t, item.Group)
	assert.Equal(t, 12, item.Start)
	assert.Equal(t, 6, item.Count)
}

func TestPushRespectsDrawRange(t *testing.T) {
	f := newQueueFixture(false)
	n := f.mesh("m", -10)
	f.geo.SetDrawRange(6, 12)
	q := NewRenderQueue()
	q.Begin()
	q.Push(n, f.camera)
	q.End()
	item := q.Layer(0).Opaque[0]
	assert.Equal(t, 6, item.Start)
	assert.Equal(t, 12, item.Count)
	assert.Nil(t, item.Group)
}
