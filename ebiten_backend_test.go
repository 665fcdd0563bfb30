package arbor

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEbitenBackendDrawsFrontFaces(t *testing.T) {
	f := newSceneFixture()
	f.mesh.Visible = false
	box := newTestBox("box")
	f.scene.Add(box)

	screen := ebiten.NewImage(64, 64)
	backend := NewEbitenBackend(screen)
	r, err := NewRenderer(DefaultConfig(), backend)
	require.NoError(t, err)
	r.Render(f.scene, f.camera)

	// Only the +Z face points at the camera.
	assert.Equal(t, 1, backend.DrawCalls)
	assert.Equal(t, 2, backend.Triangles)

	box.Mesh.Material().Side = DoubleSide
	r.Render(f.scene, f.camera)
	assert.Equal(t, 12, backend.Triangles)
}

func TestEbitenBackendSkipsBehindCamera(t *testing.T) {
	f := newSceneFixture()
	f.camera.Camera.FrustumCulled = false
	f.mesh.SetPosition(0, 0, 20)

	backend := NewEbitenBackend(ebiten.NewImage(32, 32))
	r, err := NewRenderer(DefaultConfig(), backend)
	require.NoError(t, err)
	r.Render(f.scene, f.camera)
	assert.Equal(t, 0, backend.DrawCalls)
}

func TestEbitenBackendRendersShadowMap(t *testing.T) {
	f, _, _ := newShadowFixture()
	backend := NewEbitenBackend(ebiten.NewImage(32, 32))
	r, err := NewRenderer(DefaultConfig(), backend)
	require.NoError(t, err)
	r.Render(f.scene, f.camera)
	assert.Equal(t, 1, r.Stats().ShadowMaps)
	assert.NotNil(t, f.light.Light.Shadow.Map.Image(0))
}

func TestEbitenBackendSkipsOutOfRangeIndices(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(prev)

	f := newSceneFixture()
	f.mesh.Visible = false
	geo := NewGeometry("broken").
		SetAttribute(AttributePosition, NewAttribute([]float32{-1, -1, 0, 1, -1, 0, 0, 1, 0}, 3)).
		SetIndex([]uint32{0, 1, 7})
	mat := NewMaterial("broken", MaterialBasic)
	mat.Side = DoubleSide
	f.scene.Add(NewMesh("broken", geo, mat), newTestBox("box"))

	backend := NewEbitenBackend(ebiten.NewImage(64, 64))
	r, err := NewRenderer(DefaultConfig(), backend)
	require.NoError(t, err)
	require.NotPanics(t, func() { r.Render(f.scene, f.camera) })

	assert.Equal(t, 1, backend.DrawCalls, "the valid box is still drawn")
	assert.Contains(t, buf.String(), "broken")
}

func TestElementsInRange(t *testing.T) {
	plain := NewGeometry("plain").
		SetAttribute(AttributePosition, NewAttribute(make([]float32, 9), 3))
	assert.True(t, elementsInRange(plain, 0, 3, 3))
	assert.False(t, elementsInRange(plain, 0, 6, 3))

	indexed := NewGeometry("indexed").
		SetAttribute(AttributePosition, NewAttribute(make([]float32, 9), 3)).
		SetIndex([]uint32{0, 1, 2, 2, 1, 3})
	assert.True(t, elementsInRange(indexed, 0, 3, 3))
	assert.False(t, elementsInRange(indexed, 3, 3, 3))
	assert.False(t, elementsInRange(indexed, 3, 6, 4))
}

func TestPainterOrderIgnoresMaterialGrouping(t *testing.T) {
	f := newSceneFixture()
	f.mesh.Visible = false
	// far gets the lower material id, so the queue lists it first.
	far := newTestBox("far")
	far.SetPosition(0, 0, -5)
	near := newTestBox("near")
	near.SetPosition(0, 0, 2)
	f.scene.Add(far, near)
	f.frame()
	q := f.c.TraverseAndCollect(f.scene, f.camera)
	opaque := q.Layer(0).Opaque
	require.Len(t, opaque, 2)

	b := NewEbitenBackend(nil)
	order := b.painterOrder(opaque)
	assert.Same(t, far, order[0].Object)
	assert.Same(t, near, order[1].Object)

	// Swapping material ids must not change the paint order.
	far.Mesh.Material().ID, near.Mesh.Material().ID = near.Mesh.Material().ID, far.Mesh.Material().ID
	f.frame()
	q = f.c.TraverseAndCollect(f.scene, f.camera)
	order = b.painterOrder(q.Layer(0).Opaque)
	assert.Same(t, far, order[0].Object)
	assert.Same(t, near, order[1].Object)
}

func TestPainterOrderKeepsRenderOrder(t *testing.T) {
	items := []RenderItem{
		{RenderOrder: 1, Distance: 1},
		{RenderOrder: 0, Distance: 2},
		{RenderOrder: 0, Distance: 9},
	}
	order := NewEbitenBackend(nil).painterOrder(items)
	assert.Same(t, &items[2], order[0])
	assert.Same(t, &items[1], order[1])
	assert.Same(t, &items[0], order[2])
}

func TestSideVisible(t *testing.T) {
	// Clockwise on screen (y down) is front facing.
	a, b, c := mgl32.Vec2{0, 0}, mgl32.Vec2{10, 0}, mgl32.Vec2{0, 10}
	assert.False(t, sideVisible(FrontSide, a, b, c))
	assert.True(t, sideVisible(BackSide, a, b, c))
	assert.True(t, sideVisible(FrontSide, a, c, b))
	assert.True(t, sideVisible(DoubleSide, a, b, c))
}

func TestShadeLambert(t *testing.T) {
	g := &LightingGroup{
		Ambient:     mgl32.Vec3{0.1, 0.1, 0.1},
		Directional: []DirectionalLightUniform{{Direction: mgl32.Vec3{0, 1, 0}, Color: mgl32.Vec3{1, 1, 1}}},
	}
	albedo := mgl32.Vec3{1, 0.5, 0}
	up := shadeLambert(g, albedo, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{})
	assertVec3(t, "facing light", up, mgl32.Vec3{1.1, 0.55, 0})
	down := shadeLambert(g, albedo, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{})
	assertVec3(t, "facing away", down, mgl32.Vec3{0.1, 0.05, 0})
}

func TestDistanceAttenuation(t *testing.T) {
	assert.Equal(t, float32(1), distanceAttenuation(100, 0, 2))
	assert.Equal(t, float32(0), distanceAttenuation(20, 10, 2))
	assert.InDelta(t, 0.25, distanceAttenuation(5, 10, 2), 1e-6)
}

func TestApplyFog(t *testing.T) {
	c := mgl32.Vec3{1, 1, 1}
	fog := &Fog{Kind: FogLinear, Color: Color{A: 1}, Near: 10, Far: 20}
	assertVec3(t, "before near", applyFog(fog, c, 5), c)
	assertVec3(t, "past far", applyFog(fog, c, 25), mgl32.Vec3{})
	assertVec3(t, "no fog", applyFog(nil, c, 25), c)
}

func TestApplyOutput(t *testing.T) {
	linear := applyOutput(mgl32.Vec3{0.5, 1, 0}, OutputSettings{ColorSpace: ColorSpaceLinear})
	assertVec3(t, "linear", linear, mgl32.Vec3{0.5, 1, 0})

	srgb := applyOutput(mgl32.Vec3{0.5, 1, 0}, OutputSettings{ColorSpace: ColorSpaceSRGB})
	assertNear(t, "srgb(0.5)", srgb[0], 0.7354)
	assertNear(t, "srgb(1)", srgb[1], 1)

	reinhard := applyOutput(mgl32.Vec3{1, 3, 0}, OutputSettings{
		ColorSpace:          ColorSpaceLinear,
		ToneMapping:         ReinhardToneMapping,
		ToneMappingExposure: 1,
	})
	assertVec3(t, "reinhard", reinhard, mgl32.Vec3{0.5, 0.75, 0})
}
