package arbor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

// recordedSubmission copies what a Backend sees; queues are reused across
// passes so items must be copied at submit time.
type recordedSubmission struct {
	pass    Pass
	target  *RenderTarget
	face    int
	light   *Node
	objects []*Node
	states  *RenderStates
	version uint64
}

type recordingBackend struct {
	subs []recordedSubmission
}

func (b *recordingBackend) Submit(s *Submission) {
	rec := recordedSubmission{
		pass:    s.Pass,
		target:  s.Target,
		face:    s.Face,
		light:   s.Light,
		states:  s.States,
		version: s.States.Camera.Version,
	}
	for _, l := range s.Queue.Layers() {
		for i := range l.Opaque {
			rec.objects = append(rec.objects, l.Opaque[i].Object)
		}
		for i := range l.Transparent {
			rec.objects = append(rec.objects, l.Transparent[i].Object)
		}
	}
	b.subs = append(b.subs, rec)
}

func (b *recordingBackend) byPass(p Pass) []recordedSubmission {
	var out []recordedSubmission
	for _, s := range b.subs {
		if s.pass == p {
			out = append(out, s)
		}
	}
	return out
}

func newTestRenderer(t *testing.T, cfg Config) (*Renderer, *recordingBackend) {
	t.Helper()
	backend := &recordingBackend{}
	r, err := NewRenderer(cfg, backend)
	require.NoError(t, err)
	return r, backend
}

func TestRenderFrameSubmitsPerCamera(t *testing.T) {
	f := newSceneFixture()
	second := NewPerspectiveCamera("cam2", 60, 1, 0.1, 100)
	second.SetPosition(0, 0, 20)
	f.scene.Add(second)
	r, backend := newTestRenderer(t, DefaultConfig())

	r.RenderFrame(f.scene, f.camera, second)

	main := backend.byPass(PassMain)
	require.Len(t, main, 2)
	assert.Equal(t, []*Node{f.mesh}, main[0].objects)
	assert.Equal(t, []*Node{f.mesh}, main[1].objects)
	assert.NotSame(t, main[0].states, main[1].states)
	assert.Same(t, main[0].states.Lighting, main[1].states.Lighting)
	assert.Equal(t, mgl32.Vec3{0, 0, 20}, main[1].states.Camera.Position)

	stats := r.Stats()
	assert.Equal(t, 2, stats.Traversals)
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 1, stats.Lights)
}

func TestRenderFrameSkipsNonCameras(t *testing.T) {
	f := newSceneFixture()
	r, backend := newTestRenderer(t, DefaultConfig())
	r.RenderFrame(f.scene, nil, NewGroup("not-a-camera"), f.camera)
	assert.Len(t, backend.byPass(PassMain), 1)
}

func TestRenderFrameCameraOutsideScene(t *testing.T) {
	f := newSceneFixture()
	detached := NewPerspectiveCamera("detached", 60, 1, 0.1, 100)
	detached.SetPosition(0, 0, 5)
	r, backend := newTestRenderer(t, DefaultConfig())

	r.Render(f.scene, detached)
	main := backend.byPass(PassMain)
	require.Len(t, main, 1)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, main[0].states.Camera.Position)
	assert.Equal(t, []*Node{f.mesh}, main[0].objects)
}

func TestRenderFrameAppliesOutputSettings(t *testing.T) {
	f := newSceneFixture()
	cfg := DefaultConfig()
	cfg.ToneMapping = ReinhardToneMapping
	cfg.ToneMappingExposure = 2
	r, backend := newTestRenderer(t, cfg)
	r.Render(f.scene, f.camera)

	out := backend.byPass(PassMain)[0].states.Camera.Output
	assert.Equal(t, ReinhardToneMapping, out.ToneMapping)
	assert.Equal(t, float32(2), out.ToneMappingExposure)
}

func TestRenderFrameSortingDisabled(t *testing.T) {
	f := newSceneFixture()
	f.mesh.Visible = false
	near := newTestBox("near")
	near.SetPosition(0, 0, 5)
	far := newTestBox("far")
	far.SetPosition(0, 0, -5)
	f.scene.Add(far, near)

	cfg := DefaultConfig()
	cfg.SortObjects = false
	r, backend := newTestRenderer(t, cfg)
	r.Render(f.scene, f.camera)
	assert.Equal(t, []*Node{far, near}, backend.byPass(PassMain)[0].objects)
}

func TestRenderFrameFreesReleasedResources(t *testing.T) {
	f := newSceneFixture()
	r, _ := newTestRenderer(t, DefaultConfig())
	geo := f.mesh.Mesh.Geometry
	r.Resources().Track(geo)

	r.Render(f.scene, f.camera)
	assert.False(t, IsFreed(geo))

	f.mesh.Dispose()
	assert.False(t, IsFreed(geo), "freeing waits for the end of the frame")
	r.Render(f.scene, f.camera)
	assert.True(t, IsFreed(geo))
	assert.Equal(t, 1, r.Stats().Freed)
}

func TestRenderFrameTweensAndFollow(t *testing.T) {
	f := newSceneFixture()
	f.camera.Camera.Follow(f.mesh, mgl32.Vec3{0, 0, 10}, 1)
	f.scene.AddTween(TweenPosition(f.mesh, mgl32.Vec3{4, 0, 0}, 1, ease.Linear))
	r, backend := newTestRenderer(t, DefaultConfig())

	f.scene.Update(1)
	r.Render(f.scene, f.camera)
	assert.InDelta(t, 4, f.camera.Position()[0], 1e-4)
	assert.Equal(t, []*Node{f.mesh}, backend.byPass(PassMain)[0].objects)
}

type endingBackend struct {
	recordingBackend
	endedAfter []int
}

func (b *endingBackend) EndFrame() {
	b.endedAfter = append(b.endedAfter, len(b.subs))
}

func TestRenderFrameEndsFrameAfterLastSubmission(t *testing.T) {
	f := newSceneFixture()
	second := NewPerspectiveCamera("cam2", 60, 1, 0.1, 100)
	f.scene.Add(second)

	backend := &endingBackend{}
	r, err := NewRenderer(DefaultConfig(), backend)
	require.NoError(t, err)

	r.RenderFrame(f.scene, f.camera, second)
	require.Len(t, backend.endedAfter, 1)
	assert.Equal(t, len(backend.subs), backend.endedAfter[0])

	r.RenderFrame(f.scene, f.camera)
	assert.Len(t, backend.endedAfter, 2)
}

func TestRenderFrameDebugConfigEnablesSceneChecks(t *testing.T) {
	f := newSceneFixture()
	cfg := DefaultConfig()
	cfg.Debug = true
	r, _ := newTestRenderer(t, cfg)
	defer f.scene.SetDebugMode(false)

	r.Render(f.scene, f.camera)
	require.True(t, f.scene.debug)

	n := NewGroup("n")
	n.Dispose()
	assert.Panics(t, func() { f.scene.Add(n) })
}
