package arbor

import (
	"fmt"
	"time"
)

// Pass identifies the kind of pass a Submission belongs to.
type Pass uint8

const (
	PassMain   Pass = iota // color pass from a scene camera
	PassShadow             // depth pass from a light's shadow camera
)

// Submission is one queue handed to a Backend.
type Submission struct {
	// Target is nil for the backend's default target.
	Target *RenderTarget
	// Face selects the cube face, slice or layer of Target.
	Face   int
	Queue  *RenderQueue
	States *RenderStates
	Pass   Pass
	// Light is the shadow-casting light of a PassShadow submission.
	Light *Node
}

// Backend consumes sorted queues and render states. Queue and states are
// read-only for the backend and valid until the next frame starts.
type Backend interface {
	Submit(s *Submission)
}

// FrameEnder is implemented by backends that need to know when the last
// submission of a frame has been made.
type FrameEnder interface {
	EndFrame()
}

// Renderer runs the per-frame pipeline: transform propagation, one
// collection per camera, the shadow pass, and backend submission.
type Renderer struct {
	cfg       Config
	backend   Backend
	collector *RenderCollector
	shadowMap *ShadowMapPass
	resources *Resources
	targets   renderTargetPool

	stats FrameStats
}

// NewRenderer creates a renderer submitting to backend.
func NewRenderer(cfg Config, backend Backend) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is nil", ErrInvalidConfig)
	}
	r := &Renderer{
		cfg:       cfg,
		backend:   backend,
		collector: NewRenderCollector(cfg),
		resources: NewResources(),
	}
	r.shadowMap = newShadowMapPass(cfg, r.collector, &r.targets, r.resources)
	return r, nil
}

// Collector returns the renderer's collector.
func (r *Renderer) Collector() *RenderCollector { return r.collector }

// ShadowMap returns the shadow pass.
func (r *Renderer) ShadowMap() *ShadowMapPass { return r.shadowMap }

// Resources returns the owner of the renderer's disposable resources.
func (r *Renderer) Resources() *Resources { return r.resources }

// Stats returns the stats of the last frame.
func (r *Renderer) Stats() FrameStats { return r.stats }

// Render draws scene from a single camera.
func (r *Renderer) Render(scene *Scene, camera *Node) {
	r.RenderFrame(scene, camera)
}

// RenderFrame draws scene from each camera in order. Lighting, skeletons and
// shadow maps are computed once for the whole frame. Resources released
// during the frame are freed after the last submission.
func (r *Renderer) RenderFrame(scene *Scene, cameras ...*Node) {
	if len(cameras) == 0 {
		return
	}
	if r.cfg.Debug && !scene.debug {
		scene.SetDebugMode(true)
	}
	var stats FrameStats
	frameStart := time.Now()

	scene.UpdateMatrices()
	r.collector.MarkStale(scene)
	r.collector.ResetStats()

	shadowsDone := false
	for _, cam := range cameras {
		if cam == nil || cam.Camera == nil {
			Logger().Warn("arbor: render skipped a non-camera node")
			continue
		}
		// Cameras outside the scene graph are not reached by UpdateMatrices.
		if !isAncestor(scene.root, cam) {
			cam.UpdateWorldMatrix()
		}

		t := time.Now()
		queue := r.collector.TraverseAndCollect(scene, cam)
		stats.collectTime += time.Since(t)

		if !shadowsDone {
			shadowsDone = true
			t = time.Now()
			stats.ShadowMaps = r.shadowMap.Render(scene, r.backend)
			stats.shadowTime = time.Since(t)
		}

		states := r.collector.RenderStates(scene, cam)
		states.UpdateCamera(cam, r.cfg.output())

		t = time.Now()
		r.backend.Submit(&Submission{Queue: queue, States: states, Pass: PassMain})
		stats.submitTime += time.Since(t)

		stats.Items += queue.Len()
		stats.Layers += len(queue.Layers())
	}

	if fe, ok := r.backend.(FrameEnder); ok {
		fe.EndFrame()
	}
	stats.Freed = r.resources.Collect()

	cs := r.collector.Stats()
	stats.Lights = len(r.collector.LightingData(scene).Lights())
	stats.Culled = cs.MeshesCulled
	stats.SkeletonUpdates = cs.SkeletonUpdates
	stats.Traversals = cs.Traversals
	stats.totalTime = time.Since(frameStart)
	r.stats = stats

	if r.cfg.Debug || scene.debug {
		debugLog(stats)
	}
}
