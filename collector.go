package arbor

import (
	"time"
)

// sceneState is the collector's per-scene bookkeeping.
type sceneState struct {
	sceneData    *SceneData
	lightingData *LightingData
	queues       cameraMap[*RenderQueue]
	states       cameraMap[*RenderStates]

	lightingNeedsUpdate bool
	skeletonNeedsUpdate bool
	skeletonFrame       uint64
}

// CollectStats counts the work of the collection passes since the last
// ResetStats.
type CollectStats struct {
	Traversals      int
	NodesVisited    int
	MeshesCulled    int
	ItemsQueued     int
	LightsCollected int
	SkeletonUpdates int
	TraverseTime    time.Duration
}

// RenderCollector walks a scene once per camera, culls meshes into that
// camera's RenderQueue and feeds lights into the scene's LightingData.
// Lighting and skeletons are camera-independent: they are computed on the
// first traversal after MarkStale and reused by later traversals in the
// same frame.
type RenderCollector struct {
	scenes     weakMap[Scene, *sceneState]
	visibility VisibilityFunc

	lightingGroups int
	sortObjects    bool

	// skeletons holds the skeletons met during the current traversal.
	skeletons map[*Skeleton]struct{}

	stats CollectStats
}

// NewRenderCollector creates a collector using cfg for lighting group count
// and queue sorting.
func NewRenderCollector(cfg Config) *RenderCollector {
	return &RenderCollector{
		visibility:     CheckVisibility,
		lightingGroups: max(cfg.LightingGroups, 1),
		sortObjects:    cfg.SortObjects,
		skeletons:      make(map[*Skeleton]struct{}),
	}
}

// SetVisibilityFunc replaces the mesh visibility predicate. Nil restores
// CheckVisibility.
func (c *RenderCollector) SetVisibilityFunc(fn VisibilityFunc) {
	if fn == nil {
		fn = CheckVisibility
	}
	c.visibility = fn
}

func (c *RenderCollector) state(scene *Scene) *sceneState {
	st, ok := c.scenes.get(scene)
	if !ok {
		st = &sceneState{
			sceneData:           newSceneData(),
			lightingData:        NewLightingData(c.lightingGroups),
			lightingNeedsUpdate: true,
			skeletonNeedsUpdate: true,
		}
		st.sceneData.Update(scene)
		c.scenes.set(scene, st)
	}
	return st
}

// MarkStale starts a new frame for scene: SceneData is rebuilt, and lighting
// and skeletons are recomputed by the next traversal. Call it once per frame
// before the first TraverseAndCollect.
func (c *RenderCollector) MarkStale(scene *Scene) {
	c.scenes.prune(nil)
	st := c.state(scene)
	st.sceneData.Update(scene)
	st.lightingNeedsUpdate = true
	st.skeletonNeedsUpdate = true
	st.queues.pruneDisposed()
	st.states.pruneDisposed()
}

// SceneData returns the shared scene snapshot for scene.
func (c *RenderCollector) SceneData(scene *Scene) *SceneData {
	return c.state(scene).sceneData
}

// LightingData returns the shared lighting data for scene.
func (c *RenderCollector) LightingData(scene *Scene) *LightingData {
	return c.state(scene).lightingData
}

// RenderQueue returns camera's queue for scene, creating it on first use.
func (c *RenderCollector) RenderQueue(scene *Scene, camera *Node) *RenderQueue {
	st := c.state(scene)
	q, ok := st.queues.get(camera)
	if !ok {
		q = NewRenderQueue()
		q.SortObjects = c.sortObjects
		st.queues.set(camera, q)
	}
	return q
}

// RenderStates returns camera's render states for scene, creating them on
// first use. Every RenderStates of a scene shares its SceneData and
// LightingData.
func (c *RenderCollector) RenderStates(scene *Scene, camera *Node) *RenderStates {
	st := c.state(scene)
	rs, ok := st.states.get(camera)
	if !ok {
		rs = newRenderStates(st.sceneData, st.lightingData)
		st.states.set(camera, rs)
	}
	return rs
}

// TraverseAndCollect rebuilds camera's render queue from scene and returns it.
func (c *RenderCollector) TraverseAndCollect(scene *Scene, camera *Node) *RenderQueue {
	return c.TraverseAndCollectFiltered(scene, camera, nil)
}

// TraverseAndCollectFiltered is TraverseAndCollect with an extra mesh filter:
// meshes for which ifRender returns false are not queued. Lights are
// unaffected.
func (c *RenderCollector) TraverseAndCollectFiltered(scene *Scene, camera *Node, ifRender func(*Node) bool) *RenderQueue {
	start := time.Now()
	st := c.state(scene)
	queue := c.RenderQueue(scene, camera)

	collectLights := st.lightingNeedsUpdate
	if collectLights {
		st.lightingData.Begin()
	}
	queue.Begin()

	c.traverse(scene.root, camera, queue, st.lightingData, collectLights, ifRender)

	queue.End()
	if collectLights {
		st.lightingData.End(st.sceneData)
		st.lightingNeedsUpdate = false
	}

	if st.skeletonNeedsUpdate {
		st.skeletonFrame = nextFrameStamp()
		st.skeletonNeedsUpdate = false
	}
	for s := range c.skeletons {
		if s.updateForFrame(st.skeletonFrame) {
			c.stats.SkeletonUpdates++
		}
	}
	clear(c.skeletons)

	c.stats.Traversals++
	c.stats.TraverseTime += time.Since(start)
	return queue
}

func (c *RenderCollector) traverse(n, camera *Node, queue *RenderQueue, lighting *LightingData, collectLights bool, ifRender func(*Node) bool) {
	if !n.Visible {
		return
	}
	c.stats.NodesVisited++

	switch n.Type {
	case NodeTypeMesh:
		if !n.Layers.Test(camera.Layers) {
			break
		}
		if ifRender != nil && !ifRender(n) {
			break
		}
		if !c.visibility(n, camera) {
			c.stats.MeshesCulled++
			break
		}
		c.stats.ItemsQueued += queue.Push(n, camera)
		if n.Mesh != nil && n.Mesh.Skeleton != nil {
			c.skeletons[n.Mesh.Skeleton] = struct{}{}
		}
	case NodeTypeLight:
		// Lights ignore camera layers.
		if collectLights {
			lighting.Collect(n)
			c.stats.LightsCollected++
		}
	}

	for _, child := range n.children {
		c.traverse(child, camera, queue, lighting, collectLights, ifRender)
	}
}

// Stats returns the counters accumulated since the last ResetStats.
func (c *RenderCollector) Stats() CollectStats {
	return c.stats
}

// ResetStats zeroes the counters.
func (c *RenderCollector) ResetStats() {
	c.stats = CollectStats{}
}

// ForgetScene drops all per-scene state held for scene.
func (c *RenderCollector) ForgetScene(scene *Scene) {
	c.scenes.delete(scene)
}
