// Package arbor is the render core of a retained-mode 3D scene graph for
// [Ebitengine].
//
// Arbor keeps a hierarchy of meshes, lights and cameras, propagates their
// transforms with dirty flags, and turns the hierarchy into sorted, culled
// render queues and per-camera render states once per frame. A [Backend]
// consumes the queues; [EbitenBackend] is a CPU-projected preview backend.
//
// # Quick start
//
//	scene := arbor.NewScene()
//	geo := arbor.NewGeometry("tri").
//		SetAttribute(arbor.AttributePosition, arbor.NewAttribute([]float32{
//			-1, -1, 0, 1, -1, 0, 0, 1, 0,
//		}, 3))
//	mat := arbor.NewMaterial("red", arbor.MaterialLambert)
//	mat.Color = arbor.Color{R: 1, A: 1}
//	scene.Add(arbor.NewMesh("tri", geo, mat))
//	scene.Add(arbor.NewAmbientLight("ambient", arbor.ColorWhite, 0.3))
//
//	camera := arbor.NewPerspectiveCamera("main", 60, 16.0/9, 0.1, 100)
//	camera.SetPosition(0, 0, 10)
//	scene.Add(camera)
//
//	backend := arbor.NewEbitenBackend(nil)
//	renderer, err := arbor.NewRenderer(arbor.DefaultConfig(), backend)
//	// in ebiten.Game.Draw:
//	backend.Screen = screen
//	renderer.Render(scene, camera)
//
// # Frame pipeline
//
// [Renderer.RenderFrame] runs one frame:
//
//  1. [Scene.UpdateMatrices] propagates transforms top-down. Clean subtrees
//     are skipped without visiting their children.
//  2. [RenderCollector.MarkStale] rebuilds [SceneData] and marks lighting and
//     skeletons for recomputation.
//  3. For each camera, [RenderCollector.TraverseAndCollect] walks visible
//     nodes, queues meshes that pass the [VisibilityFunc] and collects lights
//     into [LightingData]. Lighting and skeletons are computed only by the
//     first traversal of the frame.
//  4. [ShadowMapPass] renders a depth map per shadow-casting light through the
//     same collector, restricted to shadow-casting meshes.
//  5. Each queue is submitted with its [RenderStates]. Backends that
//     implement [FrameEnder] are told when the last submission is done.
//  6. [Resources.Collect] frees resources released during the frame.
//
// # Tooling
//
// [EbitenBackend.Screenshot] queues PNG captures of the screen and
// [SaveRenderTarget] dumps offscreen targets such as shadow maps.
// [LoadFrameScript] replays scripted edits and captures for visual checks,
// and [StatsOverlay] shows FPS and [FrameStats] on screen.
//
// # Threading
//
// A scene and its collector are used from one goroutine. Each collector owns
// its per-frame state (queues, skeleton set, staleness flags), so an
// off-screen pipeline with its own collector does not disturb the main one.
//
// [Ebitengine]: https://ebitengine.org
package arbor
