// Package ecs provides ECS adapters for arbor.
//
// Entities that carry a [Node] and a [Transform] drive an arbor scene graph
// node: call [SyncTransforms] once per tick before rendering. Frame stats can
// be fed back into the world with [PublishFrameStats] and consumed by
// subscribing to [FrameStatsEvent].
//
// Usage:
//
//	world := donburi.NewWorld()
//	e := ecs.Spawn(world, box)
//	...
//	ecs.SyncTransforms(world)
//	renderer.Render(scene, camera)
//	ecs.PublishFrameStats(world, renderer.Stats())
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
