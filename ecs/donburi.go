package ecs

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// NodeData links an entity to the scene graph node it drives.
type NodeData struct {
	Node *arbor.Node
}

// TransformData is the local transform written to the linked node.
type TransformData struct {
	Position mgl32.Vec3
	Rotation arbor.Euler
	Scale    mgl32.Vec3
	Visible  bool
}

var (
	// Node is the component holding the linked node.
	Node = donburi.NewComponentType[NodeData]()
	// Transform is the component synced into the linked node.
	Transform = donburi.NewComponentType[TransformData]()

	// FrameStatsEvent carries the renderer's stats after each frame.
	FrameStatsEvent = events.NewEventType[arbor.FrameStats]()
)

var synced = donburi.NewQuery(filter.Contains(Node, Transform))

// Spawn creates an entity linked to n, seeding its transform from the node.
func Spawn(world donburi.World, n *arbor.Node) donburi.Entity {
	e := world.Create(Node, Transform)
	entry := world.Entry(e)
	Node.SetValue(entry, NodeData{Node: n})
	Transform.SetValue(entry, TransformData{
		Position: n.Position(),
		Rotation: n.Rotation(),
		Scale:    n.Scale(),
		Visible:  n.Visible,
	})
	return e
}

// SyncTransforms writes every entity's transform into its node. Entities
// whose node has been disposed are removed from the world. It returns the
// number of nodes whose transform or visibility changed.
func SyncTransforms(world donburi.World) int {
	var stale []donburi.Entity
	count := 0
	synced.Each(world, func(entry *donburi.Entry) {
		n := Node.Get(entry).Node
		if n == nil || n.IsDisposed() {
			stale = append(stale, entry.Entity())
			return
		}
		tr := Transform.Get(entry)
		changed := false
		if n.Position() != tr.Position {
			n.SetPositionVec(tr.Position)
			changed = true
		}
		if n.Rotation() != tr.Rotation {
			n.SetRotation(tr.Rotation)
			changed = true
		}
		if n.Scale() != tr.Scale {
			n.SetScale(tr.Scale.X(), tr.Scale.Y(), tr.Scale.Z())
			changed = true
		}
		if n.Visible != tr.Visible {
			n.Visible = tr.Visible
			changed = true
		}
		if changed {
			count++
		}
	})
	for _, e := range stale {
		world.Remove(e)
	}
	return count
}

// PublishFrameStats queues stats on FrameStatsEvent. Subscribers receive
// them on the next FrameStatsEvent.ProcessEvents.
func PublishFrameStats(world donburi.World, stats arbor.FrameStats) {
	FrameStatsEvent.Publish(world, stats)
}
