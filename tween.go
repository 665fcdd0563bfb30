package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float32 values on a Node simultaneously.
// Create one via the convenience constructors and call Update(dt) each frame,
// or register it with Scene.AddTween. Values are written through the node's
// setters so dirty flags stay correct. If the target node is disposed, the
// group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	values [4]float32
	count  int
	apply  func(v [4]float32)
	target *Node
	Done   bool
}

func newTweenGroup(target *Node, from, to []float32, duration float32, fn ease.TweenFunc, apply func([4]float32)) *TweenGroup {
	g := &TweenGroup{count: len(from), target: target, apply: apply}
	for i := range from {
		g.tweens[i] = gween.New(from[i], to[i], duration, fn)
		g.values[i] = from[i]
	}
	return g
}

// Update advances all tweens by dt seconds and applies the values. If the
// target node has been disposed, Done is set and nothing is written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(g.values)
}

// TweenPosition animates the node's local position to `to`.
func TweenPosition(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := node.position
	return newTweenGroup(node, from[:], to[:], duration, fn, func(v [4]float32) {
		node.SetPosition(v[0], v[1], v[2])
	})
}

// TweenScale animates the node's local scale to `to`.
func TweenScale(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := node.scale
	return newTweenGroup(node, from[:], to[:], duration, fn, func(v [4]float32) {
		node.SetScale(v[0], v[1], v[2])
	})
}

// TweenRotation animates the node's euler angles to `to`, keeping the
// node's rotation order.
func TweenRotation(node *Node, to Euler, duration float32, fn ease.TweenFunc) *TweenGroup {
	r := node.rotation
	from := []float32{r.X, r.Y, r.Z}
	return newTweenGroup(node, from, []float32{to.X, to.Y, to.Z}, duration, fn, func(v [4]float32) {
		node.SetRotationXYZ(v[0], v[1], v[2])
	})
}

// TweenIntensity animates a light node's intensity.
func TweenIntensity(node *Node, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	if node.Light == nil {
		return &TweenGroup{Done: true}
	}
	return newTweenGroup(node, []float32{node.Light.Intensity}, []float32{to}, duration, fn, func(v [4]float32) {
		if node.Light != nil {
			node.Light.Intensity = v[0]
		}
	})
}

// TweenZoom animates a camera node's zoom and rebuilds its projection.
func TweenZoom(node *Node, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	if node.Camera == nil {
		return &TweenGroup{Done: true}
	}
	return newTweenGroup(node, []float32{node.Camera.Zoom}, []float32{to}, duration, fn, func(v [4]float32) {
		if c := node.Camera; c != nil {
			c.Zoom = v[0]
			c.UpdateProjectionMatrix()
		}
	})
}
