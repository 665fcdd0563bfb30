package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectionType distinguishes perspective from orthographic cameras.
type ProjectionType uint8

const (
	PerspectiveProjection ProjectionType = iota
	OrthographicProjection
)

// Camera is the payload of a NodeTypeCamera node. Projection parameters are
// turned into a matrix by UpdateProjectionMatrix; the view matrix, the
// projection-view matrix and the frustum are refreshed whenever the node's
// world matrix changes.
type Camera struct {
	Projection ProjectionType

	// Perspective parameters. Fov is the vertical field of view in degrees.
	Fov    float32
	Aspect float32

	// Orthographic parameters.
	Left, Right, Top, Bottom float32

	Near, Far float32
	// Zoom divides the fov (perspective) or the extents (orthographic).
	Zoom float32

	// Viewport is the target rectangle in pixels. Empty means the full target.
	Viewport Rect

	// FrustumCulled disables frustum culling for everything this camera sees
	// when false.
	FrustumCulled bool

	projectionMatrix     mgl32.Mat4
	viewMatrix           mgl32.Mat4
	projectionViewMatrix mgl32.Mat4
	frustum              Frustum

	followTarget *Node
	followOffset mgl32.Vec3
	followLerp   float32
}

func newCameraNode(name string, c *Camera) *Node {
	n := &Node{Name: name, Type: NodeTypeCamera}
	nodeDefaults(n)
	c.Zoom = 1
	c.FrustumCulled = true
	c.viewMatrix = mgl32.Ident4()
	n.Camera = c
	c.UpdateProjectionMatrix()
	return n
}

// NewPerspectiveCamera creates a perspective camera node. fov is the vertical
// field of view in degrees.
func NewPerspectiveCamera(name string, fov, aspect, near, far float32) *Node {
	return newCameraNode(name, &Camera{
		Projection: PerspectiveProjection,
		Fov:        fov,
		Aspect:     aspect,
		Near:       near,
		Far:        far,
	})
}

// NewOrthographicCamera creates an orthographic camera node.
func NewOrthographicCamera(name string, left, right, top, bottom, near, far float32) *Node {
	return newCameraNode(name, &Camera{
		Projection: OrthographicProjection,
		Left:       left,
		Right:      right,
		Top:        top,
		Bottom:     bottom,
		Near:       near,
		Far:        far,
	})
}

// UpdateProjectionMatrix rebuilds the projection matrix from the camera
// parameters. Call it after changing any of them.
func (c *Camera) UpdateProjectionMatrix() {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	switch c.Projection {
	case OrthographicProjection:
		cx := (c.Left + c.Right) / 2
		cy := (c.Top + c.Bottom) / 2
		dx := (c.Right - c.Left) / (2 * zoom)
		dy := (c.Top - c.Bottom) / (2 * zoom)
		c.projectionMatrix = mgl32.Ortho(cx-dx, cx+dx, cy-dy, cy+dy, c.Near, c.Far)
	default:
		aspect := c.Aspect
		if aspect <= 0 {
			aspect = 1
		}
		c.projectionMatrix = mgl32.Perspective(mgl32.DegToRad(c.Fov/zoom), aspect, c.Near, c.Far)
	}
	c.refreshProjectionView()
}

// SetProjectionMatrix installs a custom projection matrix. Parameters are
// not updated; RenderStates derives near and far from the matrix itself.
func (c *Camera) SetProjectionMatrix(m mgl32.Mat4) {
	c.projectionMatrix = m
	c.refreshProjectionView()
}

// ProjectionMatrix returns the current projection matrix.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 { return c.projectionMatrix }

// ViewMatrix returns the inverse of the camera's world matrix.
func (c *Camera) ViewMatrix() mgl32.Mat4 { return c.viewMatrix }

// ProjectionViewMatrix returns projection * view.
func (c *Camera) ProjectionViewMatrix() mgl32.Mat4 { return c.projectionViewMatrix }

// Frustum returns the world-space frustum as of the last matrix update.
func (c *Camera) Frustum() *Frustum { return &c.frustum }

// updateView runs whenever the owning node's world matrix is recomputed.
func (c *Camera) updateView(world mgl32.Mat4) {
	c.viewMatrix = invertOrIdentity(world, "Camera.updateView")
	c.refreshProjectionView()
}

func (c *Camera) refreshProjectionView() {
	c.projectionViewMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.frustum.SetFromProjectionMatrix(c.projectionViewMatrix)
}

// --- Follow ---

// Follow makes the camera track target, staying at offset from it and
// looking at it. A lerp of 1 snaps; lower values smooth the motion.
func (c *Camera) Follow(target *Node, offset mgl32.Vec3, lerp float32) {
	c.followTarget = target
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// updateFollow moves cameraNode toward its follow target. The target's world
// matrix must be current.
func (c *Camera) updateFollow(cameraNode *Node) {
	t := c.followTarget
	if t == nil {
		return
	}
	if t.disposed {
		c.followTarget = nil
		return
	}
	t.UpdateWorldMatrix()
	goal := t.WorldPosition().Add(c.followOffset)
	lerp := mgl32.Clamp(c.followLerp, 0, 1)
	pos := cameraNode.position
	cameraNode.SetPositionVec(pos.Add(goal.Sub(pos).Mul(lerp)))
	cameraNode.LookAt(t.WorldPosition())
}
