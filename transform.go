package arbor

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultUp is the up vector used by LookAt.
var DefaultUp = mgl32.Vec3{0, 1, 0}

// --- Local transform accessors ---

// Position returns the local position.
func (n *Node) Position() mgl32.Vec3 { return n.position }

// SetPosition sets the local position and marks the local matrix dirty.
func (n *Node) SetPosition(x, y, z float32) {
	n.SetPositionVec(mgl32.Vec3{x, y, z})
}

// SetPositionVec sets the local position from a vector.
func (n *Node) SetPositionVec(p mgl32.Vec3) {
	if n.position == p {
		return
	}
	n.position = p
	n.markDirty()
}

// Translate moves the node by d in its parent's space.
func (n *Node) Translate(d mgl32.Vec3) {
	n.SetPositionVec(n.position.Add(d))
}

// Scale returns the local scale.
func (n *Node) Scale() mgl32.Vec3 { return n.scale }

// SetScale sets the local scale and marks the local matrix dirty.
func (n *Node) SetScale(x, y, z float32) {
	s := mgl32.Vec3{x, y, z}
	if n.scale == s {
		return
	}
	n.scale = s
	n.markDirty()
}

// Quaternion returns the local rotation.
func (n *Node) Quaternion() mgl32.Quat { return n.quaternion }

// SetQuaternion sets the local rotation. The euler mirror is re-derived in the
// current rotation order.
func (n *Node) SetQuaternion(q mgl32.Quat) {
	q = q.Normalize()
	n.quaternion = q
	n.rotation = EulerFromQuat(q, n.rotation.Order)
	n.markDirty()
}

// Rotation returns the local rotation as euler angles.
func (n *Node) Rotation() Euler { return n.rotation }

// SetRotation sets the local rotation from euler angles. The quaternion is
// re-derived.
func (n *Node) SetRotation(e Euler) {
	n.rotation = e
	n.quaternion = e.Quat()
	n.markDirty()
}

// SetRotationXYZ sets the euler angles, keeping the current order.
func (n *Node) SetRotationXYZ(x, y, z float32) {
	n.SetRotation(Euler{X: x, Y: y, Z: z, Order: n.rotation.Order})
}

// SetRotationOrder changes the euler order without changing the rotation.
func (n *Node) SetRotationOrder(order EulerOrder) {
	n.rotation = EulerFromQuat(n.quaternion, order)
}

// RotateOnAxis rotates the node by angle radians around a local-space axis.
func (n *Node) RotateOnAxis(axis mgl32.Vec3, angle float32) {
	n.SetQuaternion(n.quaternion.Mul(mgl32.QuatRotate(angle, axis.Normalize())))
}

// --- Matrices ---

// LocalMatrix returns the local matrix as of the last UpdateMatrix.
func (n *Node) LocalMatrix() mgl32.Mat4 { return n.matrix }

// WorldMatrix returns the world matrix as of the last UpdateMatrix.
func (n *Node) WorldMatrix() mgl32.Mat4 { return n.worldMatrix }

// MatrixNeedsUpdate reports whether the local transform changed since the
// local matrix was last composed.
func (n *Node) MatrixNeedsUpdate() bool { return n.matrixNeedsUpdate }

// WorldMatrixNeedsUpdate reports whether the world matrix is stale.
func (n *Node) WorldMatrixNeedsUpdate() bool { return n.worldMatrixNeedsUpdate }

// WorldPosition returns the translation of the world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.worldMatrix.Col(3).Vec3()
}

// WorldQuaternion returns the rotation part of the world matrix.
func (n *Node) WorldQuaternion() mgl32.Quat {
	_, q, _ := decomposeMatrix(n.worldMatrix)
	return q
}

// WorldDirection returns the world-space direction of the node's local -Z
// axis for cameras and lights, +Z for everything else.
func (n *Node) WorldDirection() mgl32.Vec3 {
	z := n.worldMatrix.Col(2).Vec3()
	if n.Type == NodeTypeCamera || n.Type == NodeTypeLight {
		z = z.Mul(-1)
	}
	if z.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return z.Normalize()
}

// UpdateMatrix recomposes the local matrix if it is dirty, then recomputes the
// world matrix if it is dirty or force is set, and recurses into children.
// Once a node's world matrix is recomputed every descendant is recomputed too.
// A clean subtree under a clean ancestor returns without visiting children.
func (n *Node) UpdateMatrix(force bool) {
	if n.matrixNeedsUpdate {
		n.composeMatrix()
	}
	if n.worldMatrixNeedsUpdate || force {
		n.refreshWorld()
		force = true
	} else if !n.descendantNeedsUpdate {
		return
	}
	n.descendantNeedsUpdate = false
	for _, child := range n.children {
		child.UpdateMatrix(force)
	}
}

// UpdateWorldMatrix brings n's ancestors up to date and then updates n and its
// subtree. Use it when a world matrix is needed outside the frame's top-down
// pass (for example before LookAt on a nested node).
func (n *Node) UpdateWorldMatrix() {
	if n.Parent != nil && n.Parent.refreshAncestors() {
		n.worldMatrixNeedsUpdate = true
	}
	n.UpdateMatrix(false)
}

// refreshAncestors updates n and its ancestors root-first. When n's world
// matrix changes its children are flagged so the next top-down pass
// recomputes the siblings skipped here.
func (n *Node) refreshAncestors() bool {
	parentChanged := n.Parent != nil && n.Parent.refreshAncestors()
	if n.matrixNeedsUpdate {
		n.composeMatrix()
	}
	if !n.worldMatrixNeedsUpdate && !parentChanged {
		return false
	}
	n.refreshWorld()
	for _, child := range n.children {
		child.markWorldDirty()
	}
	return true
}

// composeMatrix builds T * R * S from the local fields.
func (n *Node) composeMatrix() {
	t := mgl32.Translate3D(n.position[0], n.position[1], n.position[2])
	r := n.quaternion.Mat4()
	s := mgl32.Scale3D(n.scale[0], n.scale[1], n.scale[2])
	n.matrix = t.Mul4(r).Mul4(s)
	n.matrixNeedsUpdate = false
	n.worldMatrixNeedsUpdate = true
}

func (n *Node) refreshWorld() {
	if n.Parent == nil {
		n.worldMatrix = n.matrix
	} else {
		n.worldMatrix = n.Parent.worldMatrix.Mul4(n.matrix)
	}
	n.worldMatrixNeedsUpdate = false
	if n.Camera != nil {
		n.Camera.updateView(n.worldMatrix)
	}
}

// markDirty flags the local matrix as stale.
func (n *Node) markDirty() {
	n.matrixNeedsUpdate = true
	n.markAncestors()
}

// markWorldDirty flags the world matrix as stale, e.g. after reparenting.
func (n *Node) markWorldDirty() {
	n.worldMatrixNeedsUpdate = true
	n.markAncestors()
}

func (n *Node) markAncestors() {
	for p := n.Parent; p != nil && !p.descendantNeedsUpdate; p = p.Parent {
		p.descendantNeedsUpdate = true
	}
}

// --- Orientation ---

// LookAt rotates the node to face a world-space target. Cameras and lights
// point their -Z axis at the target; other nodes point +Z.
func (n *Node) LookAt(target mgl32.Vec3) {
	n.UpdateWorldMatrix()
	pos := n.WorldPosition()

	var rot mgl32.Mat4
	if n.Type == NodeTypeCamera || n.Type == NodeTypeLight {
		rot = lookRotation(pos, target, DefaultUp)
	} else {
		rot = lookRotation(target, pos, DefaultUp)
	}
	q := mgl32.Mat4ToQuat(rot)
	if n.Parent != nil {
		_, pq, _ := decomposeMatrix(n.Parent.worldMatrix)
		q = pq.Inverse().Mul(q)
	}
	n.SetQuaternion(q)
}

// lookRotation returns a rotation whose +Z axis points from target to eye.
func lookRotation(eye, target, up mgl32.Vec3) mgl32.Mat4 {
	z := eye.Sub(target)
	if z.Len() == 0 {
		z[2] = 1
	}
	z = z.Normalize()
	x := up.Cross(z)
	if x.Len() == 0 {
		if math32.Abs(up[2]) == 1 {
			z[0] += 0.0001
		} else {
			z[2] += 0.0001
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return mgl32.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl32.Vec4{0, 0, 0, 1})
}

// decomposeMatrix splits an affine matrix into translation, rotation and
// scale. A negative determinant is folded into the X scale.
func decomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Det() < 0 {
		sx = -sx
	}
	pos := m.Col(3).Vec3()
	if sx == 0 || sy == 0 || sz == 0 {
		return pos, mgl32.QuatIdent(), mgl32.Vec3{sx, sy, sz}
	}
	rot := mgl32.Mat4FromCols(
		m.Col(0).Mul(1/sx),
		m.Col(1).Mul(1/sy),
		m.Col(2).Mul(1/sz),
		mgl32.Vec4{0, 0, 0, 1},
	)
	return pos, mgl32.Mat4ToQuat(rot).Normalize(), mgl32.Vec3{sx, sy, sz}
}

// maxScaleOnAxis returns the largest column length of the upper 3x3 of m.
func maxScaleOnAxis(m mgl32.Mat4) float32 {
	sx := m.Col(0).Vec3().LenSqr()
	sy := m.Col(1).Vec3().LenSqr()
	sz := m.Col(2).Vec3().LenSqr()
	return math32.Sqrt(max(sx, sy, sz))
}

// invertOrIdentity returns the inverse of m, or identity with a warning when m
// is singular.
func invertOrIdentity(m mgl32.Mat4, op string) mgl32.Mat4 {
	if m.Det() == 0 {
		Logger().Warn("arbor: matrix is not invertible, using identity", "op", op)
		return mgl32.Ident4()
	}
	return m.Inv()
}
