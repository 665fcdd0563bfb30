package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic: the scene graph is
// single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is the fundamental scene graph element. A single flat struct is used for
// every kind of node; Type selects which payload pointer is set.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy. Parent is a non-owning back-reference.
	Parent   *Node
	children []*Node

	// Local transform. Mutate through the setters so the dirty flags and the
	// euler/quaternion pair stay consistent.
	position   mgl32.Vec3
	scale      mgl32.Vec3
	quaternion mgl32.Quat
	rotation   Euler

	matrix      mgl32.Mat4
	worldMatrix mgl32.Mat4

	matrixNeedsUpdate      bool
	worldMatrixNeedsUpdate bool
	// descendantNeedsUpdate is set on every ancestor of a dirty node so that
	// UpdateMatrix can skip clean subtrees without visiting them.
	descendantNeedsUpdate bool

	// Visibility
	Visible       bool // false hides the node and its whole subtree
	Renderable    bool // false skips drawing this node only
	FrustumCulled bool
	Layers        Layers

	// Shadows
	CastShadow    bool
	ReceiveShadow bool

	// Ordering
	RenderOrder int
	RenderLayer int

	// LightingGroup selects which lighting group shades this node's meshes.
	LightingGroup int

	// Metadata
	UserData any

	// Payloads
	Mesh   *Mesh   // NodeTypeMesh
	Light  *Light  // NodeTypeLight
	Camera *Camera // NodeTypeCamera

	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.scale = mgl32.Vec3{1, 1, 1}
	n.quaternion = mgl32.QuatIdent()
	n.matrix = mgl32.Ident4()
	n.worldMatrix = mgl32.Ident4()
	n.Visible = true
	n.Renderable = true
	n.FrustumCulled = true
	n.Layers = DefaultLayers
	n.matrixNeedsUpdate = true
	n.worldMatrixNeedsUpdate = true
}

// NewGroup creates a transform-only node.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewBone creates a joint node for use in a Skeleton.
func NewBone(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeBone}
	nodeDefaults(n)
	return n
}

// --- Tree manipulation ---

// AddChild appends child to this node's children. If child already has a
// parent it is detached first. Panics if child is nil or if the add would
// create a cycle.
func (n *Node) AddChild(child *Node) {
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("arbor: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	child.markWorldDirty()
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("arbor: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	child.markWorldDirty()
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.Parent = nil
		child.markWorldDirty()
	}
	clear(n.children)
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// Traverse calls fn for n and every descendant, depth-first, parents first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, child := range n.children {
		child.Traverse(fn)
	}
}

// TraverseVisible is like Traverse but skips invisible subtrees entirely.
func (n *Node) TraverseVisible(fn func(*Node)) {
	if !n.Visible {
		return
	}
	fn(n)
	for _, child := range n.children {
		child.TraverseVisible(fn)
	}
}

// FindByName returns the first node in the subtree (including n) whose Name
// matches, or nil.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed, and
// recursively disposes all descendants. Shared geometry and materials are
// released through their handles, not freed: other meshes may still hold them.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.UserData = nil
	if n.Mesh != nil {
		n.Mesh.release()
		n.Mesh = nil
	}
	if n.Light != nil {
		n.Light.release()
		n.Light = nil
	}
	n.Camera = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
