package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FogKind selects the fog falloff.
type FogKind uint8

const (
	FogLinear FogKind = iota
	FogExp2
)

// Fog blends distant fragments toward Color.
type Fog struct {
	Kind    FogKind
	Color   Color
	Near    float32 // FogLinear
	Far     float32 // FogLinear
	Density float32 // FogExp2
}

// Scene is the top-level object that owns the node tree and the scene-wide
// rendering parameters consumed by SceneData.
type Scene struct {
	root  *Node
	debug bool

	Fog                  *Fog
	Background           Color
	Environment          *Texture
	EnvironmentIntensity float32
	BackgroundIntensity  float32

	// ClippingPlanes are world-space planes; fragments on the negative side
	// are discarded by backends.
	ClippingPlanes []Plane

	// LogarithmicDepthBuffer requests log-depth coefficients in RenderStates.
	LogarithmicDepthBuffer bool

	anchor        mgl32.Mat4
	anchorInverse mgl32.Mat4
	hasAnchor     bool

	tweens []*TweenGroup
}

// NewScene creates a new scene with a pre-created root group.
func NewScene() *Scene {
	return &Scene{
		root:                 NewGroup("root"),
		EnvironmentIntensity: 1,
		BackgroundIntensity:  1,
		anchor:               mgl32.Ident4(),
		anchorInverse:        mgl32.Ident4(),
	}
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Add appends nodes to the root.
func (s *Scene) Add(nodes ...*Node) {
	for _, n := range nodes {
		s.root.AddChild(n)
	}
}

// SetAnchor moves the rendering origin to the world transform m. Camera and
// light positions handed to backends are expressed relative to it, keeping
// float32 precision when the camera is far from the world origin.
func (s *Scene) SetAnchor(m mgl32.Mat4) {
	s.anchor = m
	s.anchorInverse = invertOrIdentity(m, "Scene.SetAnchor")
	if s.anchorInverse == mgl32.Ident4() && m != mgl32.Ident4() {
		// Singular anchor: fall back to the world origin entirely.
		s.anchor = mgl32.Ident4()
	}
	s.hasAnchor = s.anchor != mgl32.Ident4()
}

// ClearAnchor restores the world origin as the rendering origin.
func (s *Scene) ClearAnchor() {
	s.anchor = mgl32.Ident4()
	s.anchorInverse = mgl32.Ident4()
	s.hasAnchor = false
}

// Anchor returns the anchor matrix and whether one is set.
func (s *Scene) Anchor() (mgl32.Mat4, bool) {
	return s.anchor, s.hasAnchor
}

// AddTween registers a tween group advanced by Update. Finished groups are
// dropped automatically.
func (s *Scene) AddTween(tg *TweenGroup) {
	s.tweens = append(s.tweens, tg)
}

// Update advances tweens by dt seconds and moves following cameras. Call it
// once per tick before rendering.
func (s *Scene) Update(dt float32) {
	kept := s.tweens[:0]
	for _, tg := range s.tweens {
		tg.Update(dt)
		if !tg.Done {
			kept = append(kept, tg)
		}
	}
	clear(s.tweens[len(kept):])
	s.tweens = kept

	s.root.Traverse(func(n *Node) {
		if n.Camera != nil {
			n.Camera.updateFollow(n)
		}
	})
}

// UpdateMatrices propagates transforms through the whole tree.
func (s *Scene) UpdateMatrices() {
	s.root.UpdateMatrix(false)
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are logged, and per-frame
// stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply.
var globalDebug bool
