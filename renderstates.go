package arbor

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OutputSettings describes how a pass encodes its final color.
type OutputSettings struct {
	ColorSpace          ColorSpace
	ToneMapping         ToneMapping
	ToneMappingExposure float32
}

// CameraState is the camera-derived part of RenderStates. Positions and
// matrices are anchor-relative when the scene has an anchor.
type CameraState struct {
	Projection ProjectionType
	Near, Far  float32

	Position             mgl32.Vec3
	ViewMatrix           mgl32.Mat4
	ProjectionMatrix     mgl32.Mat4
	ProjectionViewMatrix mgl32.Mat4
	Viewport             Rect

	Output OutputSettings

	LogarithmicDepthBuffer bool
	LogDepthBufFC          float32

	// Version is bumped by every UpdateCamera, whether or not anything
	// changed.
	Version uint64
}

// RenderStates is the per-(scene, camera) snapshot handed to backends.
// Scene and Lighting are shared by every RenderStates of the scene.
type RenderStates struct {
	Scene    *SceneData
	Lighting *LightingData
	Camera   CameraState
}

func newRenderStates(sd *SceneData, ld *LightingData) *RenderStates {
	return &RenderStates{Scene: sd, Lighting: ld}
}

// UpdateCamera refreshes the camera snapshot from camera.
func (s *RenderStates) UpdateCamera(camera *Node, out OutputSettings) {
	c := camera.Camera
	cs := &s.Camera
	if c == nil {
		Logger().Warn("arbor: render states updated from a non-camera node", "node", camera.Name)
		cs.Version++
		return
	}

	proj := c.projectionMatrix
	cs.ProjectionMatrix = proj
	cs.Projection, cs.Near, cs.Far = nearFarFromProjection(proj)

	view := c.viewMatrix
	pos := camera.WorldPosition()
	if s.Scene.HasAnchor {
		pos = s.Scene.AnchorMatrixInverse.Mul4x1(pos.Vec4(1)).Vec3()
		view = view.Mul4(s.Scene.AnchorMatrix)
	}
	cs.Position = pos
	cs.ViewMatrix = view
	cs.ProjectionViewMatrix = proj.Mul4(view)
	cs.Viewport = c.Viewport
	cs.Output = out

	cs.LogarithmicDepthBuffer = s.Scene.LogarithmicDepthBuffer
	cs.LogDepthBufFC = 0
	if cs.LogarithmicDepthBuffer {
		cs.LogDepthBufFC = 2 / math32.Log2(cs.Far+1)
	}

	cs.Version++
}

// nearFarFromProjection recovers the clip planes from a projection matrix.
// Element [11] is -1 for perspective matrices.
func nearFarFromProjection(m mgl32.Mat4) (ProjectionType, float32, float32) {
	if m[11] == -1 {
		return PerspectiveProjection, m[14] / (m[10] - 1), m[14] / (m[10] + 1)
	}
	if m[10] == 0 {
		return OrthographicProjection, 0, 0
	}
	return OrthographicProjection, (m[14] + 1) / m[10], (m[14] - 1) / m[10]
}
