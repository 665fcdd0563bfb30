package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightShadow is a light's shadow descriptor: a dedicated shadow camera and
// the render target its depth is drawn into. It lives as long as its light.
type LightShadow struct {
	Camera     *Node
	MapSize    [2]int
	Bias       float32
	NormalBias float32
	Radius     float32
	// Focus scales the spot light shadow frustum.
	Focus float32

	// AutoUpdate re-renders the map every frame. When false the map is
	// rendered only while NeedsUpdate is set.
	AutoUpdate  bool
	NeedsUpdate bool

	// Map is acquired by the shadow pass on first render.
	Map *RenderTarget
	// Matrix maps world positions to shadow texture space. For point lights
	// it only translates to the light position; faces are chosen by
	// direction.
	Matrix mgl32.Mat4
}

func newLightShadow(camera *Node) *LightShadow {
	return &LightShadow{
		Camera:     camera,
		MapSize:    [2]int{512, 512},
		Radius:     1,
		Focus:      1,
		AutoUpdate: true,
		Matrix:     mgl32.Ident4(),
	}
}

// Cube face look directions and up vectors, in +X, -X, +Y, -Y, +Z, -Z order.
var (
	cubeDirections = [6]mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	cubeUps        = [6]mgl32.Vec3{{0, -1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}, {0, -1, 0}, {0, -1, 0}}
)

// shadowBias maps clip space [-1, 1] to texture space [0, 1].
var shadowBias = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 0.5, 0,
	0.5, 0.5, 0.5, 1,
}

func (s *LightShadow) faces(kind LightType) int {
	if kind == PointLight {
		return 6
	}
	return 1
}

func (s *LightShadow) attachmentKind(kind LightType) AttachmentKind {
	if kind == PointLight {
		return AttachmentCube
	}
	return Attachment2D
}

// updateMatrices positions the shadow camera for light and face and refreshes
// Matrix. The light's world matrix must be current.
func (s *LightShadow) updateMatrices(light *Node, face int) {
	l := light.Light
	cam := s.Camera
	eye := light.WorldPosition()

	switch l.Kind {
	case PointLight:
		c := cam.Camera
		if far := l.Distance; far > 0 && far != c.Far {
			c.Far = far
			c.UpdateProjectionMatrix()
		}
		placeShadowCamera(cam, eye, eye.Add(cubeDirections[face]), cubeUps[face])
		s.Matrix = mgl32.Translate3D(-eye[0], -eye[1], -eye[2])
		return

	case SpotLight:
		c := cam.Camera
		fov := mgl32.RadToDeg(2*l.Angle) * s.Focus
		aspect := float32(s.MapSize[0]) / float32(max(s.MapSize[1], 1))
		far := c.Far
		if l.Distance > 0 {
			far = l.Distance
		}
		if fov != c.Fov || aspect != c.Aspect || far != c.Far {
			c.Fov, c.Aspect, c.Far = fov, aspect, far
			c.UpdateProjectionMatrix()
		}
	}

	placeShadowCamera(cam, eye, l.TargetPosition(), DefaultUp)
	s.Matrix = shadowBias.Mul4(cam.Camera.projectionViewMatrix)
}

func placeShadowCamera(cam *Node, eye, target, up mgl32.Vec3) {
	cam.SetPositionVec(eye)
	cam.SetQuaternion(mgl32.Mat4ToQuat(lookRotation(eye, target, up)))
	cam.UpdateMatrix(false)
}

func (s *LightShadow) release() {
	if s.Map != nil {
		Release(s.Map)
		s.Map = nil
	}
}

// --- ShadowMapPass ---

// ShadowMapPass renders a depth map for every shadow-casting light collected
// this frame. Each light's shadow camera goes through the same collector as
// the main camera, restricted to shadow-casting meshes, so skeletons and
// lighting are not recomputed.
type ShadowMapPass struct {
	Enabled bool
	// AutoUpdate renders every frame. When false the pass runs only while
	// NeedsUpdate is set.
	AutoUpdate  bool
	NeedsUpdate bool

	collector *RenderCollector
	pool      *renderTargetPool
	resources *Resources
	output    OutputSettings
	mapSize   int

	// rendered counts maps rendered by the last Render.
	rendered int
}

func newShadowMapPass(cfg Config, collector *RenderCollector, pool *renderTargetPool, resources *Resources) *ShadowMapPass {
	return &ShadowMapPass{
		Enabled:    cfg.ShadowMap.Enabled,
		AutoUpdate: cfg.ShadowMap.AutoUpdate,
		collector:  collector,
		pool:       pool,
		resources:  resources,
		output:     OutputSettings{ColorSpace: ColorSpaceLinear},
		mapSize:    cfg.ShadowMap.MapSize,
	}
}

// castShadowFilter keeps only meshes that cast shadows.
func castShadowFilter(n *Node) bool {
	return n.CastShadow
}

// Render draws the shadow maps of scene's shadow-casting lights through
// backend. The scene's lighting must already be collected for this frame.
// Returns the number of maps rendered.
func (p *ShadowMapPass) Render(scene *Scene, backend Backend) int {
	p.rendered = 0
	if !p.Enabled {
		return 0
	}
	if !p.AutoUpdate && !p.NeedsUpdate {
		return 0
	}
	lighting := p.collector.LightingData(scene)
	if !lighting.Locked() {
		Logger().Warn("arbor: shadow pass before lighting was collected")
		return 0
	}

	for _, light := range lighting.ShadowLights() {
		shadow := light.Light.Shadow
		if !shadow.AutoUpdate && !shadow.NeedsUpdate {
			continue
		}
		p.ensureMap(light)
		for face := 0; face < shadow.faces(light.Light.Kind); face++ {
			shadow.updateMatrices(light, face)
			cam := shadow.Camera
			queue := p.collector.TraverseAndCollectFiltered(scene, cam, castShadowFilter)
			states := p.collector.RenderStates(scene, cam)
			states.UpdateCamera(cam, p.output)
			shadow.Map.Image(face).Clear()
			backend.Submit(&Submission{
				Target: shadow.Map,
				Face:   face,
				Queue:  queue,
				States: states,
				Pass:   PassShadow,
				Light:  light,
			})
		}
		shadow.NeedsUpdate = false
		p.rendered++
	}
	p.NeedsUpdate = false
	if p.rendered > 0 {
		lighting.RefreshUniforms(p.collector.SceneData(scene))
	}
	return p.rendered
}

// ensureMap acquires a target matching the light's shadow map size, replacing
// a stale one.
func (p *ShadowMapPass) ensureMap(light *Node) {
	shadow := light.Light.Shadow
	if shadow.MapSize[0] <= 0 || shadow.MapSize[1] <= 0 {
		shadow.MapSize = [2]int{p.mapSize, p.mapSize}
	}
	w, h := nextPowerOfTwo(shadow.MapSize[0]), nextPowerOfTwo(shadow.MapSize[1])
	kind := shadow.attachmentKind(light.Light.Kind)
	if m := shadow.Map; m != nil && m.Width == w && m.Height == h && m.Kind == kind && !IsFreed(m) {
		return
	}
	shadow.release()
	t := newRenderTarget(light.Name+".shadowMap", kind, w, h, 0, p.pool)
	p.resources.Track(t)
	Retain(t)
	shadow.Map = t
}
