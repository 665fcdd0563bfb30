package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SceneData is the per-frame snapshot of scene-wide state shared by every
// RenderStates of a scene. It is rebuilt from the Scene on each Update.
type SceneData struct {
	Fog                  *Fog
	Background           Color
	Environment          *Texture
	EnvironmentIntensity float32
	BackgroundIntensity  float32

	AnchorMatrix        mgl32.Mat4
	AnchorMatrixInverse mgl32.Mat4
	HasAnchor           bool

	// ClippingPlanes holds anchor-relative planes flattened as
	// (nx, ny, nz, constant) quadruples.
	ClippingPlanes    []float32
	NumClippingPlanes int

	LogarithmicDepthBuffer bool

	// Version is incremented by every Update.
	Version uint64
}

func newSceneData() *SceneData {
	return &SceneData{
		AnchorMatrix:        mgl32.Ident4(),
		AnchorMatrixInverse: mgl32.Ident4(),
	}
}

// Update rebuilds the snapshot from scene.
func (d *SceneData) Update(scene *Scene) {
	d.Fog = scene.Fog
	d.Background = scene.Background
	d.Environment = scene.Environment
	d.EnvironmentIntensity = scene.EnvironmentIntensity
	d.BackgroundIntensity = scene.BackgroundIntensity
	d.LogarithmicDepthBuffer = scene.LogarithmicDepthBuffer

	d.AnchorMatrix = scene.anchor
	d.AnchorMatrixInverse = scene.anchorInverse
	d.HasAnchor = scene.hasAnchor

	d.ClippingPlanes = d.ClippingPlanes[:0]
	for _, p := range scene.ClippingPlanes {
		if d.HasAnchor {
			p = p.ApplyMatrix(d.AnchorMatrixInverse)
		}
		d.ClippingPlanes = append(d.ClippingPlanes, p.Normal[0], p.Normal[1], p.Normal[2], p.Constant)
	}
	d.NumClippingPlanes = len(scene.ClippingPlanes)

	d.Version++
}

// toAnchor converts a world-space point to anchor-relative space.
func (d *SceneData) toAnchor(p mgl32.Vec3) mgl32.Vec3 {
	if !d.HasAnchor {
		return p
	}
	return d.AnchorMatrixInverse.Mul4x1(p.Vec4(1)).Vec3()
}

// directionToAnchor converts a world-space direction to anchor-relative space.
func (d *SceneData) directionToAnchor(v mgl32.Vec3) mgl32.Vec3 {
	if !d.HasAnchor {
		return v
	}
	r := d.AnchorMatrixInverse.Mul4x1(v.Vec4(0)).Vec3()
	if r.Len() == 0 {
		return r
	}
	return r.Normalize()
}
