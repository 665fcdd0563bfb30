package arbor

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// newTestCamera returns a 60 degree perspective camera at pos looking down -Z
// with its matrices up to date.
func newTestCamera(pos mgl32.Vec3) *Node {
	cam := NewPerspectiveCamera("cam", 60, 1, 0.1, 100)
	cam.SetPositionVec(pos)
	cam.UpdateMatrix(false)
	return cam
}

func placedBox(name string, pos mgl32.Vec3) *Node {
	n := newTestBox(name)
	n.SetPositionVec(pos)
	n.UpdateMatrix(false)
	return n
}

// --- Sphere / Box3 ---

func TestSphereApplyMatrixScalesRadius(t *testing.T) {
	s := Sphere{Center: mgl32.Vec3{1, 0, 0}, Radius: 1}
	m := mgl32.Translate3D(0, 5, 0).Mul4(mgl32.Scale3D(2, 3, 1))
	got := s.ApplyMatrix(m)
	assertVec3(t, "center", got.Center, mgl32.Vec3{2, 5, 0})
	assertNear(t, "radius", got.Radius, 3)
}

func TestEmptyBox(t *testing.T) {
	b := EmptyBox()
	if !b.Empty() {
		t.Fatal("EmptyBox should be empty")
	}
	b.ExpandByPoint(mgl32.Vec3{1, 2, 3})
	if b.Empty() {
		t.Fatal("box with one point should not be empty")
	}
	assertVec3(t, "center", b.Center(), mgl32.Vec3{1, 2, 3})
}

func TestBoxApplyMatrixRotation(t *testing.T) {
	b := Box3{Min: mgl32.Vec3{-1, -2, -3}, Max: mgl32.Vec3{1, 2, 3}}
	got := b.ApplyMatrix(mgl32.HomogRotate3DZ(math32.Pi / 2))
	assertVec3(t, "min", got.Min, mgl32.Vec3{-2, -1, -3})
	assertVec3(t, "max", got.Max, mgl32.Vec3{2, 1, 3})
}

// --- Plane ---

func TestPlaneApplyMatrix(t *testing.T) {
	p := Plane{Normal: mgl32.Vec3{0, 1, 0}, Constant: 0}
	moved := p.ApplyMatrix(mgl32.Translate3D(0, 5, 0))
	assertNear(t, "distance of origin", moved.DistanceToPoint(mgl32.Vec3{}), -5)
	assertNear(t, "distance of (0,5,0)", moved.DistanceToPoint(mgl32.Vec3{0, 5, 0}), 0)
}

// --- Frustum ---

func TestFrustumContainsPointInFront(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	f := cam.Camera.Frustum()
	if !f.ContainsPoint(mgl32.Vec3{0, 0, 0}) {
		t.Error("origin should be inside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, 20}) {
		t.Error("point behind the camera should be outside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, -200}) {
		t.Error("point beyond far should be outside")
	}
}

func TestFrustumSphereOutsideRejected(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	f := cam.Camera.Frustum()
	if f.IntersectsSphere(Sphere{Center: mgl32.Vec3{1000, 0, 0}, Radius: 1}) {
		t.Error("far off-axis sphere should be rejected")
	}
	if !f.IntersectsSphere(Sphere{Center: mgl32.Vec3{0, 0, 0}, Radius: 1}) {
		t.Error("sphere in view should intersect")
	}
}

func TestFrustumSphereAtCameraAccepted(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	if !cam.Camera.Frustum().IntersectsSphere(Sphere{Center: mgl32.Vec3{0, 0, 10}, Radius: 1}) {
		t.Error("sphere around the camera should straddle the near plane")
	}
}

func TestFrustumIntersectsBox(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	f := cam.Camera.Frustum()
	in := Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	out := Box3{Min: mgl32.Vec3{500, 0, 0}, Max: mgl32.Vec3{501, 1, 1}}
	if !f.IntersectsBox(in) {
		t.Error("box at origin should intersect")
	}
	if f.IntersectsBox(out) {
		t.Error("distant box should not intersect")
	}
}

func TestOrthographicFrustum(t *testing.T) {
	cam := NewOrthographicCamera("ortho", -5, 5, 5, -5, 0.1, 50)
	cam.SetPosition(0, 0, 10)
	cam.UpdateMatrix(false)
	f := cam.Camera.Frustum()
	if !f.ContainsPoint(mgl32.Vec3{4, 4, 0}) {
		t.Error("point inside the box should be inside")
	}
	if f.ContainsPoint(mgl32.Vec3{6, 0, 0}) {
		t.Error("point beyond right should be outside")
	}
}

// --- CheckVisibility ---

func TestCheckVisibilityCulls(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	if !CheckVisibility(placedBox("in", mgl32.Vec3{}), cam) {
		t.Error("box in view should be visible")
	}
	if CheckVisibility(placedBox("out", mgl32.Vec3{1000, 0, 0}), cam) {
		t.Error("box off screen should be culled")
	}
}

func TestCheckVisibilityNotRenderable(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	n := placedBox("box", mgl32.Vec3{})
	n.Renderable = false
	if CheckVisibility(n, cam) {
		t.Error("non-renderable node should not be visible")
	}
}

func TestCheckVisibilityObjectCullingDisabled(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	n := placedBox("box", mgl32.Vec3{1000, 0, 0})
	n.FrustumCulled = false
	if !CheckVisibility(n, cam) {
		t.Error("node with culling disabled should be visible")
	}
}

func TestCheckVisibilityCameraCullingDisabled(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	cam.Camera.FrustumCulled = false
	if !CheckVisibility(placedBox("box", mgl32.Vec3{1000, 0, 0}), cam) {
		t.Error("camera with culling disabled should see everything")
	}
}

func TestCheckVisibilityUsesWorldScale(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 10})
	// Center is just outside the right plane; a large scale brings the
	// sphere back into view.
	n := newTestBox("box")
	n.SetPosition(12, 0, 0)
	n.UpdateMatrix(false)
	if CheckVisibility(n, cam) {
		t.Fatal("unscaled box should be culled")
	}
	n.SetScale(10, 10, 10)
	n.UpdateMatrix(false)
	if !CheckVisibility(n, cam) {
		t.Error("scaled box should be visible")
	}
}
