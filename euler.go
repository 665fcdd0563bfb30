package arbor

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// EulerOrder is the order in which the three axis rotations are applied.
type EulerOrder uint8

const (
	OrderXYZ EulerOrder = iota
	OrderYXZ
	OrderZXY
	OrderZYX
	OrderYZX
	OrderXZY
)

var eulerOrderAxes = [...][3]uint8{
	OrderXYZ: {0, 1, 2},
	OrderYXZ: {1, 0, 2},
	OrderZXY: {2, 0, 1},
	OrderZYX: {2, 1, 0},
	OrderYZX: {1, 2, 0},
	OrderXZY: {0, 2, 1},
}

// Euler is a rotation expressed as three angles in radians plus an order.
// Node keeps one in sync with its quaternion.
type Euler struct {
	X, Y, Z float32
	Order   EulerOrder
}

// Quat returns the quaternion equivalent of e.
func (e Euler) Quat() mgl32.Quat {
	angles := [3]float32{e.X, e.Y, e.Z}
	axes := [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	order := eulerOrderAxes[OrderXYZ]
	if int(e.Order) < len(eulerOrderAxes) {
		order = eulerOrderAxes[e.Order]
	}
	q := mgl32.QuatIdent()
	for _, a := range order {
		q = q.Mul(mgl32.QuatRotate(angles[a], axes[a]))
	}
	return q.Normalize()
}

// EulerFromQuat returns the angles of q decomposed in the given order.
func EulerFromQuat(q mgl32.Quat, order EulerOrder) Euler {
	return EulerFromMatrix(q.Normalize().Mat4(), order)
}

const gimbalEpsilon = 0.9999999

// EulerFromMatrix extracts angles from the upper 3x3 of m, which must be a
// pure (unscaled) rotation.
func EulerFromMatrix(m mgl32.Mat4, order EulerOrder) Euler {
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m21, m22, m23 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m31, m32, m33 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	e := Euler{Order: order}
	switch order {
	case OrderYXZ:
		e.X = math32.Asin(-mgl32.Clamp(m23, -1, 1))
		if math32.Abs(m23) < gimbalEpsilon {
			e.Y = math32.Atan2(m13, m33)
			e.Z = math32.Atan2(m21, m22)
		} else {
			e.Y = math32.Atan2(-m31, m11)
		}
	case OrderZXY:
		e.X = math32.Asin(mgl32.Clamp(m32, -1, 1))
		if math32.Abs(m32) < gimbalEpsilon {
			e.Y = math32.Atan2(-m31, m33)
			e.Z = math32.Atan2(-m12, m22)
		} else {
			e.Z = math32.Atan2(m21, m11)
		}
	case OrderZYX:
		e.Y = math32.Asin(-mgl32.Clamp(m31, -1, 1))
		if math32.Abs(m31) < gimbalEpsilon {
			e.X = math32.Atan2(m32, m33)
			e.Z = math32.Atan2(m21, m11)
		} else {
			e.Z = math32.Atan2(-m12, m22)
		}
	case OrderYZX:
		e.Z = math32.Asin(mgl32.Clamp(m21, -1, 1))
		if math32.Abs(m21) < gimbalEpsilon {
			e.X = math32.Atan2(-m23, m22)
			e.Y = math32.Atan2(-m31, m11)
		} else {
			e.Y = math32.Atan2(m13, m33)
		}
	case OrderXZY:
		e.Z = math32.Asin(-mgl32.Clamp(m12, -1, 1))
		if math32.Abs(m12) < gimbalEpsilon {
			e.X = math32.Atan2(m32, m22)
			e.Y = math32.Atan2(m13, m11)
		} else {
			e.X = math32.Atan2(-m23, m33)
		}
	case OrderXYZ:
		e.Y = math32.Asin(mgl32.Clamp(m13, -1, 1))
		if math32.Abs(m13) < gimbalEpsilon {
			e.X = math32.Atan2(-m23, m33)
			e.Z = math32.Atan2(-m12, m11)
		} else {
			e.X = math32.Atan2(m32, m22)
		}
	default:
		Logger().Warn("arbor: unrecognized euler order, angles left at zero", "order", uint8(order))
	}
	return e
}
