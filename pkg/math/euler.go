package math

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// RotationOrder names the axis sequence used to build a rotation from Euler angles.
type RotationOrder uint8

const (
	OrderXYZ RotationOrder = iota
	OrderXZY
	OrderYXZ
	OrderYZX
	OrderZXY
	OrderZYX
)

var rotationOrders = [...]struct {
	name string
	axes [3]int
	mgl  mgl32.RotationOrder
}{
	OrderXYZ: {"XYZ", [3]int{0, 1, 2}, mgl32.XYZ},
	OrderXZY: {"XZY", [3]int{0, 2, 1}, mgl32.XZY},
	OrderYXZ: {"YXZ", [3]int{1, 0, 2}, mgl32.YXZ},
	OrderYZX: {"YZX", [3]int{1, 2, 0}, mgl32.YZX},
	OrderZXY: {"ZXY", [3]int{2, 0, 1}, mgl32.ZXY},
	OrderZYX: {"ZYX", [3]int{2, 1, 0}, mgl32.ZYX},
}

// String returns the axis sequence, e.g. "XYZ".
func (o RotationOrder) String() string {
	if int(o) < len(rotationOrders) {
		return rotationOrders[o].name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(o))
}

// ParseRotationOrder parses an axis sequence such as "ZYX".
func ParseRotationOrder(s string) (RotationOrder, error) {
	for i, o := range rotationOrders {
		if o.name == s {
			return RotationOrder(i), nil
		}
	}
	return OrderXYZ, fmt.Errorf("unknown rotation order %q", s)
}

// EulerRotation builds a rotation matrix from per-axis angles in radians.
// Unknown orders fall back to XYZ.
func EulerRotation(angles Vec3, order RotationOrder) Mat4 {
	if angles == (Vec3{}) {
		return Identity()
	}
	if int(order) >= len(rotationOrders) {
		order = OrderXYZ
	}
	o := rotationOrders[order]
	a := [3]float32{angles.X, angles.Y, angles.Z}
	q := mgl32.AnglesToQuat(a[o.axes[0]], a[o.axes[1]], a[o.axes[2]], o.mgl)
	return QuatFromMgl(q).ToMat4()
}
