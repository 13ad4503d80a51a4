package math

import "testing"

func TestEulerRotationZero(t *testing.T) {
	for _, order := range []RotationOrder{OrderXYZ, OrderZYX, OrderYZX} {
		if got := EulerRotation(Vec3{}, order); got != Identity() {
			t.Errorf("%s: zero angles should give identity, got %v", order, got)
		}
	}
}

func TestEulerRotationSingleAxis(t *testing.T) {
	tests := []struct {
		name   string
		angles Vec3
		in     Vec3
		want   Vec3
	}{
		{"x quarter turn", Vec3{X: halfPi}, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"y quarter turn", Vec3{Y: halfPi}, Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{"z quarter turn", Vec3{Z: halfPi}, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A single axis rotation does not depend on the order.
			for _, order := range []RotationOrder{OrderXYZ, OrderZYX} {
				m := EulerRotation(tt.angles, order)
				got := m.TransformVec3(tt.in)
				if !approxVec(got, tt.want, 1e-5) {
					t.Errorf("%s: got %v, want %v", order, got, tt.want)
				}
			}
		})
	}
}

func TestEulerRotationPreservesLength(t *testing.T) {
	m := EulerRotation(Vec3{0.3, -1.2, 2.1}, OrderZXY)
	v := Vec3{1, 2, 3}
	if d := m.TransformVec3(v).Length() - v.Length(); abs(d) > 1e-4 {
		t.Errorf("rotation changed length by %v", d)
	}
}

func TestParseRotationOrder(t *testing.T) {
	o, err := ParseRotationOrder("ZYX")
	if err != nil || o != OrderZYX {
		t.Errorf("ParseRotationOrder(ZYX) = %v, %v", o, err)
	}
	if _, err := ParseRotationOrder("XXY"); err == nil {
		t.Error("expected error for unknown order")
	}
	if got := RotationOrder(42).String(); got != "Unknown(42)" {
		t.Errorf("String() = %q", got)
	}
}
