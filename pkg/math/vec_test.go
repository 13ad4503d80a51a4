package math

import (
	"testing"
)

func TestVec3Mul(t *testing.T) {
	got := Vec3{1, 2, 3}.Mul(Vec3{2, 3, 4})
	want := Vec3{2, 6, 12}
	if got != want {
		t.Errorf("Vec3.Mul() = %v, want %v", got, want)
	}
}

func TestVec3Lerp(t *testing.T) {
	got := Vec3{}.Lerp(Vec3{10, 0, 0}, 0.5)
	want := Vec3{5, 0, 0}
	if got != want {
		t.Errorf("Vec3.Lerp() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec3MglRoundTrip(t *testing.T) {
	v := Vec3{1, -2, 3}
	if got := Vec3FromMgl(v.Mgl()); got != v {
		t.Errorf("Vec3FromMgl(v.Mgl()) = %v, want %v", got, v)
	}
}
