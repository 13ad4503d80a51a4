package math

import "github.com/go-gl/mathgl/mgl32"

// BezierCurve evaluates the cubic Bezier curve through p0..p3 at t.
func BezierCurve(p0, p1, p2, p3 Vec3, t float32) Vec3 {
	return Vec3FromMgl(mgl32.CubicBezierCurve3D(t, p0.Mgl(), p1.Mgl(), p2.Mgl(), p3.Mgl()))
}

// BSplineCurve evaluates the uniform cubic B-spline segment defined by p0..p3 at t.
func BSplineCurve(p0, p1, p2, p3 Vec3, t float32) Vec3 {
	t2 := t * t
	t3 := t2 * t
	it := 1 - t

	b0 := it * it * it / 6
	b1 := (3*t3 - 6*t2 + 4) / 6
	b2 := (-3*t3 + 3*t2 + 3*t + 1) / 6
	b3 := t3 / 6

	return p0.Scale(b0).Add(p1.Scale(b1)).Add(p2.Scale(b2)).Add(p3.Scale(b3))
}
