package anim

import "github.com/Faultbox/midgard-anim/pkg/math"

// Interpolate evaluates one interpolated channel at fraction d in [0, 1].
//
// InterpNone, a missing source, or an unusable curve yield the zero vector so the
// channel contributes nothing. Linear blends src toward dst (dst defaults to src).
// Bezier and BSpline need at least 3 control points and a present dst, which is
// used as the fourth curve point.
func Interpolate(kind InterpKind, src OptVec3, curve []math.Vec3, dst OptVec3, d float32) math.Vec3 {
	from, ok := src.Get()
	if !ok {
		return math.Vec3{}
	}

	switch kind {
	case InterpLinear:
		return from.Lerp(dst.Or(from), d)
	case InterpBezier, InterpBSpline:
		to, ok := dst.Get()
		if !ok || len(curve) < 3 {
			return math.Vec3{}
		}
		if kind == InterpBezier {
			return math.BezierCurve(curve[0], curve[1], curve[2], to, d)
		}
		return math.BSplineCurve(curve[0], curve[1], curve[2], to, d)
	}
	return math.Vec3{}
}
