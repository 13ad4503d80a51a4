package math

import "testing"

func TestBezierCurveEndpoints(t *testing.T) {
	p0, p1, p2, p3 := Vec3{}, Vec3{1, 2, 0}, Vec3{3, 2, 0}, Vec3{4, 0, 0}

	if got := BezierCurve(p0, p1, p2, p3, 0); !approxVec(got, p0, 1e-6) {
		t.Errorf("t=0: got %v, want %v", got, p0)
	}
	if got := BezierCurve(p0, p1, p2, p3, 1); !approxVec(got, p3, 1e-6) {
		t.Errorf("t=1: got %v, want %v", got, p3)
	}
	// Symmetric control polygon peaks at the midpoint.
	if got := BezierCurve(p0, p1, p2, p3, 0.5); !approxVec(got, Vec3{2, 1.5, 0}, 1e-5) {
		t.Errorf("t=0.5: got %v, want (2, 1.5, 0)", got)
	}
}

func TestBSplineCurve(t *testing.T) {
	// Collinear evenly spaced points trace a straight line.
	p0, p1, p2, p3 := Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{2, 0, 0}, Vec3{3, 0, 0}

	if got := BSplineCurve(p0, p1, p2, p3, 0); !approxVec(got, Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("t=0: got %v, want (1, 0, 0)", got)
	}
	if got := BSplineCurve(p0, p1, p2, p3, 1); !approxVec(got, Vec3{2, 0, 0}, 1e-5) {
		t.Errorf("t=1: got %v, want (2, 0, 0)", got)
	}
	if got := BSplineCurve(p0, p1, p2, p3, 0.5); !approxVec(got, Vec3{1.5, 0, 0}, 1e-5) {
		t.Errorf("t=0.5: got %v, want (1.5, 0, 0)", got)
	}
}
