package anim

import "github.com/Faultbox/midgard-anim/pkg/math"

// Channel is one transform channel (rotation, scale or translation) of a keyframe.
type Channel struct {
	// Value is the sample; rotation channels hold Euler angles in radians.
	Value OptVec3
	// Absolute overwrites the accumulated value instead of adding onto it (Common encoding).
	Absolute bool

	// Interp, Final and Curve drive HMD interpolation from Value toward Final.
	Interp InterpKind
	Final  OptVec3
	Curve  []math.Vec3
}

// Interpolate evaluates the channel at fraction d.
func (c Channel) Interpolate(d float32) math.Vec3 {
	return Interpolate(c.Interp, c.Value, c.Curve, c.Final, d)
}

// Interpolated reports whether the channel requests a supported interpolation.
func (c Channel) Interpolated() bool {
	switch c.Interp {
	case InterpLinear, InterpBezier, InterpBSpline:
		return true
	}
	return false
}

// Keyframe is one sample of a node's channels at a frame index.
type Keyframe struct {
	FrameTime uint32
	// FrameDuration is 0 when instantaneous or unset.
	FrameDuration uint32

	Rotation    Channel
	Scale       Channel
	Translation Channel

	// Matrix takes precedence over the Euler/scale/translation channels when set.
	Matrix OptMatrix

	// Vertices is the morph buffer for VertexDiff and NormalDiff tracks.
	Vertices []math.Vec3
}

// FrameEnd returns FrameTime + FrameDuration.
func (k *Keyframe) FrameEnd() uint32 {
	return k.FrameTime + k.FrameDuration
}

// Fraction returns the interpolation progress of the keyframe at frame time t:
// 0 before its start, 1 at or past its end (zero-duration keyframes included),
// otherwise the elapsed fraction of its duration.
func (k *Keyframe) Fraction(t float64) float32 {
	start := float64(k.FrameTime)
	if t < start {
		return 0
	}
	if k.FrameDuration == 0 || t >= float64(k.FrameEnd()) {
		return 1
	}
	d := (t - start) / float64(k.FrameDuration)
	if d < 0 {
		d = 0
	} else if d > 1 {
		d = 1
	}
	return float32(d)
}
