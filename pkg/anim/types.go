// Package anim holds the in-memory animation object graph: tracks, nodes and keyframes.
//
// A loader builds nodes and keyframes, then hands them to Track.AssignObjects which
// links the hierarchy and derives frame counts. Evaluation lives in the playback engine.
package anim

import (
	"fmt"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// EncodingType selects how a track's keyframes turn into a pose.
type EncodingType uint8

const (
	EncodingCommon     EncodingType = iota // Rigid hierarchy, accumulated channels
	EncodingVertexDiff                     // Morph targets on vertex positions
	EncodingNormalDiff                     // Morph targets on normals
	EncodingMatrixDiff                     // Rigid hierarchy, matrix keyframes
	EncodingAxisDiff                       // Rigid hierarchy, axis keyframes
	EncodingHMD                            // Per-coordinate interpolation, no hierarchy
)

var encodingNames = [...]string{
	EncodingCommon:     "Common",
	EncodingVertexDiff: "VertexDiff",
	EncodingNormalDiff: "NormalDiff",
	EncodingMatrixDiff: "MatrixDiff",
	EncodingAxisDiff:   "AxisDiff",
	EncodingHMD:        "HMD",
}

// String returns a human-readable encoding name.
func (e EncodingType) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(e))
}

// ParseEncoding parses an encoding name as returned by String.
func ParseEncoding(s string) (EncodingType, error) {
	for i, name := range encodingNames {
		if name == s {
			return EncodingType(i), nil
		}
	}
	return EncodingCommon, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// InterpKind is the interpolation applied to one keyframe channel.
type InterpKind uint8

const (
	InterpNone InterpKind = iota
	InterpLinear
	InterpBezier
	InterpBSpline
)

var interpNames = [...]string{
	InterpNone:    "None",
	InterpLinear:  "Linear",
	InterpBezier:  "Bezier",
	InterpBSpline: "BSpline",
}

// String returns a human-readable interpolation name.
func (k InterpKind) String() string {
	if int(k) < len(interpNames) {
		return interpNames[k]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// ParseInterpKind parses an interpolation name as returned by String.
func ParseInterpKind(s string) (InterpKind, error) {
	for i, name := range interpNames {
		if name == s {
			return InterpKind(i), nil
		}
	}
	return InterpNone, fmt.Errorf("unknown interpolation %q", s)
}

// OptVec3 is a vector that is either present or absent.
// The zero value is absent, which is distinct from a present zero vector.
type OptVec3 struct {
	v  math.Vec3
	ok bool
}

// Some returns a present vector.
func Some(v math.Vec3) OptVec3 {
	return OptVec3{v: v, ok: true}
}

// None returns an absent vector.
func None() OptVec3 {
	return OptVec3{}
}

// Get returns the vector and whether it is present.
func (o OptVec3) Get() (math.Vec3, bool) {
	return o.v, o.ok
}

// IsSet reports whether the vector is present.
func (o OptVec3) IsSet() bool {
	return o.ok
}

// Or returns the vector, or def when absent.
func (o OptVec3) Or(def math.Vec3) math.Vec3 {
	if o.ok {
		return o.v
	}
	return def
}

// OptMatrix is a full 3x3 rotation/scale matrix plus a transfer vector, present or absent.
type OptMatrix struct {
	m        [9]float32
	transfer math.Vec3
	ok       bool
}

// SomeMatrix returns a present matrix with its transfer (translation) vector.
func SomeMatrix(m [9]float32, transfer math.Vec3) OptMatrix {
	return OptMatrix{m: m, transfer: transfer, ok: true}
}

// IsSet reports whether the matrix is present.
func (o OptMatrix) IsSet() bool {
	return o.ok
}

// Mat4 returns the matrix with its transfer vector as translation.
// An absent matrix yields identity.
func (o OptMatrix) Mat4() math.Mat4 {
	if !o.ok {
		return math.Identity()
	}
	return math.FromMat3x3(o.m).WithTranslation(o.transfer)
}
