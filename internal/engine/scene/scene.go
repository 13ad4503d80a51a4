// Package scene models the targets an animation writes to: entities, their
// renderable models and, for HMD data, their coordinate frames.
//
// The renderer reads World and the interpolation buffers; the playback engine
// is the only writer during an evaluation pass.
package scene

import (
	"github.com/google/uuid"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// Interpolation is an in-progress morph between two buffers.
// The renderer blends per element: Initial + (Final - Initial) * Fraction.
type Interpolation struct {
	Initial  []math.Vec3
	Final    []math.Vec3
	Fraction float32
}

// Active reports whether a morph is set.
func (i *Interpolation) Active() bool {
	return i.Final != nil
}

// Clear drops the morph state.
func (i *Interpolation) Clear() {
	*i = Interpolation{}
}

// Blend returns the interpolated buffer, mainly for tools and tests.
func (i *Interpolation) Blend() []math.Vec3 {
	out := make([]math.Vec3, len(i.Final))
	for j, to := range i.Final {
		var from math.Vec3
		if j < len(i.Initial) {
			from = i.Initial[j]
		}
		out[j] = from.Lerp(to, i.Fraction)
	}
	return out
}

// Model is a renderable node driven by a track target identifier.
type Model struct {
	Name     string
	TargetID uint32
	// Coordinate is the 1-based HMD coordinate the model follows, 0 for none.
	Coordinate int

	// World is the displayed transform and may carry manual (gizmo) offsets.
	World math.Mat4
	// Authored is the transform last written by animation or loading.
	Authored math.Mat4

	Vertices Interpolation
	Normals  Interpolation
}

// NewModel creates a model at identity.
func NewModel(name string, targetID uint32) *Model {
	return &Model{
		Name:     name,
		TargetID: targetID,
		World:    math.Identity(),
		Authored: math.Identity(),
	}
}

// Offset returns the manual adjustment applied on top of the authored transform.
func (m *Model) Offset() math.Mat4 {
	return m.Authored.Inverse().Mul(m.World)
}

// SetAuthored replaces the authored transform while keeping the manual offset.
func (m *Model) SetAuthored(authored math.Mat4) {
	offset := m.Offset()
	m.Authored = authored
	m.World = authored.Mul(offset)
}

// ClearInterpolation drops any vertex and normal morph state.
func (m *Model) ClearInterpolation() {
	m.Vertices.Clear()
	m.Normals.Clear()
}

// Coordinate is an HMD coordinate frame with its authored state.
type Coordinate struct {
	Name string
	// Parent is the 0-based index of the parent coordinate, -1 for none.
	Parent int

	OriginalRotation    math.Vec3
	OriginalScale       math.Vec3
	OriginalTranslation math.Vec3
	RotationOrder       math.RotationOrder

	// Local is the current local transform.
	Local math.Mat4
}

// NewCoordinate creates a coordinate in its authored state.
func NewCoordinate(parent int, rotation, scale, translation math.Vec3, order math.RotationOrder) *Coordinate {
	c := &Coordinate{
		Parent:              parent,
		OriginalRotation:    rotation,
		OriginalScale:       scale,
		OriginalTranslation: translation,
		RotationOrder:       order,
	}
	c.Reset()
	return c
}

// OriginalLocal composes the authored transform: scale, then rotation, then translation.
func (c *Coordinate) OriginalLocal() math.Mat4 {
	return math.TranslateVec(c.OriginalTranslation).
		Mul(math.EulerRotation(c.OriginalRotation, c.RotationOrder)).
		Mul(math.ScaleVec(c.OriginalScale))
}

// Reset restores the authored local transform.
func (c *Coordinate) Reset() {
	c.Local = c.OriginalLocal()
}

// Entity is a scene object that animations drive.
type Entity struct {
	Handle uuid.UUID
	Name   string

	// Root is the entity's root transform.
	Root math.Mat4

	Models      []*Model
	Coordinates []*Coordinate
}

// NewEntity creates an entity with a fresh handle.
func NewEntity(name string) *Entity {
	return &Entity{
		Handle: uuid.New(),
		Name:   name,
		Root:   math.Identity(),
	}
}

// AddModel appends a model.
func (e *Entity) AddModel(m *Model) {
	e.Models = append(e.Models, m)
}

// ModelsFor returns the models driven by a target identifier.
func (e *Entity) ModelsFor(targetID uint32) []*Model {
	var out []*Model
	for _, m := range e.Models {
		if m.TargetID == targetID {
			out = append(out, m)
		}
	}
	return out
}

// Coordinate returns the coordinate with a 1-based index.
// Index 0 and out-of-range indices report false.
func (e *Entity) Coordinate(index int) (*Coordinate, bool) {
	if index < 1 || index > len(e.Coordinates) {
		return nil, false
	}
	return e.Coordinates[index-1], true
}

// ResetCoordinates restores every coordinate's authored local transform.
func (e *Entity) ResetCoordinates() {
	for _, c := range e.Coordinates {
		c.Reset()
	}
}

// CoordinateWorld composes the current local transforms from the root coordinate down.
func (e *Entity) CoordinateWorld(index int) math.Mat4 {
	return e.coordinateWorld(index, func(c *Coordinate) math.Mat4 { return c.Local })
}

// OriginalCoordinateWorld composes the authored local transforms.
func (e *Entity) OriginalCoordinateWorld(index int) math.Mat4 {
	return e.coordinateWorld(index, (*Coordinate).OriginalLocal)
}

// coordinateWorld walks parents of the 1-based index. The walk is bounded by the
// coordinate count so a malformed parent loop terminates.
func (e *Entity) coordinateWorld(index int, local func(*Coordinate) math.Mat4) math.Mat4 {
	world := math.Identity()
	i := index - 1
	for steps := 0; i >= 0 && i < len(e.Coordinates) && steps < len(e.Coordinates); steps++ {
		c := e.Coordinates[i]
		world = local(c).Mul(world)
		i = c.Parent
	}
	return world
}
