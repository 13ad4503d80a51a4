package scene

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

func TestModelSetAuthoredKeepsOffset(t *testing.T) {
	m := NewModel("arm", 1)
	// Manual nudge on top of the authored pose.
	m.World = math.Translate(0, 1, 0)

	m.SetAuthored(math.Translate(5, 0, 0))

	if m.Authored != math.Translate(5, 0, 0) {
		t.Errorf("Authored: got %v", m.Authored)
	}
	got := m.World.Translation()
	if got != (math.Vec3{X: 5, Y: 1}) {
		t.Errorf("World translation: got %v, want (5, 1, 0)", got)
	}
}

func TestInterpolationBlend(t *testing.T) {
	i := Interpolation{
		Initial:  []math.Vec3{{X: 0}},
		Final:    []math.Vec3{{X: 10}, {Y: 4}},
		Fraction: 0.5,
	}
	got := i.Blend()
	want := []math.Vec3{{X: 5}, {Y: 2}}
	for j := range want {
		if got[j] != want[j] {
			t.Errorf("element %d: got %v, want %v", j, got[j], want[j])
		}
	}
	if !i.Active() {
		t.Error("interpolation with a final buffer should be active")
	}
	i.Clear()
	if i.Active() {
		t.Error("cleared interpolation should be inactive")
	}
}

func TestEntityModelsFor(t *testing.T) {
	e := NewEntity("hero")
	e.AddModel(NewModel("a", 1))
	e.AddModel(NewModel("b", 2))
	e.AddModel(NewModel("c", 1))

	if got := len(e.ModelsFor(1)); got != 2 {
		t.Errorf("ModelsFor(1): got %d models, want 2", got)
	}
	if got := len(e.ModelsFor(7)); got != 0 {
		t.Errorf("ModelsFor(7): got %d models, want 0", got)
	}
}

func TestEntityCoordinates(t *testing.T) {
	e := NewEntity("hmd")
	e.Coordinates = []*Coordinate{
		NewCoordinate(-1, math.Vec3{}, math.One, math.Vec3{X: 1}, math.OrderXYZ),
		NewCoordinate(0, math.Vec3{}, math.One, math.Vec3{Y: 2}, math.OrderXYZ),
	}

	if _, ok := e.Coordinate(0); ok {
		t.Error("index 0 is reserved and should not resolve")
	}
	if _, ok := e.Coordinate(3); ok {
		t.Error("out of range index should not resolve")
	}

	world := e.CoordinateWorld(2)
	if got := world.Translation(); got != (math.Vec3{X: 1, Y: 2}) {
		t.Errorf("child world translation: got %v, want (1, 2, 0)", got)
	}

	c, _ := e.Coordinate(1)
	c.Local = math.Translate(9, 0, 0)
	if got := e.CoordinateWorld(2).Translation(); got != (math.Vec3{X: 9, Y: 2}) {
		t.Errorf("after edit: got %v, want (9, 2, 0)", got)
	}
	if got := e.OriginalCoordinateWorld(2).Translation(); got != (math.Vec3{X: 1, Y: 2}) {
		t.Errorf("original world: got %v, want (1, 2, 0)", got)
	}

	e.ResetCoordinates()
	if c.Local != c.OriginalLocal() {
		t.Error("ResetCoordinates should restore the authored transform")
	}
}

func TestCoordinateWorldParentLoop(t *testing.T) {
	e := NewEntity("loop")
	e.Coordinates = []*Coordinate{
		NewCoordinate(1, math.Vec3{}, math.One, math.Vec3{}, math.OrderXYZ),
		NewCoordinate(0, math.Vec3{}, math.One, math.Vec3{}, math.OrderXYZ),
	}
	// Must terminate.
	_ = e.CoordinateWorld(1)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	e := &Entity{Name: "no handle"}
	h := r.Register(e)
	if h == uuid.Nil || e.Handle != h {
		t.Fatal("Register should assign a handle")
	}
	if got, ok := r.Lookup(h); !ok || got != e {
		t.Error("Lookup should return the registered entity")
	}
	r.Remove(h)
	if _, ok := r.Lookup(h); ok {
		t.Error("removed entity should not resolve")
	}
	if r.Len() != 0 {
		t.Errorf("Len: got %d, want 0", r.Len())
	}
}
