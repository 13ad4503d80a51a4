package playback

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

func translationKey(frame uint32, v math.Vec3, absolute bool) *anim.Keyframe {
	return &anim.Keyframe{
		FrameTime:   frame,
		Translation: anim.Channel{Value: anim.Some(v), Absolute: absolute},
	}
}

func assignTrack(t *testing.T, fps float32, enc anim.EncodingType, opts anim.AssignOptions, nodes ...*anim.Node) *anim.Track {
	t.Helper()
	track := anim.NewTrack("test", fps, enc)
	byID := make(map[uint32]*anim.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	if _, err := track.AssignObjects(byID, opts); err != nil {
		t.Fatalf("AssignObjects: %v", err)
	}
	return track
}

// stepTrack is one node driving target 1 through three relative translations,
// one frame each.
func stepTrack(t *testing.T, fps float32) (*anim.Track, *anim.Node) {
	t.Helper()
	n := anim.NewNode(1)
	n.AddTarget(1)
	n.AddKeyframe(translationKey(0, math.Vec3{X: 1}, false))
	n.AddKeyframe(translationKey(1, math.Vec3{Y: 1}, false))
	last := translationKey(2, math.Vec3{Z: 1}, false)
	last.FrameDuration = 1
	n.AddKeyframe(last)
	track := assignTrack(t, fps, anim.EncodingCommon, anim.AssignOptions{NodeFrameCounts: true}, n)
	return track, n
}

func entityWithModel(targetID uint32) (*scene.Entity, *scene.Model) {
	e := scene.NewEntity("target")
	m := scene.NewModel("body", targetID)
	e.AddModel(m)
	return e, m
}

func mustEvaluate(t *testing.T, c *Controller, e *scene.Entity) bool {
	t.Helper()
	changed, err := c.Evaluate(e)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return changed
}

func TestEvaluate_Idempotent(t *testing.T) {
	track, _ := stepTrack(t, 10)
	c := New(track, nil)
	e, _ := entityWithModel(1)

	if !mustEvaluate(t, c, e) {
		t.Error("first evaluation should write")
	}
	if mustEvaluate(t, c, e) {
		t.Error("second evaluation at the same time should not write")
	}

	c.AdvanceTime(0.1)
	if !mustEvaluate(t, c, e) {
		t.Error("evaluation after time moved should write")
	}
	c.SetTime(c.Time())
	if mustEvaluate(t, c, e) {
		t.Error("setting the same time should not write")
	}

	other, _ := entityWithModel(1)
	if !mustEvaluate(t, c, other) {
		t.Error("a different target entity should force a write")
	}

	c.SetReverse(true)
	if !mustEvaluate(t, c, other) {
		t.Error("reversing should force a write")
	}

	c.Restart()
	if !mustEvaluate(t, c, other) {
		t.Error("restart should force a write")
	}
}

func TestEvaluate_FinishedHolds(t *testing.T) {
	track, _ := stepTrack(t, 10)
	c := New(track, nil)
	c.SetLoopMode(Once)
	e, _ := entityWithModel(1)

	c.SetTime(1)
	if !mustEvaluate(t, c, e) {
		t.Error("reaching the end should write")
	}
	if !c.IsFinished() {
		t.Error("once mode should be finished past the end")
	}
	c.AdvanceTime(5)
	if mustEvaluate(t, c, e) {
		t.Error("advancing a finished track should not write")
	}
}

func TestEvaluate_DelayHolds(t *testing.T) {
	track, _ := stepTrack(t, 10)
	c := New(track, nil)
	c.SetLoopDelay(1)
	e, _ := entityWithModel(1)

	c.SetTime(0.5)
	mustEvaluate(t, c, e)
	if !c.IsDelaying() {
		t.Fatal("expected to be inside the loop delay")
	}
	c.AdvanceTime(0.2)
	if mustEvaluate(t, c, e) {
		t.Error("advancing inside a delay should not write")
	}
}

func TestEvaluate_Errors(t *testing.T) {
	e, _ := entityWithModel(1)

	unassigned := anim.NewTrack("raw", 30, anim.EncodingCommon)
	if _, err := New(unassigned, nil).Evaluate(e); !errors.Is(err, ErrNoRoot) {
		t.Errorf("unassigned track: got %v, want ErrNoRoot", err)
	}
	if _, err := New(nil, nil).Evaluate(e); !errors.Is(err, ErrNoTrack) {
		t.Errorf("nil track: got %v, want ErrNoTrack", err)
	}

	track, _ := stepTrack(t, 10)
	if _, err := New(track, nil).Evaluate(nil); !errors.Is(err, ErrNilEntity) {
		t.Errorf("nil entity: got %v, want ErrNilEntity", err)
	}
}

func TestEvaluate_ZeroFPS(t *testing.T) {
	track, _ := stepTrack(t, 0)
	c := New(track, nil)
	e, m := entityWithModel(1)

	if c.Duration() != 0 {
		t.Errorf("Duration: got %v, want 0", c.Duration())
	}
	mustEvaluate(t, c, e)
	c.AdvanceTime(3)
	if mustEvaluate(t, c, e) {
		t.Error("zero fps should never move")
	}
	if got := m.World.Translation(); got != (math.Vec3{X: 1}) {
		t.Errorf("pose: got %v, want first keyframe", got)
	}
}

func TestController_TimeAndSettings(t *testing.T) {
	track, _ := stepTrack(t, 10)
	c := New(track, nil)

	if got := c.Settings(); got != DefaultSettings() {
		t.Errorf("default settings: got %+v", got)
	}

	s := Settings{Mode: MirrorOnce, Delay: 0.5, Reverse: true, Speed: 2}
	c.ApplySettings(s)
	if got := c.Settings(); got != s {
		t.Errorf("Settings: got %+v, want %+v", got, s)
	}

	c.AdvanceTime(0.25)
	if !approx(c.Time(), 0.5) {
		t.Errorf("Time after scaled advance: got %v, want 0.5", c.Time())
	}

	c.SetTime(-3)
	if c.Time() != 0 {
		t.Errorf("negative time: got %v, want 0", c.Time())
	}
	c.SetSpeed(-1)
	if c.Speed() != 0 {
		t.Errorf("negative speed: got %v, want 0", c.Speed())
	}
	c.SetLoopDelay(-2)
	if c.LoopDelay() != 0 {
		t.Errorf("negative delay: got %v, want 0", c.LoopDelay())
	}

	if c.FrameCount() != 3 {
		t.Errorf("FrameCount: got %d, want 3", c.FrameCount())
	}
	if !approx(c.Duration(), 0.3) {
		t.Errorf("Duration: got %v, want 0.3", c.Duration())
	}
	if c.HasUnsyncedObjects() {
		t.Error("HasUnsyncedObjects: got true for a synced track")
	}
}

func TestController_CurrentFrameTime(t *testing.T) {
	track, _ := stepTrack(t, 10)

	tests := []struct {
		name    string
		mode    LoopMode
		reverse bool
		time    float64
		want    float64
	}{
		{"start", Loop, false, 0, 0},
		{"middle", Loop, false, 0.15, 1.5},
		{"looped", Loop, false, 0.45, 1.5},
		{"once holds the end", Once, false, 2, 3},
		{"reverse starts at the end", Loop, true, 0, 3},
		{"mirror turning point", MirrorLoop, false, 0.3, 3},
		{"mirror back half", MirrorLoop, false, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(track, nil)
			c.SetLoopMode(tt.mode)
			c.SetReverse(tt.reverse)
			c.SetTime(tt.time)
			if got := c.CurrentFrameTime(); !approx(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestController_SeekToKeyframe(t *testing.T) {
	track, n := stepTrack(t, 10)
	c := New(track, nil)

	if !c.SeekToKeyframe(n, 2, false) {
		t.Fatal("SeekToKeyframe(2) failed")
	}
	if got := c.NodeFrameTime(n); !approx(got, 2) || got < 2 {
		t.Errorf("seek start: got %v, want 2", got)
	}

	c.SetReverse(true)
	if !c.SeekToKeyframe(n, 1, false) {
		t.Fatal("reversed SeekToKeyframe(1) failed")
	}
	if got := c.NodeFrameTime(n); !approx(got, 1) || got < 1 {
		t.Errorf("reversed seek: got %v, want 1", got)
	}

	if c.SeekToKeyframe(n, 7, false) {
		t.Error("seeking a missing keyframe should fail")
	}
}

func TestController_SeekToKeyframeEnd(t *testing.T) {
	n := anim.NewNode(1)
	n.AddTarget(1)
	n.AddKeyframe(translationKey(0, math.Vec3{X: 1}, false))
	n.AddKeyframe(translationKey(4, math.Vec3{X: 1}, false))
	track := assignTrack(t, 10, anim.EncodingCommon,
		anim.AssignOptions{NodeFrameCounts: true, DeriveDurations: true}, n)
	c := New(track, nil)

	if !c.SeekToKeyframe(n, 0, true) {
		t.Fatal("SeekToKeyframe failed")
	}
	got := c.NodeFrameTime(n)
	if got >= 4 || got < 3.99 {
		t.Errorf("seek end: got %v, want just below 4", got)
	}
}

func TestController_SetNodeSpeed(t *testing.T) {
	n := anim.NewNode(1)
	n.AddTarget(1)
	n.AddKeyframe(translationKey(0, math.Vec3{}, true))
	n.AddKeyframe(translationKey(3, math.Vec3{X: 3}, true))
	last := translationKey(6, math.Vec3{X: 6}, true)
	last.FrameDuration = 2
	n.AddKeyframe(last)
	track := assignTrack(t, 10, anim.EncodingCommon, anim.AssignOptions{NodeFrameCounts: true}, n)

	c := New(track, nil)
	e, m := entityWithModel(1)
	c.SetTime(0.3)
	mustEvaluate(t, c, e)
	if got := m.World.Translation(); got != (math.Vec3{X: 3}) {
		t.Fatalf("unit speed: got %v, want (3, 0, 0)", got)
	}

	c.SetNodeSpeed(n, 2)
	if got := c.NodeFrameTime(n); !approx(got, 6) {
		t.Errorf("NodeFrameTime: got %v, want 6", got)
	}
	if !mustEvaluate(t, c, e) {
		t.Fatal("changing a node speed should force a write")
	}
	if got := m.World.Translation(); got != (math.Vec3{X: 6}) {
		t.Errorf("double speed: got %v, want (6, 0, 0)", got)
	}

	c.SetNodeSpeed(n, 2)
	if mustEvaluate(t, c, e) {
		t.Error("setting the same speed should not write")
	}
	c.SetNodeSpeed(nil, 3)
}
