package playback

import (
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// Settings are the user-facing playback parameters of a controller.
type Settings struct {
	Mode    LoopMode `yaml:"loop_mode"`
	Delay   float64  `yaml:"loop_delay"` // seconds
	Reverse bool     `yaml:"reverse"`
	Speed   float64  `yaml:"speed"` // multiplier on AdvanceTime
}

// DefaultSettings returns looping playback at normal speed.
func DefaultSettings() Settings {
	return Settings{Mode: Loop, Speed: 1}
}

// frameStamp identifies what the last evaluation wrote.
// Two equal stamps produce identical poses.
type frameStamp struct {
	entity    *scene.Entity
	inputs    playbackInputs
	position  float64
	delaying  bool
	finished  bool
	mirroring bool
}

// Controller plays one track instance. It is not safe for concurrent use.
type Controller struct {
	track *anim.Track
	log   *zap.Logger

	in    playbackInputs
	speed float64

	state      playbackState
	stateFor   playbackInputs
	stateValid bool

	stamp      frameStamp
	stampValid bool
}

// New creates a controller for track with default settings.
// A nil logger disables logging.
func New(track *anim.Track, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{track: track, log: log}
	c.ApplySettings(DefaultSettings())
	return c
}

// Track returns the controlled track.
func (c *Controller) Track() *anim.Track {
	return c.track
}

// SetTrack switches the controlled track and restarts playback.
func (c *Controller) SetTrack(track *anim.Track) {
	c.track = track
	c.Restart()
}

// Settings returns the current playback settings.
func (c *Controller) Settings() Settings {
	return Settings{
		Mode:    c.in.Mode,
		Delay:   c.in.Delay,
		Reverse: c.in.Reverse,
		Speed:   c.speed,
	}
}

// ApplySettings replaces every playback setting at once. Time is kept.
func (c *Controller) ApplySettings(s Settings) {
	c.SetLoopMode(s.Mode)
	c.SetLoopDelay(s.Delay)
	c.SetReverse(s.Reverse)
	c.SetSpeed(s.Speed)
}

// AdvanceTime moves playback forward by delta seconds scaled by the speed multiplier.
// Time never goes below zero.
func (c *Controller) AdvanceTime(delta float64) {
	c.SetTime(c.in.Time + delta*c.speed)
}

// SetTime jumps to an absolute time in seconds.
func (c *Controller) SetTime(seconds float64) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	c.in.Time = seconds
}

// Time returns the current time in seconds.
func (c *Controller) Time() float64 {
	return c.in.Time
}

// SetLoopMode changes the end-of-track policy.
func (c *Controller) SetLoopMode(mode LoopMode) {
	if mode != c.in.Mode {
		c.log.Debug("loop mode changed",
			zap.Stringer("from", c.in.Mode),
			zap.Stringer("to", mode))
	}
	c.in.Mode = mode
}

// LoopMode returns the end-of-track policy.
func (c *Controller) LoopMode() LoopMode {
	return c.in.Mode
}

// SetLoopDelay sets the pause between loops in seconds. Negative values disable it.
func (c *Controller) SetLoopDelay(seconds float64) {
	c.in.Delay = max(seconds, 0)
}

// LoopDelay returns the pause between loops in seconds.
func (c *Controller) LoopDelay() float64 {
	return c.in.Delay
}

// SetReverse flips the playback direction.
func (c *Controller) SetReverse(reverse bool) {
	c.in.Reverse = reverse
}

// Reverse reports whether playback runs backwards.
func (c *Controller) Reverse() bool {
	return c.in.Reverse
}

// SetSpeed sets the multiplier applied by AdvanceTime. Negative values are treated as 0.
func (c *Controller) SetSpeed(speed float64) {
	c.speed = max(speed, 0)
}

// Speed returns the AdvanceTime multiplier.
func (c *Controller) Speed() float64 {
	return c.speed
}

// SetNodeSpeed changes the speed of one of the track's nodes and forces the
// next Evaluate to write.
func (c *Controller) SetNodeSpeed(n *anim.Node, speed float32) {
	if n == nil || n.Speed == speed {
		return
	}
	c.log.Debug("node speed changed",
		zap.Uint32("node", n.ID),
		zap.Float32("from", n.Speed),
		zap.Float32("to", speed))
	n.Speed = speed
	c.stampValid = false
}

// Restart rewinds to time zero and forces the next Evaluate to write.
func (c *Controller) Restart() {
	c.in.Time = 0
	c.stateValid = false
	c.stampValid = false
}

// IsFinished reports whether a non-looping mode reached its end.
func (c *Controller) IsFinished() bool {
	return c.playback().Finished
}

// IsDelaying reports whether playback is inside a loop delay.
func (c *Controller) IsDelaying() bool {
	return c.playback().Delaying
}

// IsMirroring reports whether a mirrored mode is in its backward half.
func (c *Controller) IsMirroring() bool {
	return c.playback().Mirroring
}

// FrameCount returns the track's frame count.
func (c *Controller) FrameCount() uint32 {
	if c.track == nil {
		return 0
	}
	return c.track.FrameCount()
}

// Duration returns the track length in seconds.
func (c *Controller) Duration() float64 {
	if c.track == nil {
		return 0
	}
	return c.track.Duration()
}

// HasUnsyncedObjects reports whether any node runs on its own timeline.
func (c *Controller) HasUnsyncedObjects() bool {
	return c.track != nil && c.track.HasUnsyncedObjects()
}

// CurrentFrameTime returns the track position in [0, FrameCount] after looping,
// mirroring and reversal.
func (c *Controller) CurrentFrameTime() float64 {
	return c.nodeFrame(nodeTimeline{}).Time
}

// NodeFrameTime returns the node's position on its own timeline.
func (c *Controller) NodeFrameTime(node *anim.Node) float64 {
	return c.nodeFrame(timelineOf(node)).Time
}

// SeekToKeyframe sets the time so that node's local frame lands on the keyframe
// starting at frame, or just before its end when atEnd is set. It reports false
// when there is no such keyframe or the node cannot move.
func (c *Controller) SeekToKeyframe(node *anim.Node, frame uint32, atEnd bool) bool {
	if c.track == nil || node == nil || c.track.FPS == 0 {
		return false
	}
	k, ok := node.Keyframe(frame)
	if !ok {
		return false
	}
	tl := timelineOf(node)
	count, speed := float64(tl.FrameCount), math.Abs(float64(tl.Speed))
	if tl.FrameCount == 0 {
		count, speed = float64(c.track.FrameCount()), 1
	}
	if speed == 0 || count == 0 {
		return false
	}
	fps := float64(c.track.FPS)

	target := float64(k.FrameTime)
	if atEnd && k.FrameDuration > 0 {
		target = max(target, float64(k.FrameEnd())-snapEpsilon/(fps*speed))
	}
	reverse := c.in.Reverse != (tl.Speed < 0)
	x := target
	if reverse {
		x = count - target
	}
	c.SetTime(x / speed / fps)

	// Float rounding may leave the node a hair short of the keyframe start.
	want := uint32(math.Floor(target))
	for range 8 {
		nf := c.nodeFrame(tl)
		if nf.Index == want {
			break
		}
		up := (nf.Time < target) != reverse
		if up {
			c.in.Time = math.Nextafter(c.in.Time, math.Inf(1))
		} else {
			c.in.Time = math.Nextafter(c.in.Time, 0)
		}
	}
	return true
}

// Evaluate writes the pose for the current time into entity. It skips the
// hierarchy walk and reports false when nothing visible changed since the last call.
func (c *Controller) Evaluate(entity *scene.Entity) (bool, error) {
	if c.track == nil {
		return false, ErrNoTrack
	}
	if c.track.Root() == nil {
		return false, ErrNoRoot
	}
	if entity == nil {
		return false, ErrNilEntity
	}

	st := c.playback()
	stamp := frameStamp{
		entity:    entity,
		inputs:    c.in,
		delaying:  st.Delaying,
		finished:  st.Finished,
		mirroring: st.Mirroring,
	}
	stamp.inputs.Time = 0
	if !st.Finished {
		stamp.position = st.PlaybackFrameTime
	}
	if c.stampValid && stamp == c.stamp {
		return false, nil
	}
	if c.stampValid && c.stamp.entity != entity {
		c.log.Debug("evaluation target changed",
			zap.String("track", c.track.Name),
			zap.String("entity", entity.Name))
	}

	ctx := &evalContext{
		track:  c.track,
		entity: entity,
		state:  st,
		in:     c.in,
		fps:    float64(c.track.FPS),
	}
	ctx.evaluate()

	c.stamp = stamp
	c.stampValid = true
	return true, nil
}

// playback returns the cached track-level state, recomputing it when an input changed.
func (c *Controller) playback() playbackState {
	if c.stateValid && c.stateFor == c.in {
		return c.state
	}
	var fps float64
	var frames uint32
	if c.track != nil {
		fps, frames = float64(c.track.FPS), c.track.FrameCount()
	}
	c.state = computePlayback(c.in, fps, frames)
	c.stateFor = c.in
	c.stateValid = true
	return c.state
}

func (c *Controller) nodeFrame(tl nodeTimeline) nodeFrame {
	if c.track == nil {
		return nodeFrame{}
	}
	return loopNodeFrame(c.playback(), c.in, float64(c.track.FPS), c.track.FrameCount(), tl)
}

func timelineOf(n *anim.Node) nodeTimeline {
	if n == nil {
		return nodeTimeline{}
	}
	return nodeTimeline{Speed: n.Speed, FrameCount: n.FrameCount}
}
