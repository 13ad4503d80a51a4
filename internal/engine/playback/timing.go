// Package playback turns real time into poses for an animation track.
//
// Time flows one way: seconds -> playback frame time (track level) -> looped
// frame time (per node) -> evaluated pose -> scene targets.
package playback

import (
	"fmt"
	"math"
	"strings"
)

// LoopMode is the playback policy applied at the end of a track.
type LoopMode uint8

const (
	Once         LoopMode = iota // Play to the end and hold
	Loop                         // Repeat; nodes with private frame counts drift
	UnsyncedLoop                 // Repeat; node timing resets with every track loop
	MirrorOnce                   // Play forward then backward, then hold
	MirrorLoop                   // Ping-pong forever
)

var loopModeNames = [...]string{
	Once:         "once",
	Loop:         "loop",
	UnsyncedLoop: "unsynced_loop",
	MirrorOnce:   "mirror_once",
	MirrorLoop:   "mirror_loop",
}

// String returns the mode name used in config files.
func (m LoopMode) String() string {
	if int(m) < len(loopModeNames) {
		return loopModeNames[m]
	}
	return fmt.Sprintf("unknown(%d)", uint8(m))
}

// ParseLoopMode parses a mode name, ignoring case.
func ParseLoopMode(s string) (LoopMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range loopModeNames {
		if name == s {
			return LoopMode(i), nil
		}
	}
	return Once, fmt.Errorf("%w: %q", ErrUnknownLoopMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m LoopMode) MarshalText() ([]byte, error) {
	if int(m) >= len(loopModeNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLoopMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *LoopMode) UnmarshalText(text []byte) error {
	mode, err := ParseLoopMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Mirrored reports whether the mode plays the track forward and then backward.
func (m LoopMode) Mirrored() bool {
	return m == MirrorOnce || m == MirrorLoop
}

// Looping reports whether the mode never finishes.
func (m LoopMode) Looping() bool {
	return m == Loop || m == UnsyncedLoop || m == MirrorLoop
}

// playbackInputs is everything the track-level frame time depends on.
type playbackInputs struct {
	Time    float64 // seconds
	Mode    LoopMode
	Delay   float64 // seconds between loops
	Reverse bool
}

// playbackState is the track-level result of mapping time onto frames.
type playbackState struct {
	FrameTime         float64 // raw time * fps
	PlaybackFrameTime float64 // FrameTime with loop delays removed
	Delaying          bool
	Finished          bool
	Mirroring         bool
}

// computePlayback maps the inputs onto the track's frame domain.
func computePlayback(in playbackInputs, fps float64, frameCount uint32) playbackState {
	st := playbackState{FrameTime: in.Time * fps}
	if frameCount == 0 {
		st.FrameTime = 0
		st.Finished = true
		return st
	}

	n := float64(frameCount)
	mirrored := n
	if in.Mode.Mirrored() {
		mirrored = 2 * n
	}

	if in.Delay <= 0 || st.FrameTime == 0 {
		st.PlaybackFrameTime = st.FrameTime
	} else {
		cycle := mirrored + in.Delay*fps
		repeats := math.Floor(st.FrameTime/cycle) * mirrored
		within := posMod(st.FrameTime, cycle)
		st.Delaying = within >= mirrored
		if st.Delaying {
			st.PlaybackFrameTime = repeats + mirrored
		} else {
			st.PlaybackFrameTime = repeats + within
		}
	}

	st.Finished = !in.Mode.Looping() && !st.Delaying && st.PlaybackFrameTime >= mirrored

	if in.Mode.Mirrored() && !st.Finished {
		var pos float64
		if in.Mode.Looping() {
			pos = posMod(st.PlaybackFrameTime, mirrored)
		} else {
			pos = math.Min(st.PlaybackFrameTime, mirrored)
		}
		st.Mirroring = pos >= n && pos < mirrored
	}
	return st
}

// posMod returns x mod m in [0, m). A non-positive m yields 0.
func posMod(x, m float64) float64 {
	if m <= 0 {
		return 0
	}
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	if r >= m {
		r = 0
	}
	return r
}
