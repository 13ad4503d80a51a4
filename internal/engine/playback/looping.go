package playback

import "math"

// snapEpsilon is the end-snap window in frames at 1 fps and unit speed.
// The effective window shrinks with fps * |speed|.
const snapEpsilon = 0.01

// nodeFrame is a node's position on its own timeline.
type nodeFrame struct {
	Time       float64 // fractional frame position
	Index      uint32  // floor(Time)
	Delta      float32 // Time - Index, in [0, 1)
	FrameCount float64 // the frame count Time was folded into
}

// nodeTimeline is the per-node input of loopNodeFrame.
type nodeTimeline struct {
	Speed      float32
	FrameCount uint32 // 0 means the track's frame count at unit speed
}

// loopNodeFrame folds the track-level playback frame time into a node's own timeline.
func loopNodeFrame(st playbackState, in playbackInputs, fps float64, trackFrames uint32, node nodeTimeline) nodeFrame {
	n := float64(trackFrames)
	count := float64(node.FrameCount)
	speed := float64(node.Speed)
	if node.FrameCount == 0 {
		count = n
		speed = 1
	}
	if count <= 0 {
		return nodeFrame{}
	}

	reverse := in.Reverse != (speed < 0)
	abs := math.Abs(speed)
	x := st.PlaybackFrameTime * abs
	scaled := n * abs

	// Snapping only applies where float error would show: at rest on either end.
	pin := st.Finished || st.Delaying || in.Time == 0
	atEnd := st.Finished || st.Delaying
	toEnd := (atEnd && !in.Mode.Mirrored()) != reverse

	rate := fps * abs
	if rate == 0 {
		rate = math.Max(fps, 1)
	}
	eps := snapEpsilon / rate

	var t float64
	switch in.Mode {
	case Once, Loop:
		if in.Mode == Once {
			x = math.Min(x, scaled)
		}
		if reverse {
			x = -x
		}
		t = wrapFrame(x, count, pin, toEnd, eps)
	case UnsyncedLoop:
		if reverse {
			x = -x
		}
		if scaled > 0 {
			x = wrapFrame(x, scaled, pin, toEnd, eps)
		}
		t = wrapFrame(x, count, pin, toEnd, eps)
	case MirrorOnce, MirrorLoop:
		if in.Mode == MirrorOnce {
			x = math.Min(x, 2*scaled)
		}
		// A full mirror cycle starts and ends on the first frame.
		x = wrapFrame(x, 2*scaled, pin, false, eps)
		if st.Mirroring {
			x = 2*scaled - x
		}
		// The turning point belongs to the end of the forward pass.
		turn := scaled > 0 && math.Abs(x-scaled) < eps
		if reverse {
			x = -x
		}
		if turn {
			t = wrapFrame(x, count, true, !reverse, eps)
		} else {
			t = wrapFrame(x, count, pin, toEnd, eps)
		}
	}

	t = math.Max(t, 0)
	index := math.Floor(t)
	return nodeFrame{
		Time:       t,
		Index:      uint32(index),
		Delta:      float32(t - index),
		FrameCount: count,
	}
}

// wrapFrame folds x into [0, m). When pin is set, a result within eps of either
// bound lands exactly on m (toEnd) or 0.
func wrapFrame(x, m float64, pin, toEnd bool, eps float64) float64 {
	if m <= 0 {
		return 0
	}
	r := posMod(x, m)
	if pin && (r < eps || m-r < eps) {
		if toEnd {
			return m
		}
		return 0
	}
	return r
}
