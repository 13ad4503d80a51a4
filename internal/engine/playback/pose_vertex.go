package playback

import (
	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

func poseVertices(ctx *evalContext, n *anim.Node, parent math.Mat4) math.Mat4 {
	poseMorph(ctx, n, func(m *scene.Model) *scene.Interpolation { return &m.Vertices })
	return parent
}

func poseNormals(ctx *evalContext, n *anim.Node, parent math.Mat4) math.Mat4 {
	poseMorph(ctx, n, func(m *scene.Model) *scene.Interpolation { return &m.Normals })
	return parent
}

// poseMorph sets up a blend from the previous keyframe's buffer to the current one.
// Positions stay object-local, so no transform is composed.
func poseMorph(ctx *evalContext, n *anim.Node, buffer func(*scene.Model) *scene.Interpolation) {
	nf := ctx.frame(n)
	index, fraction := nf.Index, nf.Delta

	cur, ok := n.Keyframe(index)
	if !ok && index > 0 && float64(index) >= nf.FrameCount {
		// Snapped onto the end of the range: hold the last keyframe.
		index--
		fraction = 1
		cur, ok = n.Keyframe(index)
	}
	if !ok {
		return
	}

	initial := make([]math.Vec3, len(cur.Vertices))
	if index > 0 {
		if earlier := n.KeyframesThrough(index - 1); len(earlier) > 0 {
			copy(initial, earlier[len(earlier)-1].Vertices)
		}
	}

	for _, m := range ctx.models(n) {
		interp := buffer(m)
		interp.Initial = initial
		interp.Final = cur.Vertices
		interp.Fraction = fraction
	}
}
