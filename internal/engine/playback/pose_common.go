package playback

import (
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// poseCommon accumulates the rigid channels of every keyframe up to the current
// frame and writes the resulting world transform to the node's targets.
func poseCommon(ctx *evalContext, n *anim.Node, parent math.Mat4) math.Mat4 {
	nf := ctx.frame(n)

	var rotation, translation math.Vec3
	scale := math.One
	var matrix anim.OptMatrix
	for _, k := range n.KeyframesThrough(nf.Index) {
		rotation = accumulate(rotation, k.Rotation, math.Vec3.Add)
		scale = accumulate(scale, k.Scale, math.Vec3.Mul)
		translation = accumulate(translation, k.Translation, math.Vec3.Add)
		if k.Matrix.IsSet() {
			matrix = k.Matrix
		}
	}

	var local math.Mat4
	if matrix.IsSet() {
		local = matrix.Mat4()
	} else {
		local = math.TranslateVec(translation).
			Mul(math.ScaleVec(scale)).
			Mul(math.EulerRotation(rotation, math.OrderXYZ))
	}
	world := parent.Mul(local)

	if n.HandlesRoot {
		ctx.entity.Root = world
		return world
	}
	for _, m := range ctx.models(n) {
		m.World = world
		m.Authored = world
		m.ClearInterpolation()
	}
	return world
}

// accumulate folds one channel into acc. Absolute values replace it, relative
// values combine through op, absent values leave it alone.
func accumulate(acc math.Vec3, ch anim.Channel, op func(a, b math.Vec3) math.Vec3) math.Vec3 {
	v, ok := ch.Value.Get()
	switch {
	case !ok:
		return acc
	case ch.Absolute:
		return v
	default:
		return op(acc, v)
	}
}
