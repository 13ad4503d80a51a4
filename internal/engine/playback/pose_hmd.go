package playback

import (
	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// poseHMD replays the node's keyframes onto the coordinates it targets.
// Target identifiers are 1-based coordinate indices.
func poseHMD(ctx *evalContext, n *anim.Node, parent math.Mat4) math.Mat4 {
	nf := ctx.frame(n)
	keys := n.KeyframesThrough(nf.Index)
	if len(keys) == 0 {
		return parent
	}
	for _, id := range n.TargetIDs() {
		coord, ok := ctx.entity.Coordinate(int(ctx.track.RemapTarget(id)))
		if !ok {
			continue
		}
		for _, k := range keys {
			applyHMDKeyframe(coord, k, k.Fraction(nf.Time))
		}
	}
	return parent
}

// applyHMDKeyframe writes one keyframe's interpolated channels into coord.Local.
func applyHMDKeyframe(coord *scene.Coordinate, k *anim.Keyframe, d float32) {
	local := coord.Local
	rebuilt := k.Rotation.Interpolated() || k.Scale.Interpolated()
	if rebuilt {
		local = math.Identity()
		if k.Scale.Interpolated() {
			local = math.ScaleVec(k.Scale.Interpolate(d))
		}
		rotation := coord.OriginalRotation
		if k.Rotation.Interpolated() {
			rotation = k.Rotation.Interpolate(d)
		}
		local = math.EulerRotation(rotation, coord.RotationOrder).Mul(local)
	}

	switch {
	case k.Translation.Interpolated():
		local = local.WithTranslation(k.Translation.Interpolate(d))
	case rebuilt:
		local = local.WithTranslation(coord.Local.Translation())
	}
	coord.Local = local
}

// finishHMD moves every coordinate-bound model onto its coordinate's new world
// transform, keeping manual offsets.
func (ctx *evalContext) finishHMD() {
	for _, m := range ctx.entity.Models {
		if _, ok := ctx.entity.Coordinate(m.Coordinate); !ok {
			continue
		}
		m.SetAuthored(ctx.entity.CoordinateWorld(m.Coordinate))
	}
}
