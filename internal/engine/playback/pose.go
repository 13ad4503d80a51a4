package playback

import (
	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// evalContext carries one evaluation pass.
type evalContext struct {
	track  *anim.Track
	entity *scene.Entity
	state  playbackState
	in     playbackInputs
	fps    float64
}

// poseFunc evaluates one node and returns the world transform its children inherit.
type poseFunc func(ctx *evalContext, n *anim.Node, parent math.Mat4) math.Mat4

func (ctx *evalContext) evaluate() {
	root := ctx.track.Root()
	switch ctx.track.Encoding {
	case anim.EncodingVertexDiff:
		ctx.walk(root, math.Identity(), poseVertices)
	case anim.EncodingNormalDiff:
		ctx.walk(root, math.Identity(), poseNormals)
	case anim.EncodingHMD:
		ctx.entity.ResetCoordinates()
		ctx.walk(root, math.Identity(), poseHMD)
		ctx.finishHMD()
	default:
		// Common, MatrixDiff and AxisDiff carry rigid channels.
		ctx.walk(root, math.Identity(), poseCommon)
	}
}

// walk visits the subtree below n top-down. The synthetic root itself has no pose.
func (ctx *evalContext) walk(n *anim.Node, parent math.Mat4, pose poseFunc) {
	for _, child := range n.Children() {
		world := pose(ctx, child, parent)
		ctx.walk(child, world, pose)
	}
}

func (ctx *evalContext) frame(n *anim.Node) nodeFrame {
	return loopNodeFrame(ctx.state, ctx.in, ctx.fps, ctx.track.FrameCount(), timelineOf(n))
}

// models returns the scene models driven by the node's target identifiers.
func (ctx *evalContext) models(n *anim.Node) []*scene.Model {
	var out []*scene.Model
	for _, id := range n.TargetIDs() {
		out = append(out, ctx.entity.ModelsFor(ctx.track.RemapTarget(id))...)
	}
	return out
}
