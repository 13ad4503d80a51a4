package trackdoc

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/formats"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// RSMFrameRate is the frame rate of imported model tracks: RSM key frames are milliseconds.
const RSMFrameRate = 1000

// FromRSM converts the node animation of a model into a Common track and an
// entity with one model per mesh node.
//
// Node i gets identifier i+1. Each distinct key frame becomes an absolute
// matrix keyframe holding the latest rotation, scale and position at that
// frame. The node's static transform fills channels without keys and scale
// keys multiply the static scale. The mesh pivot (Offset and Matrix) belongs
// to the geometry and is not part of the pose.
func FromRSM(m *formats.RSM, name string, opts anim.AssignOptions, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(m.Nodes) == 0 {
		return nil, fmt.Errorf("%w: model %q has no nodes", ErrInvalid, name)
	}

	ids := make(map[string]uint32, len(m.Nodes))
	for i := range m.Nodes {
		if _, dup := ids[m.Nodes[i].Name]; !dup {
			ids[m.Nodes[i].Name] = uint32(i + 1)
		}
	}

	track := anim.NewTrack(name, RSMFrameRate, anim.EncodingCommon)
	entity := scene.NewEntity(name)
	nodes := make(map[uint32]*anim.Node, len(m.Nodes))
	for i := range m.Nodes {
		rn := &m.Nodes[i]
		id := uint32(i + 1)

		n := anim.NewNode(id)
		if rn.Parent != "" && rn.Parent != rn.Name {
			if pid, ok := ids[rn.Parent]; ok {
				n.SetParent(pid)
			} else {
				log.Warn("model node parent not found, attached to root",
					zap.String("model", name),
					zap.String("node", rn.Name),
					zap.String("parent", rn.Parent))
			}
		}
		n.AddTarget(id)
		for _, k := range rsmKeyframes(rn, m.AnimLength) {
			n.AddKeyframe(k)
		}
		nodes[id] = n
		entity.AddModel(scene.NewModel(rn.Name, id))
	}

	report, err := track.AssignObjects(nodes, opts)
	if err != nil {
		return nil, err
	}
	track.Owner = entity.Handle

	log.Debug("model track imported",
		zap.String("model", name),
		zap.Stringer("version", m.Version),
		zap.Int("nodes", track.ObjectCount()),
		zap.Uint32("frames", track.FrameCount()),
		zap.Bool("animated", m.HasAnimation()))

	return &Result{Track: track, Entity: entity, Report: report}, nil
}

// rsmKeyframes samples a node at every key frame. The last keyframe lasts
// until the end of the animation.
func rsmKeyframes(rn *formats.RSMNode, animLength int32) []*anim.Keyframe {
	frames := []int32{0}
	for _, k := range rn.PosKeys {
		frames = append(frames, max(k.Frame, 0))
	}
	for _, k := range rn.RotKeys {
		frames = append(frames, max(k.Frame, 0))
	}
	for _, k := range rn.ScaleKeys {
		frames = append(frames, max(k.Frame, 0))
	}
	slices.Sort(frames)
	frames = slices.Compact(frames)

	rotation := math.QuatFromAxisAngle(rn.RotAngle, vec3(rn.RotAxis))
	baseScale := vec3(rn.Scale)
	scale := baseScale
	position := vec3(rn.Position)

	out := make([]*anim.Keyframe, len(frames))
	for i, f := range frames {
		for _, k := range rn.RotKeys {
			if k.Frame <= f {
				q := k.Quaternion
				rotation = math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}
			}
		}
		for _, k := range rn.ScaleKeys {
			if k.Frame <= f {
				scale = baseScale.Mul(vec3(k.Scale))
			}
		}
		for _, k := range rn.PosKeys {
			if k.Frame <= f {
				position = vec3(k.Position)
			}
		}

		end := animLength
		if i+1 < len(frames) {
			end = frames[i+1]
		}
		rs := rotation.ToMat4().Mul(math.ScaleVec(scale))
		out[i] = &anim.Keyframe{
			FrameTime:     uint32(f),
			FrameDuration: uint32(max(end-f, 0)),
			Matrix:        anim.SomeMatrix(rs.Upper3x3(), position),
		}
	}
	return out
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
