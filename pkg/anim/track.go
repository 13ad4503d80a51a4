package anim

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/google/uuid"
)

// Track errors.
var (
	ErrCyclicHierarchy = errors.New("cyclic node hierarchy")
	ErrAlreadyAssigned = errors.New("track objects already assigned")
	ErrUnknownEncoding = errors.New("unknown encoding type")
)

// Track is the top-level container of an animation.
type Track struct {
	Name     string
	FPS      float32
	Encoding EncodingType
	// IDRemap maps target identifiers used by keyframe data to those of the consuming scene.
	IDRemap map[uint32]uint32
	// Owner is a non-owning handle to the scene entity that spawned the track.
	Owner uuid.UUID

	root        *Node
	nodes       []*Node // sorted by ID
	byID        map[uint32]*Node
	frameCount  uint32
	objectCount int
	assigned    bool
}

// NewTrack creates an empty track. Call AssignObjects once its nodes exist.
func NewTrack(name string, fps float32, encoding EncodingType) *Track {
	return &Track{
		Name:     name,
		FPS:      fps,
		Encoding: encoding,
		IDRemap:  make(map[uint32]uint32),
	}
}

// Root returns the synthetic root node, nil before assignment.
func (t *Track) Root() *Node {
	return t.root
}

// Nodes returns every assigned node except the root, sorted by ID.
func (t *Track) Nodes() []*Node {
	return t.nodes
}

// Node returns the node with the given identifier.
func (t *Track) Node(id uint32) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// FrameCount returns the derived frame count.
func (t *Track) FrameCount() uint32 {
	return t.frameCount
}

// ObjectCount returns the number of assigned nodes.
func (t *Track) ObjectCount() int {
	return t.objectCount
}

// Duration returns the nominal length of the track in seconds.
func (t *Track) Duration() float64 {
	if t.FPS == 0 {
		return 0
	}
	return float64(t.frameCount) / float64(t.FPS)
}

// RemapTarget translates a keyframe target identifier into a scene identifier.
func (t *Track) RemapTarget(id uint32) uint32 {
	if mapped, ok := t.IDRemap[id]; ok {
		return mapped
	}
	return id
}

// HasOwner reports whether the owner handle is set.
func (t *Track) HasOwner() bool {
	return t.Owner != uuid.Nil
}

// ClearOwner drops the owner handle.
func (t *Track) ClearOwner() {
	t.Owner = uuid.Nil
}

// HasUnsyncedObjects reports whether any node runs on its own timeline,
// i.e. its private frame count or speed diverges from the track defaults.
// Nodes without a private frame count follow the track at unit speed.
func (t *Track) HasUnsyncedObjects() bool {
	for _, n := range t.nodes {
		if n.FrameCount == 0 {
			continue
		}
		if n.Speed != 1 || n.FrameCount != t.frameCount {
			return true
		}
	}
	return false
}

// nodeSpan returns a node's contribution to the track frame count.
func nodeSpan(n *Node) float64 {
	speed := math.Abs(float64(n.Speed))
	if speed == 0 {
		return 0
	}
	return float64(n.MaxEndFrame()) / speed
}

func sortNodes(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
