package anim

import (
	"cmp"
	"slices"
)

// Node is one element of an animation hierarchy.
type Node struct {
	ID        uint32
	ParentID  uint32
	HasParent bool // ParentID is only meaningful when set

	// FrameCount is the node's private frame count; 0 means "use the track's".
	FrameCount uint32
	// Speed scales the node's timeline. It may be negative (reversed) or 0 (frozen).
	Speed float32
	// HandlesRoot makes the node's pose the target entity's root transform.
	HandlesRoot bool

	targetIDs []uint32
	keyframes map[uint32]*Keyframe
	sorted    []*Keyframe // ascending FrameTime

	parent   *Node
	children []*Node
}

// NewNode creates a node with unit speed and no parent.
func NewNode(id uint32) *Node {
	return &Node{
		ID:        id,
		Speed:     1,
		keyframes: make(map[uint32]*Keyframe),
	}
}

// SetParent declares the identifier of the node's parent.
func (n *Node) SetParent(id uint32) {
	n.ParentID = id
	n.HasParent = true
}

// AddTarget adds a driven target identifier, keeping insertion order and ignoring duplicates.
func (n *Node) AddTarget(id uint32) {
	if !slices.Contains(n.targetIDs, id) {
		n.targetIDs = append(n.targetIDs, id)
	}
}

// TargetIDs returns the driven target identifiers in insertion order.
func (n *Node) TargetIDs() []uint32 {
	return n.targetIDs
}

// AddKeyframe stores k at its frame time, replacing any keyframe already there.
func (n *Node) AddKeyframe(k *Keyframe) {
	if n.keyframes == nil {
		n.keyframes = make(map[uint32]*Keyframe)
	}
	i, found := n.search(k.FrameTime)
	if found {
		n.sorted[i] = k
	} else {
		n.sorted = slices.Insert(n.sorted, i, k)
	}
	n.keyframes[k.FrameTime] = k
}

func (n *Node) search(frame uint32) (int, bool) {
	return slices.BinarySearchFunc(n.sorted, frame, func(k *Keyframe, f uint32) int {
		return cmp.Compare(k.FrameTime, f)
	})
}

// Keyframe returns the keyframe at exactly frame, if any.
func (n *Node) Keyframe(frame uint32) (*Keyframe, bool) {
	k, ok := n.keyframes[frame]
	return k, ok
}

// Keyframes returns the node's keyframes in ascending frame order.
// The slice is shared and must not be modified.
func (n *Node) Keyframes() []*Keyframe {
	return n.sorted
}

// KeyframesThrough returns the keyframes starting at or before frame, in ascending order.
func (n *Node) KeyframesThrough(frame uint32) []*Keyframe {
	i, found := n.search(frame)
	if found {
		i++
	}
	return n.sorted[:i]
}

// KeyframeCount returns the number of keyframes.
func (n *Node) KeyframeCount() int {
	return len(n.sorted)
}

// Parent returns the linked parent, nil before assignment and for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the linked children in assignment order.
func (n *Node) Children() []*Node {
	return n.children
}

// MaxEndFrame returns the largest FrameEnd across the node's keyframes.
// A trailing keyframe without duration ends where it starts.
func (n *Node) MaxEndFrame() uint32 {
	var end uint32
	for _, k := range n.keyframes {
		end = max(end, k.FrameEnd())
	}
	return end
}

// deriveDurations back-fills unset durations with the gap to the next keyframe.
func (n *Node) deriveDurations() {
	for i := 0; i+1 < len(n.sorted); i++ {
		k := n.sorted[i]
		if k.FrameDuration == 0 {
			k.FrameDuration = n.sorted[i+1].FrameTime - k.FrameTime
		}
	}
}
