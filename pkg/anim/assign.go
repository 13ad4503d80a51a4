package anim

import (
	"fmt"
	"math"
)

// AssignOptions controls the derived data computed by AssignObjects.
type AssignOptions struct {
	// NodeFrameCounts sets each node's FrameCount to its maximum keyframe end frame.
	NodeFrameCounts bool
	// DeriveDurations back-fills unset keyframe durations with the gap to the next keyframe.
	DeriveDurations bool
}

// AssignReport describes what AssignObjects had to fix up.
type AssignReport struct {
	// Reparented lists nodes whose declared parent did not resolve and were attached to the root.
	Reparented []uint32
}

// AssignObjects links nodes into a tree under a synthetic root and derives frame counts.
//
// Dangling parent references are attached to the root and listed in the report.
// A cyclic parent chain returns ErrCyclicHierarchy and leaves the track unassigned.
func (t *Track) AssignObjects(nodes map[uint32]*Node, opts AssignOptions) (AssignReport, error) {
	var report AssignReport
	if t.assigned {
		return report, ErrAlreadyAssigned
	}

	ordered := make([]*Node, 0, len(nodes))
	for id, n := range nodes {
		n.ID = id
		n.parent = nil
		n.children = nil
		ordered = append(ordered, n)
	}
	sortNodes(ordered)

	if err := checkCycles(nodes, ordered); err != nil {
		return report, err
	}

	root := NewNode(0)
	var span float64
	for _, n := range ordered {
		if opts.DeriveDurations {
			n.deriveDurations()
		}
		if opts.NodeFrameCounts {
			n.FrameCount = n.MaxEndFrame()
		}
		span = max(span, nodeSpan(n))

		parent := root
		if n.HasParent {
			if p, ok := nodes[n.ParentID]; ok {
				parent = p
			} else {
				report.Reparented = append(report.Reparented, n.ID)
			}
		}
		n.parent = parent
		parent.children = append(parent.children, n)
	}

	t.root = root
	t.nodes = ordered
	t.byID = nodes
	t.objectCount = len(ordered)
	t.frameCount = uint32(math.Ceil(span))
	t.assigned = true
	return report, nil
}

// checkCycles walks every declared parent chain and fails on the first loop.
func checkCycles(nodes map[uint32]*Node, ordered []*Node) error {
	// 0 = unvisited, 1 = on the current chain, 2 = known to reach the root.
	state := make(map[uint32]uint8, len(nodes))
	for _, start := range ordered {
		var chain []uint32
		n := start
		for n != nil && state[n.ID] == 0 {
			state[n.ID] = 1
			chain = append(chain, n.ID)
			if !n.HasParent {
				break
			}
			next, ok := nodes[n.ParentID]
			if !ok {
				break
			}
			if state[next.ID] == 1 {
				return fmt.Errorf("%w: node %d", ErrCyclicHierarchy, next.ID)
			}
			n = next
		}
		for _, id := range chain {
			state[id] = 2
		}
	}
	return nil
}
