// Package formats reads the animation data of Ragnarok Online model files.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/midgard-anim/pkg/encoding"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
)

// maxRSMCount bounds every element count read from a file.
const maxRSMCount = 1 << 20

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMPosKey is a position sample (files before 1.5).
type RSMPosKey struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKey is a rotation sample stored as an x, y, z, w quaternion.
type RSMRotKey struct {
	Frame      int32
	Quaternion [4]float32
}

// RSMScaleKey is a scale sample (1.5 and later).
type RSMScaleKey struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one mesh node. Only its transform, animation keys and mesh
// sizes are kept; geometry is skipped.
type RSMNode struct {
	Name   string
	Parent string

	Matrix   [9]float32 // mesh pivot matrix, row-major
	Offset   [3]float32 // mesh pivot offset
	Position [3]float32
	RotAngle float32
	RotAxis  [3]float32
	Scale    [3]float32

	VertexCount int
	FaceCount   int

	PosKeys   []RSMPosKey
	RotKeys   []RSMRotKey
	ScaleKeys []RSMScaleKey
}

// Animated reports whether the node carries any keys.
func (n *RSMNode) Animated() bool {
	return len(n.PosKeys) > 0 || len(n.RotKeys) > 0 || len(n.ScaleKeys) > 0
}

// RSM is the animation view of a model file.
type RSM struct {
	Version    RSMVersion
	// AnimLength is the animation length in milliseconds; key frames share that unit.
	AnimLength int32
	Textures   int
	RootNode   string
	Nodes      []RSMNode
}

// rsmReader reads little-endian fields and remembers the first failure.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (rr *rsmReader) read(v any) {
	if rr.err != nil {
		return
	}
	if err := binary.Read(rr.r, binary.LittleEndian, v); err != nil {
		rr.err = ErrTruncatedRSMData
	}
}

func (rr *rsmReader) skip(n int64) {
	if rr.err != nil || n == 0 {
		return
	}
	if int64(rr.r.Len()) < n {
		rr.err = ErrTruncatedRSMData
		return
	}
	_, _ = rr.r.Seek(n, io.SeekCurrent)
}

func (rr *rsmReader) count() int {
	var n int32
	rr.read(&n)
	if rr.err == nil && (n < 0 || n > maxRSMCount) {
		rr.err = fmt.Errorf("%w: element count %d", ErrTruncatedRSMData, n)
		return 0
	}
	return int(n)
}

// name reads a 40-byte EUC-KR string.
func (rr *rsmReader) name() string {
	buf := make([]byte, 40)
	rr.read(buf)
	if rr.err != nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

// ParseRSM parses RSM data from a byte slice. Versions 1.1 to 1.5 are supported.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}}
	if !rsm.Version.AtLeast(1, 1) || rsm.Version.AtLeast(2, 0) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rr := &rsmReader{r: bytes.NewReader(data[6:])}
	rr.read(&rsm.AnimLength)
	rr.skip(4) // shading
	if rsm.Version.AtLeast(1, 4) {
		rr.skip(1) // alpha
	}
	rr.skip(16)

	rsm.Textures = rr.count()
	rr.skip(int64(rsm.Textures) * 40)
	rsm.RootNode = rr.name()

	nodeCount := rr.count()
	if rr.err != nil {
		return nil, rr.err
	}
	if nodeCount == 0 && rsm.RootNode != "" {
		return nil, fmt.Errorf("%w: root %q without nodes", ErrInvalidNodeCount, rsm.RootNode)
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		readRSMNode(rr, rsm.Version, &rsm.Nodes[i])
		if rr.err != nil {
			return nil, fmt.Errorf("node %d: %w", i, rr.err)
		}
	}
	return rsm, nil
}

func readRSMNode(rr *rsmReader, version RSMVersion, node *RSMNode) {
	node.Name = rr.name()
	node.Parent = rr.name()

	rr.skip(int64(rr.count()) * 4) // texture ids
	rr.read(&node.Matrix)
	rr.read(&node.Offset)
	rr.read(&node.Position)
	rr.read(&node.RotAngle)
	rr.read(&node.RotAxis)
	rr.read(&node.Scale)

	node.VertexCount = rr.count()
	rr.skip(int64(node.VertexCount) * 12)

	texCoordSize := int64(8)
	faceSize := int64(20)
	if version.AtLeast(1, 2) {
		texCoordSize += 4 // vertex color
		faceSize += 4     // smoothing group
	}
	rr.skip(int64(rr.count()) * texCoordSize)
	node.FaceCount = rr.count()
	rr.skip(int64(node.FaceCount) * faceSize)

	if !version.AtLeast(1, 5) {
		node.PosKeys = make([]RSMPosKey, rr.count())
		rr.read(node.PosKeys)
	}
	node.RotKeys = make([]RSMRotKey, rr.count())
	rr.read(node.RotKeys)
	if version.AtLeast(1, 5) {
		node.ScaleKeys = make([]RSMScaleKey, rr.count())
		rr.read(node.ScaleKeys)
	}
}

// NodeByName returns the node with the given name, or nil.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// HasAnimation reports whether any node carries keys.
func (rsm *RSM) HasAnimation() bool {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Animated() {
			return true
		}
	}
	return false
}
