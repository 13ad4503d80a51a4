package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Faultbox/midgard-anim/pkg/encoding"
)

// testNode describes one node for rsmBytes.
type testNode struct {
	name, parent string
	vertices     int
	texCoords    int
	faces        int
	pos          []RSMPosKey
	rot          []RSMRotKey
	scale        []RSMScaleKey
}

// rsmBytes encodes a model the way the game client writes it.
func rsmBytes(major, minor uint8, animLength int32, root string, textures []string, nodes []testNode) []byte {
	v := RSMVersion{major, minor}
	var buf bytes.Buffer
	w := func(x any) { _ = binary.Write(&buf, binary.LittleEndian, x) }
	name := func(s string) { buf.Write(encoding.UTF8ToFixedString(s, 40)) }

	buf.WriteString("GRSM")
	w([]uint8{major, minor})
	w(animLength)
	w(int32(2)) // shading
	if v.AtLeast(1, 4) {
		w(uint8(255))
	}
	buf.Write(make([]byte, 16))

	w(int32(len(textures)))
	for _, tex := range textures {
		name(tex)
	}
	name(root)

	w(int32(len(nodes)))
	for _, n := range nodes {
		name(n.name)
		name(n.parent)
		w(int32(1))
		w(int32(0))
		w([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
		w([3]float32{})        // offset
		w([3]float32{1, 2, 3}) // position
		w(float32(0))          // rot angle
		w([3]float32{0, 0, 1}) // rot axis
		w([3]float32{1, 1, 1}) // scale
		w(int32(n.vertices))
		buf.Write(make([]byte, n.vertices*12))
		w(int32(n.texCoords))
		tcSize, faceSize := 8, 20
		if v.AtLeast(1, 2) {
			tcSize, faceSize = 12, 24
		}
		buf.Write(make([]byte, n.texCoords*tcSize))
		w(int32(n.faces))
		buf.Write(make([]byte, n.faces*faceSize))
		if !v.AtLeast(1, 5) {
			w(int32(len(n.pos)))
			w(n.pos)
		}
		w(int32(len(n.rot)))
		w(n.rot)
		if v.AtLeast(1, 5) {
			w(int32(len(n.scale)))
			w(n.scale)
		}
	}
	w(int32(0)) // volume boxes
	return buf.Bytes()
}

func TestParseRSM_MagicValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"valid", rsmBytes(1, 5, 0, "", nil, nil), nil},
		{"invalid magic", append([]byte("XXXX"), rsmBytes(1, 5, 0, "", nil, nil)[4:]...), ErrInvalidRSMMagic},
		{"empty data", []byte{}, ErrTruncatedRSMData},
		{"truncated magic", []byte("GRS"), ErrTruncatedRSMData},
		{"truncated header", rsmBytes(1, 5, 0, "", nil, nil)[:20], ErrTruncatedRSMData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSM(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRSM_VersionSupport(t *testing.T) {
	tests := []struct {
		name    string
		major   uint8
		minor   uint8
		wantErr bool
	}{
		{"v1.1", 1, 1, false},
		{"v1.2", 1, 2, false},
		{"v1.3", 1, 3, false},
		{"v1.4", 1, 4, false},
		{"v1.5", 1, 5, false},
		{"v1.0 unsupported", 1, 0, true},
		{"v2.2 unsupported", 2, 2, true},
		{"v0.1 unsupported", 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := []testNode{{name: "root", vertices: 3, texCoords: 3, faces: 1}}
			_, err := ParseRSM(rsmBytes(tt.major, tt.minor, 0, "root", []string{"a.bmp"}, nodes))
			if (err != nil) != tt.wantErr {
				t.Errorf("version %d.%d: got error=%v, wantErr=%v", tt.major, tt.minor, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedRSMVersion) {
				t.Errorf("got %v, want ErrUnsupportedRSMVersion", err)
			}
		})
	}
}

func TestRSMVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version RSMVersion
		major   uint8
		minor   uint8
		want    bool
	}{
		{RSMVersion{1, 5}, 1, 5, true},
		{RSMVersion{1, 5}, 1, 4, true},
		{RSMVersion{1, 5}, 1, 6, false},
		{RSMVersion{1, 5}, 2, 0, false},
		{RSMVersion{2, 3}, 1, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestParseRSM_V14Animation(t *testing.T) {
	nodes := []testNode{
		{
			name: "base", vertices: 4, texCoords: 4, faces: 2,
			pos: []RSMPosKey{{Frame: 0, Position: [3]float32{0, 0, 0}}, {Frame: 500, Position: [3]float32{0, 5, 0}}},
		},
		{
			name: "lid", parent: "base", vertices: 8, texCoords: 2, faces: 12,
			rot: []RSMRotKey{{Frame: 0, Quaternion: [4]float32{0, 0, 0, 1}}, {Frame: 800, Quaternion: [4]float32{0, 0, 1, 0}}},
		},
	}
	rsm, err := ParseRSM(rsmBytes(1, 4, 1000, "base", []string{"a.bmp", "b.bmp"}, nodes))
	if err != nil {
		t.Fatalf("ParseRSM: %v", err)
	}

	if rsm.AnimLength != 1000 || rsm.Textures != 2 || rsm.RootNode != "base" {
		t.Errorf("header: got length %d, textures %d, root %q", rsm.AnimLength, rsm.Textures, rsm.RootNode)
	}
	if len(rsm.Nodes) != 2 {
		t.Fatalf("node count: got %d, want 2", len(rsm.Nodes))
	}

	base := rsm.NodeByName("base")
	if base == nil || len(base.PosKeys) != 2 || base.PosKeys[1].Position[1] != 5 {
		t.Fatalf("base position keys: got %+v", base)
	}
	if base.VertexCount != 4 || base.FaceCount != 2 {
		t.Errorf("base mesh sizes: got %d vertices, %d faces", base.VertexCount, base.FaceCount)
	}
	if base.Position != [3]float32{1, 2, 3} || base.Scale != [3]float32{1, 1, 1} {
		t.Errorf("base transform: got position %v, scale %v", base.Position, base.Scale)
	}

	lid := rsm.NodeByName("lid")
	if lid == nil || lid.Parent != "base" {
		t.Fatalf("lid: got %+v", lid)
	}
	if len(lid.RotKeys) != 2 || lid.RotKeys[1].Frame != 800 || lid.RotKeys[1].Quaternion[2] != 1 {
		t.Errorf("lid rotation keys: got %+v", lid.RotKeys)
	}
	if !rsm.HasAnimation() {
		t.Error("HasAnimation: got false")
	}
	if rsm.NodeByName("missing") != nil {
		t.Error("NodeByName should return nil for an unknown node")
	}
}

func TestParseRSM_V15ScaleKeys(t *testing.T) {
	nodes := []testNode{{
		name:  "root",
		scale: []RSMScaleKey{{Frame: 250, Scale: [3]float32{2, 2, 2}}},
	}}
	rsm, err := ParseRSM(rsmBytes(1, 5, 500, "root", nil, nodes))
	if err != nil {
		t.Fatalf("ParseRSM: %v", err)
	}
	n := &rsm.Nodes[0]
	if len(n.PosKeys) != 0 {
		t.Errorf("1.5 files have no position keys, got %d", len(n.PosKeys))
	}
	if len(n.ScaleKeys) != 1 || n.ScaleKeys[0].Scale != [3]float32{2, 2, 2} {
		t.Errorf("scale keys: got %+v", n.ScaleKeys)
	}
}

func TestParseRSM_KoreanNames(t *testing.T) {
	nodes := []testNode{{name: "문"}}
	rsm, err := ParseRSM(rsmBytes(1, 3, 0, "문", nil, nodes))
	if err != nil {
		t.Fatalf("ParseRSM: %v", err)
	}
	if rsm.Nodes[0].Name != "문" || rsm.RootNode != "문" {
		t.Errorf("names: got node %q, root %q", rsm.Nodes[0].Name, rsm.RootNode)
	}
}

func TestParseRSM_TruncatedNode(t *testing.T) {
	nodes := []testNode{{name: "root", rot: []RSMRotKey{{Frame: 0}, {Frame: 10}}}}
	data := rsmBytes(1, 5, 0, "root", nil, nodes)
	// Cut into the last rotation key.
	_, err := ParseRSM(data[:len(data)-12])
	if !errors.Is(err, ErrTruncatedRSMData) {
		t.Errorf("got %v, want ErrTruncatedRSMData", err)
	}
}

func TestParseRSM_RootWithoutNodes(t *testing.T) {
	_, err := ParseRSM(rsmBytes(1, 5, 0, "root", nil, nil))
	if !errors.Is(err, ErrInvalidNodeCount) {
		t.Errorf("got %v, want ErrInvalidNodeCount", err)
	}
}
