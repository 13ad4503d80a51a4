// Package trackdoc builds animation tracks and their target entities from
// YAML track documents and from the node animation of RSM models.
//
// The YAML format is a tooling and fixture format: it spells out nodes, keyframes
// and the scene entity they drive so tracks can be played without a game loader.
package trackdoc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid track document")

// Document is the YAML root.
type Document struct {
	Name     string            `yaml:"name"`
	FPS      float32           `yaml:"fps"`
	Encoding string            `yaml:"encoding"`
	IDRemap  map[uint32]uint32 `yaml:"id_remap,omitempty"`
	Nodes    []NodeDoc         `yaml:"nodes"`
	Entity   EntityDoc         `yaml:"entity"`
}

// NodeDoc describes one animation node.
type NodeDoc struct {
	ID          uint32        `yaml:"id"`
	Parent      *uint32       `yaml:"parent,omitempty"`
	Speed       *float32      `yaml:"speed,omitempty"`
	FrameCount  uint32        `yaml:"frame_count,omitempty"`
	HandlesRoot bool          `yaml:"handles_root,omitempty"`
	Targets     []uint32      `yaml:"targets,omitempty"`
	Keyframes   []KeyframeDoc `yaml:"keyframes"`
}

// KeyframeDoc describes one keyframe.
type KeyframeDoc struct {
	Frame       uint32      `yaml:"frame"`
	Duration    uint32      `yaml:"duration,omitempty"`
	Rotation    *ChannelDoc `yaml:"rotation,omitempty"`
	Scale       *ChannelDoc `yaml:"scale,omitempty"`
	Translation *ChannelDoc `yaml:"translation,omitempty"`
	Matrix      *MatrixDoc  `yaml:"matrix,omitempty"`
	Vertices    [][]float32 `yaml:"vertices,omitempty"`
}

// ChannelDoc describes one transform channel.
type ChannelDoc struct {
	Value    []float32   `yaml:"value,omitempty"`
	Absolute bool        `yaml:"absolute,omitempty"`
	Interp   string      `yaml:"interp,omitempty"`
	Final    []float32   `yaml:"final,omitempty"`
	Curve    [][]float32 `yaml:"curve,omitempty"`
}

// MatrixDoc is a row-major 3x3 matrix plus translation.
type MatrixDoc struct {
	Rows     []float32 `yaml:"rows"`
	Transfer []float32 `yaml:"transfer"`
}

// EntityDoc describes the scene entity the track drives.
type EntityDoc struct {
	Name        string          `yaml:"name"`
	Models      []ModelDoc      `yaml:"models"`
	Coordinates []CoordinateDoc `yaml:"coordinates,omitempty"`
}

// ModelDoc describes a model.
type ModelDoc struct {
	Name       string `yaml:"name"`
	Target     uint32 `yaml:"target"`
	Coordinate int    `yaml:"coordinate,omitempty"`
}

// CoordinateDoc describes an HMD coordinate frame.
type CoordinateDoc struct {
	Name        string    `yaml:"name"`
	Parent      *int      `yaml:"parent,omitempty"` // 0-based, absent for none
	Rotation    []float32 `yaml:"rotation,omitempty"`
	Scale       []float32 `yaml:"scale,omitempty"`
	Translation []float32 `yaml:"translation,omitempty"`
	Order       string    `yaml:"order,omitempty"`
}

// Load reads a document from a file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding track document: %w", err)
	}
	return &doc, nil
}

// Result is a built track with the entity it drives.
type Result struct {
	Track  *anim.Track
	Entity *scene.Entity
	Report anim.AssignReport
}

// Build validates the document, links the track's nodes and creates its entity.
// The track's owner is set to the entity's handle.
func (d *Document) Build(opts anim.AssignOptions, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	encoding := anim.EncodingCommon
	if d.Encoding != "" {
		var err error
		if encoding, err = anim.ParseEncoding(d.Encoding); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	track := anim.NewTrack(d.Name, d.FPS, encoding)
	for from, to := range d.IDRemap {
		track.IDRemap[from] = to
	}

	nodes := make(map[uint32]*anim.Node, len(d.Nodes))
	for i := range d.Nodes {
		nd := &d.Nodes[i]
		if _, dup := nodes[nd.ID]; dup {
			return nil, fmt.Errorf("%w: node %d: duplicate id", ErrInvalid, nd.ID)
		}
		n, err := nd.build()
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %w", ErrInvalid, nd.ID, err)
		}
		nodes[nd.ID] = n
	}

	report, err := track.AssignObjects(nodes, opts)
	if err != nil {
		return nil, err
	}
	for _, id := range report.Reparented {
		log.Warn("node parent not found, attached to root",
			zap.String("track", d.Name),
			zap.Uint32("node", id))
	}

	entity, err := d.Entity.build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	track.Owner = entity.Handle

	log.Debug("track built",
		zap.String("track", d.Name),
		zap.Stringer("encoding", encoding),
		zap.Int("nodes", track.ObjectCount()),
		zap.Uint32("frames", track.FrameCount()),
		zap.Int("models", len(entity.Models)))

	return &Result{Track: track, Entity: entity, Report: report}, nil
}

func (nd *NodeDoc) build() (*anim.Node, error) {
	n := anim.NewNode(nd.ID)
	if nd.Parent != nil {
		n.SetParent(*nd.Parent)
	}
	if nd.Speed != nil {
		n.Speed = *nd.Speed
	}
	n.FrameCount = nd.FrameCount
	n.HandlesRoot = nd.HandlesRoot
	for _, id := range nd.Targets {
		n.AddTarget(id)
	}
	for i := range nd.Keyframes {
		k, err := nd.Keyframes[i].build()
		if err != nil {
			return nil, fmt.Errorf("keyframe at frame %d: %w", nd.Keyframes[i].Frame, err)
		}
		n.AddKeyframe(k)
	}
	return n, nil
}

func (kd *KeyframeDoc) build() (*anim.Keyframe, error) {
	k := &anim.Keyframe{
		FrameTime:     kd.Frame,
		FrameDuration: kd.Duration,
	}
	var err error
	if k.Rotation, err = kd.Rotation.build(); err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	if k.Scale, err = kd.Scale.build(); err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	if k.Translation, err = kd.Translation.build(); err != nil {
		return nil, fmt.Errorf("translation: %w", err)
	}
	if kd.Matrix != nil {
		if len(kd.Matrix.Rows) != 9 {
			return nil, fmt.Errorf("matrix: want 9 values, got %d", len(kd.Matrix.Rows))
		}
		transfer, err := vec(kd.Matrix.Transfer, math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("matrix transfer: %w", err)
		}
		k.Matrix = anim.SomeMatrix(columnMajor(kd.Matrix.Rows), transfer)
	}
	if kd.Vertices != nil {
		if k.Vertices, err = vecs(kd.Vertices); err != nil {
			return nil, fmt.Errorf("vertices: %w", err)
		}
	}
	return k, nil
}

// build converts a channel; a nil channel is absent.
func (cd *ChannelDoc) build() (anim.Channel, error) {
	var ch anim.Channel
	if cd == nil {
		return ch, nil
	}
	ch.Absolute = cd.Absolute

	var err error
	if ch.Value, err = optVec(cd.Value); err != nil {
		return ch, fmt.Errorf("value: %w", err)
	}
	if ch.Final, err = optVec(cd.Final); err != nil {
		return ch, fmt.Errorf("final: %w", err)
	}
	if cd.Interp != "" {
		if ch.Interp, err = anim.ParseInterpKind(cd.Interp); err != nil {
			return ch, err
		}
	}
	// Curves of the wrong size are kept; evaluation treats them as no contribution.
	if ch.Curve, err = vecs(cd.Curve); err != nil {
		return ch, fmt.Errorf("curve: %w", err)
	}
	return ch, nil
}

func (ed *EntityDoc) build() (*scene.Entity, error) {
	e := scene.NewEntity(ed.Name)
	for i, cd := range ed.Coordinates {
		c, err := cd.build()
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		e.Coordinates = append(e.Coordinates, c)
	}
	for _, md := range ed.Models {
		m := scene.NewModel(md.Name, md.Target)
		m.Coordinate = md.Coordinate
		if _, ok := e.Coordinate(md.Coordinate); ok {
			m.Authored = e.OriginalCoordinateWorld(md.Coordinate)
			m.World = m.Authored
		}
		e.AddModel(m)
	}
	return e, nil
}

func (cd *CoordinateDoc) build() (*scene.Coordinate, error) {
	rotation, err := vec(cd.Rotation, math.Vec3{})
	if err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	scale, err := vec(cd.Scale, math.One)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	translation, err := vec(cd.Translation, math.Vec3{})
	if err != nil {
		return nil, fmt.Errorf("translation: %w", err)
	}
	order := math.OrderXYZ
	if cd.Order != "" {
		if order, err = math.ParseRotationOrder(cd.Order); err != nil {
			return nil, err
		}
	}
	parent := -1
	if cd.Parent != nil {
		parent = *cd.Parent
	}
	c := scene.NewCoordinate(parent, rotation, scale, translation, order)
	c.Name = cd.Name
	return c, nil
}

// vec converts a 3-element list, returning def for an empty one.
func vec(v []float32, def math.Vec3) (math.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
	}
	return def, fmt.Errorf("want 3 components, got %d", len(v))
}

func optVec(v []float32) (anim.OptVec3, error) {
	if v == nil {
		return anim.None(), nil
	}
	out, err := vec(v, math.Vec3{})
	if err != nil {
		return anim.None(), err
	}
	return anim.Some(out), nil
}

func vecs(vs [][]float32) ([]math.Vec3, error) {
	if vs == nil {
		return nil, nil
	}
	out := make([]math.Vec3, len(vs))
	for i, v := range vs {
		if len(v) != 3 {
			return nil, fmt.Errorf("element %d: want 3 components, got %d", i, len(v))
		}
		out[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out, nil
}

// columnMajor transposes a row-major 3x3 matrix.
func columnMajor(rows []float32) [9]float32 {
	return [9]float32{
		rows[0], rows[3], rows[6],
		rows[1], rows[4], rows[7],
		rows[2], rows[5], rows[8],
	}
}
