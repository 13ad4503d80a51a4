// Package presets persists per-track playback settings between sessions.
//
// Presets live in the platform data directory through gdata, one yaml blob per
// track. Without a data directory the store keeps presets in memory only.
package presets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/engine/playback"
)

// ErrEmptyName is returned for tracks with a blank name.
var ErrEmptyName = errors.New("preset name is empty")

const presetObject = "presets"

// Preset is the tunable playback state of one track.
type Preset struct {
	Playback playback.Settings `yaml:"playback"`
	// NodeSpeeds overrides node speeds by node identifier.
	NodeSpeeds map[uint32]float32 `yaml:"node_speeds,omitempty"`
}

// Capture records the controller's settings and the speed of every node that
// differs from unit speed.
func Capture(c *playback.Controller) Preset {
	p := Preset{Playback: c.Settings()}
	if track := c.Track(); track != nil {
		for _, n := range track.Nodes() {
			if n.Speed != 1 {
				if p.NodeSpeeds == nil {
					p.NodeSpeeds = make(map[uint32]float32)
				}
				p.NodeSpeeds[n.ID] = n.Speed
			}
		}
	}
	return p
}

// Apply pushes the preset into the controller and its track's nodes.
// Unknown node identifiers are skipped.
func (p Preset) Apply(c *playback.Controller) {
	c.ApplySettings(p.Playback)
	track := c.Track()
	if track == nil {
		return
	}
	for id, speed := range p.NodeSpeeds {
		if n, ok := track.Node(id); ok {
			c.SetNodeSpeed(n, speed)
		}
	}
}

// Store loads and saves presets.
type Store struct {
	manager *gdata.Manager // nil keeps presets in memory
	memory  map[string]Preset
	log     *zap.Logger
}

// NewStore creates a store on top of manager. A nil manager stores in memory only.
func NewStore(manager *gdata.Manager, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		manager: manager,
		memory:  make(map[string]Preset),
		log:     log,
	}
}

// Open creates a store as configured. A data directory that cannot be opened
// degrades to an in-memory store.
func Open(cfg config.PresetsConfig, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		return NewStore(nil, log)
	}
	manager, err := gdata.Open(gdata.Config{AppName: cfg.AppName})
	if err != nil {
		log.Warn("preset storage unavailable, keeping presets in memory",
			zap.String("app", cfg.AppName),
			zap.Error(err))
		return NewStore(nil, log)
	}
	return NewStore(manager, log)
}

// Persistent reports whether presets survive the process.
func (s *Store) Persistent() bool {
	return s.manager != nil
}

// Load returns the preset saved for a track. The bool is false when none exists.
func (s *Store) Load(track string) (Preset, bool, error) {
	key, err := propertyKey(track)
	if err != nil {
		return Preset{}, false, err
	}
	if s.manager == nil {
		p, ok := s.memory[key]
		return p, ok, nil
	}

	if !s.manager.ObjectPropExists(presetObject, key) {
		return Preset{}, false, nil
	}
	data, err := s.manager.LoadObjectProp(presetObject, key)
	if err != nil {
		return Preset{}, false, fmt.Errorf("loading preset %s: %w", key, err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, false, fmt.Errorf("decoding preset %s: %w", key, err)
	}
	s.log.Debug("preset loaded", zap.String("track", track))
	return p, true, nil
}

// Save stores the preset for a track.
func (s *Store) Save(track string, p Preset) error {
	key, err := propertyKey(track)
	if err != nil {
		return err
	}
	if s.manager == nil {
		s.memory[key] = p
		return nil
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preset %s: %w", key, err)
	}
	if err := s.manager.SaveObjectProp(presetObject, key, data); err != nil {
		return fmt.Errorf("saving preset %s: %w", key, err)
	}
	s.log.Debug("preset saved", zap.String("track", track))
	return nil
}

// propertyKey folds a track name into a storage key. Lower-case ASCII letters
// and digits are kept; every other byte of the trimmed, lower-cased name is
// written as _xx in hex, so distinct names never share a key.
func propertyKey(track string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(track))
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyName, track)
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "_%02x", c)
	}
	return b.String(), nil
}
