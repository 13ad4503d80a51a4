// Package config handles animplay configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/midgard-anim/internal/engine/playback"
	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// Config holds all player settings.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Assign   AssignConfig   `yaml:"assign"`
	Presets  PresetsConfig  `yaml:"presets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlaybackConfig holds the default playback settings for new controllers.
type PlaybackConfig struct {
	LoopMode  playback.LoopMode `yaml:"loop_mode"`
	LoopDelay float64           `yaml:"loop_delay"` // seconds
	Reverse   bool              `yaml:"reverse"`
	Speed     float64           `yaml:"speed"`
	Step      time.Duration     `yaml:"step"` // tick length used by the frames command
}

// AssignConfig controls the data derived when a track's nodes are linked.
type AssignConfig struct {
	NodeFrameCounts bool `yaml:"node_frame_counts"`
	DeriveDurations bool `yaml:"derive_durations"`
}

// PresetsConfig holds persisted preset settings.
type PresetsConfig struct {
	Enabled bool   `yaml:"enabled"`
	AppName string `yaml:"app_name"` // data directory name
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			LoopMode:  playback.Loop,
			LoopDelay: 0,
			Reverse:   false,
			Speed:     1,
			Step:      time.Second / 30,
		},
		Assign: AssignConfig{
			NodeFrameCounts: true,
			DeriveDurations: false,
		},
		Presets: PresetsConfig{
			Enabled: true,
			AppName: "midgard_anim",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Settings converts the playback section to controller settings.
func (p PlaybackConfig) Settings() playback.Settings {
	return playback.Settings{
		Mode:    p.LoopMode,
		Delay:   p.LoopDelay,
		Reverse: p.Reverse,
		Speed:   p.Speed,
	}
}

// Options converts the assign section to AssignObjects options.
func (a AssignConfig) Options() anim.AssignOptions {
	return anim.AssignOptions{
		NodeFrameCounts: a.NodeFrameCounts,
		DeriveDurations: a.DeriveDurations,
	}
}
