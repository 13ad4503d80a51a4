package config

import (
	"flag"

	"github.com/Faultbox/midgard-anim/internal/engine/playback"
)

// Flags are command-line overrides applied on top of the config file.
type Flags struct {
	Config  string
	Debug   bool
	Mode    string
	Delay   float64
	Reverse bool
	Speed   float64
	LogFile string
}

// BindFlags registers the override flags on fs and returns their destination.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Mode, "mode", "", "Loop mode (once, loop, unsynced_loop, mirror_once, mirror_loop)")
	fs.Float64Var(&f.Delay, "delay", -1, "Delay between loops in seconds")
	fs.BoolVar(&f.Reverse, "reverse", false, "Play backwards")
	fs.Float64Var(&f.Speed, "speed", 0, "Playback speed multiplier")
	fs.StringVar(&f.LogFile, "log", "", "Log file path")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Mode != "" {
		mode, err := playback.ParseLoopMode(f.Mode)
		if err != nil {
			return err
		}
		cfg.Playback.LoopMode = mode
	}
	if f.Delay >= 0 {
		cfg.Playback.LoopDelay = f.Delay
	}
	if f.Reverse {
		cfg.Playback.Reverse = true
	}
	if f.Speed > 0 {
		cfg.Playback.Speed = f.Speed
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	return nil
}
