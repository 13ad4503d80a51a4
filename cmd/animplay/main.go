// animplay is a CLI utility for inspecting and stepping animation tracks.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/engine/playback"
	"github.com/Faultbox/midgard-anim/internal/engine/scene"
	"github.com/Faultbox/midgard-anim/internal/logger"
	"github.com/Faultbox/midgard-anim/internal/presets"
	"github.com/Faultbox/midgard-anim/internal/trackdoc"
	"github.com/Faultbox/midgard-anim/pkg/formats"
	"github.com/Faultbox/midgard-anim/pkg/grf"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "frames", "play":
		cmdFrames(args)
	case "seek":
		cmdSeek(args)
	case "models":
		cmdModels(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animplay - animation track player

Usage:
  animplay <command> [options]

Commands:
  info <track>                           Show track information
  frames [options] <track>               Step playback and print poses
  seek [-end] <track> <node> <frame>     Seek a node onto a keyframe
  models <archive.grf>                   List animated models in an archive

A track is a YAML track document or an RSM model (.rsm). With -grf <archive>
the track path names a file inside the archive.

Options for frames:
  -mode once|loop|unsynced_loop|mirror_once|mirror_loop
  -delay <seconds>   -reverse   -speed <x>
  -step <duration>   -n <ticks>
  -preset            apply the saved preset for the track
  -save              save the final settings as the track's preset

Examples:
  animplay info walk.yaml
  animplay frames -mode mirror_loop -n 20 walk.yaml
  animplay seek -end walk.yaml 2 1
  animplay frames -grf data.grf -step 100ms data/model/chest.rsm`)
}

// session is a loaded track ready to play.
type session struct {
	cfg        *config.Config
	log        *zap.Logger
	result     *trackdoc.Result
	registry   *scene.Registry
	controller *playback.Controller
}

func openSession(path, archive string, flags *config.Flags) (*session, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	log := logger.Named("animplay")

	result, err := loadTrack(path, archive, cfg.Assign, log)
	if err != nil {
		return nil, err
	}

	registry := scene.NewRegistry()
	registry.Register(result.Entity)

	c := playback.New(result.Track, logger.Named("playback"))
	c.ApplySettings(cfg.Playback.Settings())

	return &session{
		cfg:        cfg,
		log:        log,
		result:     result,
		registry:   registry,
		controller: c,
	}, nil
}

const modelDir = "data/model/"

// isModelPath reports whether path names an RSM model, ignoring extension case.
func isModelPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".rsm")
}

// loadTrack reads a track document or an RSM model, from disk or from a GRF archive.
func loadTrack(path, archive string, assign config.AssignConfig, log *zap.Logger) (*trackdoc.Result, error) {
	var data []byte
	var err error
	if archive != "" {
		a, err := grf.Open(archive)
		if err != nil {
			return nil, err
		}
		defer a.Close()
		// Model paths inside RSW maps are relative to data/model.
		if !a.Contains(path) && a.Contains(modelDir+path) {
			path = modelDir + path
		}
		data, err = a.Read(path)
		if err != nil {
			return nil, err
		}
	} else if data, err = os.ReadFile(path); err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(strings.ReplaceAll(path, "\\", "/")), filepath.Ext(path))
	if isModelPath(path) {
		model, err := formats.ParseRSM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return trackdoc.FromRSM(model, name, assign.Options(), log)
	}

	doc, err := trackdoc.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Build(assign.Options(), log)
}

// close unregisters the session's entity and detaches the track from it.
func (s *session) close() {
	track := s.result.Track
	s.registry.Remove(track.Owner)
	track.ClearOwner()
	s.log.Debug("session closed",
		zap.String("track", track.Name),
		zap.Int("entities", s.registry.Len()))
}

// target resolves the track's owner through the registry.
func (s *session) target() (*scene.Entity, error) {
	track := s.result.Track
	if !track.HasOwner() {
		return nil, fmt.Errorf("track %q has no owner", track.Name)
	}
	e, ok := s.registry.Lookup(track.Owner)
	if !ok {
		return nil, fmt.Errorf("owner of track %q is gone", track.Name)
	}
	return e, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Debug("command failed", zap.Error(err))
	logger.Sync()
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	flags := config.BindFlags(fs)
	archive := fs.String("grf", "", "Read the track from this GRF archive")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animplay info [-grf archive] <track>")
		os.Exit(1)
	}

	s, err := openSession(fs.Arg(0), *archive, flags)
	if err != nil {
		fail(err)
	}
	defer logger.Sync()
	defer s.close()

	track := s.result.Track
	fmt.Printf("Track:    %s\n", track.Name)
	fmt.Printf("Encoding: %s\n", track.Encoding)
	fmt.Printf("FPS:      %g\n", track.FPS)
	fmt.Printf("Frames:   %d\n", track.FrameCount())
	fmt.Printf("Duration: %.3fs\n", track.Duration())
	fmt.Printf("Nodes:    %d\n", track.ObjectCount())
	fmt.Printf("Unsynced: %v\n", track.HasUnsyncedObjects())
	fmt.Println()

	fmt.Println("Nodes:")
	for _, n := range track.Nodes() {
		parent := "root"
		if p := n.Parent(); p != nil && p != track.Root() {
			parent = strconv.FormatUint(uint64(p.ID), 10)
		}
		fmt.Printf("  %-4d parent=%-5s keys=%-3d frames=%-4d speed=%g targets=%v\n",
			n.ID, parent, n.KeyframeCount(), n.FrameCount, n.Speed, n.TargetIDs())
	}
	for _, id := range s.result.Report.Reparented {
		fmt.Printf("  node %d: parent missing, attached to root\n", id)
	}
}

func cmdFrames(args []string) {
	fs := flag.NewFlagSet("frames", flag.ExitOnError)
	flags := config.BindFlags(fs)
	archive := fs.String("grf", "", "Read the track from this GRF archive")
	step := fs.Duration("step", 0, "Tick length (default from config)")
	ticks := fs.Int("n", 30, "Number of ticks")
	usePreset := fs.Bool("preset", false, "Apply the saved preset for the track")
	savePreset := fs.Bool("save", false, "Save the settings as the track's preset")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animplay frames [options] <track>")
		os.Exit(1)
	}

	s, err := openSession(fs.Arg(0), *archive, flags)
	if err != nil {
		fail(err)
	}
	defer logger.Sync()
	defer s.close()

	store := presets.Open(s.cfg.Presets, s.log)
	track := s.result.Track
	if *usePreset {
		p, ok, err := store.Load(track.Name)
		switch {
		case err != nil:
			s.log.Warn("failed to load preset", zap.String("track", track.Name), zap.Error(err))
		case ok:
			p.Apply(s.controller)
		default:
			fmt.Printf("No preset saved for %s\n", track.Name)
		}
	}

	entity, err := s.target()
	if err != nil {
		fail(err)
	}

	tick := s.cfg.Playback.Step
	if *step > 0 {
		tick = *step
	}
	c := s.controller
	settings := c.Settings()
	fmt.Printf("%s: %d frames at %g fps, mode=%s delay=%gs reverse=%v speed=%g\n",
		track.Name, track.FrameCount(), track.FPS, settings.Mode, settings.Delay, settings.Reverse, settings.Speed)

	for i := 0; i <= *ticks; i++ {
		if i > 0 {
			c.AdvanceTime(tick.Seconds())
		}
		changed, err := c.Evaluate(entity)
		if err != nil {
			fail(err)
		}
		printTick(c, entity, changed)
	}

	if *savePreset {
		if err := store.Save(track.Name, presets.Capture(c)); err != nil {
			fail(err)
		}
		if store.Persistent() {
			fmt.Printf("Preset saved for %s\n", track.Name)
		} else {
			fmt.Println("Preset storage unavailable; preset not persisted")
		}
	}
}

func printTick(c *playback.Controller, e *scene.Entity, changed bool) {
	state := ""
	switch {
	case c.IsFinished():
		state = " finished"
	case c.IsDelaying():
		state = " delaying"
	case c.IsMirroring():
		state = " mirroring"
	}
	marker := " "
	if changed {
		marker = "*"
	}
	fmt.Printf("%s t=%7.3fs frame=%7.3f%s\n", marker, c.Time(), c.CurrentFrameTime(), state)
	if !changed {
		return
	}

	r := e.Root.Translation()
	if r.Length() != 0 {
		fmt.Printf("    root  (%.3f, %.3f, %.3f)\n", r.X, r.Y, r.Z)
	}
	for _, m := range e.Models {
		p := m.World.Translation()
		fmt.Printf("    %-12s (%.3f, %.3f, %.3f)", m.Name, p.X, p.Y, p.Z)
		if m.Vertices.Active() {
			fmt.Printf(" vertices %.2f", m.Vertices.Fraction)
		}
		if m.Normals.Active() {
			fmt.Printf(" normals %.2f", m.Normals.Fraction)
		}
		fmt.Println()
		if m.Vertices.Active() {
			printVertices(m)
		}
	}
}

// maxPrintedVertices bounds the morphed vertices printed per model.
const maxPrintedVertices = 4

// printVertices prints the first blended vertices of a morph in world space.
func printVertices(m *scene.Model) {
	blended := m.Vertices.Blend()
	for i, v := range blended[:min(len(blended), maxPrintedVertices)] {
		p := m.World.TransformVec3(v)
		fmt.Printf("      v%-3d (%.3f, %.3f, %.3f)\n", i, p.X, p.Y, p.Z)
	}
	if len(blended) > maxPrintedVertices {
		fmt.Printf("      ... %d more\n", len(blended)-maxPrintedVertices)
	}
}

func cmdSeek(args []string) {
	fs := flag.NewFlagSet("seek", flag.ExitOnError)
	flags := config.BindFlags(fs)
	archive := fs.String("grf", "", "Read the track from this GRF archive")
	atEnd := fs.Bool("end", false, "Land just before the keyframe's end")
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: animplay seek [-end] [-grf archive] <track> <node> <frame>")
		os.Exit(1)
	}
	nodeID, err := strconv.ParseUint(fs.Arg(1), 10, 32)
	if err != nil {
		fail(fmt.Errorf("node id: %w", err))
	}
	frame, err := strconv.ParseUint(fs.Arg(2), 10, 32)
	if err != nil {
		fail(fmt.Errorf("frame: %w", err))
	}

	s, err := openSession(fs.Arg(0), *archive, flags)
	if err != nil {
		fail(err)
	}
	defer logger.Sync()
	defer s.close()

	node, ok := s.result.Track.Node(uint32(nodeID))
	if !ok {
		fail(fmt.Errorf("no node %d", nodeID))
	}
	c := s.controller
	if !c.SeekToKeyframe(node, uint32(frame), *atEnd) {
		fail(fmt.Errorf("node %d has no keyframe at frame %d", nodeID, frame))
	}

	entity, err := s.target()
	if err != nil {
		fail(err)
	}
	if _, err := c.Evaluate(entity); err != nil {
		fail(err)
	}
	fmt.Printf("Time:        %.6fs\n", c.Time())
	fmt.Printf("Track frame: %.6f\n", c.CurrentFrameTime())
	fmt.Printf("Node frame:  %.6f\n", c.NodeFrameTime(node))
	printTick(c, entity, true)
}

func cmdModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animplay models <archive.grf>")
		os.Exit(1)
	}

	a, err := grf.Open(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	defer a.Close()

	var total, animated int
	for _, path := range a.List() {
		if !isModelPath(path) {
			continue
		}
		total++
		data, err := a.Read(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
			continue
		}
		model, err := formats.ParseRSM(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
			continue
		}
		if !model.HasAnimation() {
			continue
		}
		animated++
		fmt.Printf("  %-48s v%s %5dms %d nodes\n", path, model.Version, model.AnimLength, len(model.Nodes))
	}
	fmt.Printf("%d of %d models animated\n", animated, total)
}
