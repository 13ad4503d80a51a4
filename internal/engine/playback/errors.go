package playback

import "errors"

// Playback errors.
var (
	ErrNoTrack         = errors.New("controller has no track")
	ErrNoRoot          = errors.New("track has no root node; call AssignObjects first")
	ErrNilEntity       = errors.New("nil target entity")
	ErrUnknownLoopMode = errors.New("unknown loop mode")
)
