package capture

import (
	"context"
	stderrors "errors"
	"image"
	"strings"
	"time"
)

// Facing selects the physical camera.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Flip returns the opposite camera.
func (f Facing) Flip() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// ParseFacing accepts user/front and environment/back. Unknown values return environment and ok=false.
func ParseFacing(s string) (Facing, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "front":
		return FacingUser, true
	case "environment", "back", "rear", "":
		return FacingEnvironment, true
	default:
		return FacingEnvironment, false
	}
}

// Constraints describe the stream requested from a Device.
type Constraints struct {
	Facing Facing
	// Exact requires the facing to match; otherwise it is a preference
	Exact bool
	Audio bool
	// Ideal dimensions; the device may negotiate others
	Width  int
	Height int
}

// TrackKind is the media type carried by a Track.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Track is one hardware source inside a Stream. Stop releases it and is idempotent.
type Track interface {
	Kind() TrackKind
	Stop()
}

// Stream is a live acquisition from a Device.
type Stream interface {
	Tracks() []Track
	// Dimensions returns the negotiated frame size, or 0,0 if not yet known
	Dimensions() (width, height int)
	// Snapshot returns the current video frame
	Snapshot() (image.Image, error)
	NewRecorder() (Recorder, error)
}

// Recorder accumulates encoded stream data.
// Start delivers chunks to onChunk roughly every timeslice.
// Stop flushes any pending data to onChunk before returning; onChunk is
// never called after Stop returns.
type Recorder interface {
	Start(timeslice time.Duration, onChunk func([]byte)) error
	Stop() error
}

// Device acquires camera and microphone streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Preview is a live render surface bound to the active stream.
type Preview interface {
	Attach(s Stream)
	Detach()
}

// Errors a Device reports. Controllers map them to PERMISSION_DENIED or DEVICE_UNAVAILABLE.
var (
	ErrNotAllowed       = stderrors.New("permission to use the device was denied")
	ErrNoDevice         = stderrors.New("no matching device found")
	ErrOverconstrained  = stderrors.New("constraints cannot be satisfied")
	ErrTrackEnded       = stderrors.New("track ended")
	ErrRecorderInactive = stderrors.New("recorder not started")
)

// stopTracks stops every track of s.
func stopTracks(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
