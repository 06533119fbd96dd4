package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync/atomic"
)

// ImageDevice serves a still image file as a single-frame camera.
// It has no microphone and cannot record.
type ImageDevice struct {
	Path string
	// Facing is the camera this device claims to be; exact requests for the other one fail
	Facing Facing
}

// Open decodes the image and returns a stream over it.
func (d *ImageDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	facing := d.Facing
	if facing == "" {
		facing = FacingEnvironment
	}
	if c.Exact && c.Facing != "" && c.Facing != facing {
		return nil, fmt.Errorf("%w: image device faces %s", ErrOverconstrained, facing)
	}
	if c.Audio {
		return nil, fmt.Errorf("%w: image device has no microphone", ErrNoDevice)
	}

	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrNoDevice, d.Path, err)
	}
	return &imageStream{frame: img, track: &imageTrack{}}, nil
}

type imageTrack struct {
	stopped atomic.Bool
}

func (t *imageTrack) Kind() TrackKind { return TrackVideo }
func (t *imageTrack) Stop()           { t.stopped.Store(true) }

type imageStream struct {
	frame image.Image
	track *imageTrack
}

func (s *imageStream) Tracks() []Track { return []Track{s.track} }

func (s *imageStream) Dimensions() (int, int) {
	b := s.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (s *imageStream) Snapshot() (image.Image, error) {
	if s.track.stopped.Load() {
		return nil, ErrTrackEnded
	}
	return s.frame, nil
}

func (s *imageStream) NewRecorder() (Recorder, error) {
	return nil, fmt.Errorf("%w: image device cannot record", ErrNoDevice)
}
