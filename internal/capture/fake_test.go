package capture

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"
)

func solidFrame(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

type fakeTrack struct {
	kind    TrackKind
	stopped atomic.Bool
}

func (t *fakeTrack) Kind() TrackKind { return t.kind }
func (t *fakeTrack) Stop()           { t.stopped.Store(true) }

type fakeRecorder struct {
	mu        sync.Mutex
	onChunk   func([]byte)
	timeslice time.Duration
	stops     int
}

func (r *fakeRecorder) Start(timeslice time.Duration, onChunk func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeslice = timeslice
	r.onChunk = onChunk
	return nil
}

// emit simulates a dataavailable event.
func (r *fakeRecorder) emit(b string) {
	r.mu.Lock()
	fn := r.onChunk
	r.mu.Unlock()
	if fn != nil {
		fn([]byte(b))
	}
}

func (r *fakeRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	if r.onChunk != nil {
		r.onChunk([]byte("|final"))
		r.onChunk = nil
	}
	return nil
}

func (r *fakeRecorder) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

type fakeStream struct {
	constraints Constraints
	tracks      []*fakeTrack
	width       int
	height      int

	mu          sync.Mutex
	frame       image.Image
	snapshotErr error
	recorders   []*fakeRecorder

	// gate, when set, blocks Snapshot until closed; entered closes on the first call.
	gate      chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
}

func (s *fakeStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *fakeStream) Dimensions() (int, int) { return s.width, s.height }

func (s *fakeStream) Snapshot() (image.Image, error) {
	if s.gate != nil {
		s.enterOnce.Do(func() { close(s.entered) })
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return s.frame, nil
}

func (s *fakeStream) NewRecorder() (Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &fakeRecorder{}
	s.recorders = append(s.recorders, r)
	return r, nil
}

func (s *fakeStream) live() bool {
	for _, t := range s.tracks {
		if !t.stopped.Load() {
			return true
		}
	}
	return false
}

func (s *fakeStream) lastRecorder() *fakeRecorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recorders) == 0 {
		return nil
	}
	return s.recorders[len(s.recorders)-1]
}

type fakeDevice struct {
	mu        sync.Mutex
	opens     []Constraints
	streams   []*fakeStream
	failExact bool
	err       error
	width     int
	height    int
	frame     image.Image
	gate      chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{width: 64, height: 48, frame: solidFrame(64, 48, color.RGBA{R: 120, G: 120, B: 120, A: 255})}
}

func (d *fakeDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens = append(d.opens, c)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	if c.Exact && d.failExact {
		return nil, ErrOverconstrained
	}
	s := &fakeStream{
		constraints: c,
		tracks:      []*fakeTrack{{kind: TrackVideo}},
		width:       d.width,
		height:      d.height,
		frame:       d.frame,
	}
	if d.gate != nil {
		s.gate = d.gate
		s.entered = make(chan struct{})
		d.gate = nil
	}
	if c.Audio {
		s.tracks = append(s.tracks, &fakeTrack{kind: TrackAudio})
	}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDevice) liveStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.streams {
		if s.live() {
			n++
		}
	}
	return n
}

func (d *fakeDevice) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

func (d *fakeDevice) openCalls() []Constraints {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Constraints(nil), d.opens...)
}

type fakePreview struct {
	mu       sync.Mutex
	attached Stream
	attaches int
	detaches int
}

func (p *fakePreview) Attach(s Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached = s
	p.attaches++
}

func (p *fakePreview) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached = nil
	p.detaches++
}
