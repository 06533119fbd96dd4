package capture

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/errors"
)

// Recording parameters.
const (
	RecordingMIME    = "video/webm"
	ChunkInterval    = 100 * time.Millisecond
	TickInterval     = time.Second
	FlashDuration    = 160 * time.Millisecond
	AnalysisInterval = 1200 * time.Millisecond
	AnalysisStopWait = 3 * time.Second
)

const (
	msgCameraNotStarted = "Camera not started."
	msgAudioRequired    = "Recording needs a session with audio."
)

// State is the session lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateStreaming  State = "streaming"
	StateError      State = "error"
)

// Options configures a Controller.
type Options struct {
	Facing           Facing
	AnalysisInterval time.Duration
	AnalysisStopWait time.Duration
	FlashDuration    time.Duration
	Preview          Preview
	Blobs            *blob.Registry
	Logger           *zap.Logger

	// OnCapture persists each captured photo. Failures are logged and
	// reported as a warning; the photo is still returned.
	OnCapture func(ctx context.Context, dataURI string) error
}

// Status is a point-in-time view of the controller for display.
type Status struct {
	State          State  `json:"state"`
	Facing         Facing `json:"facing"`
	Audio          bool   `json:"audio"`
	Recording      bool   `json:"recording"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Flashing       bool   `json:"flashing"`
	Suggestion     string `json:"suggestion"`
	HasLastCapture bool   `json:"has_last_capture"`
	RecordingURL   string `json:"recording_url,omitempty"`
	Error          string `json:"error,omitempty"`
	Warning        string `json:"warning,omitempty"`
}

// Controller owns at most one live stream and its recording session.
// Operations are serialized; a new session always tears down the previous
// stream before the device is asked for another one.
type Controller struct {
	device Device
	opts   Options
	logger *zap.Logger
	blobs  *blob.Registry

	// mu serializes operations and guards stream, recorder and lifecycle fields.
	mu       sync.Mutex
	stream   Stream
	closed   bool
	recorder Recorder

	// Analysis goroutine lifecycle; never touches mu.
	analysisCancel context.CancelFunc
	// analysisDone is closed by the analysis goroutine of the current session
	analysisDone chan struct{}

	// Recording tick goroutine lifecycle.
	tickStop chan struct{}
	tickWG   sync.WaitGroup
	elapsed  atomic.Int64

	chunkMu sync.Mutex
	chunks  [][]byte

	flashing   atomic.Bool
	flashTimer *time.Timer

	// viewMu guards the fields read by Snapshot so status reads never wait on a device.
	viewMu       sync.RWMutex
	state        State
	facing       Facing
	audio        bool
	recording    bool
	suggestion   string
	lastCapture  string
	recordingURL string
	lastErr      error
	warning      string
}

// NewController returns an idle controller for device.
func NewController(device Device, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Blobs == nil {
		opts.Blobs = blob.NewRegistry()
	}
	if opts.AnalysisInterval <= 0 {
		opts.AnalysisInterval = AnalysisInterval
	}
	if opts.AnalysisStopWait <= 0 {
		opts.AnalysisStopWait = AnalysisStopWait
	}
	if opts.FlashDuration <= 0 {
		opts.FlashDuration = FlashDuration
	}
	facing := opts.Facing
	if facing != FacingUser {
		facing = FacingEnvironment
	}
	return &Controller{
		device:     device,
		opts:       opts,
		logger:     opts.Logger,
		blobs:      opts.Blobs,
		state:      StateIdle,
		facing:     facing,
		suggestion: SuggestionInitial,
	}
}

// StartSession releases any active stream, then opens a new one.
// An exact facing match is tried first, then a best-effort match.
// Failures leave the controller in StateError and are returned, never panicked.
func (c *Controller) StartSession(ctx context.Context, facing Facing, withAudio bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx, facing, withAudio)
}

// StopSession stops every track and detaches the preview. Safe when idle.
func (c *Controller) StopSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRecordingLocked()
	c.stopStreamLocked()
	c.setView(func() {
		if c.state != StateError {
			c.state = StateIdle
		}
	})
}

// ToggleFacing flips the camera and restarts the session, keeping the audio preference.
func (c *Controller) ToggleFacing(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMu.RLock()
	next, audio := c.facing.Flip(), c.audio
	c.viewMu.RUnlock()
	return c.startLocked(ctx, next, audio)
}

// ToggleAudio flips the microphone preference, restarting the stream if one is live.
func (c *Controller) ToggleAudio(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMu.Lock()
	c.audio = !c.audio
	facing, audio := c.facing, c.audio
	c.viewMu.Unlock()
	if c.stream == nil {
		return nil
	}
	return c.startLocked(ctx, facing, audio)
}

// Retry re-requests a stream with the last facing and audio preference.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMu.RLock()
	facing, audio := c.facing, c.audio
	c.viewMu.RUnlock()
	return c.startLocked(ctx, facing, audio)
}

// CapturePhoto encodes the current frame with effect and stores it as the last capture.
func (c *Controller) CapturePhoto(ctx context.Context, effect Effect) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usableLocked(); err != nil {
		return "", err
	}
	if c.stream == nil {
		err := errors.NewNotStreaming("capture photo")
		c.reportError(err)
		return "", err
	}

	frame, err := c.stream.Snapshot()
	if err != nil {
		gErr := errors.NewDeviceUnavailable("could not read a frame from the camera", err)
		c.reportError(gErr)
		return "", gErr
	}
	w, h := c.stream.Dimensions()
	uri, err := EncodePhoto(frame, w, h, effect)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	warning := ""
	if c.opts.OnCapture != nil {
		if err := c.opts.OnCapture(ctx, uri); err != nil {
			c.logger.Warn("last capture not saved", zap.Error(err))
			warning = "Photo captured but not saved: " + errors.As(err).Message
		}
	}
	c.setView(func() {
		c.lastCapture = uri
		c.warning = warning
	})
	c.flashLocked()
	c.logger.Info("photo captured", zap.Int("width", w), zap.Int("height", h), zap.String("effect", string(effect)))
	return uri, nil
}

// LastCapture returns the most recent photo taken by this controller.
func (c *Controller) LastCapture() (string, bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.lastCapture, c.lastCapture != ""
}

// StartRecording begins collecting chunks from the active stream.
// Starting while already recording is a no-op.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startRecordingLocked()
}

// StopRecording finalizes the recording into one object URL.
// Calling it again, or when not recording, returns the last URL without side effects.
func (c *Controller) StopRecording() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRecordingLocked()
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.recordingURL, nil
}

// ToggleRecording stops an active recording, or starts one. A session with
// audio is opened first when no stream is live or the live one is silent.
// The returned URL is set only when a recording was stopped.
func (c *Controller) ToggleRecording(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usableLocked(); err != nil {
		return "", err
	}
	if c.recorder != nil {
		url := c.stopRecordingLocked()
		return url, nil
	}
	c.viewMu.RLock()
	facing, audio := c.facing, c.audio
	c.viewMu.RUnlock()
	if c.stream == nil || !audio {
		if err := c.startLocked(ctx, facing, true); err != nil {
			return "", err
		}
	}
	return "", c.startRecordingLocked()
}

// RecordingURL returns the finalized recording, if any.
func (c *Controller) RecordingURL() (string, bool) {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.recordingURL, c.recordingURL != ""
}

// Suggestion returns the latest advisory lighting hint.
func (c *Controller) Suggestion() string {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.suggestion
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.state
}

// Err returns the last reported error, cleared by a successful start.
func (c *Controller) Err() error {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.lastErr
}

// Snapshot returns the current status.
func (c *Controller) Snapshot() Status {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	st := Status{
		State:          c.state,
		Facing:         c.facing,
		Audio:          c.audio,
		Recording:      c.recording,
		ElapsedSeconds: c.elapsed.Load(),
		Flashing:       c.flashing.Load(),
		Suggestion:     c.suggestion,
		HasLastCapture: c.lastCapture != "",
		RecordingURL:   c.recordingURL,
		Warning:        c.warning,
	}
	if c.lastErr != nil {
		st.Error = errors.As(c.lastErr).Message
	}
	return st
}

// Close releases everything the controller owns: the stream first, then the
// recording timer, then the recording's object URL. It runs unconditionally
// and is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true

	c.stopStreamLocked()

	if c.tickStop != nil {
		close(c.tickStop)
		c.tickWG.Wait()
		c.tickStop = nil
	}
	if c.recorder != nil {
		if err := c.recorder.Stop(); err != nil {
			c.logger.Debug("recorder stop on close", zap.Error(err))
		}
		c.recorder = nil
	}
	if c.flashTimer != nil {
		c.flashTimer.Stop()
		c.flashing.Store(false)
	}

	c.viewMu.Lock()
	if c.recordingURL != "" {
		c.blobs.Revoke(c.recordingURL)
		c.recordingURL = ""
	}
	c.recording = false
	c.state = StateIdle
	c.viewMu.Unlock()

	c.logger.Debug("capture controller closed")
}

func (c *Controller) usableLocked() error {
	if c.closed {
		return errors.NewDeviceUnavailable("capture controller closed", nil)
	}
	return nil
}

func (c *Controller) startLocked(ctx context.Context, facing Facing, withAudio bool) error {
	if err := c.usableLocked(); err != nil {
		return err
	}

	// Tear down before re-acquiring: never two live streams.
	c.stopRecordingLocked()
	c.stopStreamLocked()

	c.setView(func() {
		c.state = StateRequesting
		c.facing = facing
		c.audio = withAudio
	})

	req := Constraints{Facing: facing, Exact: true, Audio: withAudio, Width: DefaultWidth, Height: DefaultHeight}
	stream, err := c.device.Open(ctx, req)
	if err != nil {
		c.logger.Debug("exact facing unavailable, retrying loosely", zap.String("facing", string(facing)), zap.Error(err))
		req.Exact = false
		stream, err = c.device.Open(ctx, req)
	}
	if err != nil {
		gErr := mapDeviceError(err)
		c.logger.Warn("camera start failed", zap.String("facing", string(facing)), zap.Bool("audio", withAudio), zap.Error(err))
		c.setView(func() {
			c.state = StateError
			c.lastErr = gErr
		})
		return gErr
	}

	c.stream = stream
	if c.opts.Preview != nil {
		c.opts.Preview.Attach(stream)
	}
	c.setView(func() {
		c.state = StateStreaming
		c.lastErr = nil
	})
	c.startAnalysisLocked(stream)
	c.logger.Info("camera started", zap.String("facing", string(facing)), zap.Bool("audio", withAudio))
	return nil
}

func (c *Controller) stopStreamLocked() {
	c.stopAnalysisLocked()
	if c.stream == nil {
		return
	}
	stopTracks(c.stream)
	if c.opts.Preview != nil {
		c.opts.Preview.Detach()
	}
	c.stream = nil
	c.logger.Debug("camera stopped")
}

func (c *Controller) startRecordingLocked() error {
	if err := c.usableLocked(); err != nil {
		return err
	}
	if c.stream == nil {
		err := errors.NewNotStreaming("record")
		err.Message = msgCameraNotStarted
		c.reportError(err)
		return err
	}
	if c.recorder != nil {
		return nil
	}
	c.viewMu.RLock()
	audio := c.audio
	c.viewMu.RUnlock()
	if !audio {
		err := errors.NewNotStreaming("record")
		err.Message = msgAudioRequired
		c.reportError(err)
		return err
	}

	rec, err := c.stream.NewRecorder()
	if err != nil {
		gErr := errors.NewDeviceUnavailable("recording is not supported by this device", err)
		c.reportError(gErr)
		return gErr
	}

	// A new recording supersedes the previous one.
	c.viewMu.Lock()
	if c.recordingURL != "" {
		c.blobs.Revoke(c.recordingURL)
		c.recordingURL = ""
	}
	c.viewMu.Unlock()

	c.chunkMu.Lock()
	c.chunks = nil
	c.chunkMu.Unlock()
	c.elapsed.Store(0)

	if err := rec.Start(ChunkInterval, c.appendChunk); err != nil {
		gErr := errors.NewDeviceUnavailable("recorder failed to start", err)
		c.reportError(gErr)
		return gErr
	}
	c.recorder = rec

	stop := make(chan struct{})
	c.tickStop = stop
	c.tickWG.Add(1)
	go c.tick(stop)

	c.setView(func() { c.recording = true })
	c.logger.Info("recording started")
	return nil
}

// stopRecordingLocked finalizes the active recording exactly once and
// returns the resulting URL. It is a no-op when nothing is recording.
func (c *Controller) stopRecordingLocked() string {
	if c.recorder == nil {
		c.viewMu.RLock()
		defer c.viewMu.RUnlock()
		return c.recordingURL
	}

	close(c.tickStop)
	c.tickWG.Wait()
	c.tickStop = nil

	if err := c.recorder.Stop(); err != nil {
		c.logger.Warn("recorder stop failed", zap.Error(err))
	}
	c.recorder = nil

	c.chunkMu.Lock()
	var data []byte
	for _, chunk := range c.chunks {
		data = append(data, chunk...)
	}
	c.chunks = nil
	c.chunkMu.Unlock()

	url := c.blobs.Create(data, RecordingMIME)
	c.setView(func() {
		c.recording = false
		c.recordingURL = url
	})
	c.logger.Info("recording stopped", zap.Int64("seconds", c.elapsed.Load()), zap.Int("bytes", len(data)))
	return url
}

func (c *Controller) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c.chunkMu.Lock()
	c.chunks = append(c.chunks, chunk)
	c.chunkMu.Unlock()
}

func (c *Controller) tick(stop <-chan struct{}) {
	defer c.tickWG.Done()
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.elapsed.Add(1)
		}
	}
}

func (c *Controller) startAnalysisLocked(stream Stream) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.analysisCancel = cancel
	c.analysisDone = done
	go c.analyze(ctx, stream, done)
}

// stopAnalysisLocked cancels the current session's analysis and waits a
// bounded time for it. A straggler only ever closes its own channel.
func (c *Controller) stopAnalysisLocked() {
	if c.analysisCancel == nil {
		return
	}
	c.analysisCancel()
	c.analysisCancel = nil
	done := c.analysisDone
	c.analysisDone = nil

	timer := time.NewTimer(c.opts.AnalysisStopWait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		c.logger.Warn("lighting analysis did not stop in time")
	}
}

// analyze periodically classifies the lighting of stream's frames.
// Sampling errors are ignored; the result is advisory only.
func (c *Controller) analyze(ctx context.Context, stream Stream, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.opts.AnalysisInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			frame, err := stream.Snapshot()
			if err != nil {
				continue
			}
			w, h := stream.Dimensions()
			hint := AnalyzeFrame(frame, w, h)
			if ctx.Err() != nil {
				return
			}
			c.setView(func() { c.suggestion = hint })
		}
	}
}

func (c *Controller) flashLocked() {
	c.flashing.Store(true)
	if c.flashTimer != nil {
		c.flashTimer.Stop()
	}
	c.flashTimer = time.AfterFunc(c.opts.FlashDuration, func() { c.flashing.Store(false) })
}

func (c *Controller) reportError(err error) {
	c.setView(func() { c.lastErr = err })
}

func (c *Controller) setView(fn func()) {
	c.viewMu.Lock()
	fn()
	c.viewMu.Unlock()
}

func mapDeviceError(err error) *errors.GalleryError {
	var gErr *errors.GalleryError
	if stderrors.As(err, &gErr) {
		return gErr
	}
	switch {
	case stderrors.Is(err, ErrNotAllowed):
		return errors.NewPermissionDenied("camera", err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewDeviceUnavailable("camera request cancelled", err)
	default:
		return errors.NewDeviceUnavailable("camera unavailable: "+err.Error(), err)
	}
}
