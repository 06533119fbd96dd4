package ops

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/capture"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
)

// CaptureInput contains parameters for the Capture operation.
type CaptureInput struct {
	Device capture.Device // required
	Facing capture.Facing // default: cfg.DefaultFacing
	Effect capture.Effect
	Save   bool // also add the photo to the library
	Title  *string
	Tags   []string
}

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Src      string         `json:"src"`
	Lighting string         `json:"lighting"`
	Warning  string         `json:"warning,omitempty"`
	Saved    *SaveOutput    `json:"saved,omitempty"`
	Status   capture.Status `json:"status"`
}

// Capture opens a session on the device, takes one photo, and releases the device.
// The photo always becomes the last capture; Save additionally adds it to the library.
func Capture(ctx context.Context, store *library.Store, blobs *blob.Registry, cfg *config.Config, logger *zap.Logger, input CaptureInput) (*CaptureOutput, error) {
	if input.Device == nil {
		return nil, errors.NewInvalidRequest("device is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	effect, ok := capture.ParseEffect(string(input.Effect))
	if !ok {
		return nil, errors.NewInvalidRequest("effect must be one of: none, grayscale, blur")
	}
	facing := input.Facing
	if facing == "" {
		facing, _ = capture.ParseFacing(cfg.DefaultFacing)
	}

	ctl := capture.NewController(input.Device, capture.Options{
		Facing:           facing,
		AnalysisInterval: time.Duration(cfg.AnalysisIntervalMS) * time.Millisecond,
		Blobs:            blobs,
		Logger:           logger,
		OnCapture:        store.SetLastCapture,
	})
	defer ctl.Close()

	if err := ctl.StartSession(ctx, facing, false); err != nil {
		return nil, err
	}
	src, err := ctl.CapturePhoto(ctx, effect)
	if err != nil {
		return nil, err
	}

	out := &CaptureOutput{Src: src, Status: ctl.Snapshot()}
	out.Warning = out.Status.Warning
	out.Lighting, _ = capture.AnalyzeDataURI(src)

	if input.Save {
		saved, err := Save(ctx, store, blobs, cfg, SaveInput{
			Src:   src,
			Title: input.Title,
			Tags:  input.Tags,
		})
		if err != nil {
			// The photo was taken and is the last capture; only the library add failed.
			logger.Warn("captured photo not saved", zap.Error(err))
			out.Warning = joinWarnings(out.Warning, "Photo captured but not saved: "+errors.As(err).Message)
			return out, nil
		}
		out.Saved = saved
	}
	return out, nil
}

func joinWarnings(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
