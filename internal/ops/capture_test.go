package ops

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/capture"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/db"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/kv"
	"github.com/hpungsan/smartgallery/internal/library"
)

func writeTestImage(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return path
}

func TestCapture_StoresLastCapture(t *testing.T) {
	store, blobs := setupStore(t)
	ctx := context.Background()
	device := &capture.ImageDevice{Path: writeTestImage(t, color.Gray{Y: 10})}

	out, err := Capture(ctx, store, blobs, config.DefaultConfig(), zap.NewNop(), CaptureInput{Device: device})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !strings.HasPrefix(out.Src, "data:image/jpeg;base64,") {
		t.Errorf("Src = %.40q, want JPEG data URI", out.Src)
	}
	if out.Lighting != capture.SuggestionDark {
		t.Errorf("Lighting = %q, want dark suggestion", out.Lighting)
	}
	if out.Saved != nil {
		t.Error("Saved should be nil without Save")
	}
	if out.Status.State != capture.StateStreaming || out.Status.Facing != capture.FacingEnvironment {
		t.Errorf("Status = %+v, want streaming environment camera", out.Status)
	}

	last, ok := store.LastCapture(ctx)
	if !ok || last != out.Src {
		t.Error("last capture slot should hold the photo")
	}
	if n := len(store.List(ctx)); n != 0 {
		t.Errorf("library has %d items, want 0", n)
	}
}

func TestCapture_SaveToLibrary(t *testing.T) {
	store, blobs := setupStore(t)
	ctx := context.Background()
	device := &capture.ImageDevice{Path: writeTestImage(t, color.Gray{Y: 128}), Facing: capture.FacingUser}

	out, err := Capture(ctx, store, blobs, nil, nil, CaptureInput{
		Device: device,
		Facing: capture.FacingUser,
		Effect: capture.EffectGrayscale,
		Save:   true,
		Title:  stringPtr("Selfie"),
		Tags:   []string{"Selfie"},
	})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if out.Saved == nil {
		t.Fatal("Saved = nil, want library item")
	}
	if out.Saved.Item.Src != out.Src || out.Saved.Item.DisplayTitle() != "Selfie" {
		t.Errorf("saved item = %+v", out.Saved.Item)
	}
	if out.Lighting != capture.SuggestionGood {
		t.Errorf("Lighting = %q, want good", out.Lighting)
	}
	if items := store.List(ctx); len(items) != 1 || items[0].Tags[0] != "selfie" {
		t.Errorf("library = %+v, want one selfie", items)
	}
}

func TestCapture_Errors(t *testing.T) {
	store, blobs := setupStore(t)
	ctx := context.Background()

	if _, err := Capture(ctx, store, blobs, nil, nil, CaptureInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing device error = %v, want INVALID_REQUEST", err)
	}

	device := &capture.ImageDevice{Path: writeTestImage(t, color.White)}
	if _, err := Capture(ctx, store, blobs, nil, nil, CaptureInput{Device: device, Effect: "sepia"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad effect error = %v, want INVALID_REQUEST", err)
	}

	missing := &capture.ImageDevice{Path: filepath.Join(t.TempDir(), "nope.png")}
	if _, err := Capture(ctx, store, blobs, nil, nil, CaptureInput{Device: missing}); !errors.Is(err, errors.ErrDeviceUnavailable) {
		t.Errorf("missing image error = %v, want DEVICE_UNAVAILABLE", err)
	}
	if _, ok := store.LastCapture(ctx); ok {
		t.Error("failed captures must not touch the last capture slot")
	}
}

func TestCapture_SaveFailureIsWarning(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	// Too small for any photo
	store := library.New(kv.NewSQLite(database, 64), nil)
	ctx := context.Background()
	device := &capture.ImageDevice{Path: writeTestImage(t, color.Gray{Y: 128})}

	out, err := Capture(ctx, store, nil, nil, zap.NewNop(), CaptureInput{Device: device, Save: true, Title: stringPtr("Full")})
	if err != nil {
		t.Fatalf("Capture error = %v, want the photo with a warning", err)
	}
	if !strings.HasPrefix(out.Src, "data:image/jpeg;base64,") {
		t.Errorf("Src = %.40q, want JPEG data URI", out.Src)
	}
	if out.Saved != nil {
		t.Errorf("Saved = %+v, want nil", out.Saved)
	}
	if !strings.Contains(out.Warning, "not saved") {
		t.Errorf("Warning = %q, want save failure", out.Warning)
	}
	if n := len(store.List(ctx)); n != 0 {
		t.Errorf("library has %d items, want 0", n)
	}
}
