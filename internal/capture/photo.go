package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/hpungsan/smartgallery/internal/media"
)

// Photo encoding parameters.
const (
	JPEGQuality   = 92
	PhotoMIME     = "image/jpeg"
	DefaultWidth  = 1280
	DefaultHeight = 720
	// BlurRadius is the Gaussian standard deviation in pixels, as in CSS blur().
	BlurRadius = 6
)

// Effect is a pre-encode visual effect matching the live preview.
type Effect string

const (
	EffectNone      Effect = "none"
	EffectGrayscale Effect = "grayscale"
	EffectBlur      Effect = "blur"
)

// ParseEffect maps s to an Effect. Unknown values return EffectNone and ok=false.
func ParseEffect(s string) (Effect, bool) {
	switch Effect(strings.ToLower(strings.TrimSpace(s))) {
	case EffectNone, "":
		return EffectNone, true
	case EffectGrayscale, "gray", "bw":
		return EffectGrayscale, true
	case EffectBlur:
		return EffectBlur, true
	default:
		return EffectNone, false
	}
}

// EncodePhoto scales frame to width x height, applies effect, and returns a JPEG data URI.
// Zero dimensions fall back to DefaultWidth x DefaultHeight.
func EncodePhoto(frame image.Image, width, height int, effect Effect) (string, error) {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	img := applyEffect(scale(frame, width, height), effect)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", err
	}
	return media.EncodeDataURI(PhotoMIME, buf.Bytes()), nil
}

func applyEffect(img image.Image, effect Effect) image.Image {
	switch effect {
	case EffectGrayscale:
		return imaging.Grayscale(img)
	case EffectBlur:
		return imaging.Blur(img, BlurRadius)
	default:
		return img
	}
}

// luma is the Rec. 709 relative luminance of 8-bit channels.
func luma(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// scale draws src into a new w x h canvas with bilinear sampling.
func scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src.Bounds().Empty() {
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
