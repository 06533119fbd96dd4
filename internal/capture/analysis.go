package capture

import (
	"bytes"
	"image"

	"github.com/hpungsan/smartgallery/internal/media"
)

// Lighting analysis parameters.
const (
	AnalysisMaxWidth  = 240
	AnalysisMaxHeight = 180
	DarkThreshold     = 50
	BrightThreshold   = 210

	analysisFallbackWidth  = 320
	analysisFallbackHeight = 240
)

// Suggestions surfaced by the lighting analysis. They are advisory only.
const (
	SuggestionInitial = "Try different modes for Variations"
	SuggestionDark    = "Low light — try increasing exposure or enable torch."
	SuggestionBright  = "Scene is bright — avoid backlight or reduce exposure."
	SuggestionGood    = "Good lighting — try grayscale/blur mode too."
)

// analysisSize returns the downscaled sampling grid for a frame of w x h.
func analysisSize(w, h int) (int, int) {
	if w <= 0 {
		w = analysisFallbackWidth
	}
	if h <= 0 {
		h = analysisFallbackHeight
	}
	return min(AnalysisMaxWidth, w), min(AnalysisMaxHeight, h)
}

// AverageLuma samples frame on a w x h grid and returns the mean luma (0-255).
func AverageLuma(frame image.Image, w, h int) float64 {
	b := frame.Bounds()
	if w <= 0 || h <= 0 || b.Empty() {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			r, g, bl, _ := frame.At(sx, sy).RGBA()
			sum += luma(float64(r>>8), float64(g>>8), float64(bl>>8))
		}
	}
	return sum / float64(w*h)
}

// Classify maps an average luma to a suggestion.
func Classify(avg float64) string {
	switch {
	case avg < DarkThreshold:
		return SuggestionDark
	case avg > BrightThreshold:
		return SuggestionBright
	default:
		return SuggestionGood
	}
}

// AnalyzeFrame downscales frame and classifies its lighting.
func AnalyzeFrame(frame image.Image, width, height int) string {
	w, h := analysisSize(width, height)
	return Classify(AverageLuma(frame, w, h))
}

// AnalyzeDataURI classifies the lighting of an encoded still.
func AnalyzeDataURI(uri string) (string, error) {
	_, data, err := media.ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	return AnalyzeFrame(img, b.Dx(), b.Dy()), nil
}
