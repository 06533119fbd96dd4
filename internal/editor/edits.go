package editor

import (
	"fmt"
	"math"
	"strings"

	"github.com/hpungsan/smartgallery/internal/errors"
)

// Lighting is a color-grading preset.
type Lighting string

const (
	LightingNone      Lighting = "none"
	LightingRetro     Lighting = "retro"
	LightingCinematic Lighting = "cinematic"
	LightingCool      Lighting = "cool"
)

// Lightings lists every preset in display order.
var Lightings = []Lighting{LightingNone, LightingRetro, LightingCinematic, LightingCool}

// ParseLighting maps s to a preset. Unknown values return LightingNone and ok=false.
func ParseLighting(s string) (Lighting, bool) {
	switch Lighting(strings.ToLower(strings.TrimSpace(s))) {
	case LightingNone, "":
		return LightingNone, true
	case LightingRetro:
		return LightingRetro, true
	case LightingCinematic:
		return LightingCinematic, true
	case LightingCool:
		return LightingCool, true
	default:
		return LightingNone, false
	}
}

// Aspect is a crop box ratio. Values outside the presets are custom and render as 16:9.
type Aspect string

const (
	Aspect16x9 Aspect = "16:9"
	Aspect1x1  Aspect = "1:1"
	Aspect9x16 Aspect = "9:16"
	Aspect4x3  Aspect = "4:3"
)

// Aspects lists the presets in display order.
var Aspects = []Aspect{Aspect16x9, Aspect1x1, Aspect9x16, Aspect4x3}

// Padding returns the top-padding percentage that gives a box this ratio.
func (a Aspect) Padding() float64 {
	switch a {
	case Aspect1x1:
		return 100
	case Aspect9x16:
		return 177.77
	case Aspect4x3:
		return 75
	case Aspect16x9:
		return 56.25
	default:
		return 56.25
	}
}

// IsPreset reports whether a is one of the fixed ratios.
func (a Aspect) IsPreset() bool {
	switch a {
	case Aspect16x9, Aspect1x1, Aspect9x16, Aspect4x3:
		return true
	default:
		return false
	}
}

// Ranges accepted by Validate and enforced by Clamp.
const (
	MinIntensity    = 0
	MaxIntensity    = 100
	MinZoom         = 1.0
	MinOffset       = -50.0
	MaxOffset       = 50.0
	MinPlaybackRate = 0.25
	MaxPlaybackRate = 2.0
)

// Edits is a non-destructive visual transform. It never owns media bytes.
type Edits struct {
	Lighting     Lighting `json:"lighting"`
	Intensity    float64  `json:"intensity"`
	Zoom         float64  `json:"zoom"`
	OffsetX      float64  `json:"offsetX"`
	OffsetY      float64  `json:"offsetY"`
	Aspect       Aspect   `json:"aspect"`
	PlaybackRate float64  `json:"playbackRate"`
}

// DefaultEdits is the state a freshly loaded media starts in.
func DefaultEdits() Edits {
	return Edits{
		Lighting:     LightingNone,
		Intensity:    60,
		Zoom:         1,
		OffsetX:      0,
		OffsetY:      0,
		Aspect:       Aspect16x9,
		PlaybackRate: 1,
	}
}

// Clamp forces every field into range. Unknown lighting becomes none and an
// empty aspect becomes 16:9; custom aspect strings are kept. NaN and
// infinite numbers fall back to their defaults.
func (e Edits) Clamp() Edits {
	def := DefaultEdits()
	e.Intensity = finiteOr(e.Intensity, def.Intensity)
	e.Zoom = finiteOr(e.Zoom, def.Zoom)
	e.OffsetX = finiteOr(e.OffsetX, def.OffsetX)
	e.OffsetY = finiteOr(e.OffsetY, def.OffsetY)
	e.PlaybackRate = finiteOr(e.PlaybackRate, def.PlaybackRate)
	if l, ok := ParseLighting(string(e.Lighting)); ok {
		e.Lighting = l
	} else {
		e.Lighting = LightingNone
	}
	e.Intensity = clamp(e.Intensity, MinIntensity, MaxIntensity)
	if e.Zoom < MinZoom {
		e.Zoom = MinZoom
	}
	e.OffsetX = clamp(e.OffsetX, MinOffset, MaxOffset)
	e.OffsetY = clamp(e.OffsetY, MinOffset, MaxOffset)
	if strings.TrimSpace(string(e.Aspect)) == "" {
		e.Aspect = Aspect16x9
	}
	e.PlaybackRate = clamp(e.PlaybackRate, MinPlaybackRate, MaxPlaybackRate)
	return e
}

// Validate rejects out-of-range values with INVALID_REQUEST.
func (e Edits) Validate() error {
	if _, ok := ParseLighting(string(e.Lighting)); !ok {
		return errors.NewInvalidRequest(fmt.Sprintf("unknown lighting %q (want none, retro, cinematic, or cool)", e.Lighting))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"intensity", e.Intensity},
		{"zoom", e.Zoom},
		{"offsetX", e.OffsetX},
		{"offsetY", e.OffsetY},
		{"playbackRate", e.PlaybackRate},
	} {
		if !isFinite(f.v) {
			return errors.NewInvalidRequest(fmt.Sprintf("%s must be a finite number", f.name))
		}
	}
	if e.Intensity < MinIntensity || e.Intensity > MaxIntensity {
		return errors.NewInvalidRequest(fmt.Sprintf("intensity must be between %d and %d", MinIntensity, MaxIntensity))
	}
	if e.Zoom < MinZoom {
		return errors.NewInvalidRequest("zoom must be at least 1")
	}
	if e.OffsetX < MinOffset || e.OffsetX > MaxOffset || e.OffsetY < MinOffset || e.OffsetY > MaxOffset {
		return errors.NewInvalidRequest("offsets must be between -50 and 50")
	}
	if e.PlaybackRate < MinPlaybackRate || e.PlaybackRate > MaxPlaybackRate {
		return errors.NewInvalidRequest("playback rate must be between 0.25 and 2")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOr(v, fallback float64) float64 {
	if isFinite(v) {
		return v
	}
	return fallback
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
