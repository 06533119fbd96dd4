package editor

import (
	"fmt"
	"math"
	"strconv"
)

// FilterIdentity is the filter expression for no color grading.
const FilterIdentity = "none"

// offsetScale converts an offset percentage into a translate percentage.
const offsetScale = 10

// FilterExpression derives the CSS filter for a lighting preset at intensity (0-100).
func FilterExpression(lighting Lighting, intensity float64) string {
	k := intensity / 100
	switch lighting {
	case LightingRetro:
		return fmt.Sprintf("hue-rotate(%sdeg) sepia(%s) saturate(%s)",
			num(30*k), num(0.3*k), num(1+0.2*k))
	case LightingCinematic:
		return fmt.Sprintf("contrast(%s) saturate(%s) brightness(%s)",
			num(1.1+0.3*k), num(1-0.2*k), num(0.98-0.08*k))
	case LightingCool:
		return fmt.Sprintf("hue-rotate(%sdeg) contrast(%s) saturate(1.1)",
			num(-15*k), num(1.05+0.2*k))
	case LightingNone:
		return FilterIdentity
	default:
		return FilterIdentity
	}
}

// TransformExpression derives the crop translate+scale for zoom and offsets (-50..50).
func TransformExpression(zoom, offsetX, offsetY float64) string {
	tx := offsetX / 100
	ty := offsetY / 100
	return fmt.Sprintf("translate(%s%%, %s%%) scale(%s)", num(tx*offsetScale), num(ty*offsetScale), num(zoom))
}

// AspectPadding returns the padding-top percentage for aspect, e.g. "56.25%".
func AspectPadding(aspect Aspect) string {
	return num(aspect.Padding()) + "%"
}

// Presentation is everything a render surface needs to show an Edits value.
type Presentation struct {
	Filter       string  `json:"filter"`
	Transform    string  `json:"transform"`
	Padding      string  `json:"padding"`
	PlaybackRate float64 `json:"playbackRate"`
}

// Present derives the presentation parameters for e.
func (e Edits) Present() Presentation {
	return Presentation{
		Filter:       FilterExpression(e.Lighting, e.Intensity),
		Transform:    TransformExpression(e.Zoom, e.OffsetX, e.OffsetY),
		Padding:      AspectPadding(e.Aspect),
		PlaybackRate: e.PlaybackRate,
	}
}

// num formats v with the shortest representation after rounding to 10 decimals,
// so 30*0.7 prints as 21 rather than 21.000000000000004.
func num(v float64) string {
	v = math.Round(v*1e10) / 1e10
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
