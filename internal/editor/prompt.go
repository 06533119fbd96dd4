package editor

import (
	"regexp"
	"strings"
)

// StepKind identifies a suggested edit.
type StepKind string

const (
	StepRetroLighting StepKind = "retro_lighting"
	StepCropSquare    StepKind = "crop_square"
	StepSpeedUp       StepKind = "speed_up"
)

// FallbackTip is offered when a prompt matches no known intent.
const FallbackTip = "Try: ‘retro lighting’, ‘crop to square’, ‘speed up video’."

// Step is one suggested edit derived from a free-text prompt.
type Step struct {
	Kind StepKind `json:"kind"`

	// Label describes the action to the user
	Label string `json:"label"`

	// Tip explains how to do it by hand
	Tip string `json:"tip"`

	// Message acknowledges the step once applied
	Message string `json:"message"`
}

var (
	retroPattern  = regexp.MustCompile(`(retro|vintage).*light|retro(\s|-)look|old\s*film`)
	squarePattern = regexp.MustCompile(`(crop|frame|resize).*(square|1:1|instagram)`)
	speedPattern  = regexp.MustCompile(`(speed|faster|time-lapse|timelapse|hyperlapse)`)
)

var intents = []struct {
	pattern *regexp.Regexp
	step    Step
}{
	{retroPattern, Step{
		Kind:    StepRetroLighting,
		Label:   "Apply Retro Lighting automatically",
		Tip:     "Filters → Lighting → Retro. Adjust intensity.",
		Message: "Applied Retro lighting",
	}},
	{squarePattern, Step{
		Kind:    StepCropSquare,
		Label:   "Set Crop to 1:1 and slight zoom",
		Tip:     "Crop → 1:1 for square.",
		Message: "Cropped to 1:1",
	}},
	{speedPattern, Step{
		Kind:    StepSpeedUp,
		Label:   "Speed up to 1.5×",
		Tip:     "Speed → increase to 1.5× or 2×.",
		Message: "Playback 1.5×",
	}},
}

// ParsePrompt maps a free-text request onto deterministic edit steps, in a fixed order.
// Matching is case-insensitive; an unrecognized prompt yields no steps.
func ParsePrompt(prompt string) []Step {
	p := strings.ToLower(prompt)
	var out []Step
	for _, s := range intents {
		if s.pattern.MatchString(p) {
			out = append(out, s.step)
		}
	}
	return out
}

// Tips returns the manual instructions for steps, or FallbackTip when there are none.
func Tips(steps []Step) []string {
	if len(steps) == 0 {
		return []string{FallbackTip}
	}
	tips := make([]string, len(steps))
	for i, s := range steps {
		tips[i] = s.Tip
	}
	return tips
}

// Apply returns e with the step's edits applied.
func (s Step) Apply(e Edits) Edits {
	switch s.Kind {
	case StepRetroLighting:
		e.Lighting = LightingRetro
		e.Intensity = 70
	case StepCropSquare:
		e.Aspect = Aspect1x1
		e.Zoom = 1.1
		e.OffsetX = 0
		e.OffsetY = -5
	case StepSpeedUp:
		e.PlaybackRate = 1.5
	}
	return e
}

// ApplyAll applies steps in order.
func ApplyAll(e Edits, steps []Step) Edits {
	for _, s := range steps {
		e = s.Apply(e)
	}
	return e
}
