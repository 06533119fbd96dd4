package ops

import (
	"strings"

	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
)

// PreviewInput contains parameters for the Preview operation.
type PreviewInput struct {
	Edits editor.Edits
	Clamp bool // force values into range instead of rejecting them
}

// PreviewOutput contains derived presentation parameters.
type PreviewOutput struct {
	Edits        editor.Edits        `json:"edits"`
	Presentation editor.Presentation `json:"presentation"`
}

// Preview derives the filter, transform, padding and playback rate for a set of edits.
func Preview(input PreviewInput) (*PreviewOutput, error) {
	e := input.Edits
	if input.Clamp {
		e = e.Clamp()
	} else {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		e.Lighting, _ = editor.ParseLighting(string(e.Lighting))
		if strings.TrimSpace(string(e.Aspect)) == "" {
			e.Aspect = editor.Aspect16x9
		}
	}
	return &PreviewOutput{Edits: e, Presentation: e.Present()}, nil
}

// PlanInput contains parameters for the Plan operation.
type PlanInput struct {
	Prompt string
	Edits  *editor.Edits // starting point; default edits when nil
}

// PlanOutput contains the result of the Plan operation.
type PlanOutput struct {
	Steps        []editor.Step       `json:"steps"`
	Tips         []string            `json:"tips"`
	Edits        editor.Edits        `json:"edits"`
	Presentation editor.Presentation `json:"presentation"`
}

// Plan turns a free-text request into edit steps and applies them.
func Plan(input PlanInput) (*PlanOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}
	start := editor.DefaultEdits()
	if input.Edits != nil {
		start = input.Edits.Clamp()
	}

	steps := editor.ParsePrompt(input.Prompt)
	if steps == nil {
		steps = []editor.Step{}
	}
	e := editor.ApplyAll(start, steps)

	return &PlanOutput{
		Steps:        steps,
		Tips:         editor.Tips(steps),
		Edits:        e,
		Presentation: e.Present(),
	}, nil
}
