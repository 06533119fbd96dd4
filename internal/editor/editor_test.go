package editor

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/media"
)

func TestFilterExpression(t *testing.T) {
	tests := []struct {
		name      string
		lighting  Lighting
		intensity float64
		want      string
	}{
		{"none", LightingNone, 60, "none"},
		{"retro 70", LightingRetro, 70, "hue-rotate(21deg) sepia(0.21) saturate(1.14)"},
		{"retro 0", LightingRetro, 0, "hue-rotate(0deg) sepia(0) saturate(1)"},
		{"retro 100", LightingRetro, 100, "hue-rotate(30deg) sepia(0.3) saturate(1.2)"},
		{"cinematic 50", LightingCinematic, 50, "contrast(1.25) saturate(0.9) brightness(0.94)"},
		{"cinematic 100", LightingCinematic, 100, "contrast(1.4) saturate(0.8) brightness(0.9)"},
		{"cool 60", LightingCool, 60, "hue-rotate(-9deg) contrast(1.17) saturate(1.1)"},
		{"cool 0", LightingCool, 0, "hue-rotate(0deg) contrast(1.05) saturate(1.1)"},
		{"unknown", Lighting("sepia"), 80, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterExpression(tt.lighting, tt.intensity))
		})
	}
}

func TestTransformExpression(t *testing.T) {
	tests := []struct {
		name             string
		zoom, offX, offY float64
		want             string
	}{
		{"identity", 1, 0, 0, "translate(0%, 0%) scale(1)"},
		{"square crop step", 1.1, 0, -5, "translate(0%, -0.5%) scale(1.1)"},
		{"extremes", 2, 50, -50, "translate(5%, -5%) scale(2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransformExpression(tt.zoom, tt.offX, tt.offY))
		})
	}
}

func TestAspectPadding(t *testing.T) {
	tests := []struct {
		aspect Aspect
		want   string
	}{
		{Aspect16x9, "56.25%"},
		{Aspect1x1, "100%"},
		{Aspect9x16, "177.77%"},
		{Aspect4x3, "75%"},
		{Aspect("21:9"), "56.25%"},
		{Aspect(""), "56.25%"},
	}

	for _, tt := range tests {
		t.Run(string(tt.aspect), func(t *testing.T) {
			assert.Equal(t, tt.want, AspectPadding(tt.aspect))
		})
	}
}

func TestParseLighting(t *testing.T) {
	l, ok := ParseLighting(" Retro ")
	assert.True(t, ok)
	assert.Equal(t, LightingRetro, l)

	l, ok = ParseLighting("")
	assert.True(t, ok)
	assert.Equal(t, LightingNone, l)

	l, ok = ParseLighting("warm")
	assert.False(t, ok)
	assert.Equal(t, LightingNone, l)
}

func TestDefaultEdits(t *testing.T) {
	e := DefaultEdits()
	assert.Equal(t, LightingNone, e.Lighting)
	assert.Equal(t, 60.0, e.Intensity)
	assert.Equal(t, 1.0, e.Zoom)
	assert.Equal(t, Aspect16x9, e.Aspect)
	assert.Equal(t, 1.0, e.PlaybackRate)
	require.NoError(t, e.Validate())

	p := e.Present()
	assert.Equal(t, "none", p.Filter)
	assert.Equal(t, "translate(0%, 0%) scale(1)", p.Transform)
	assert.Equal(t, "56.25%", p.Padding)
}

func TestEdits_Clamp(t *testing.T) {
	e := Edits{
		Lighting:     "neon",
		Intensity:    150,
		Zoom:         0.5,
		OffsetX:      -80,
		OffsetY:      80,
		PlaybackRate: 4,
	}.Clamp()

	assert.Equal(t, LightingNone, e.Lighting)
	assert.Equal(t, 100.0, e.Intensity)
	assert.Equal(t, 1.0, e.Zoom)
	assert.Equal(t, -50.0, e.OffsetX)
	assert.Equal(t, 50.0, e.OffsetY)
	assert.Equal(t, Aspect16x9, e.Aspect)
	assert.Equal(t, 2.0, e.PlaybackRate)
	require.NoError(t, e.Validate())

	custom := Edits{Aspect: "21:9", Zoom: 1, PlaybackRate: 1}.Clamp()
	assert.Equal(t, Aspect("21:9"), custom.Aspect)
}

func TestEdits_ClampNonFinite(t *testing.T) {
	e := Edits{
		Lighting:     LightingRetro,
		Intensity:    math.NaN(),
		Zoom:         math.Inf(1),
		OffsetX:      math.Inf(-1),
		OffsetY:      math.NaN(),
		PlaybackRate: math.Inf(1),
	}.Clamp()

	def := DefaultEdits()
	assert.Equal(t, def.Intensity, e.Intensity)
	assert.Equal(t, def.Zoom, e.Zoom)
	assert.Equal(t, def.OffsetX, e.OffsetX)
	assert.Equal(t, def.OffsetY, e.OffsetY)
	assert.Equal(t, def.PlaybackRate, e.PlaybackRate)
	require.NoError(t, e.Validate())
}

func TestEdits_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Edits)
	}{
		{"lighting", func(e *Edits) { e.Lighting = "neon" }},
		{"intensity high", func(e *Edits) { e.Intensity = 101 }},
		{"intensity low", func(e *Edits) { e.Intensity = -1 }},
		{"zoom", func(e *Edits) { e.Zoom = 0.9 }},
		{"offset x", func(e *Edits) { e.OffsetX = 51 }},
		{"offset y", func(e *Edits) { e.OffsetY = -51 }},
		{"rate low", func(e *Edits) { e.PlaybackRate = 0.1 }},
		{"rate high", func(e *Edits) { e.PlaybackRate = 2.5 }},
		{"intensity NaN", func(e *Edits) { e.Intensity = math.NaN() }},
		{"zoom +Inf", func(e *Edits) { e.Zoom = math.Inf(1) }},
		{"offset x NaN", func(e *Edits) { e.OffsetX = math.NaN() }},
		{"offset y -Inf", func(e *Edits) { e.OffsetY = math.Inf(-1) }},
		{"rate NaN", func(e *Edits) { e.PlaybackRate = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultEdits()
			tt.mutate(&e)
			err := e.Validate()
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestParsePrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   []StepKind
	}{
		{"make it retro lighting please", []StepKind{StepRetroLighting}},
		{"Vintage warm light", []StepKind{StepRetroLighting}},
		{"give it a retro-look", []StepKind{StepRetroLighting}},
		{"old film vibes", []StepKind{StepRetroLighting}},
		{"crop to square for instagram", []StepKind{StepCropSquare}},
		{"resize 1:1", []StepKind{StepCropSquare}},
		{"hyperlapse this", []StepKind{StepSpeedUp}},
		{"retro lighting, crop to square and speed up", []StepKind{StepRetroLighting, StepCropSquare, StepSpeedUp}},
		{"make it pop", nil},
		{"square crop", nil},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			var got []StepKind
			for _, s := range ParsePrompt(tt.prompt) {
				got = append(got, s.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTips(t *testing.T) {
	assert.Equal(t, []string{FallbackTip}, Tips(nil))
	assert.Equal(t, []string{"Crop → 1:1 for square."}, Tips(ParsePrompt("crop square")))
}

func TestStep_Apply(t *testing.T) {
	e := ApplyAll(DefaultEdits(), ParsePrompt("retro lighting, crop to square, faster"))

	assert.Equal(t, LightingRetro, e.Lighting)
	assert.Equal(t, 70.0, e.Intensity)
	assert.Equal(t, Aspect1x1, e.Aspect)
	assert.Equal(t, 1.1, e.Zoom)
	assert.Equal(t, 0.0, e.OffsetX)
	assert.Equal(t, -5.0, e.OffsetY)
	assert.Equal(t, 1.5, e.PlaybackRate)

	p := e.Present()
	assert.Equal(t, "hue-rotate(21deg) sepia(0.21) saturate(1.14)", p.Filter)
	assert.Equal(t, "translate(0%, -0.5%) scale(1.1)", p.Transform)
	assert.Equal(t, "100%", p.Padding)
}

func TestSlot_ReadOnce(t *testing.T) {
	var s Slot

	_, ok := s.Take()
	assert.False(t, ok)

	s.Put(Payload{Kind: media.KindImage, Src: "data:image/png;base64,AA=="})
	s.Put(Payload{Kind: media.KindVideo, Src: "blob:smartgallery/x", Name: "clip.webm"})

	peeked, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "clip.webm", peeked.Name)

	got, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, media.KindVideo, got.Kind)
	assert.Equal(t, "blob:smartgallery/x", got.Src)

	_, ok = s.Take()
	assert.False(t, ok)
	_, ok = s.Peek()
	assert.False(t, ok)
}

func TestSlot_ConcurrentTakeDeliversOnce(t *testing.T) {
	var s Slot
	s.Put(Payload{Kind: media.KindImage, Src: "data:,x"})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Take(); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, taken)
}

func TestPayload_Validate(t *testing.T) {
	assert.NoError(t, Payload{Kind: media.KindImage, Src: "data:,x"}.Validate())
	assert.True(t, errors.Is(Payload{Kind: "audio", Src: "x"}.Validate(), errors.ErrInvalidRequest))
	assert.True(t, errors.Is(Payload{Kind: media.KindVideo}.Validate(), errors.ErrInvalidRequest))
}
