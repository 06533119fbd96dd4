package ops

import (
	"math/rand/v2"
	"time"

	"github.com/hpungsan/smartgallery/internal/media"
)

// BaseTags is the vocabulary the tag suggester samples from.
var BaseTags = []string{
	"beach", "sunset", "friends", "party", "outdoor", "travel", "nature", "city", "mountain", "family",
	"dog", "cat", "food", "birthday", "concert", "selfie", "work", "funny", "sports", "summer",
	"winter", "night", "portrait", "landscape", "retro", "cinematic", "minimal", "aesthetic", "vacation",
	"kids", "wedding", "festival", "hiking", "camping", "art", "museum", "car", "ocean", "lake", "river",
	"slowmo", "timelapse", "vlog", "documentary", "tutorial", "music", "drone",
}

// QuickTags is the short fixed list offered when tagging a fresh upload.
var QuickTags = []string{"beach", "sunset", "friends", "party", "cake", "smile", "outdoor", "travel"}

// SuggestTagsInput contains parameters for the SuggestTags operation.
type SuggestTagsInput struct {
	Count   int      // default: 12
	Seed    *uint64  // fixes the sample; random when nil
	Exclude []string // tags already applied
	Quick   bool     // return QuickTags instead of a sample
}

// SuggestTagsOutput contains the result of the SuggestTags operation.
type SuggestTagsOutput struct {
	Suggestions []string `json:"suggestions"`
}

// SuggestTags proposes tags for an item. It does not look at the media:
// suggestions are a shuffled sample of BaseTags, minus tags already applied.
func SuggestTags(input SuggestTagsInput) (*SuggestTagsOutput, error) {
	pool := BaseTags
	if input.Quick {
		pool = QuickTags
	}

	candidates := make([]string, 0, len(pool))
	for _, t := range pool {
		if !media.HasTag(input.Exclude, t) {
			candidates = append(candidates, t)
		}
	}

	if !input.Quick {
		seed := uint64(time.Now().UnixNano())
		if input.Seed != nil {
			seed = *input.Seed
		}
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})

		count := input.Count
		if count <= 0 {
			count = DefaultSuggestions
		}
		candidates = candidates[:min(count, len(candidates))]
	}

	return &SuggestTagsOutput{Suggestions: candidates}, nil
}
