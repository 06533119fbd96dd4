package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// TagInput contains parameters for the Tag operation.
type TagInput struct {
	ID     string
	Add    []string
	Remove []string
}

// TagOutput contains the result of the Tag operation.
type TagOutput struct {
	ID      string   `json:"id"`
	Updated bool     `json:"updated"`
	Tags    []string `json:"tags"`
}

// Tag adds and removes tags on one item through the tag edit boundary:
// blank tags and case-insensitive duplicates are ignored, removals run after additions.
// An unknown id is a silent no-op.
func Tag(ctx context.Context, store *library.Store, input TagInput) (*TagOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if len(input.Add) == 0 && len(input.Remove) == 0 {
		return nil, errors.NewInvalidRequest("add or remove is required")
	}

	out := &TagOutput{ID: id, Tags: []string{}}
	err := store.Transact(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			next := retag(items[i].Tags, input.Add, input.Remove)
			out.Tags = next
			if equalTags(items[i].Tags, next) {
				return nil, library.ErrUnchanged
			}
			out.Updated = true
			items[i].Tags = next
			return items, nil
		}
		return nil, library.ErrUnchanged
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// retag returns a new tag list with add appended and remove dropped.
func retag(tags, add, remove []string) []string {
	out := append([]string{}, tags...)
	for _, t := range add {
		out = media.AddTag(out, t)
	}
	for _, t := range remove {
		out = media.RemoveTag(out, t)
	}
	return out
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
