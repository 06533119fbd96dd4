package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string

	// Editable fields (nil = don't change)
	Title *string
	Tags  *[]string
	Src   *string
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID      string             `json:"id"`
	Updated bool               `json:"updated"`
	Item    *media.LibraryItem `json:"item,omitempty"`
}

// Update overwrites the given fields of an item.
// An unknown id is not an error: Updated is false and nothing is written.
func Update(ctx context.Context, store *library.Store, blobs *blob.Registry, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Title == nil && input.Tags == nil && input.Src == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	var patch media.Patch
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		patch.Title = &title
	}
	if input.Tags != nil {
		patch.Tags = media.NormalizeTags(*input.Tags)
	}
	var oldSrc string
	if input.Src != nil {
		src, _, err := checkSrc(strings.TrimSpace(*input.Src), blobs)
		if err != nil {
			return nil, err
		}
		patch.Src = &src
		if prev, err := store.Get(ctx, id); err == nil {
			oldSrc = prev.Src
		}
	}

	updated, err := store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	out := &UpdateOutput{ID: id, Updated: updated}
	// A replaced object URL is released once no item points at it.
	if updated && oldSrc != "" && oldSrc != *patch.Src {
		revokeUnreferenced(blobs, []string{oldSrc}, store.List(ctx))
	}
	if updated {
		if it, err := store.Get(ctx, id); err == nil {
			out.Item = &it
		}
	}
	return out, nil
}
