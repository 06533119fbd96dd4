package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Delete removes an item. Deleting an absent id is a no-op, so repeating it is safe.
// An object URL no longer referenced by any item is revoked.
func Delete(ctx context.Context, store *library.Store, blobs *blob.Registry, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	var src string
	if it, err := store.Get(ctx, id); err == nil {
		src = it.Src
	}

	deleted, err := store.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted && src != "" {
		revokeUnreferenced(blobs, []string{src}, store.List(ctx))
	}
	return &DeleteOutput{ID: id, Deleted: deleted}, nil
}

// revokeUnreferenced revokes each object URL in srcs that no remaining item uses.
func revokeUnreferenced(blobs *blob.Registry, srcs []string, remaining []media.LibraryItem) {
	if blobs == nil {
		return
	}
	inUse := make(map[string]bool, len(remaining))
	for _, it := range remaining {
		inUse[it.Src] = true
	}
	for _, src := range srcs {
		if strings.HasPrefix(src, blob.Prefix) && !inUse[src] {
			blobs.Revoke(src)
		}
	}
}
