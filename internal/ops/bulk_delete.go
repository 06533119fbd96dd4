package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// BulkDeleteInput contains parameters for the BulkDelete operation.
type BulkDeleteInput struct {
	Filter LibraryFilter
}

// BulkDeleteOutput contains the result of the BulkDelete operation.
type BulkDeleteOutput struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// BulkDelete removes all items matching the filter in one write.
// At least one filter must be provided (safety guard).
func BulkDelete(ctx context.Context, store *library.Store, blobs *blob.Registry, input BulkDeleteInput) (*BulkDeleteOutput, error) {
	filter, err := input.Filter.compile()
	if err != nil {
		return nil, err
	}

	var removed, kept []media.LibraryItem
	err = store.Transact(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, error) {
		removed, kept = nil, make([]media.LibraryItem, 0, len(items))
		for _, it := range items {
			if filter.match(it) {
				removed = append(removed, it)
				continue
			}
			kept = append(kept, it)
		}
		if len(removed) == 0 {
			return nil, library.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}

	srcs := make([]string, len(removed))
	for i, it := range removed {
		srcs[i] = it.Src
	}
	revokeUnreferenced(blobs, srcs, kept)

	return &BulkDeleteOutput{
		Deleted: len(removed),
		Message: formatBulkDeleteMessage(len(removed), filter),
	}, nil
}

func formatBulkDeleteMessage(count int, filter *compiledFilter) string {
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	return fmt.Sprintf("Deleted %d %s matching %s", count, noun, filter.describe())
}
