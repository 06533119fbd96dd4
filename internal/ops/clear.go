package ops

import (
	"context"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/library"
)

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Removed int `json:"removed"`
}

// Clear empties the library and revokes every object URL it referenced.
func Clear(ctx context.Context, store *library.Store, blobs *blob.Registry) (*ClearOutput, error) {
	items := store.List(ctx)
	if err := store.Clear(ctx); err != nil {
		return nil, err
	}

	srcs := make([]string, len(items))
	for i, it := range items {
		srcs[i] = it.Src
	}
	revokeUnreferenced(blobs, srcs, nil)

	return &ClearOutput{Removed: len(items)}, nil
}
