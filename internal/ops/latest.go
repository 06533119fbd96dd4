package ops

import (
	"context"

	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item        *media.LibraryItem `json:"item"` // nil if the library is empty
	LastCapture string             `json:"last_capture,omitempty"`
}

// Latest returns the most recently saved item and the last captured photo.
func Latest(ctx context.Context, store *library.Store) (*LatestOutput, error) {
	out := &LatestOutput{}
	if items := store.List(ctx); len(items) > 0 {
		first := items[0]
		out.Item = &first
	}
	if uri, ok := store.LastCapture(ctx); ok {
		out.LastCapture = uri
	}
	return out, nil
}
