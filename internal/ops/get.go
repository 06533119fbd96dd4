package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string
}

// GetOutput contains a single library item.
type GetOutput struct {
	Item media.LibraryItem `json:"item"`
	Kind media.Kind        `json:"kind"`

	// Dangling is true for object URLs that no longer resolve in this process
	Dangling bool `json:"dangling,omitempty"`
}

// Get retrieves one item by id.
func Get(ctx context.Context, store *library.Store, blobs *blob.Registry, input GetInput) (*GetOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	it, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GetOutput{
		Item:     it,
		Kind:     kindOf(it),
		Dangling: isDangling(it.Src, blobs),
	}, nil
}

// isDangling reports whether src is an object URL this process cannot resolve.
func isDangling(src string, blobs *blob.Registry) bool {
	if !strings.HasPrefix(src, "blob:") {
		return false
	}
	if blobs == nil {
		return true
	}
	_, _, ok := blobs.Resolve(src)
	return !ok
}
