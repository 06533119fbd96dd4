package ops

import (
	"context"

	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Kind   media.Kind // optional: image or video
	Limit  int        // default: 20, max: 100
	Offset int        // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []media.LibraryItem `json:"items"`
	Pagination Pagination          `json:"pagination"`
	Sort       string              `json:"sort"`
}

// List returns a page of the library in stored order, most recent first.
func List(ctx context.Context, store *library.Store, input ListInput) (*ListOutput, error) {
	kind, err := ParseKind(string(input.Kind))
	if err != nil {
		return nil, err
	}

	items := filterKind(store.List(ctx), kind)
	page, p := paginate(items, input.Limit, input.Offset)

	return &ListOutput{
		Items:      page,
		Pagination: p,
		Sort:       "created_desc",
	}, nil
}
