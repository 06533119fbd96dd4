package ops

import (
	"context"

	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/search"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string     // blank matches everything
	Kind   media.Kind // optional: image or video
	Limit  int        // default: 20, max: 100
	Offset int        // default: 0
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []media.LibraryItem `json:"items"`
	Tokens     []string            `json:"tokens"`
	Pagination Pagination          `json:"pagination"`
}

// Search filters the library by every token of the query, keeping library order.
func Search(ctx context.Context, store *library.Store, input SearchInput) (*SearchOutput, error) {
	kind, err := ParseKind(string(input.Kind))
	if err != nil {
		return nil, err
	}

	matches := filterKind(search.Filter(store.List(ctx), input.Query), kind)
	page, p := paginate(matches, input.Limit, input.Offset)

	return &SearchOutput{
		Items:      page,
		Tokens:     search.Tokenize(input.Query),
		Pagination: p,
	}, nil
}
