package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/search"
)

// LibraryFilter selects items for bulk operations. Nil fields do not filter.
type LibraryFilter struct {
	Query *string     // every token must match, as in Search
	Tag   *string     // item must carry this tag
	Kind  *media.Kind // image or video
}

// compiledFilter is a LibraryFilter after normalization.
type compiledFilter struct {
	tokens []string
	tag    string
	kind   media.Kind
}

// compile normalizes f. At least one filter must survive normalization.
func (f LibraryFilter) compile() (*compiledFilter, error) {
	if f.Query == nil && f.Tag == nil && f.Kind == nil {
		return nil, errors.NewInvalidRequest("at least one filter is required")
	}
	var c compiledFilter
	if f.Query != nil {
		c.tokens = search.Tokenize(*f.Query)
	}
	if f.Tag != nil {
		c.tag = media.NormalizeTag(*f.Tag)
	}
	if f.Kind != nil {
		kind, err := ParseKind(string(*f.Kind))
		if err != nil {
			return nil, err
		}
		c.kind = kind
	}
	if len(c.tokens) == 0 && c.tag == "" && c.kind == "" {
		return nil, errors.NewInvalidRequest("at least one filter must be non-empty after normalization")
	}
	return &c, nil
}

func (c *compiledFilter) match(it media.LibraryItem) bool {
	if c.tag != "" && !media.HasTag(it.Tags, c.tag) {
		return false
	}
	if c.kind != "" && kindOf(it) != c.kind {
		return false
	}
	return search.Matches(it, c.tokens)
}

func (c *compiledFilter) describe() string {
	var parts []string
	if len(c.tokens) > 0 {
		parts = append(parts, "query="+strings.Join(c.tokens, " "))
	}
	if c.tag != "" {
		parts = append(parts, "tag="+c.tag)
	}
	if c.kind != "" {
		parts = append(parts, "kind="+string(c.kind))
	}
	return strings.Join(parts, ", ")
}

// BulkTagInput contains parameters for the BulkTag operation.
type BulkTagInput struct {
	Filter LibraryFilter
	Add    []string
	Remove []string
}

// BulkTagOutput contains the result of the BulkTag operation.
type BulkTagOutput struct {
	Matched int `json:"matched"`
	Updated int `json:"updated"`
}

// BulkTag adds and removes tags on every item matching the filter in one write.
// At least one filter must be provided (safety guard).
func BulkTag(ctx context.Context, store *library.Store, input BulkTagInput) (*BulkTagOutput, error) {
	filter, err := input.Filter.compile()
	if err != nil {
		return nil, err
	}
	if len(input.Add) == 0 && len(input.Remove) == 0 {
		return nil, errors.NewInvalidRequest("add or remove is required")
	}

	out := &BulkTagOutput{}
	err = store.Transact(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, error) {
		for i := range items {
			if !filter.match(items[i]) {
				continue
			}
			out.Matched++
			next := retag(items[i].Tags, input.Add, input.Remove)
			if !equalTags(items[i].Tags, next) {
				items[i].Tags = next
				out.Updated++
			}
		}
		if out.Updated == 0 {
			return nil, library.ErrUnchanged
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
