package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// GetManyInput contains parameters for the GetMany operation.
type GetManyInput struct {
	IDs []string
}

// GetManyOutput contains the result of the GetMany operation.
type GetManyOutput struct {
	Items  []media.LibraryItem `json:"items"`
	Errors []GetManyError      `json:"errors"`
}

// GetManyError reports an id that could not be fetched.
type GetManyError struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetMany retrieves several items from a single library snapshot.
// Returns partial success with items and errors arrays, items in request order.
func GetMany(ctx context.Context, store *library.Store, input GetManyInput) (*GetManyOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids is required and must not be empty")
	}
	if len(input.IDs) > MaxFetchManyItems {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("too many ids: %d (max %d)", len(input.IDs), MaxFetchManyItems))
	}

	byID := make(map[string]media.LibraryItem)
	for _, it := range store.List(ctx) {
		byID[it.ID] = it
	}

	out := &GetManyOutput{
		Items:  []media.LibraryItem{},
		Errors: []GetManyError{},
	}
	for _, raw := range input.IDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			out.Errors = append(out.Errors, GetManyError{
				ID:      raw,
				Code:    string(errors.ErrInvalidRequest),
				Message: "id must not be empty",
			})
			continue
		}
		it, ok := byID[id]
		if !ok {
			nf := errors.NewNotFound(id)
			out.Errors = append(out.Errors, GetManyError{ID: id, Code: string(nf.Code), Message: nf.Message})
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}
