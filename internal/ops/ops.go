package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/media"
)

// Pagination limits
const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	MaxFetchManyItems  = 50
	DefaultSuggestions = 12
)

// createdAtLayout matches JavaScript's Date.prototype.toISOString.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate returns the requested window of items with its metadata.
// The result is never nil.
func paginate(items []media.LibraryItem, limit, offset int) ([]media.LibraryItem, Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)

	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)

	page := make([]media.LibraryItem, end-start)
	copy(page, items[start:end])

	return page, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}

// ParseKind validates an optional kind filter.
func ParseKind(s string) (media.Kind, error) {
	switch media.Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case media.KindImage, "photo":
		return media.KindImage, nil
	case media.KindVideo:
		return media.KindVideo, nil
	default:
		return "", errors.NewInvalidRequest(`kind must be one of: image, video`)
	}
}

// kindOf classifies a saved item.
func kindOf(it media.LibraryItem) media.Kind {
	if it.IsVideo() {
		return media.KindVideo
	}
	return media.KindImage
}

func filterKind(items []media.LibraryItem, kind media.Kind) []media.LibraryItem {
	if kind == "" {
		return items
	}
	out := make([]media.LibraryItem, 0, len(items))
	for _, it := range items {
		if kindOf(it) == kind {
			out = append(out, it)
		}
	}
	return out
}

// cleanOptionalString trims s and returns nil when nothing is left.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}
