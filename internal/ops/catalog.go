package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/search"
)

// CatalogInput contains parameters for the Catalog operation.
type CatalogInput struct {
	Query  string // optional search filter
	Images bool   // embed inline photos
}

// CatalogOutput contains the result of the Catalog operation.
type CatalogOutput struct {
	Markdown string `json:"markdown"`
	Count    int    `json:"count"`
}

// Catalog renders the (optionally filtered) library as a Markdown document.
func Catalog(ctx context.Context, store *library.Store, input CatalogInput) (*CatalogOutput, error) {
	items := search.Filter(store.List(ctx), input.Query)

	var b strings.Builder
	b.WriteString("# SmartGallery Library\n\n")
	if q := strings.TrimSpace(input.Query); q != "" {
		fmt.Fprintf(&b, "Filtered by `%s`.\n\n", q)
	}
	switch len(items) {
	case 0:
		b.WriteString("_No items yet._\n")
	case 1:
		b.WriteString("_1 item_\n")
	default:
		fmt.Fprintf(&b, "_%d items_\n", len(items))
	}

	for i, it := range items {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, escapeMarkdown(it.DisplayTitle()))
		if input.Images && !it.IsVideo() && strings.HasPrefix(it.Src, "data:image/") {
			fmt.Fprintf(&b, "![%s](%s)\n\n", escapeMarkdown(it.DisplayTitle()), it.Src)
		}
		fmt.Fprintf(&b, "- **ID:** `%s`\n", it.ID)
		fmt.Fprintf(&b, "- **Type:** %s\n", kindLabel(it))
		if it.CreatedAt != "" {
			fmt.Fprintf(&b, "- **Created:** %s\n", it.CreatedAt)
		}
		fmt.Fprintf(&b, "- **Tags:** %s\n", formatTags(it.Tags))
	}

	return &CatalogOutput{Markdown: b.String(), Count: len(items)}, nil
}

func kindLabel(it media.LibraryItem) string {
	if it.IsVideo() {
		return "video"
	}
	return "photo"
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "_none_"
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = "`" + t + "`"
	}
	return strings.Join(quoted, ", ")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", `\<`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
