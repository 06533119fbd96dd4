package search

import (
	"regexp"
	"strings"

	"github.com/hpungsan/smartgallery/internal/media"
)

var separatorRegex = regexp.MustCompile(`[,\s]+`)

// Tokenize lowercases q and splits it on runs of whitespace and commas.
// Empty tokens are dropped.
func Tokenize(q string) []string {
	parts := separatorRegex.Split(strings.ToLower(q), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Haystack is the lowercase text an item is matched against: title then tags, space-joined.
// An absent title contributes an empty string, not the display default.
func Haystack(it media.LibraryItem) string {
	title := ""
	if it.Title != nil {
		title = *it.Title
	}
	return strings.ToLower(title + " " + strings.Join(it.Tags, " "))
}

// Matches reports whether every token is a substring of the item's haystack.
// No tokens matches everything.
func Matches(it media.LibraryItem, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	hay := Haystack(it)
	for _, tok := range tokens {
		if !strings.Contains(hay, tok) {
			return false
		}
	}
	return true
}

// Filter returns the items matching q in their original order.
// A blank query returns items unfiltered.
func Filter(items []media.LibraryItem, q string) []media.LibraryItem {
	tokens := Tokenize(q)
	if len(tokens) == 0 {
		return items
	}
	out := make([]media.LibraryItem, 0, len(items))
	for _, it := range items {
		if Matches(it, tokens) {
			out = append(out, it)
		}
	}
	return out
}
