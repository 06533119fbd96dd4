package media

import "strings"

// NormalizeTag trims and lowercases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// AddTag appends tag after normalization.
// Empty tags and case-insensitive duplicates are ignored.
func AddTag(tags []string, tag string) []string {
	t := NormalizeTag(tag)
	if t == "" || HasTag(tags, t) {
		return tags
	}
	return append(tags, t)
}

// RemoveTag drops every case-insensitive match of tag.
func RemoveTag(tags []string, tag string) []string {
	t := NormalizeTag(tag)
	out := make([]string, 0, len(tags))
	for _, existing := range tags {
		if NormalizeTag(existing) != t {
			out = append(out, existing)
		}
	}
	return out
}

// HasTag reports whether tags contains tag, ignoring case.
func HasTag(tags []string, tag string) bool {
	t := NormalizeTag(tag)
	for _, existing := range tags {
		if NormalizeTag(existing) == t {
			return true
		}
	}
	return false
}

// NormalizeTags runs every tag through AddTag, preserving first-seen order.
// The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = AddTag(out, t)
	}
	return out
}

// MergeTags returns the normalized union of a and b, a's order first.
func MergeTags(a, b []string) []string {
	return NormalizeTags(append(append([]string{}, a...), b...))
}
