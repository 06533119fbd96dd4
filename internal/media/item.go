package media

import "strings"

// DefaultTitle is shown for items saved without a title.
const DefaultTitle = "Untitled"

// TagVideo marks an item as video regardless of its src scheme.
const TagVideo = "video"

// Kind distinguishes photos from videos at the save and transfer boundaries.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// LibraryItem is one saved media entry.
// ID and CreatedAt are set once at save time and never change.
type LibraryItem struct {
	// ID is unique within the library
	ID string `json:"id"`

	// Src is a data URI, or a blob: object URL valid only for the process that created it
	Src string `json:"src"`

	// Tags are lowercase, in insertion order
	Tags []string `json:"tags"`

	// Title is optional; see DisplayTitle
	Title *string `json:"title,omitempty"`

	// CreatedAt is an ISO-8601 timestamp
	CreatedAt string `json:"createdAt"`
}

// DisplayTitle returns the title, or DefaultTitle when it is absent or blank.
func (it LibraryItem) DisplayTitle() string {
	if it.Title == nil || strings.TrimSpace(*it.Title) == "" {
		return DefaultTitle
	}
	return *it.Title
}

// IsVideo reports whether the item should be rendered as video.
func (it LibraryItem) IsVideo() bool {
	return IsVideoSrc(it.Src, it.Tags)
}

// Clone returns a copy that shares no slices or pointers with it.
func (it LibraryItem) Clone() LibraryItem {
	out := it
	if it.Tags != nil {
		out.Tags = append([]string(nil), it.Tags...)
	}
	if it.Title != nil {
		title := *it.Title
		out.Title = &title
	}
	return out
}

// IsVideoSrc reports whether src (or its tags) denote a video.
func IsVideoSrc(src string, tags []string) bool {
	if strings.HasPrefix(src, "data:video/") || strings.HasPrefix(src, "blob:") {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(t, TagVideo) {
			return true
		}
	}
	return false
}

// Patch is a shallow update. Nil fields are left unchanged.
type Patch struct {
	Title *string  `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Src   *string  `json:"src,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Tags == nil && p.Src == nil
}

// Apply returns a copy of it with the patch fields overwritten.
// ID and CreatedAt are never touched.
func (p Patch) Apply(it LibraryItem) LibraryItem {
	out := it.Clone()
	if p.Title != nil {
		title := *p.Title
		out.Title = &title
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, p.Tags...)
	}
	if p.Src != nil {
		out.Src = *p.Src
	}
	return out
}
