package ops

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// SaveInput contains parameters for the Save operation.
// Exactly one of Src or Data must be set.
type SaveInput struct {
	Src   string // data URI, live object URL, or http(s) URL
	Data  []byte // raw media bytes
	MIME  string // type of Data; sniffed when empty
	Name  string // original file name, used as the default title
	Title *string
	Tags  []string
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	ID     string            `json:"id"`
	Item   media.LibraryItem `json:"item"`
	Kind   media.Kind        `json:"kind"`
	Inline bool              `json:"inline"` // src is a self-contained data URI
}

// Save builds a new library item and inserts it at the front of the library.
// Photos and videos up to InlineVideoMaxBytes are stored inline as data URIs;
// larger videos get an object URL that lives only as long as this process.
func Save(ctx context.Context, store *library.Store, blobs *blob.Registry, cfg *config.Config, input SaveInput) (*SaveOutput, error) {
	hasSrc := strings.TrimSpace(input.Src) != ""
	hasData := len(input.Data) > 0
	if hasSrc == hasData {
		return nil, errors.NewInvalidRequest("exactly one of src or data is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var (
		src     string
		kind    media.Kind
		created string // object URL owned by this call
	)
	if hasData {
		mime := mediaType(input.MIME, input.Data)
		kind = media.KindForMIME(mime)
		if kind == media.KindVideo && cfg.InlineVideoMaxBytes > 0 && int64(len(input.Data)) > cfg.InlineVideoMaxBytes {
			if blobs == nil {
				return nil, errors.NewInvalidRequest("video too large to store inline and no object URL registry is available")
			}
			created = blobs.Create(input.Data, mime)
			src = created
		} else {
			src = media.EncodeDataURI(mime, input.Data)
		}
	} else {
		var err error
		src, kind, err = checkSrc(strings.TrimSpace(input.Src), blobs)
		if err != nil {
			return nil, err
		}
	}

	tags := media.NormalizeTags(input.Tags)
	if kind == media.KindVideo {
		tags = media.AddTag(tags, media.TagVideo)
	}

	title := media.DefaultTitle
	if t := cleanOptionalString(input.Title); t != nil {
		title = *t
	} else if name := strings.TrimSpace(input.Name); name != "" {
		title = name
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	item := media.LibraryItem{
		ID:        id,
		Src:       src,
		Tags:      tags,
		Title:     &title,
		CreatedAt: timestamp(time.Now()),
	}

	if err := store.Add(ctx, item); err != nil {
		if created != "" {
			blobs.Revoke(created)
		}
		return nil, err
	}

	return &SaveOutput{
		ID:     id,
		Item:   item,
		Kind:   kind,
		Inline: strings.HasPrefix(src, "data:"),
	}, nil
}

// SaveTransferInput contains parameters for the SaveTransfer operation.
type SaveTransferInput struct {
	Title *string
	Tags  []string
}

// SaveTransferOutput contains the result of the SaveTransfer operation.
type SaveTransferOutput struct {
	SaveOutput
	Edits        *editor.Edits        `json:"edits,omitempty"`
	Presentation *editor.Presentation `json:"presentation,omitempty"`
}

// SaveTransfer consumes the pending transfer payload and saves it.
// The payload is taken even when the save fails.
func SaveTransfer(ctx context.Context, store *library.Store, blobs *blob.Registry, cfg *config.Config, slot *editor.Slot, input SaveTransferInput) (*SaveTransferOutput, error) {
	p, ok := slot.Take()
	if !ok {
		return nil, errors.NewNotFound("pending transfer")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tags := input.Tags
	if p.Kind == media.KindVideo {
		tags = media.AddTag(media.NormalizeTags(tags), media.TagVideo)
	}
	saved, err := Save(ctx, store, blobs, cfg, SaveInput{
		Src:   p.Src,
		Name:  p.Name,
		Title: input.Title,
		Tags:  tags,
	})
	if err != nil {
		return nil, err
	}

	out := &SaveTransferOutput{SaveOutput: *saved}
	if p.Edits != nil {
		edits := *p.Edits
		pres := edits.Present()
		out.Edits = &edits
		out.Presentation = &pres
	}
	return out, nil
}

// StageTransfer validates p and puts it in the slot, replacing any unconsumed payload.
func StageTransfer(slot *editor.Slot, p editor.Payload) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Edits != nil {
		if err := p.Edits.Validate(); err != nil {
			return err
		}
	}
	if p.TS == 0 {
		p.TS = time.Now().UnixMilli()
	}
	slot.Put(p)
	return nil
}

// checkSrc validates a caller-supplied src and infers its kind.
func checkSrc(src string, blobs *blob.Registry) (string, media.Kind, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		mime, _, err := media.ParseDataURI(src)
		if err != nil {
			return "", "", err
		}
		return src, media.KindForMIME(mime), nil
	case strings.HasPrefix(src, "blob:"):
		if blobs == nil {
			return "", "", errors.NewInvalidRequest("object URLs are not supported here")
		}
		_, mime, ok := blobs.Resolve(src)
		if !ok {
			return "", "", errors.NewInvalidRequest("object URL is not live: " + src)
		}
		return src, media.KindForMIME(mime), nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src, media.KindImage, nil
	default:
		return "", "", errors.NewInvalidRequest("src must be a data URI, an object URL, or an http(s) URL")
	}
}

// mediaType returns the bare MIME type for data, sniffing it when declared is empty.
func mediaType(declared string, data []byte) string {
	mime := strings.TrimSpace(declared)
	if mime == "" || strings.HasPrefix(mime, "application/octet-stream") {
		mime = http.DetectContentType(data)
	}
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
