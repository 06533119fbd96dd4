package media

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/hpungsan/smartgallery/internal/errors"
)

// EncodeDataURI returns a base64 data URI for data.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a data URI into its MIME type and bytes.
// Both base64 and percent-encoded payloads are accepted.
// A missing MIME type defaults to text/plain.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.NewInvalidRequest("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.NewInvalidRequest("malformed data URI: missing ','")
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}
	mime := meta
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "text/plain"
	}

	if isBase64 {
		data, err := decodeBase64(payload)
		if err != nil {
			return "", nil, errors.NewInvalidRequest(fmt.Sprintf("malformed data URI: %v", err))
		}
		return mime, data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, errors.NewInvalidRequest(fmt.Sprintf("malformed data URI: %v", err))
	}
	return mime, []byte(decoded), nil
}

// decodeBase64 accepts padded or unpadded payloads and ignores embedded
// whitespace such as line wrapping.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, payload)
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// KindForMIME classifies a MIME type. Anything that is not video/* is treated as an image.
func KindForMIME(mime string) Kind {
	if strings.HasPrefix(strings.ToLower(mime), "video/") {
		return KindVideo
	}
	return KindImage
}
