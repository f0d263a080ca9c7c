package codec

import (
	"mime"
	"strings"
)

// Common media types.
const (
	MediaWildcard = "*/*"
	MediaJSON     = "application/json"
	MediaYAML     = "application/yaml"
	MediaForm     = "application/x-www-form-urlencoded"
	MediaText     = "text/plain"
	MediaOctet    = "application/octet-stream"
)

// Codec converts between Go values and one media type.
type Codec interface {
	// MediaType is the canonical media type, e.g. "application/json".
	MediaType() string
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// Aliases is implemented by codecs that also serve other media types.
type Aliases interface {
	Aliases() []string
}

// Normalize strips parameters from a media type and lowercases it.
// An empty value is the wildcard.
func Normalize(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return MediaWildcard
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// IsWildcard reports whether the media type matches anything.
func IsWildcard(mediaType string) bool {
	return Normalize(mediaType) == MediaWildcard
}
