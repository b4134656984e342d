// Package mimetype decides how stored content should be rendered and
// guesses MIME types for uploaded files.
package mimetype

import (
	"mime"
	"path/filepath"
	"strings"
)

const fallback = "application/octet-stream"

var textExact = map[string]struct{}{
	"application/json":                  {},
	"application/xml":                   {},
	"application/javascript":            {},
	"application/ecmascript":            {},
	"application/x-sh":                  {},
	"application/x-www-form-urlencoded": {},
}

var textSubstrings = []string{"script", "json", "xml", "yaml", "toml", "csv"}

// IsTextRenderable reports whether content of the given MIME type
// should be shown inline as text rather than offered as a download.
// Total over any input string, no side effects.
func IsTextRenderable(contentType string) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	if _, ok := textExact[contentType]; ok {
		return true
	}
	for _, s := range textSubstrings {
		if strings.Contains(contentType, s) {
			return true
		}
	}
	return false
}

// ByFilename guesses a MIME type from the file extension. Used only by
// the upload path; unknown extensions fall back to octet-stream.
func ByFilename(name string) string {
	t := mime.TypeByExtension(filepath.Ext(name))
	if t == "" {
		return fallback
	}
	// TypeByExtension may append a charset parameter; the stored
	// content_type keeps it, matching what browsers send.
	return t
}
