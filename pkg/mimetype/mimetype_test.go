package mimetype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTextRenderable(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"text/plain", true},
		{"text/html; charset=utf-8", true},
		{"application/json", true},
		{"application/xml", true},
		{"application/javascript", true},
		{"application/ecmascript", true},
		{"application/x-sh", true},
		{"application/x-www-form-urlencoded", true},
		{"application/x-yaml", true},
		{"application/toml", true},
		{"text/csv", true},
		{"application/vnd.api+json", true},
		{"image/png", false},
		{"application/pdf", false},
		{"application/octet-stream", false},
		{"audio/mpeg", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.contentType, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTextRenderable(tc.contentType))
		})
	}
}

func TestByFilename(t *testing.T) {
	assert.True(t, strings.HasPrefix(ByFilename("notes.txt"), "text/plain"))
	assert.Equal(t, "application/octet-stream", ByFilename("blob"))
	assert.Equal(t, "application/octet-stream", ByFilename("firmware.xyzunknown"))
	assert.Equal(t, "image/png", ByFilename("shot.png"))
}
