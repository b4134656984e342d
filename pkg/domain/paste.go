package domain

import (
	"time"
)

// Paste is the sole persistent entity: an immutable content blob plus
// metadata, addressed by a caller-supplied unique identifier. Only
// ViewCount changes after creation, and only upward.
type Paste struct {
	ID          string `json:"id"`
	Content     []byte `json:"-"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   int64  `json:"created_at"`
	ViewCount   int64  `json:"view_count"`
}

func NewPaste(id string, content []byte, contentType string) *Paste {
	return &Paste{
		ID:          id,
		Content:     content,
		ContentType: contentType,
		Size:        int64(len(content)),
		CreatedAt:   time.Now().Unix(),
	}
}
