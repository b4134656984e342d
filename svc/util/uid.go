package util

import (
	"github.com/google/uuid"
)

// NewUID returns a random 128-bit identifier in canonical 36-character
// form. Collisions are negligible but not impossible; uniqueness is
// enforced by the store's primary key, and the create path retries
// once on a duplicate.
func NewUID() string {
	return uuid.NewString()
}
