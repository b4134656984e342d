package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUID(t *testing.T) {
	a := NewUID()
	b := NewUID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestNewUIDNoShortTermCollisions(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewUID()
		_, dup := seen[id]
		require.False(t, dup, "collision at iteration %d", i)
		seen[id] = struct{}{}
	}
}
