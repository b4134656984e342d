package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastebox/pkg/domain"
)

func TestLRUSetGet(t *testing.T) {
	l, err := NewLRU(2)
	require.NoError(t, err)

	p := domain.NewPaste("abc", []byte("hello"), "text/plain")
	p.ViewCount = 7
	l.Set(p)

	got := l.Get("abc")
	require.NotNil(t, got)
	assert.Equal(t, []byte("hello"), got.Content)
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, int64(5), got.Size)
	// view counts are never cached
	assert.Equal(t, int64(0), got.ViewCount)

	assert.Nil(t, l.Get("missing"))
}

func TestLRUEviction(t *testing.T) {
	l, err := NewLRU(2)
	require.NoError(t, err)
	l.Set(domain.NewPaste("a", []byte("1"), "text/plain"))
	l.Set(domain.NewPaste("b", []byte("2"), "text/plain"))
	l.Set(domain.NewPaste("c", []byte("3"), "text/plain"))
	assert.Equal(t, 2, l.Len())
	assert.Nil(t, l.Get("a"))
}

func TestLRUInvalidSize(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
	_, err = NewLRU(200000)
	assert.Error(t, err)
}
