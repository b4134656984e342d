package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":6969", c.TCPAddr)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "data/resources.db", c.DatabasePath)
	assert.Equal(t, int64(10*1024*1024), c.MaxPasteSize)
	assert.Equal(t, 64*1024, c.TCPMaxLine)
	assert.Equal(t, time.Duration(0), c.TCPReadTimeout)
	assert.NoError(t, Validate(c))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TCP_ADDR", ":7070")
	t.Setenv("MAX_PASTE_SIZE", "1024")
	t.Setenv("TCP_READ_TIMEOUT", "30s")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", c.TCPAddr)
	assert.Equal(t, int64(1024), c.MaxPasteSize)
	assert.Equal(t, 30*time.Second, c.TCPReadTimeout)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Setenv("MAX_PASTE_SIZE", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	c.MaxPasteSize = 0
	assert.Error(t, Validate(c))

	c, _ = Load()
	c.DBMaxIdleConns = c.DBMaxOpenConns + 1
	assert.Error(t, Validate(c))
}
