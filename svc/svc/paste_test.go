package svc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastebox/cfg"
	"pastebox/pkg/domain"
	"pastebox/svc/cache"
	"pastebox/svc/db"
	"pastebox/svc/util"
)

func newTestService(t *testing.T) *Paste {
	t.Helper()
	store, err := db.NewStore(filepath.Join(t.TempDir(), "resources.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	lru, err := cache.NewLRU(16)
	require.NoError(t, err)
	c := &cfg.Cfg{MaxPasteSize: 1024}
	return NewPaste(store, lru, nil, c)
}

func TestCreateAndGet(t *testing.T) {
	p := newTestService(t)
	ctx := context.Background()

	created, err := p.Create(ctx, []byte("hello world"), "text/plain")
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, int64(11), created.Size)
	assert.Equal(t, int64(0), created.ViewCount)

	got, err := p.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got.Content)
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, int64(1), got.ViewCount)
}

func TestGetCountsThroughCache(t *testing.T) {
	p := newTestService(t)
	ctx := context.Background()
	created, err := p.Create(ctx, []byte("cached"), "text/plain")
	require.NoError(t, err)

	// the create already populated the LRU; every read must still
	// move the database counter
	for want := int64(1); want <= 3; want++ {
		got, err := p.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.ViewCount)
	}
}

func TestGetNotFound(t *testing.T) {
	p := newTestService(t)
	_, err := p.Get(context.Background(), "doesnotexist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRejectsEmpty(t *testing.T) {
	p := newTestService(t)
	_, err := p.Create(context.Background(), nil, "text/plain")
	assert.ErrorIs(t, err, domain.ErrContentRequired)
}

func TestCreateRejectsOversized(t *testing.T) {
	p := newTestService(t)
	_, err := p.Create(context.Background(), make([]byte, 2048), "application/octet-stream")
	assert.ErrorIs(t, err, domain.ErrContentTooLarge)
}

func TestCreateRetriesOnceOnCollision(t *testing.T) {
	p := newTestService(t)
	ctx := context.Background()

	taken := util.NewUID()
	fresh := util.NewUID()
	require.NoError(t, p.db.Create(ctx, domain.NewPaste(taken, []byte("occupied"), "text/plain")))

	ids := []string{taken, fresh}
	p.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	created, err := p.Create(ctx, []byte("retry me"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, fresh, created.ID)

	got, err := p.Get(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, []byte("retry me"), got.Content)
}

func TestCreateFailsAfterSecondCollision(t *testing.T) {
	p := newTestService(t)
	ctx := context.Background()

	a, b := util.NewUID(), util.NewUID()
	require.NoError(t, p.db.Create(ctx, domain.NewPaste(a, []byte("x"), "text/plain")))
	require.NoError(t, p.db.Create(ctx, domain.NewPaste(b, []byte("y"), "text/plain")))

	ids := []string{a, b}
	p.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	_, err := p.Create(ctx, []byte("never stored"), "text/plain")
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}
