package svc

import (
	"context"

	"github.com/pkg/errors"

	"pastebox/cfg"
	"pastebox/metrics"
	"pastebox/pkg/domain"
	"pastebox/svc/cache"
	"pastebox/svc/db"
	"pastebox/svc/util"
)

// Paste orchestrates the storage engine and the read caches. One
// instance is shared by the TCP and HTTP fronts; it is safe for
// concurrent use and must be passed in explicitly, never reached
// through a global.
type Paste struct {
	db    *db.Store
	lru   *cache.LRU
	rdb   *db.Redis
	cfg   *cfg.Cfg
	newID func() string
}

func NewPaste(store *db.Store, lru *cache.LRU, rdb *db.Redis, c *cfg.Cfg) *Paste {
	if store == nil || lru == nil || c == nil {
		panic("paste service: nil dependency (store, lru, or cfg)")
	}
	return &Paste{db: store, lru: lru, rdb: rdb, cfg: c, newID: util.NewUID}
}

// Create stores content under a freshly generated UID and returns the
// persisted paste. The UID is not trusted to be unique by
// construction: a primary-key collision triggers exactly one
// regeneration and one retry, after which the failure is terminal.
func (p *Paste) Create(ctx context.Context, content []byte, contentType string) (*domain.Paste, error) {
	if len(content) == 0 {
		return nil, domain.ErrContentRequired
	}
	if int64(len(content)) > p.cfg.MaxPasteSize {
		return nil, domain.ErrContentTooLarge
	}
	paste := domain.NewPaste(p.newID(), content, contentType)
	err := p.db.Create(ctx, paste)
	if errors.Is(err, domain.ErrDuplicateID) {
		util.Warn().Str("id", paste.ID).Msg("uid collision, retrying with a fresh id")
		paste.ID = p.newID()
		err = p.db.Create(ctx, paste)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create paste")
	}
	p.lru.Set(paste)
	if p.rdb != nil {
		if err := p.rdb.CachePaste(ctx, paste); err != nil {
			util.Warn().Err(err).Str("id", paste.ID).Msg("failed to cache in redis")
		}
	}
	metrics.PasteCreated.Inc()
	return paste, nil
}

// Get returns the paste and its post-increment view count. The
// counter always moves through the database; caches only spare the
// content read.
func (p *Paste) Get(ctx context.Context, id string) (*domain.Paste, error) {
	if cached := p.lru.Get(id); cached != nil {
		metrics.CacheHits.Inc()
		return p.counted(ctx, cached)
	}
	if p.rdb != nil {
		if cached, err := p.rdb.GetPaste(ctx, id); err == nil {
			metrics.CacheHits.Inc()
			p.lru.Set(cached)
			return p.counted(ctx, cached)
		} else if !errors.Is(err, domain.ErrNotFound) {
			util.Warn().Err(err).Str("id", id).Msg("redis read failed")
		}
	}
	metrics.CacheMisses.Inc()
	paste, err := p.db.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PasteNotFound.Inc()
		}
		return nil, err
	}
	p.lru.Set(paste)
	if p.rdb != nil {
		if err := p.rdb.CachePaste(ctx, paste); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to cache in redis")
		}
	}
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

func (p *Paste) counted(ctx context.Context, cached *domain.Paste) (*domain.Paste, error) {
	views, err := p.db.Touch(ctx, cached.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PasteNotFound.Inc()
		}
		return nil, err
	}
	out := *cached
	out.ViewCount = views
	metrics.PasteRetrieved.Inc()
	return &out, nil
}
