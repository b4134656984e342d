package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"pastebox/pkg/domain"
)

// Redis is an optional shared read cache holding the immutable part of
// a paste (everything but view_count, which only the sqlite row
// owns). Cache failures are for the caller to log, never to surface.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

type cachedPaste struct {
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   int64  `json:"created_at"`
}

func NewRedis(url string, timeout time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.MaxRetries = 3
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &Redis{client: client, timeout: timeout}, nil
}

func (r *Redis) CachePaste(ctx context.Context, p *domain.Paste) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	data, err := json.Marshal(cachedPaste{
		Content:     p.Content,
		ContentType: p.ContentType,
		Size:        p.Size,
		CreatedAt:   p.CreatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "marshal cached paste")
	}
	// Rows never expire, but the cache entry does, so a restarted
	// redis with stale memory limits can evict freely.
	return r.client.Set(ctx, "paste:"+p.ID, data, 24*time.Hour).Err()
}

func (r *Redis) GetPaste(ctx context.Context, id string) (*domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	data, err := r.client.Get(ctx, "paste:"+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	var c cachedPaste
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "unmarshal cached paste")
	}
	return &domain.Paste{
		ID:          id,
		Content:     c.Content,
		ContentType: c.ContentType,
		Size:        c.Size,
		CreatedAt:   c.CreatedAt,
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
