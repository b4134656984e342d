package cache

import (
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"pastebox/pkg/domain"
)

// LRU caches the immutable part of pastes in process memory. Stored
// values never carry a view count; that lives only in the database.
type LRU struct {
	c  *lru.Cache[string, *domain.Paste]
	mu sync.Mutex
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if size > 100000 {
		return nil, errors.New("cache size too large")
	}
	c, err := lru.New[string, *domain.Paste](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

func (l *LRU) Get(id string) *domain.Paste {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.c.Get(id)
	if !ok {
		return nil
	}
	return p
}

func (l *LRU) Set(p *domain.Paste) {
	if p == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := &domain.Paste{
		ID:          p.ID,
		Content:     p.Content,
		ContentType: p.ContentType,
		Size:        p.Size,
		CreatedAt:   p.CreatedAt,
	}
	l.c.Add(p.ID, entry)
}

func (l *LRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Len()
}
