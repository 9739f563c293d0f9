package tricount

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"tricount/internal/cache"
)

// Source is anything that can open a session and fetch registry documents.
// *Client and FileSource implement it.
type Source interface {
	Authenticate(ctx context.Context) (Session, error)
	FetchRegistry(ctx context.Context, s Session, identifier string) ([]byte, error)
}

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
)

// CachedSource fetches each identifier at most once while the cached
// document is fresh. Concurrent fetches of the same identifier share one
// request. Failures are not cached.
type CachedSource struct {
	Source
	docs  *cache.LRU[[]byte]
	group singleflight.Group
}

// NewCachedSource wraps src with an LRU of up to size documents.
func NewCachedSource(src Source, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedSource{Source: src, docs: cache.NewLRU[[]byte](size, ttl)}
}

// FetchRegistry returns the cached document for identifier or fetches it.
func (c *CachedSource) FetchRegistry(ctx context.Context, s Session, identifier string) ([]byte, error) {
	if doc, ok := c.docs.Get(identifier); ok {
		return doc, nil
	}

	v, err, _ := c.group.Do(identifier, func() (any, error) {
		doc, err := c.Source.FetchRegistry(ctx, s, identifier)
		if err != nil {
			return nil, err
		}
		c.docs.Set(identifier, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
