package assets

import (
	"context"
	"fmt"
	"image"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of decoded images kept by NewCachedLoader
// when size is not positive.
const DefaultCacheSize = 64

// CachedLoader keeps recently decoded images keyed by URL. Failures are not
// cached. It is safe for concurrent use.
type CachedLoader struct {
	next  Loader
	cache *lru.Cache
}

// NewCachedLoader wraps next with an LRU cache of size entries.
func NewCachedLoader(next Loader, size int) (*CachedLoader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	return &CachedLoader{next: next, cache: cache}, nil
}

func (c *CachedLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if v, ok := c.cache.Get(url); ok {
		return v.(image.Image), nil
	}
	img, err := c.next.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	c.cache.Add(url, img)
	return img, nil
}

// Len returns the number of cached images.
func (c *CachedLoader) Len() int {
	return c.cache.Len()
}

// Purge drops every cached image.
func (c *CachedLoader) Purge() {
	c.cache.Purge()
}
