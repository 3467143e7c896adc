package glyphcast

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	index int
	fp    string
}

// ResultCache holds processed frames keyed by frame index and settings
// fingerprint. A hit refreshes the entry; once full, each insert evicts
// the single least recently used entry, so the size never exceeds the
// capacity. The backing store serializes access, which lets the preview
// and playback lanes share one instance.
type ResultCache struct {
	lru *lru.Cache[cacheKey, ProcessedFrame]
}

// NewResultCache returns a cache bounded to capacity entries. Capacity
// must be at least 1.
func NewResultCache(capacity int) (*ResultCache, error) {
	c, err := lru.New[cacheKey, ProcessedFrame](capacity)
	if err != nil {
		return nil, err
	}
	return &ResultCache{lru: c}, nil
}

func (c *ResultCache) Get(index int, fingerprint string) (ProcessedFrame, bool) {
	return c.lru.Get(cacheKey{index: index, fp: fingerprint})
}

func (c *ResultCache) Put(index int, fingerprint string, pf ProcessedFrame) {
	c.lru.Add(cacheKey{index: index, fp: fingerprint}, pf)
}

func (c *ResultCache) Clear() { c.lru.Purge() }

func (c *ResultCache) Len() int { return c.lru.Len() }
