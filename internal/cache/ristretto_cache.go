package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

var _ Cache = (*RistrettoCache)(nil)

// RistrettoCache keeps immutable records (stored insight reports) in memory.
type RistrettoCache struct {
	mainCache *ristretto.Cache
}

// NewRistrettoCache creates a cache bounded by maxItems, each entry costs 1.
func NewRistrettoCache(maxItems int64) (*RistrettoCache, error) {
	mainCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // number of keys to track frequency of
		MaxCost:     maxItems,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &RistrettoCache{
		mainCache: mainCache,
	}, nil
}

func (rc *RistrettoCache) Get(key interface{}) (interface{}, bool) {
	return rc.mainCache.Get(key)
}

// Set is applied asynchronously, a Get right after it may still miss.
func (rc *RistrettoCache) Set(key, value interface{}, cost int64) bool {
	return rc.mainCache.Set(key, value, cost)
}

func (rc *RistrettoCache) Clear() {
	rc.mainCache.Clear()
}

// Wait blocks until all buffered writes are applied.
func (rc *RistrettoCache) Wait() {
	rc.mainCache.Wait()
}
