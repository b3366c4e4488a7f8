package resolver

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"actengine/services/value"
)

// cache memoizes resolved expression results keyed by their exact
// expression text for the duration of one execution (§4.2 "Caching").
// Hit/miss counters feed the resolution_cache_hits/misses metrics (§4.6).
type cache struct {
	lru    *lru.Cache[string, value.Value]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// defaultCacheSize bounds memory use for workflows with very large
// expression surfaces; one run rarely exceeds a few hundred distinct
// expressions.
const defaultCacheSize = 2048

func newCache() *cache {
	l, err := lru.New[string, value.Value](defaultCacheSize)
	if err != nil {
		panic(fmt.Sprintf("resolver: failed to create LRU cache: %v", err))
	}
	return &cache{lru: l}
}

func (c *cache) get(expr string) (value.Value, bool) {
	v, ok := c.lru.Get(expr)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *cache) put(expr string, v value.Value) {
	c.lru.Add(expr, v)
}

// Stats reports cumulative hit/miss counts for metrics export.
type Stats struct {
	Hits   uint64
	Misses uint64
}

func (c *cache) stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
