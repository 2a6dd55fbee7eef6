package resolver

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"macrotrack"
)

const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	facts   []macrotrack.FoodFact
	expires time.Time
}

// CachingSearcher remembers successful searches per normalized term for a TTL.
// Failures are never cached.
type CachingSearcher struct {
	next    macrotrack.Searcher
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCachingSearcher(next macrotrack.Searcher, ttl time.Duration) *CachingSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingSearcher{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachingSearcher) Search(ctx context.Context, term string) ([]macrotrack.FoodFact, error) {
	key := normalizeTerm(term)

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		slog.Debug("SEARCH_CACHE: Hit", "term", key)
		return slices.Clone(e.facts), nil
	}
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	facts, err := c.next.Search(ctx, term)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{facts: slices.Clone(facts), expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return facts, nil
}

// Len reports the number of cached terms, expired ones included.
func (c *CachingSearcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
