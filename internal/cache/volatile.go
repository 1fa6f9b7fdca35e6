package cache

import (
	"container/list"
	"sync"
	"time"

	"econcli/internal/infrastructure"
	"econcli/pkg/contracts/domain"
)

// volatileEntry is one cached series plus its freshness bookkeeping.
type volatileEntry struct {
	key       domain.CacheKey
	series    *domain.Series
	fetchedAt time.Time
	ttl       time.Duration
}

func (e *volatileEntry) stale(now time.Time) bool {
	return now.Sub(e.fetchedAt) > e.ttl
}

// Volatile is the bounded in-process cache tier. Entries are evicted
// least-recently-used when an insert would exceed the bound; stale
// entries are reported as misses but only removed lazily. Series
// values are immutable, so eviction never invalidates a reader that
// already holds one.
type Volatile struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List // front = most recently used
	items      map[domain.CacheKey]*list.Element
}

// NewVolatile creates the volatile tier with an entry-count bound.
func NewVolatile(maxEntries int) *Volatile {
	return &Volatile{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[domain.CacheKey]*list.Element),
	}
}

// Get returns the cached series for key if present and fresh.
func (v *Volatile) Get(key domain.CacheKey, now time.Time) (*domain.Series, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	el, ok := v.items[key]
	if !ok {
		infrastructure.CacheMisses.WithLabelValues("volatile").Inc()
		return nil, false
	}

	entry := el.Value.(*volatileEntry)
	if entry.stale(now) {
		infrastructure.CacheMisses.WithLabelValues("volatile").Inc()
		return nil, false
	}

	v.order.MoveToFront(el)
	infrastructure.CacheHits.WithLabelValues("volatile").Inc()
	return entry.series, true
}

// Put stores or refreshes an entry, evicting the least-recently-used
// entry first when the tier is full.
func (v *Volatile) Put(key domain.CacheKey, series *domain.Series, fetchedAt time.Time, ttl time.Duration) {
	if v.maxEntries <= 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if el, ok := v.items[key]; ok {
		entry := el.Value.(*volatileEntry)
		entry.series = series
		entry.fetchedAt = fetchedAt
		entry.ttl = ttl
		v.order.MoveToFront(el)
		return
	}

	if v.order.Len() >= v.maxEntries {
		v.evictOldest()
	}

	el := v.order.PushFront(&volatileEntry{
		key:       key,
		series:    series,
		fetchedAt: fetchedAt,
		ttl:       ttl,
	})
	v.items[key] = el
}

// Len returns the number of resident entries, stale ones included.
func (v *Volatile) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.order.Len()
}

// Clear drops every entry. Used by tests and manual invalidation.
func (v *Volatile) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.order.Init()
	v.items = make(map[domain.CacheKey]*list.Element)
}

func (v *Volatile) evictOldest() {
	back := v.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*volatileEntry)
	v.order.Remove(back)
	delete(v.items, entry.key)
	infrastructure.CacheEvictions.WithLabelValues("volatile").Inc()
}
