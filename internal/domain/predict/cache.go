package predict

import (
	"container/list"
	"sync"

	"github.com/okian/ctrd/internal/domain/model"
)

// DefaultCacheSize bounds the prediction cache when no option overrides it.
const DefaultCacheSize = 1000

// CacheKey is the exact 6-tuple a prediction is memoized under. PublisherID
// must already be normalized (absent -> 0) before lookup, so "no publisher"
// and "publisher 0" share an entry.
type CacheKey struct {
	LineItemID  int
	DeviceType  string
	Country     string
	PublisherID int
	HourOfDay   int
	DayOfWeek   int
}

// KeyFor builds the cache key for a prediction context.
func KeyFor(ctx model.PredictionContext) CacheKey {
	return CacheKey{
		LineItemID:  ctx.LineItemID,
		DeviceType:  ctx.DeviceType,
		Country:     ctx.Country,
		PublisherID: ctx.PublisherID,
		HourOfDay:   ctx.HourOfDay,
		DayOfWeek:   ctx.DayOfWeek,
	}
}

type cacheEntry struct {
	key   CacheKey
	value model.Prediction
}

// Cache memoizes scoring results under a bounded LRU policy.
//
// Entries are NOT invalidated when a new model bundle is swapped in: cached
// predictions from the previous model keep serving until evicted or the
// process restarts. This staleness is an explicit latency-over-freshness
// trade-off; operators who need fresh scores after retraining must restart.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[CacheKey]*list.Element
	order   *list.List // front = most recently used
}

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithMaxSize bounds the number of cached predictions.
func WithMaxSize(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// NewCache creates a bounded prediction cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		maxSize: DefaultCacheSize,
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[CacheKey]*list.Element, c.maxSize)
	return c
}

// Get returns the cached prediction for key and marks it most recently used.
func (c *Cache) Get(key CacheKey) (model.Prediction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return model.Prediction{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// Put stores a prediction, evicting the least recently used entry when full.
func (c *Cache) Put(key CacheKey, value model.Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
}

// Len returns the current number of cached predictions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops all cached predictions. Exposed for tests and for operators
// who accept the latency cost of a cold cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]*list.Element, c.maxSize)
	c.order.Init()
}
