package broker

import (
	"sync"
	"time"
)

// Cache sizing and freshness bounds. Quotes go stale within a minute during
// market hours; instrument dumps change once a day at most.
const (
	DefaultQuoteTTL      = 60 * time.Second
	DefaultInstrumentTTL = 24 * time.Hour

	maxQuoteEntries = 2000
)

type quoteEntry struct {
	quote     Quote
	fetchedAt time.Time
}

// QuoteCache is a size-bounded TTL cache for quotes, keyed "EXCHANGE:SYMBOL".
type QuoteCache struct {
	mu      sync.Mutex
	entries map[string]quoteEntry
	ttl     time.Duration
	now     Clock
}

// NewQuoteCache creates a quote cache. A nil clock uses time.Now.
func NewQuoteCache(ttl time.Duration, now Clock) *QuoteCache {
	if now == nil {
		now = time.Now
	}
	return &QuoteCache{
		entries: make(map[string]quoteEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached quote if it is still within its TTL.
func (c *QuoteCache) Get(key string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Quote{}, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, key)
		return Quote{}, false
	}
	return entry.quote, true
}

// Put stores a quote. When the cache is full, expired entries are evicted
// first; if none are expired the whole map is dropped rather than letting it
// grow without bound.
func (c *QuoteCache) Put(key string, q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxQuoteEntries {
		now := c.now()
		for k, e := range c.entries {
			if now.Sub(e.fetchedAt) > c.ttl {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= maxQuoteEntries {
			c.entries = make(map[string]quoteEntry)
		}
	}

	c.entries[key] = quoteEntry{quote: q, fetchedAt: c.now()}
}

type instrumentEntry struct {
	instruments []Instrument
	fetchedAt   time.Time
}

// InstrumentCache caches the per-exchange instrument master dump.
type InstrumentCache struct {
	mu      sync.Mutex
	entries map[string]instrumentEntry
	ttl     time.Duration
	now     Clock
}

// NewInstrumentCache creates an instrument cache. A nil clock uses time.Now.
func NewInstrumentCache(ttl time.Duration, now Clock) *InstrumentCache {
	if now == nil {
		now = time.Now
	}
	return &InstrumentCache{
		entries: make(map[string]instrumentEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached dump for an exchange if it is still fresh.
func (c *InstrumentCache) Get(exchange string) ([]Instrument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[exchange]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, exchange)
		return nil, false
	}
	return entry.instruments, true
}

// Put stores an exchange's instrument dump.
func (c *InstrumentCache) Put(exchange string, instruments []Instrument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[exchange] = instrumentEntry{instruments: instruments, fetchedAt: c.now()}
}
