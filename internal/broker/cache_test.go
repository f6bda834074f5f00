package broker

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestQuoteCache(t *testing.T) {
	t.Run("hit within ttl", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
		cache := NewQuoteCache(60*time.Second, clock.Now)

		cache.Put("NSE:RELIANCE", Quote{LastPrice: 2500})

		clock.Advance(30 * time.Second)
		quote, ok := cache.Get("NSE:RELIANCE")
		if !ok {
			t.Fatal("Expected a cache hit within the TTL")
		}
		if quote.LastPrice != 2500 {
			t.Errorf("Expected last price 2500, got %f", quote.LastPrice)
		}
	})

	t.Run("miss after ttl", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
		cache := NewQuoteCache(60*time.Second, clock.Now)

		cache.Put("NSE:RELIANCE", Quote{LastPrice: 2500})

		clock.Advance(61 * time.Second)
		if _, ok := cache.Get("NSE:RELIANCE"); ok {
			t.Error("Expected the entry to expire after the TTL")
		}
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		cache := NewQuoteCache(60*time.Second, nil)

		if _, ok := cache.Get("NSE:UNKNOWN"); ok {
			t.Error("Expected a miss for an unknown key")
		}
	})

	t.Run("put replaces the previous entry", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
		cache := NewQuoteCache(60*time.Second, clock.Now)

		cache.Put("NSE:RELIANCE", Quote{LastPrice: 2500})
		cache.Put("NSE:RELIANCE", Quote{LastPrice: 2510})

		quote, ok := cache.Get("NSE:RELIANCE")
		if !ok {
			t.Fatal("Expected a cache hit")
		}
		if quote.LastPrice != 2510 {
			t.Errorf("Expected the replaced price 2510, got %f", quote.LastPrice)
		}
	})

	t.Run("evicts expired entries when full", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
		cache := NewQuoteCache(60*time.Second, clock.Now)

		for i := 0; i < maxQuoteEntries; i++ {
			cache.Put(fmt.Sprintf("NSE:S%d", i), Quote{LastPrice: float64(i)})
		}

		// All existing entries are now stale; the next put evicts them.
		clock.Advance(61 * time.Second)
		cache.Put("NSE:FRESH", Quote{LastPrice: 100})

		if _, ok := cache.Get("NSE:S0"); ok {
			t.Error("Expected stale entries to be evicted")
		}
		if _, ok := cache.Get("NSE:FRESH"); !ok {
			t.Error("Expected the fresh entry to survive eviction")
		}
	})

	t.Run("drops everything when full of fresh entries", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
		cache := NewQuoteCache(60*time.Second, clock.Now)

		for i := 0; i < maxQuoteEntries; i++ {
			cache.Put(fmt.Sprintf("NSE:S%d", i), Quote{LastPrice: float64(i)})
		}

		cache.Put("NSE:OVERFLOW", Quote{LastPrice: 100})

		if _, ok := cache.Get("NSE:OVERFLOW"); !ok {
			t.Error("Expected the overflow entry to be stored")
		}
		if len(cache.entries) != 1 {
			t.Errorf("Expected the cache reset to a single entry, got %d", len(cache.entries))
		}
	})
}

func TestInstrumentCache(t *testing.T) {
	t.Run("per exchange with ttl", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}
		cache := NewInstrumentCache(24*time.Hour, clock.Now)

		cache.Put("NSE", []Instrument{{TradingSymbol: "RELIANCE", Exchange: "NSE"}})

		instruments, ok := cache.Get("NSE")
		if !ok || len(instruments) != 1 {
			t.Fatalf("Expected one cached instrument, got ok=%v len=%d", ok, len(instruments))
		}

		if _, ok := cache.Get("BSE"); ok {
			t.Error("Expected no dump cached for BSE")
		}

		clock.Advance(25 * time.Hour)
		if _, ok := cache.Get("NSE"); ok {
			t.Error("Expected the dump to expire after a day")
		}
	})
}
