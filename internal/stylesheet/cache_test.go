package stylesheet

import (
	"sync"
	"testing"
)

func TestCache_ComputesOnce(t *testing.T) {
	cache := NewCache()
	calls := 0
	compute := func() (Stylesheet, error) {
		calls++
		return Compose("roman", Overrides{})
	}

	a, err := cache.Get("k", compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := cache.Get("k", compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 compute call, got %d", calls)
	}
	if a.CSS != b.CSS {
		t.Error("expected identical cached stylesheets")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", cache.Len())
	}
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	cache := NewCache()
	calls := 0
	failing := func() (Stylesheet, error) {
		calls++
		return Stylesheet{}, &UnknownSpecializationError{Name: "nope"}
	}

	if _, err := cache.Get("bad", failing); err == nil {
		t.Fatal("expected error")
	}
	if _, err := cache.Get("bad", failing); err == nil {
		t.Fatal("expected error on second call too")
	}
	if calls != 2 {
		t.Errorf("expected compute to run twice, got %d", calls)
	}
	if cache.Len() != 0 {
		t.Errorf("expected no cache entries, got %d", cache.Len())
	}
}

func TestCache_ConcurrentSameKey(t *testing.T) {
	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sheet, err := cache.Get("shared", func() (Stylesheet, error) {
				return Compose("technical", Overrides{})
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if sheet.Specialization != "technical" {
				t.Errorf("unexpected specialization %q", sheet.Specialization)
			}
		}()
	}
	wg.Wait()
	if cache.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", cache.Len())
	}
}

func TestComposer_CacheHitsAcrossEquivalentRequests(t *testing.T) {
	cache := NewCache()
	composer := NewComposer(cache)

	a, err := composer.Compose("roman", Overrides{FontSize: "12pt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := composer.Compose("roman", Overrides{FontSize: "12pt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Key != b.Key || a.CSS != b.CSS {
		t.Error("equivalent requests should share one composition")
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", cache.Len())
	}

	// The explicit default and the implicit default are the same key.
	c, err := composer.Compose("roman", Overrides{FontSize: "12pt", TOCStyle: TOCDots, TOCDepth: 3, TOCPosition: TOCFront})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Key != a.Key {
		t.Errorf("expected explicit defaults to hit the same entry, got %q vs %q", c.Key, a.Key)
	}
}
