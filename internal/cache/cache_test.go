// file: internal/cache/cache_test.go
// version: 1.1.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package cache

import (
	"errors"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 42)
	v, ok := c.Get("a")
	if !ok || v != 42 {
		t.Fatalf("Get(a) = %d, %v; want 42, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report absent")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[string](time.Minute)
	c.SetWithTTL("k", "v", -time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestCacheGetOrLoad(t *testing.T) {
	c := New[string](time.Minute)
	calls := 0
	load := func() (string, error) {
		calls++
		return "loaded", nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("k", load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "loaded" {
			t.Fatalf("got %q", v)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
}

func TestCacheGetOrLoadError(t *testing.T) {
	c := New[string](time.Minute)
	wantErr := errors.New("boom")
	_, err := c.GetOrLoad("k", func() (string, error) { return "", wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed load must not cache a value")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("invalidated key still present")
	}
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("InvalidateAll left %d entries", c.Len())
	}
}
