package cache

import (
	"sync"
	"testing"
	"time"
)

func TestTTLCacheStartsExpired(t *testing.T) {
	c := New[string, Entry](5 * time.Minute)
	if !c.IsExpired() {
		t.Error("fresh cache should read as expired until first Set")
	}
	if c.Len() != 0 {
		t.Errorf("fresh cache has %d entries", c.Len())
	}
}

func TestTTLCacheSetAndGet(t *testing.T) {
	c := New[string, Entry](time.Minute)
	c.Set("abc123", Entry{Output: "# Title", LossClass: "L1"})

	got, ok := c.Get("abc123")
	if !ok {
		t.Fatal("Get missed an entry just written")
	}
	if got.Output != "# Title" || got.LossClass != "L1" {
		t.Errorf("Get = %+v", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get hit an absent key")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := New[string, Entry](50 * time.Millisecond)
	c.Set("k", Entry{Output: "x"})

	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry missing before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("entry readable after expiry")
	}
	if !c.IsExpired() {
		t.Error("IsExpired false after TTL elapsed")
	}
}

func TestTTLCacheSetAllAndGetAll(t *testing.T) {
	c := New[string, string](time.Minute)

	if c.GetAll() != nil {
		t.Error("GetAll on a never-written cache should be nil")
	}

	data := map[string]string{"k1": "one", "k2": "two", "k3": "three"}
	c.SetAll(data)

	all := c.GetAll()
	if len(all) != len(data) {
		t.Fatalf("GetAll returned %d entries, want %d", len(all), len(data))
	}
	for k, want := range data {
		if all[k] != want {
			t.Errorf("GetAll[%q] = %q, want %q", k, all[k], want)
		}
	}

	// The copy must be detached from the cache.
	all["k1"] = "mutated"
	if v, _ := c.Get("k1"); v == "mutated" {
		t.Error("mutating the GetAll copy changed the cache")
	}
}

func TestTTLCacheGetAllExpired(t *testing.T) {
	c := New[string, string](50 * time.Millisecond)
	c.SetAll(map[string]string{"k": "v"})

	if c.GetAll() == nil {
		t.Fatal("GetAll nil before expiry")
	}
	time.Sleep(60 * time.Millisecond)
	if c.GetAll() != nil {
		t.Error("GetAll non-nil after expiry")
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := New[string, string](time.Minute)
	c.SetAll(map[string]string{"k1": "one", "k2": "two"})

	c.Invalidate()

	if c.Len() != 0 {
		t.Errorf("invalidated cache holds %d entries", c.Len())
	}
	if !c.IsExpired() {
		t.Error("invalidated cache should read as expired")
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("Get hit after Invalidate")
	}
}

func TestTTLCacheTimestampAdvances(t *testing.T) {
	c := New[string, int](time.Minute)

	c.Set("a", 1)
	first := c.timestamp
	time.Sleep(10 * time.Millisecond)

	c.Set("b", 2)
	if !c.timestamp.After(first) {
		t.Error("Set did not advance the timestamp")
	}

	second := c.timestamp
	time.Sleep(10 * time.Millisecond)
	c.SetAll(map[string]int{"c": 3})
	if !c.timestamp.After(second) {
		t.Error("SetAll did not advance the timestamp")
	}
}

func TestTTLCacheZeroValue(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("zero", 0)
	v, ok := c.Get("zero")
	if !ok || v != 0 {
		t.Errorf("Get(zero) = %d, %v; want 0, true", v, ok)
	}
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	c := New[int, string](time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Set(n, "output")
		}(i)
		go func(n int) {
			defer wg.Done()
			c.Get(n)
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Invalidate()
		}()
	}
	wg.Wait()
}
