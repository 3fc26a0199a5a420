package cache

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *clock) {
	clk := &clock{t: time.Date(2023, 5, 20, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clk.t = clk.t.Add(2 * time.Minute)
	c.Set("c", "3")

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("fresh entry was removed")
	}

	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("c"); ok {
		t.Fatal("expired entry returned")
	}
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key still present")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("d", "4")
	if v, ok := c.Get("d"); !ok || v != "4" {
		t.Fatal("cache unusable after purge")
	}
}

func TestManagerCleanNowAndStop(t *testing.T) {
	c, clk := newTestCache(10, time.Second)
	c.Set("a", "1")
	clk.t = clk.t.Add(time.Minute)

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(time.Hour)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow = %d, want 1", n)
	}
	m.Stop()
	m.Stop()
}
