package embedding

import (
	"testing"

	"github.com/hyperjump/latsearch/internal/models"
)

func TestCache_GetSet(t *testing.T) {
	c := NewCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", models.Vector{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", models.Vector{4, 5})
	c.Get("a")
	c.Set("c", models.Vector{6}) // evicts b, the least recently used
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCache_copies(t *testing.T) {
	c := NewCache(1)
	src := models.Vector{1, 2}
	c.Set("k", src)
	src[0] = 9
	got, _ := c.Get("k")
	if got[0] != 1 {
		t.Errorf("cache shares memory with the stored value: %v", got)
	}
	got[1] = 7
	again, _ := c.Get("k")
	if again[1] != 2 {
		t.Errorf("cache shares memory with returned value: %v", again)
	}
}

func TestCache_disabled(t *testing.T) {
	c := NewCache(0)
	c.Set("k", models.Vector{1})
	if _, ok := c.Get("k"); ok {
		t.Error("zero-capacity cache should not store")
	}
}
