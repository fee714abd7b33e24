package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[*domain.Summary](5 * time.Minute)
	defer c.Close()

	c.Set("summary:user-1", &domain.Summary{Income: 100, Expenses: 40, Savings: 60})

	got, ok := c.Get("summary:user-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if got.Savings != 60 {
		t.Errorf("expected savings 60, got %v", got.Savings)
	}

	if _, ok := c.Get("summary:user-2"); ok {
		t.Fatal("expected cache miss for another user")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](40 * time.Millisecond)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := cache.New[int](time.Minute)
	defer c.Close()

	c.Set("analytics:u1:summary", 1)
	c.Set("analytics:u1:trends", 2)
	c.Set("analytics:u2:summary", 3)

	c.DeletePrefix("analytics:u1:")

	if _, ok := c.Get("analytics:u1:summary"); ok {
		t.Error("expected u1 summary to be removed")
	}
	if _, ok := c.Get("analytics:u1:trends"); ok {
		t.Error("expected u1 trends to be removed")
	}
	if v, ok := c.Get("analytics:u2:summary"); !ok || v != 3 {
		t.Error("expected u2 entry to survive")
	}

	c.Delete("analytics:u2:summary")
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestCache_ZeroTTLDisablesCaching(t *testing.T) {
	c := cache.New[string](0)
	defer c.Close()

	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatal("zero TTL must not store entries")
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
