package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(1024)

	key := "test-key"
	value := []byte("test-value")

	if err := cache.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(retrieved) != string(value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", retrieved, value)
	}
	if !cache.Contains(key) {
		t.Error("Contains returned false for existing key")
	}
	if got := cache.Stats().Size; got != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", got, len(value))
	}

	cache.Delete(key)
	if cache.Contains(key) {
		t.Error("Key still exists after delete")
	}
	if got := cache.Stats().Size; got != 0 {
		t.Errorf("Size not zero after delete: %d", got)
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(100)

	for i := 0; i < 5; i++ {
		if err := cache.Put(fmt.Sprintf("key-%d", i), make([]byte, 20)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// key-0 and key-1 become most recently used
	cache.Get("key-0")
	cache.Get("key-1")

	if err := cache.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed for new key: %v", err)
	}

	// 130 bytes needed 100: key-2 and key-3 go
	for _, evicted := range []string{"key-2", "key-3"} {
		if cache.Contains(evicted) {
			t.Errorf("%s should have been evicted", evicted)
		}
	}
	for _, kept := range []string{"key-0", "key-1", "key-4", "key-new"} {
		if !cache.Contains(kept) {
			t.Errorf("%s should still be cached", kept)
		}
	}

	stats := cache.Stats()
	if stats.Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", stats.Evictions)
	}
	if stats.Size > 100 {
		t.Errorf("Size %d exceeds capacity", stats.Size)
	}
}

func TestMemoryCache_UpdateExisting(t *testing.T) {
	cache := NewMemoryCache(100)
	_ = cache.Put("k", make([]byte, 10))
	_ = cache.Put("k", make([]byte, 40))

	stats := cache.Stats()
	if stats.Size != 40 || stats.Items != 1 {
		t.Errorf("after update: size=%d items=%d", stats.Size, stats.Items)
	}
}

func TestMemoryCache_ItemTooLarge(t *testing.T) {
	cache := NewMemoryCache(10)
	if err := cache.Put("big", make([]byte, 11)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(100)
	_ = cache.Put("k", []byte("v"))
	cache.Get("k")
	cache.Get("k")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits=%d misses=%d", stats.Hits, stats.Misses)
	}
	if rate := stats.HitRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("HitRate = %v", rate)
	}

	cache.Clear()
	if cache.Stats().Items != 0 {
		t.Error("Clear left entries behind")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(10 * 1024)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				_ = cache.Put(key, make([]byte, 16))
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Stats().Size > 10*1024 {
		t.Error("capacity exceeded under concurrency")
	}
}
