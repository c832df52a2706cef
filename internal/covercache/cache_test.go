package covercache

import (
	"fmt"
	"sync"
	"testing"
)

func TestCacheBasics(t *testing.T) {
	cache, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, ok := cache.Get("missing.mp3"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	entry := Entry{Data: []byte{0xFF, 0xD8}, Format: "image/jpeg"}
	cache.Put("song.mp3", entry)

	got, ok := cache.Get("song.mp3")
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got.Format != "image/jpeg" || len(got.Data) != 2 {
		t.Errorf("got entry %+v, want %+v", got, entry)
	}
}

func TestCacheEviction(t *testing.T) {
	cache, err := New(2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cache.Put("a.mp3", Entry{Format: "image/png"})
	cache.Put("b.mp3", Entry{Format: "image/png"})
	cache.Put("c.mp3", Entry{Format: "image/png"})

	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("a.mp3"); ok {
		t.Error("oldest entry survived past capacity")
	}
	if _, ok := cache.Get("c.mp3"); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	cache, err := New(0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < DefaultCapacity+10; i++ {
		cache.Put(fmt.Sprintf("file%d.mp3", i), Entry{Format: "image/jpeg"})
	}
	if cache.Len() != DefaultCapacity {
		t.Errorf("Len = %d, want %d", cache.Len(), DefaultCapacity)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache, err := New(64)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("file%d.mp3", n%8)
			cache.Put(key, Entry{Data: []byte{byte(n)}, Format: "image/jpeg"})
			if entry, ok := cache.Get(key); ok && entry.Format != "image/jpeg" {
				t.Errorf("unexpected format %q", entry.Format)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 8 {
		t.Errorf("Len = %d, want at most 8", cache.Len())
	}
}
