package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testInfo() ChannelInfo {
	return ChannelInfo{
		ID:              "UC123",
		Title:           "Gopher Academy",
		SubscriberCount: 42000,
	}
}

func TestChannelCachePutGet(t *testing.T) {
	cache, err := NewChannelCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewChannelCache failed: %v", err)
	}

	if _, ok := cache.Get("UC123"); ok {
		t.Error("expected a miss on an empty cache")
	}

	if err := cache.Put(testInfo()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, ok := cache.Get("UC123")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if info.Title != "Gopher Academy" || info.SubscriberCount != 42000 {
		t.Errorf("got %+v", info)
	}
}

func TestChannelCacheTTLExpiry(t *testing.T) {
	cache, err := NewChannelCache(t.TempDir(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewChannelCache failed: %v", err)
	}

	if err := cache.Put(testInfo()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("UC123"); ok {
		t.Error("expected a miss after TTL expiry")
	}
	if cache.Len() != 1 {
		t.Errorf("stale entry should remain until refreshed, Len = %d", cache.Len())
	}
}

func TestChannelCachePersistence(t *testing.T) {
	dir := t.TempDir()

	first, err := NewChannelCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewChannelCache failed: %v", err)
	}
	if err := first.Put(testInfo()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	second, err := NewChannelCache(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewChannelCache (reload) failed: %v", err)
	}
	info, ok := second.Get("UC123")
	if !ok {
		t.Fatal("expected the entry to survive a reload")
	}
	if info.Title != "Gopher Academy" {
		t.Errorf("got %+v", info)
	}
}

func TestChannelCacheCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "channel_cache.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewChannelCache(dir, time.Hour); err == nil {
		t.Error("expected an error for a corrupt cache file")
	}
}
