package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ChannelInfo is the subset of channel metadata worth caching between runs.
type ChannelInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	SubscriberCount int64  `json:"subscriber_count,omitempty"`
}

type cacheEntry struct {
	Data     ChannelInfo `json:"data"`
	CachedAt time.Time   `json:"cached_at"`
}

// ChannelCache is a persistent TTL cache of channel metadata keyed by channel
// id. Entries older than the TTL are treated as absent on read and refreshed
// by the next writer. Writes replace the whole file atomically (temp file +
// rename), so concurrent runs can at worst lose an update, never corrupt the
// file. Pipeline correctness does not depend on the cache; only quota usage
// does.
type ChannelCache struct {
	filePath string
	ttl      time.Duration
	mu       sync.RWMutex
	entries  map[string]cacheEntry
}

// NewChannelCache loads (or initializes) the cache file under dataDir.
func NewChannelCache(dataDir string, ttl time.Duration) (*ChannelCache, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &ChannelCache{
		filePath: filepath.Join(dataDir, "channel_cache.json"),
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load channel cache: %w", err)
	}
	return c, nil
}

// Get returns the cached info for a channel if present and fresh.
func (c *ChannelCache) Get(channelID string) (ChannelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[channelID]
	if !exists || time.Since(entry.CachedAt) >= c.ttl {
		return ChannelInfo{}, false
	}
	return entry.Data, true
}

// Put stores fresh channel info and persists the cache.
func (c *ChannelCache) Put(info ChannelInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[info.ID] = cacheEntry{Data: info, CachedAt: time.Now()}
	return c.save()
}

// Len counts entries including stale ones still awaiting refresh.
func (c *ChannelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ChannelCache) load() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &c.entries)
}

// save writes the full entry map to a temp file and renames it over the cache
// file. Rename is atomic on POSIX filesystems, so readers always see either
// the old or the new cache, never a partial write.
func (c *ChannelCache) save() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.filePath), ".channel-cache-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.filePath)
}
