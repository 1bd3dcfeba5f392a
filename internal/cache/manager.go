package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// ClipCache coordinates the memory and disk levels. Lookups check memory
// first and promote disk hits; writes go to both levels synchronously.
type ClipCache struct {
	memory *MemoryCache
	disk   *DiskCache // nil when running memory-only

	mu    sync.Mutex
	stats struct {
		memoryHits int64
		diskHits   int64
		misses     int64
	}
}

// Summary reports combined statistics for both levels.
type Summary struct {
	Memory     Stats
	Disk       Stats
	DiskDir    string
	MemoryHits int64
	DiskHits   int64
	Misses     int64
}

// Hits returns the total number of hits across levels.
func (s Summary) Hits() int64 {
	return s.MemoryHits + s.DiskHits
}

// Open creates a clip cache. With an empty config.Dir, or when the disk
// level cannot be opened because another process holds it, the cache runs
// memory-only.
func Open(config Config) (*ClipCache, error) {
	cc := &ClipCache{memory: NewMemoryCache(config.MemoryCapacity)}
	if config.Dir == "" {
		return cc, nil
	}

	disk, err := NewDiskCache(config)
	switch {
	case errors.Is(err, ErrLocked):
		log.Warn("Clip cache is in use by another run, continuing without disk cache", "dir", config.Dir)
		return cc, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open disk cache: %w", err)
	}
	cc.disk = disk
	return cc, nil
}

// Get retrieves a clip entry.
func (cc *ClipCache) Get(key string) ([]byte, bool) {
	if data, ok := cc.memory.Get(key); ok {
		cc.count(LevelMemory)
		return data, true
	}
	if cc.disk != nil {
		if data, ok := cc.disk.Get(key); ok {
			cc.count(LevelDisk)
			if err := cc.memory.Put(key, data); err != nil {
				log.Debug("Skipping promotion to memory cache", "key", key, "error", err)
			}
			return data, true
		}
	}

	cc.mu.Lock()
	cc.stats.misses++
	cc.mu.Unlock()
	return nil, false
}

// Put stores a clip entry in every level that can hold it.
func (cc *ClipCache) Put(key string, value []byte) error {
	memErr := cc.memory.Put(key, value)
	if memErr != nil && !errors.Is(memErr, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", memErr)
	}
	if cc.disk == nil {
		return memErr
	}
	if err := cc.disk.Put(key, value); err != nil {
		return fmt.Errorf("disk cache: %w", err)
	}
	return nil
}

// Clear empties both levels.
func (cc *ClipCache) Clear() error {
	cc.memory.Clear()
	if cc.disk != nil {
		return cc.disk.Clear()
	}
	return nil
}

// Summary returns statistics for both levels.
func (cc *ClipCache) Summary() Summary {
	cc.mu.Lock()
	s := Summary{
		MemoryHits: cc.stats.memoryHits,
		DiskHits:   cc.stats.diskHits,
		Misses:     cc.stats.misses,
	}
	cc.mu.Unlock()

	s.Memory = cc.memory.Stats()
	if cc.disk != nil {
		s.Disk = cc.disk.Stats()
		s.DiskDir = cc.disk.Dir()
	}
	return s
}

// Persistent reports whether the disk level is active.
func (cc *ClipCache) Persistent() bool {
	return cc.disk != nil
}

// Close flushes the disk index and releases its lock.
func (cc *ClipCache) Close() error {
	if cc.disk != nil {
		return cc.disk.Close()
	}
	return nil
}

func (cc *ClipCache) count(level Level) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch level {
	case LevelMemory:
		cc.stats.memoryHits++
	case LevelDisk:
		cc.stats.diskHits++
	}
}
