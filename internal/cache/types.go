package cache

import (
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrLocked is returned when another process holds the cache directory
	ErrLocked = errors.New("cache directory is locked by another process")
)

// Level represents the cache tier
type Level int

const (
	// LevelMemory is the in-process LRU (fastest)
	LevelMemory Level = iota

	// LevelDisk is the persistent compressed store
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache counters for one level.
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size in bytes
	Items     int   // Number of entries
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config holds configuration for a ClipCache.
type Config struct {
	// MemoryCapacity bounds the in-memory level in bytes
	MemoryCapacity int64

	// DiskCapacity bounds the on-disk level in bytes (compressed size)
	DiskCapacity int64

	// Dir holds cache files; empty disables the disk level
	Dir string

	// CompressionLevel is the zstd level (1-22, 0 disables compression)
	CompressionLevel int

	// TTL drops disk entries older than this on open (0 keeps forever)
	TTL time.Duration

	// LockTimeout bounds the wait for the directory lock
	LockTimeout time.Duration
}

// DefaultConfig returns the default cache configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   64 * 1024 * 1024,  // 64MB
		DiskCapacity:     512 * 1024 * 1024, // 512MB
		Dir:              dir,
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
		LockTimeout:      5 * time.Second,
	}
}
