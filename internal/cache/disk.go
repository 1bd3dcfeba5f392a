package cache

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
)

const (
	indexName = "clips.index"
	lockName  = ".lock"
	clipExt   = ".clip"
)

// DiskCache is the persistent level. Values are zstd compressed when that
// saves space, and a gob index tracks sizes and access times. The directory
// is held under an exclusive file lock until Close.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder
	lock    *flock.Flock

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

// diskEntry is persisted in the index, so fields are exported for gob.
type diskEntry struct {
	Key          string
	File         string // base name inside dir
	Size         int64  // bytes on disk
	OriginalSize int64
	Created      time.Time
	LastAccess   time.Time
	Compressed   bool
}

// NewDiskCache opens (or creates) the cache in config.Dir.
func NewDiskCache(config Config) (*DiskCache, error) {
	if err := os.MkdirAll(config.Dir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(config.Dir, lockName))
	timeout := config.LockTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("failed to lock cache directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, config.Dir)
	}

	dc := &DiskCache{
		dir:      config.Dir,
		capacity: config.DiskCapacity,
		lock:     lock,
		index:    make(map[string]*diskEntry),
	}

	if config.CompressionLevel > 0 {
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(config.CompressionLevel)))
		if err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// entries written with compression stay readable after it is turned off
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		log.Warn("Discarding unreadable cache index", "dir", config.Dir, "error", err)
		dc.index = make(map[string]*diskEntry)
	}
	for _, entry := range dc.index {
		dc.size += entry.Size
	}
	if config.TTL > 0 {
		if n := dc.removeOlderThan(time.Now().Add(-config.TTL)); n > 0 {
			log.Debug("Expired cache entries", "count", n)
		}
	}

	return dc, nil
}

// Get retrieves a value from disk.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(dc.dir, entry.File))
	if err == nil && entry.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		// missing or corrupt, forget it
		dc.removeEntry(entry)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.stats.Hits++
	return data, true
}

// Put writes a value to disk and records it in the index.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data, compressed := value, false
	if dc.encoder != nil && len(value) > 1024 {
		if packed := dc.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	n := int64(len(data))
	if n > dc.capacity {
		return ErrItemTooLarge
	}
	if existing, ok := dc.index[key]; ok {
		dc.removeEntry(existing)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	name := fileName(key)
	if err := writeFileAtomic(filepath.Join(dc.dir, name), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &diskEntry{
		Key:          key,
		File:         name,
		Size:         n,
		OriginalSize: int64(len(value)),
		Created:      now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	dc.size += n

	return dc.saveIndex()
}

// Contains checks if a key is indexed without touching the file.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[key]
	return ok
}

// Clear removes every cache file, including orphans missing from the index.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(dc.dir, "*"+clipExt))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	dc.index = make(map[string]*diskEntry)
	dc.size = 0
	return dc.saveIndex()
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Capacity = dc.capacity
	stats.Size = dc.size
	stats.Items = len(dc.index)
	return stats
}

// Dir returns the cache directory.
func (dc *DiskCache) Dir() string {
	return dc.dir
}

// Close saves the index and releases the directory lock.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	err := dc.saveIndex()
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	dc.decoder.Close()
	if unlockErr := dc.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Private helper methods

func (dc *DiskCache) removeEntry(entry *diskEntry) {
	_ = os.Remove(filepath.Join(dc.dir, entry.File))
	dc.size -= entry.Size
	delete(dc.index, entry.Key)
}

func (dc *DiskCache) evictOldest() {
	var oldest *diskEntry
	for _, entry := range dc.index {
		if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
			oldest = entry
		}
	}
	if oldest != nil {
		dc.removeEntry(oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) removeOlderThan(cutoff time.Time) int {
	var expired []*diskEntry
	for _, entry := range dc.index {
		if entry.Created.Before(cutoff) {
			expired = append(expired, entry)
		}
	}
	for _, entry := range expired {
		dc.removeEntry(entry)
	}
	if len(expired) > 0 {
		_ = dc.saveIndex()
	}
	return len(expired)
}

// Keys returns indexed keys, least recently used first.
func (dc *DiskCache) Keys() []string {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entries := make([]*diskEntry, 0, len(dc.index))
	for _, entry := range dc.index {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return keys
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + clipExt
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (dc *DiskCache) loadIndex() error {
	file, err := os.Open(filepath.Join(dc.dir, indexName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck

	return gob.NewDecoder(file).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.dir, indexName)
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(file).Encode(dc.index)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
