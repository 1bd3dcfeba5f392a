package tts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Store is the subset of the clip cache the Cached synthesizer needs.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Cached serves repeated lines from a Store instead of the engine.
type Cached struct {
	next  Synthesizer
	store Store
}

// NewCached wraps next with store.
func NewCached(next Synthesizer, store Store) *Cached {
	return &Cached{next: next, store: store}
}

// Synthesize returns a stored clip when one exists for the same text, voice
// and engine settings, and stores fresh clips otherwise.
func (c *Cached) Synthesize(ctx context.Context, req Request) (*Clip, error) {
	key := CacheKey(c.next.Info(), req)
	if raw, ok := c.store.Get(key); ok {
		if clip, err := decodeEntry(raw); err == nil {
			log.Debug("Cache hit", "key", key, "size", len(clip.Data))
			clip.Cached = true
			return clip, nil
		}
		log.Debug("Discarding corrupt cache entry", "key", key)
	}

	clip, err := c.next.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(key, encodeEntry(clip)); err != nil {
		// caching is best effort
		log.Debug("Cache put failed", "key", key, "error", err)
	}
	return clip, nil
}

// Info returns the wrapped engine's info.
func (c *Cached) Info() EngineInfo {
	return c.next.Info()
}

// CacheKey derives the cache key for a request on an engine.
func CacheKey(info EngineInfo, req Request) string {
	data := fmt.Sprintf("%s|%s|%s|%.2f|%s|%s",
		info.Name, info.Model, req.Voice, info.Speed, info.Container, strings.TrimSpace(req.Text))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// entries are "<container>\x00<data>"
func encodeEntry(clip *Clip) []byte {
	out := make([]byte, 0, len(clip.Container)+1+len(clip.Data))
	out = append(out, clip.Container...)
	out = append(out, 0)
	return append(out, clip.Data...)
}

func decodeEntry(raw []byte) (*Clip, error) {
	i := bytes.IndexByte(raw, 0)
	if i <= 0 {
		return nil, fmt.Errorf("cache entry missing container header")
	}
	return &Clip{Container: string(raw[:i]), Data: raw[i+1:]}, nil
}
