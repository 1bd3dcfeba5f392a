package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// countingEngine returns a fixed clip and counts calls.
type countingEngine struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
	info  EngineInfo
}

func (e *countingEngine) Synthesize(_ context.Context, req Request) (*Clip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, time.Now())
	if e.err != nil {
		return nil, e.err
	}
	return &Clip{Data: []byte("audio:" + req.Text), Container: "pcm"}, nil
}

func (e *countingEngine) Info() EngineInfo {
	if e.info.Name == "" {
		return EngineInfo{Name: "counting", Model: "m", Speed: 1, Container: "pcm"}
	}
	return e.info
}

func (e *countingEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type mapStore struct {
	entries map[string][]byte
	putErr  error
}

func newMapStore() *mapStore {
	return &mapStore{entries: map[string][]byte{}}
}

func (s *mapStore) Get(key string) ([]byte, bool) {
	v, ok := s.entries[key]
	return v, ok
}

func (s *mapStore) Put(key string, value []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[key] = value
	return nil
}

func TestParseVoice(t *testing.T) {
	tests := []struct {
		in      string
		want    Voice
		wantErr bool
	}{
		{"", DefaultVoice, false},
		{"alloy", VoiceAlloy, false},
		{"Shimmer", VoiceShimmer, false},
		{" onyx ", VoiceOnyx, false},
		{"robot", "", true},
	}

	for _, tt := range tests {
		got, err := ParseVoice(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidVoice) {
				t.Errorf("ParseVoice(%q): expected ErrInvalidVoice, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseVoice(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestParseEngine(t *testing.T) {
	if e, err := ParseEngine(""); err != nil || e != EngineOpenAI {
		t.Errorf("empty engine = %q, %v", e, err)
	}
	if e, err := ParseEngine("mock"); err != nil || e != EngineMock {
		t.Errorf("mock engine = %q, %v", e, err)
	}
	if _, err := ParseEngine("piper"); !errors.Is(err, ErrInvalidEngine) {
		t.Errorf("expected ErrInvalidEngine, got %v", err)
	}
}

func TestErrorIs(t *testing.T) {
	cause := errors.New("401")
	auth := NewError(ErrorCodeAuthentication, "bad key", cause)

	if !errors.Is(auth, ErrAuthentication) {
		t.Error("authentication error should match ErrAuthentication")
	}
	if errors.Is(auth, ErrSynthesisFailed) {
		t.Error("authentication error should not match ErrSynthesisFailed")
	}
	if !errors.Is(auth, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if !IsAuthentication(fmt.Errorf("cue 3: %w", auth)) {
		t.Error("IsAuthentication should see through wrapping")
	}

	timeout := NewError(ErrorCodeTimeout, "slow", nil)
	if !errors.Is(timeout, ErrSynthesisFailed) || !timeout.IsRetryable() {
		t.Error("timeouts are retryable synthesis failures")
	}
	if got := timeout.Error(); got != "TIMEOUT: slow" {
		t.Errorf("Error() = %q", got)
	}
}

func TestGateSpacesCalls(t *testing.T) {
	engine := &countingEngine{}
	gate := NewGate(engine, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if _, err := gate.Synthesize(context.Background(), Request{Text: "hi"}); err != nil {
			t.Fatal(err)
		}
	}

	// allow a little scheduler slack
	const minGap = 45 * time.Millisecond
	for i := 1; i < len(engine.calls); i++ {
		if gap := engine.calls[i].Sub(engine.calls[i-1]); gap < minGap {
			t.Errorf("call %d followed the previous after %v", i, gap)
		}
	}
}

func TestGateFirstCallImmediate(t *testing.T) {
	engine := &countingEngine{}
	gate := NewGate(engine, time.Hour)

	start := time.Now()
	if _, err := gate.Synthesize(context.Background(), Request{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Error("first call should not wait")
	}
}

func TestGateCancelled(t *testing.T) {
	engine := &countingEngine{}
	gate := NewGate(engine, time.Hour)
	_, _ = gate.Synthesize(context.Background(), Request{Text: "first"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := gate.Synthesize(ctx, Request{Text: "second"})

	var ttsErr *Error
	if !errors.As(err, &ttsErr) || ttsErr.Code != ErrorCodeCanceled {
		t.Errorf("expected CANCELED error, got %v", err)
	}
	if engine.count() != 1 {
		t.Errorf("engine called %d times", engine.count())
	}
}

func TestGateDisabled(t *testing.T) {
	engine := &countingEngine{}
	gate := NewGate(engine, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, _ = gate.Synthesize(context.Background(), Request{Text: "hi"})
	}
	if time.Since(start) > time.Second {
		t.Error("disabled gate should not wait")
	}
}

func TestCachedHitAndMiss(t *testing.T) {
	engine := &countingEngine{}
	store := newMapStore()
	cached := NewCached(engine, store)
	ctx := context.Background()

	first, err := cached.Synthesize(ctx, Request{Text: "hello", Voice: VoiceAlloy})
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first call should miss")
	}

	second, err := cached.Synthesize(ctx, Request{Text: "hello", Voice: VoiceAlloy})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second call should hit")
	}
	if string(second.Data) != "audio:hello" || second.Container != "pcm" {
		t.Errorf("unexpected cached clip %+v", second)
	}

	// a different voice is a different entry
	if _, err := cached.Synthesize(ctx, Request{Text: "hello", Voice: VoiceEcho}); err != nil {
		t.Fatal(err)
	}
	if engine.count() != 2 {
		t.Errorf("engine called %d times, want 2", engine.count())
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	engine := &countingEngine{err: NewError(ErrorCodeSynthesis, "nope", nil)}
	store := newMapStore()
	cached := NewCached(engine, store)

	if _, err := cached.Synthesize(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if len(store.entries) != 0 {
		t.Error("failures must not be cached")
	}
}

func TestCachedPutFailureIsIgnored(t *testing.T) {
	engine := &countingEngine{}
	store := newMapStore()
	store.putErr = errors.New("disk full")
	cached := NewCached(engine, store)

	clip, err := cached.Synthesize(context.Background(), Request{Text: "x"})
	if err != nil || clip == nil {
		t.Fatalf("put failure should not fail synthesis: %v", err)
	}
}

func TestCachedCorruptEntry(t *testing.T) {
	engine := &countingEngine{}
	store := newMapStore()
	cached := NewCached(engine, store)
	req := Request{Text: "x", Voice: VoiceAlloy}
	store.entries[CacheKey(engine.Info(), req)] = []byte("no header")

	clip, err := cached.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if clip.Cached || engine.count() != 1 {
		t.Error("corrupt entry should fall through to the engine")
	}
}

func TestCacheKey(t *testing.T) {
	info := EngineInfo{Name: "openai", Model: "tts-1", Speed: 1, Container: "pcm"}
	base := CacheKey(info, Request{Text: "hi", Voice: VoiceAlloy})

	if CacheKey(info, Request{Text: " hi ", Voice: VoiceAlloy}) != base {
		t.Error("surrounding whitespace should not change the key")
	}

	hd := info
	hd.Model = "tts-1-hd"
	fast := info
	fast.Speed = 1.5

	for name, key := range map[string]string{
		"text":  CacheKey(info, Request{Text: "ho", Voice: VoiceAlloy}),
		"voice": CacheKey(info, Request{Text: "hi", Voice: VoiceNova}),
		"model": CacheKey(hd, Request{Text: "hi", Voice: VoiceAlloy}),
		"speed": CacheKey(fast, Request{Text: "hi", Voice: VoiceAlloy}),
	} {
		if key == base {
			t.Errorf("changing %s should change the key", name)
		}
	}
	if len(base) != 32 {
		t.Errorf("key length = %d", len(base))
	}
}
