package engines

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/srttts/internal/audio"
	"github.com/dgnsrekt/srttts/internal/tts"
)

// wordsPerMinute is the speaking rate the mock engine simulates.
const wordsPerMinute = 150

// MockEngine produces raw PCM silence sized like spoken text. It needs no
// network and no key, which makes it useful for dry runs and tests.
type MockEngine struct {
	mu        sync.Mutex
	format    audio.Format
	speed     float64
	delay     time.Duration
	failure   error
	callCount int
}

// NewMockEngine creates a mock engine producing audio in the default format.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		format: audio.DefaultFormat(),
		speed:  1.0,
	}
}

// Synthesize returns silence as long as the text would take to speak.
func (e *MockEngine) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	e.mu.Lock()
	e.callCount++
	delay, failure, speed := e.delay, e.failure, e.speed
	e.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.NewError(tts.ErrorCodeInvalidInput, "nothing to synthesize", tts.ErrEmptyText)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, tts.NewError(tts.ErrorCodeCanceled, "mock synthesis cancelled", ctx.Err())
		}
	}

	pcm := audio.Silence(e.format, EstimateDuration(req.Text, speed))
	return &tts.Clip{Data: pcm.Data, Container: audio.ContainerPCM}, nil
}

// Info returns the mock engine's capabilities.
func (e *MockEngine) Info() tts.EngineInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tts.EngineInfo{
		Name:        string(tts.EngineMock),
		Model:       "silence",
		Speed:       e.speed,
		Container:   audio.ContainerPCM,
		MaxTextSize: 10000,
		IsOnline:    false,
	}
}

// Test control methods

// SetSpeed sets the simulated speaking rate multiplier.
func (e *MockEngine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if speed > 0 {
		e.speed = speed
	}
}

// SetDelay sets the simulated processing delay.
func (e *MockEngine) SetDelay(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = delay
}

// SetFailure makes every following call fail with err. A nil err clears it.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failure = err
}

// CallCount returns the number of Synthesize calls.
func (e *MockEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// EstimateDuration estimates how long text takes to speak at the given rate.
// At least one word is always assumed.
func EstimateDuration(text string, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1.0
	}
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	seconds := float64(words) * 60.0 / (wordsPerMinute * speed)
	return time.Duration(seconds * float64(time.Second))
}

var _ tts.Synthesizer = (*MockEngine)(nil)
