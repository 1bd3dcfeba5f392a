package tts

import (
	"context"
)

// Synthesizer converts text to an encoded audio clip.
// Implementations include the OpenAI speech API (online) and a mock engine
// for dry runs. A call blocks until the clip is ready or ctx is done.
type Synthesizer interface {
	// Synthesize speaks req.Text in req.Voice.
	Synthesize(ctx context.Context, req Request) (*Clip, error)

	// Info returns engine capabilities and configuration.
	Info() EngineInfo
}

// Request is one line of text to speak.
type Request struct {
	Text  string
	Voice Voice
}

// Clip is synthesized speech as returned by the engine.
type Clip struct {
	Data      []byte
	Container string // "pcm", "mp3", "opus", "aac", "flac" or "wav"

	// Cached is set when the clip came from the clip cache
	Cached bool
}

// EngineInfo describes engine capabilities and configuration.
type EngineInfo struct {
	Name        string  // Engine name (e.g., "openai", "mock")
	Model       string  // Model identifier
	Speed       float64 // Speaking rate multiplier
	Container   string  // Response container
	MaxTextSize int     // Maximum text size in characters
	IsOnline    bool    // Whether the engine requires network access
}

// EngineType identifies a synthesizer implementation.
type EngineType string

const (
	EngineOpenAI EngineType = "openai"
	EngineMock   EngineType = "mock"
)

// ParseEngine validates an engine name.
func ParseEngine(name string) (EngineType, error) {
	switch EngineType(name) {
	case EngineOpenAI, "":
		return EngineOpenAI, nil
	case EngineMock:
		return EngineMock, nil
	default:
		return "", NewError(ErrorCodeInvalidInput, "unknown engine "+name+" (supported: openai, mock)", ErrInvalidEngine)
	}
}
