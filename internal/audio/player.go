package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player previews a finished track on the default output device using oto.
// oto allows one context per process, so a Player is created once and reused.
type Player struct {
	context *oto.Context
	format  Format

	mu sync.Mutex
}

// NewPlayer opens the audio device for the given PCM format.
func NewPlayer(format Format) (*Player, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}
	if format.Channels != 1 && format.Channels != 2 {
		return nil, fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", format.Channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &Player{context: ctx, format: format}, nil
}

// Play blocks until pcm has finished playing or ctx is done.
func (p *Player) Play(ctx context.Context, pcm PCM) error {
	if pcm.Len() == 0 {
		return errors.New("audio data is empty")
	}
	if pcm.Format != p.format {
		return fmt.Errorf("%w: player is %s, track is %s", ErrFormatMismatch, p.format, pcm.Format)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// pcm.Data stays referenced by the reader until the player is closed
	player := p.context.NewPlayer(bytes.NewReader(pcm.Data))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}
