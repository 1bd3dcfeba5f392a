package audio

import (
	"errors"
	"fmt"
	"time"
)

// Audio format constants for synthesized speech.
// OpenAI returns raw PCM as 24kHz signed 16-bit little-endian mono, so the
// timeline uses the same layout and raw responses need no conversion.
const (
	// SampleRate is the timeline sample rate in Hz
	SampleRate = 24000
	// Channels is the number of audio channels (1 = mono)
	Channels = 1
	// BitDepth is the bit depth per sample (16-bit)
	BitDepth = 16
)

// ErrFormatMismatch is returned when two buffers with different layouts are joined.
var ErrFormatMismatch = errors.New("pcm format mismatch")

// Format describes a signed little-endian PCM layout.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the timeline PCM format.
func DefaultFormat() Format {
	return Format{
		SampleRate: SampleRate,
		Channels:   Channels,
		BitDepth:   BitDepth,
	}
}

// FrameSize returns the number of bytes in one sample frame (all channels).
func (f Format) FrameSize() int {
	return f.BitDepth / 8 * f.Channels
}

// SamplesFor converts a duration to a whole number of sample frames,
// rounding down.
func (f Format) SamplesFor(d time.Duration) int {
	if d <= 0 || f.SampleRate <= 0 {
		return 0
	}
	return int(int64(d) * int64(f.SampleRate) / int64(time.Second))
}

// DurationOf converts a number of sample frames to a duration.
func (f Format) DurationOf(samples int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(f.SampleRate))
}

// Validate checks the format is usable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d (only 16-bit PCM)", f.BitDepth)
	}
	return nil
}

// String renders the format the way ffmpeg would describe it.
func (f Format) String() string {
	return fmt.Sprintf("s%dle %dHz %dch", f.BitDepth, f.SampleRate, f.Channels)
}

// PCM is a growable buffer of raw audio frames.
type PCM struct {
	Format Format
	Data   []byte
}

// NewPCM wraps raw data, rejecting data that is not frame aligned.
func NewPCM(format Format, data []byte) (PCM, error) {
	if err := format.Validate(); err != nil {
		return PCM{}, err
	}
	if len(data)%format.FrameSize() != 0 {
		return PCM{}, fmt.Errorf("PCM data length %d is not aligned to %d-byte frames",
			len(data), format.FrameSize())
	}
	return PCM{Format: format, Data: data}, nil
}

// Silence returns a zeroed buffer of the given duration.
func Silence(format Format, d time.Duration) PCM {
	return PCM{
		Format: format,
		Data:   make([]byte, format.SamplesFor(d)*format.FrameSize()),
	}
}

// Samples returns the number of sample frames held.
func (p PCM) Samples() int {
	size := p.Format.FrameSize()
	if size == 0 {
		return 0
	}
	return len(p.Data) / size
}

// Duration returns the playback length of the buffer.
func (p PCM) Duration() time.Duration {
	return p.Format.DurationOf(p.Samples())
}

// Len returns the size of the buffer in bytes.
func (p PCM) Len() int {
	return len(p.Data)
}

// AppendSilence extends the buffer by n zeroed sample frames.
func (p *PCM) AppendSilence(samples int) {
	if samples <= 0 {
		return
	}
	p.Data = append(p.Data, make([]byte, samples*p.Format.FrameSize())...)
}

// Append copies other onto the end of the buffer.
func (p *PCM) Append(other PCM) error {
	if other.Format != p.Format {
		return fmt.Errorf("%w: %s vs %s", ErrFormatMismatch, p.Format, other.Format)
	}
	p.Data = append(p.Data, other.Data...)
	return nil
}

// Grow reserves capacity for at least n more sample frames.
func (p *PCM) Grow(samples int) {
	need := len(p.Data) + samples*p.Format.FrameSize()
	if samples <= 0 || need <= cap(p.Data) {
		return
	}
	grown := make([]byte, len(p.Data), need)
	copy(grown, p.Data)
	p.Data = grown
}
