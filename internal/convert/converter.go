// Package convert runs a subtitle file through speech synthesis and writes
// the assembled track.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/srttts/internal/audio"
	"github.com/dgnsrekt/srttts/internal/subtitle"
	"github.com/dgnsrekt/srttts/internal/timeline"
	"github.com/dgnsrekt/srttts/internal/tts"
	"github.com/google/uuid"
)

// Codec decodes synthesizer clips into the track format and encodes the
// finished track. *audio.Codec implements it.
type Codec interface {
	Format() audio.Format
	Decode(ctx context.Context, encoded []byte, container string) (audio.PCM, error)
	EncodeFile(ctx context.Context, pcm audio.PCM, path, container string) error
}

// Options names the files of one run.
type Options struct {
	Input  string
	Output string
}

// Result summarizes a finished run.
type Result struct {
	Input     string
	Output    string
	Container string

	Cues      int // cues in the file
	Spoken    int // cues synthesized into the track
	Skipped   int // cues with nothing to say or no duration
	CacheHits int

	Overruns []timeline.Overrun
	Duration time.Duration
	Silence  time.Duration
	Speech   time.Duration
	Size     int64
	Elapsed  time.Duration

	// Track is kept for previews
	Track audio.PCM
}

// Converter turns subtitle files into audio tracks. Cues are synthesized
// one at a time, in file order.
type Converter struct {
	synth    tts.Synthesizer
	codec    Codec
	voice    tts.Voice
	observer Observer
}

// Option configures a Converter.
type Option func(*Converter)

// WithVoice sets the voice for every cue.
func WithVoice(voice tts.Voice) Option {
	return func(c *Converter) {
		c.voice = voice
	}
}

// WithObserver receives progress events.
func WithObserver(o Observer) Option {
	return func(c *Converter) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a converter.
func New(synth tts.Synthesizer, codec Codec, opts ...Option) *Converter {
	c := &Converter{
		synth:    synth,
		codec:    codec,
		voice:    tts.DefaultVoice,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run converts opts.Input into opts.Output. The output location is checked
// and the subtitles parsed before any speech is requested. Any failure
// aborts the run without leaving a partial file; clips that overrun their
// cue are reported in the result and never fail the run.
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	container, err := prepareOutput(opts.Output)
	if err != nil {
		return nil, newError(KindWrite, 0, err)
	}
	cues, err := subtitle.ParseFile(opts.Input)
	if err != nil {
		return nil, newError(KindParse, 0, err)
	}

	res := &Result{
		Input:     opts.Input,
		Output:    opts.Output,
		Container: container,
		Cues:      len(cues),
	}
	c.observer.Started(opts.Input, len(cues))

	segments := make([]timeline.Segment, 0, len(cues))
	for i, cue := range cues {
		if err := ctx.Err(); err != nil {
			return nil, newError(KindCanceled, 0, err)
		}
		c.observer.CueStarted(cue, i+1, len(cues))

		text := cue.SpeechText()
		if reason := skipReason(cue, text); reason != "" {
			res.Skipped++
			c.observer.CueSkipped(cue, reason)
			continue
		}

		clip, err := c.synth.Synthesize(ctx, tts.Request{Text: text, Voice: c.voice})
		if err != nil {
			return nil, classify(ctx, cue.Index, err)
		}
		pcm, err := c.codec.Decode(ctx, clip.Data, clip.Container)
		if err != nil {
			if ctx.Err() != nil {
				return nil, newError(KindCanceled, cue.Index, ctx.Err())
			}
			return nil, newError(KindSynthesis, cue.Index, fmt.Errorf("decode clip: %w", err))
		}
		if pcm.Format != c.codec.Format() {
			return nil, newError(KindSynthesis, cue.Index, fmt.Errorf("decode clip: %w: got %s, track is %s",
				audio.ErrFormatMismatch, pcm.Format, c.codec.Format()))
		}

		res.Spoken++
		if clip.Cached {
			res.CacheHits++
		}
		c.observer.CueSynthesized(cue, pcm.Duration(), clip.Cached)
		segments = append(segments, timeline.Segment{
			Index: cue.Index,
			Start: cue.Start,
			End:   cue.End,
			Clip:  pcm,
		})
	}

	track := timeline.Assemble(c.codec.Format(), segments,
		timeline.WithEnd(cues.Duration()),
		timeline.WithOverrunHandler(c.observer.Overrun),
	)

	size, err := c.write(ctx, track.PCM, opts.Output, container)
	if err != nil {
		return nil, err
	}

	res.Overruns = track.Overruns
	res.Duration = track.Duration()
	res.Silence = track.Silence
	res.Speech = track.Speech
	res.Size = size
	res.Track = track.PCM
	res.Elapsed = time.Since(start)
	c.observer.Finished(res)
	return res, nil
}

func skipReason(cue subtitle.Cue, text string) string {
	switch {
	case text == "":
		return "no text to speak"
	case cue.End <= cue.Start:
		return "zero duration"
	}
	return ""
}

func classify(ctx context.Context, cue int, err error) *Error {
	switch {
	case ctx.Err() != nil:
		return newError(KindCanceled, cue, ctx.Err())
	case tts.IsAuthentication(err):
		return newError(KindAuthentication, cue, err)
	default:
		return newError(KindSynthesis, cue, err)
	}
}

// prepareOutput checks the output can be written, creating its directory.
func prepareOutput(path string) (string, error) {
	if path == "" {
		return "", errors.New("output path is required")
	}
	container, err := audio.ContainerForPath(path)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return "", fmt.Errorf("cannot create output directory: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("output path %s is a directory", path)
		}
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return "", fmt.Errorf("output file exists and is not writable: %w", err)
		}
		_ = f.Close()
	}

	probe, err := os.CreateTemp(dir, ".srttts-probe-*")
	if err != nil {
		return "", fmt.Errorf("output directory is not writable: %w", err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return container, nil
}

// write encodes into a temporary file beside path and renames it into
// place, so an existing output survives a failed run.
func (c *Converter) write(ctx context.Context, pcm audio.PCM, path, container string) (int64, error) {
	tmp := filepath.Join(filepath.Dir(path),
		fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	if err := c.codec.EncodeFile(ctx, pcm, tmp, container); err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() != nil {
			return 0, newError(KindCanceled, 0, ctx.Err())
		}
		return 0, newError(KindWrite, 0, fmt.Errorf("error exporting audio file: %w", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, newError(KindWrite, 0, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, newError(KindWrite, 0, err)
	}
	return info.Size(), nil
}
