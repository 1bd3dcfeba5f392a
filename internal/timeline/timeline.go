// Package timeline lays synthesized clips onto a single track at their
// subtitle start offsets, filling every gap with silence.
package timeline

import (
	"time"

	"github.com/dgnsrekt/srttts/internal/audio"
)

// Segment is one cue paired with its synthesized clip.
type Segment struct {
	Index int
	Start time.Duration
	End   time.Duration
	Clip  audio.PCM
}

// Overrun reports a clip that is longer than its cue's declared duration.
// The clip is kept whole; the overrun only pushes later audio back.
type Overrun struct {
	Index    int
	Expected time.Duration
	Actual   time.Duration
}

// Excess returns how far the clip runs past its cue.
func (o Overrun) Excess() time.Duration {
	return o.Actual - o.Expected
}

// Timeline is the assembled track.
type Timeline struct {
	PCM      audio.PCM
	Overruns []Overrun

	// Mismatched lists segments left out because their clip is not in the
	// track format or not frame aligned
	Mismatched []int

	// Silence and Speech always sum to PCM.Duration()
	Silence time.Duration
	Speech  time.Duration
}

// Duration returns the total track length.
func (t *Timeline) Duration() time.Duration {
	return t.PCM.Duration()
}

// Option configures Assemble.
type Option func(*assembler)

// WithOverrunHandler registers a callback invoked for every overrun as it
// is detected.
func WithOverrunHandler(fn func(Overrun)) Option {
	return func(a *assembler) {
		a.onOverrun = fn
	}
}

// WithEnd pads the track to at least end, for cues that produced no
// segment after the last one that did.
func WithEnd(end time.Duration) Option {
	return func(a *assembler) {
		a.end = end
	}
}

type assembler struct {
	format    audio.Format
	onOverrun func(Overrun)
	end       time.Duration
}

// Assemble builds one continuous buffer from segments ordered by start time.
//
// Silence is inserted when a segment starts after the end of the audio
// written so far. A segment that starts before that point (an overlap, or
// the tail of an earlier overrun) is appended directly with no padding.
// After the last segment the track is padded to that segment's End, or to
// the WithEnd value when that is later.
// Clips are never trimmed or stretched and segments are never reordered.
// A clip in another PCM layout is left out and reported in Mismatched.
func Assemble(format audio.Format, segments []Segment, opts ...Option) *Timeline {
	a := &assembler{format: format}
	for _, opt := range opts {
		opt(a)
	}

	end := a.end
	if n := len(segments); n > 0 && segments[n-1].End > end {
		end = segments[n-1].End
	}

	t := &Timeline{PCM: audio.PCM{Format: format}}
	if len(segments) == 0 && end <= 0 {
		return t
	}
	t.PCM.Grow(format.SamplesFor(end))

	// cursor is the end of written audio in sample frames
	cursor := 0
	var silence, speech int
	for _, seg := range segments {
		if seg.Clip.Format != format || len(seg.Clip.Data)%format.FrameSize() != 0 {
			t.Mismatched = append(t.Mismatched, seg.Index)
			continue
		}
		if gap := format.SamplesFor(seg.Start) - cursor; gap > 0 {
			t.PCM.AppendSilence(gap)
			cursor += gap
			silence += gap
		}

		clip := seg.Clip.Samples()
		t.PCM.Data = append(t.PCM.Data, seg.Clip.Data...)
		cursor += clip
		speech += clip

		expected := seg.End - seg.Start
		if actual := format.DurationOf(clip); actual > expected {
			a.overrun(t, Overrun{Index: seg.Index, Expected: expected, Actual: actual})
		}
	}

	if tail := format.SamplesFor(end) - cursor; tail > 0 {
		t.PCM.AppendSilence(tail)
		silence += tail
	}

	t.Silence = format.DurationOf(silence)
	t.Speech = format.DurationOf(speech)
	return t
}

func (a *assembler) overrun(t *Timeline, o Overrun) {
	t.Overruns = append(t.Overruns, o)
	if a.onOverrun != nil {
		a.onOverrun(o)
	}
}
