package convert

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srttts/internal/subtitle"
	"github.com/dgnsrekt/srttts/internal/timeline"
)

// Observer receives progress events from a run. Calls happen on the
// goroutine running the conversion, in order.
type Observer interface {
	Started(input string, cues int)
	CueStarted(cue subtitle.Cue, n, total int)
	CueSkipped(cue subtitle.Cue, reason string)
	CueSynthesized(cue subtitle.Cue, clip time.Duration, cached bool)
	Overrun(o timeline.Overrun)
	Finished(res *Result)
}

type nopObserver struct{}

func (nopObserver) Started(string, int) {}
func (nopObserver) CueStarted(subtitle.Cue, int, int) {}
func (nopObserver) CueSkipped(subtitle.Cue, string) {}
func (nopObserver) CueSynthesized(subtitle.Cue, time.Duration, bool) {}
func (nopObserver) Overrun(timeline.Overrun) {}
func (nopObserver) Finished(*Result) {}

// LogObserver writes progress as structured log lines.
type LogObserver struct {
	Logger *log.Logger
}

// NewLogObserver logs to logger, or to the default logger when nil.
func NewLogObserver(logger *log.Logger) *LogObserver {
	if logger == nil {
		logger = log.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) Started(input string, cues int) {
	o.Logger.Info("Converting subtitles", "input", input, "cues", cues)
}

func (o *LogObserver) CueStarted(cue subtitle.Cue, n, total int) {
	o.Logger.Info("Subtitle",
		"index", cue.Index,
		"progress", progress(n, total),
		"start", subtitle.FormatTimestamp(cue.Start),
		"end", subtitle.FormatTimestamp(cue.End),
		"duration", cue.Duration(),
		"text", cue.Text(),
	)
}

func (o *LogObserver) CueSkipped(cue subtitle.Cue, reason string) {
	o.Logger.Warn("Skipping subtitle", "index", cue.Index, "reason", reason)
}

func (o *LogObserver) CueSynthesized(cue subtitle.Cue, clip time.Duration, cached bool) {
	o.Logger.Debug("Speech ready", "index", cue.Index, "clip", clip, "cached", cached)
}

func (o *LogObserver) Overrun(ov timeline.Overrun) {
	o.Logger.Warn("Speech duration exceeds subtitle duration",
		"index", ov.Index,
		"speech", ov.Actual,
		"available", ov.Expected,
		"excess", ov.Excess(),
	)
}

func (o *LogObserver) Finished(res *Result) {
	o.Logger.Info("Wrote audio",
		"output", res.Output,
		"duration", res.Duration.Round(time.Millisecond),
		"overruns", len(res.Overruns),
		"cached", res.CacheHits,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
}

func progress(n, total int) string {
	return fmt.Sprintf("%d/%d", n, total)
}
