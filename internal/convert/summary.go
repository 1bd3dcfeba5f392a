package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary renders a run report: totals, then one row per overrun.
func Summary(res *Result) string {
	var b strings.Builder

	totals := table.NewWriter()
	totals.SetStyle(table.StyleRounded)
	totals.AppendRows([]table.Row{
		{"Output", res.Output},
		{"Duration", formatDuration(res.Duration)},
		{"Speech / silence", formatDuration(res.Speech) + " / " + formatDuration(res.Silence)},
		{"Subtitles", fmt.Sprintf("%d spoken, %d skipped", res.Spoken, res.Skipped)},
		{"Cache hits", fmt.Sprintf("%d of %d", res.CacheHits, res.Spoken)},
		{"Size", humanize.Bytes(uint64(max(res.Size, 0)))},
		{"Elapsed", res.Elapsed.Round(time.Millisecond).String()},
	})
	b.WriteString(totals.Render())
	b.WriteString("\n")

	if len(res.Overruns) == 0 {
		b.WriteString("No subtitle ran past its end time.\n")
		return b.String()
	}

	overruns := table.NewWriter()
	overruns.SetStyle(table.StyleRounded)
	overruns.SetTitle(fmt.Sprintf("%d overrun(s)", len(res.Overruns)))
	overruns.AppendHeader(table.Row{"Subtitle", "Available", "Speech", "Excess"})
	for _, o := range res.Overruns {
		overruns.AppendRow(table.Row{
			o.Index,
			formatDuration(o.Expected),
			formatDuration(o.Actual),
			"+" + formatDuration(o.Excess()),
		})
	}
	overruns.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	b.WriteString(overruns.Render())
	b.WriteString("\n")
	return b.String()
}

// formatDuration prints durations at millisecond precision, e.g. 1m02.350s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	if d < time.Minute {
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
	m := d / time.Minute
	s := (d % time.Minute).Seconds()
	return fmt.Sprintf("%dm%06.3fs", m, s)
}
