package subtitle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `1
00:00:01,000 --> 00:00:02,500
Hello there.

2
00:00:03,000 --> 00:00:05,000
<i>General</i> Kenobi!
You are a bold one.

3
00:01:00,250 --> 00:01:02,000 X1:40 X2:600 Y1:20 Y2:50
{\an8}Top line
`

func TestParse(t *testing.T) {
	cues, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}

	want := []struct {
		index      int
		start, end time.Duration
		speech     string
	}{
		{1, time.Second, 2500 * time.Millisecond, "Hello there."},
		{2, 3 * time.Second, 5 * time.Second, "General Kenobi! You are a bold one."},
		{3, time.Minute + 250*time.Millisecond, time.Minute + 2*time.Second, "Top line"},
	}
	for i, w := range want {
		c := cues[i]
		if c.Index != w.index || c.Start != w.start || c.End != w.end {
			t.Errorf("cue %d = {%d %v %v}, want {%d %v %v}", i, c.Index, c.Start, c.End, w.index, w.start, w.end)
		}
		if got := c.SpeechText(); got != w.speech {
			t.Errorf("cue %d SpeechText() = %q, want %q", i, got, w.speech)
		}
	}

	if cues.Duration() != time.Minute+2*time.Second {
		t.Errorf("Duration() = %v, want 1m2s", cues.Duration())
	}
	if cues[1].Text() != "<i>General</i> Kenobi! You are a bold one." {
		t.Errorf("Text() should keep markup, got %q", cues[1].Text())
	}
}

func TestParse_LineEndingsAndBOM(t *testing.T) {
	crlf := strings.ReplaceAll(sample, "\n", "\r\n")

	inputs := map[string][]byte{
		"crlf":              []byte(crlf),
		"utf8 bom":          append([]byte("\xef\xbb\xbf"), sample...),
		"utf16le":           utf16LE(sample),
		"extra blank lines": []byte("\n\n" + strings.ReplaceAll(sample, "\n\n", "\n\n\n\n")),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			cues, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(cues) != 3 {
				t.Fatalf("got %d cues, want 3", len(cues))
			}
			if cues[0].Index != 1 || cues[0].SpeechText() != "Hello there." {
				t.Errorf("first cue = %+v", cues[0])
			}
		})
	}
}

func utf16LE(s string) []byte {
	out := []byte{0xff, 0xfe}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		block int
		text  string
	}{
		{"empty", "", 0, "no subtitle cues"},
		{"whitespace only", "\n \n\t\n", 0, "no subtitle cues"},
		{"bad separator", "1\n00:00:01,000 -> 00:00:02,000\nhi\n", 1, "timing separator"},
		{"bad index", "one\n00:00:01,000 --> 00:00:02,000\nhi\n", 1, "cue index"},
		{"index only", "1\n", 1, "missing timing line"},
		{"bad timestamp", "1\n00:00:01 --> 00:00:02,000\nhi\n", 1, "missing milliseconds"},
		{"minutes out of range", "1\n00:61:01,000 --> 00:62:02,000\nhi\n", 1, "out of range"},
		{"end before start", "1\n00:00:05,000 --> 00:00:02,000\nhi\n", 1, "before start"},
		{"second block broken", "1\n00:00:01,000 --> 00:00:02,000\nhi\n\n2\nnot timing\n", 2, "timing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Block != tt.block {
				t.Errorf("Block = %d, want %d", pe.Block, tt.block)
			}
			if !strings.Contains(err.Error(), tt.text) {
				t.Errorf("error %q does not mention %q", err, tt.text)
			}
		})
	}
}

func TestParse_ZeroLengthCueAllowed(t *testing.T) {
	cues, err := Parse([]byte("1\n00:00:01,000 --> 00:00:01,000\nblink\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cues[0].Duration() != 0 {
		t.Errorf("Duration() = %v, want 0", cues[0].Duration())
	}
}

func TestParse_MissingIndexAndEmptyText(t *testing.T) {
	cues, err := Parse([]byte("00:00:01,000 --> 00:00:02,000\n\n2\n00:00:03,000 --> 00:00:04,000\nsecond\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Index != 0 || len(cues[0].Lines) != 0 {
		t.Errorf("first cue = %+v, want no index and no text", cues[0])
	}
	if cues[0].SpeechText() != "" {
		t.Errorf("SpeechText() = %q, want empty", cues[0].SpeechText())
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:00,000", 0, false},
		{"01:02:03,004", time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, false},
		{" 00:00:01.500 ", 1500 * time.Millisecond, false},
		{"00:00:01,5", 1500 * time.Millisecond, false},
		{"100:00:00,000", 100 * time.Hour, false},
		{"", 0, true},
		{"00:00:01", 0, true},
		{"00:01,000", 0, true},
		{"aa:00:01,000", 0, true},
		{"00:00:01,-10", 0, true},
		{"00:00:01,1000", 0, true},
		{"+1:00:00,000", 0, true},
		{"00:00:01,+50", 0, true},
		{"00:+1:01,000", 0, true},
		{"00: 1:01,000", 0, true},
		{"00::01,000", 0, true},
		{"00:00:01,", 0, true},
		{"999999:00:00,000", 999999 * time.Hour, false},
		{"1000000:00:00,000", 0, true},
		{"99999999999:00:00,000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_OverflowingStartIsRejected(t *testing.T) {
	_, err := Parse([]byte("1\n99999999999:00:00,000 --> 00:00:02,000\nHello\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond
	if got := FormatTimestamp(d); got != "01:02:03,045" {
		t.Errorf("FormatTimestamp = %q", got)
	}
	if got := FormatTimestamp(-time.Second); got != "00:00:00,000" {
		t.Errorf("negative FormatTimestamp = %q", got)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "movie.SRT")
	if err := os.WriteFile(good, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cues, err := ParseFile(good)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(cues) != 3 {
		t.Errorf("got %d cues, want 3", len(cues))
	}

	txt := filepath.Join(dir, "movie.txt")
	if err := os.WriteFile(txt, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(txt); err == nil || !strings.Contains(err.Error(), ".srt extension") {
		t.Errorf("expected extension error, got %v", err)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.srt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	broken := filepath.Join(dir, "broken.srt")
	if err := os.WriteFile(broken, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = ParseFile(broken)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != broken {
		t.Errorf("expected ParseError with path, got %v", err)
	}
}
