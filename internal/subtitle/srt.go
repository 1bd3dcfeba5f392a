// Package subtitle parses SubRip (.srt) files into timed cues.
package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoCues is returned when a file holds no subtitle blocks.
var ErrNoCues = errors.New("no subtitle cues found")

// ParseError describes a malformed subtitle file.
type ParseError struct {
	Path  string
	Block int // 1-based block number within the file
	Line  int // 1-based line number of the offending line, 0 if unknown
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse subtitles")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Block > 0 {
		fmt.Fprintf(&b, " (block %d)", e.Block)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Cue is one subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Duration returns the declared on-screen time of the cue.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

// Text joins the cue lines with single spaces.
func (c Cue) Text() string {
	return strings.Join(c.Lines, " ")
}

var (
	htmlTag     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	assOverride = regexp.MustCompile(`\{\\[^}]*\}`)
	spaces      = regexp.MustCompile(`\s+`)
)

// SpeechText returns the cue text with formatting markup removed, ready to
// be read aloud.
func (c Cue) SpeechText() string {
	text := c.Text()
	text = htmlTag.ReplaceAllString(text, "")
	text = assOverride.ReplaceAllString(text, "")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Cues is an ordered subtitle track.
type Cues []Cue

// Duration returns the end time of the last cue, the length of the track.
func (cs Cues) Duration() time.Duration {
	if len(cs) == 0 {
		return 0
	}
	return cs[len(cs)-1].End
}

// ParseFile reads and parses an .srt file.
func ParseFile(path string) (Cues, error) {
	if !strings.EqualFold(filepath.Ext(path), ".srt") {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("input file must have .srt extension")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	cues, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return cues, nil
}

// Parse decodes SubRip content. The text may be UTF-8 or carry a UTF-8 or
// UTF-16 byte order mark, and may use CRLF line endings.
func Parse(data []byte) (Cues, error) {
	text, err := decode(data)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decode text: %w", err)}
	}

	var cues Cues
	for _, blk := range splitBlocks(text) {
		cue, err := parseBlock(blk)
		if err != nil {
			return nil, &ParseError{Block: len(cues) + 1, Line: blk.line, Err: err}
		}
		cues = append(cues, cue)
	}
	if len(cues) == 0 {
		return nil, &ParseError{Err: ErrNoCues}
	}
	return cues, nil
}

func decode(data []byte) (string, error) {
	// BOMOverride switches to UTF-16 when a BOM says so and strips it
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
	out = bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
	return string(out), nil
}

type block struct {
	line  int // line number of the first line
	lines []string
}

func splitBlocks(text string) []block {
	var (
		blocks []block
		cur    block
	)
	flush := func() {
		if len(cur.lines) > 0 {
			blocks = append(blocks, cur)
		}
		cur = block{}
	}

	for i, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			flush()
			continue
		}
		if len(cur.lines) == 0 {
			cur.line = i + 1
		}
		cur.lines = append(cur.lines, l)
	}
	flush()
	return blocks
}

func parseBlock(b block) (Cue, error) {
	lines := b.lines
	var cue Cue

	// the index line is optional in the wild; the timing line is not
	if !strings.Contains(lines[0], "-->") {
		idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Cue{}, fmt.Errorf("invalid cue index %q", strings.TrimSpace(lines[0]))
		}
		cue.Index = idx
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return Cue{}, errors.New("missing timing line")
	}

	start, end, err := parseTimingLine(lines[0])
	if err != nil {
		return Cue{}, fmt.Errorf("parse timing: %w", err)
	}
	if end < start {
		return Cue{}, fmt.Errorf("end time %s before start time %s", FormatTimestamp(end), FormatTimestamp(start))
	}
	cue.Start = start
	cue.End = end
	cue.Lines = append([]string{}, lines[1:]...)
	return cue, nil
}

func parseTimingLine(line string) (time.Duration, time.Duration, error) {
	// Example: 00:00:01,234 --> 00:00:04,567 X1:40 X2:600 Y1:20 Y2:50
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, errors.New("invalid timing separator")
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("start time: %w", err)
	}
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, errors.New("end time: empty timestamp")
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("end time: %w", err)
	}
	return start, end, nil
}

// ParseTimestamp parses HH:MM:SS,mmm. A period is accepted in place of the
// comma, and the millisecond part may have fewer than three digits.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty timestamp")
	}
	s = strings.ReplaceAll(s, ".", ",")
	hmsMillis := strings.Split(s, ",")
	if len(hmsMillis) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q: missing milliseconds", s)
	}
	hms := strings.Split(hmsMillis[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q: want HH:MM:SS", s)
	}

	var fields [4]int
	for i, v := range append(hms, hmsMillis[1]) {
		if !isDigits(v) {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		fields[i] = n
	}
	h, m, sec, ms := fields[0], fields[1], fields[2], fields[3]
	if h > maxHours || m > 59 || sec > 59 || len(hmsMillis[1]) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q: field out of range", s)
	}
	// "1,5" means 500ms, not 5ms
	for i := len(hmsMillis[1]); i < 3; i++ {
		ms *= 10
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// maxHours keeps every parsed timestamp well inside time.Duration.
const maxHours = 999999

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatTimestamp renders d as HH:MM:SS,mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
