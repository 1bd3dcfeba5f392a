package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ContainerPCM is raw signed 16-bit little-endian audio in the timeline format.
const ContainerPCM = "pcm"

// ErrUnsupportedContainer is returned for containers the codec cannot handle.
var ErrUnsupportedContainer = errors.New("unsupported audio container")

// outputArgs maps output containers to ffmpeg encoder arguments.
var outputArgs = map[string][]string{
	"mp3":  {"-f", "mp3", "-codec:a", "libmp3lame", "-q:a", "0"},
	"wav":  {"-f", "wav", "-codec:a", "pcm_s16le"},
	"flac": {"-f", "flac", "-codec:a", "flac"},
	"ogg":  {"-f", "ogg", "-codec:a", "libopus"},
	"opus": {"-f", "opus", "-codec:a", "libopus"},
	"m4a":  {"-f", "ipod", "-codec:a", "aac", "-movflags", "frag_keyframe+empty_moov"},
	"aac":  {"-f", "adts", "-codec:a", "aac"},
}

// inputFormats maps synthesizer response containers to ffmpeg demuxers.
var inputFormats = map[string]string{
	"mp3":  "mp3",
	"opus": "ogg",
	"aac":  "aac",
	"flac": "flac",
	"wav":  "wav",
}

// lossless containers ignore the bitrate setting.
var lossless = map[string]bool{"wav": true, "flac": true}

// ContainerForPath returns the output container implied by a file extension.
func ContainerForPath(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if _, ok := outputArgs[ext]; !ok {
		return "", fmt.Errorf("%w %q: use one of %s", ErrUnsupportedContainer, filepath.Ext(path), strings.Join(OutputContainers(), ", "))
	}
	return ext, nil
}

// ResponseContainers lists the synthesizer containers Decode accepts.
func ResponseContainers() []string {
	return []string{ContainerPCM, "mp3", "opus", "aac", "flac", "wav"}
}

// OutputContainers lists the supported output extensions.
func OutputContainers() []string {
	return []string{"mp3", "wav", "flac", "ogg", "opus", "m4a", "aac"}
}

// Codec converts between encoded containers and the timeline PCM format
// by running ffmpeg.
type Codec struct {
	binary  string
	format  Format
	bitrate string
	timeout time.Duration
}

// CodecConfig holds configuration for the ffmpeg codec.
type CodecConfig struct {
	// Binary is the ffmpeg executable (defaults to "ffmpeg" on PATH)
	Binary string

	// Format is the PCM layout clips are decoded into
	Format Format

	// Bitrate for lossy output containers (defaults to "192k")
	Bitrate string

	// Timeout bounds decoding one clip (defaults to 2 minutes). Encoding the
	// track is only bounded by the caller's context, since its length grows
	// with the subtitle file.
	Timeout time.Duration
}

// NewCodec creates an ffmpeg backed codec.
func NewCodec(config CodecConfig) *Codec {
	if config.Binary == "" {
		config.Binary = "ffmpeg"
	}
	if config.Format == (Format{}) {
		config.Format = DefaultFormat()
	}
	if config.Bitrate == "" {
		config.Bitrate = "192k"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	return &Codec{
		binary:  config.Binary,
		format:  config.Format,
		bitrate: config.Bitrate,
		timeout: config.Timeout,
	}
}

// Format returns the PCM layout produced by Decode.
func (c *Codec) Format() Format {
	return c.format
}

// LookFFmpeg resolves the ffmpeg binary.
func (c *Codec) LookFFmpeg() (string, error) {
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w\n\nInstall ffmpeg for audio encoding", c.binary, err)
	}
	return path, nil
}

// Decode converts an encoded clip into PCM. Raw pcm clips are wrapped
// without running ffmpeg.
func (c *Codec) Decode(ctx context.Context, encoded []byte, container string) (PCM, error) {
	container = strings.ToLower(container)
	if container == ContainerPCM {
		return NewPCM(c.format, encoded)
	}
	demuxer, ok := inputFormats[container]
	if !ok {
		return PCM{}, fmt.Errorf("%w %q", ErrUnsupportedContainer, container)
	}
	if len(encoded) == 0 {
		return PCM{}, errors.New("empty audio clip")
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", demuxer,
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(c.format.SampleRate),
		"-ac", strconv.Itoa(c.format.Channels),
		"pipe:1",
	}

	var stdout bytes.Buffer
	if err := c.run(ctx, c.timeout, args, bytes.NewReader(encoded), &stdout); err != nil {
		return PCM{}, fmt.Errorf("decode %s: %w", container, err)
	}
	if stdout.Len() == 0 {
		return PCM{}, fmt.Errorf("decode %s: ffmpeg produced no PCM output", container)
	}

	data := stdout.Bytes()
	// ffmpeg always emits whole frames, but guard against a truncated pipe
	if rem := len(data) % c.format.FrameSize(); rem != 0 {
		data = data[:len(data)-rem]
	}
	return NewPCM(c.format, data)
}

// Encode writes pcm to w in the given output container.
func (c *Codec) Encode(ctx context.Context, pcm PCM, w io.Writer, container string) error {
	args, err := c.encodeArgs(pcm, container)
	if err != nil {
		return err
	}
	args = append(args, "pipe:1")

	if err := c.run(ctx, 0, args, bytes.NewReader(pcm.Data), w); err != nil {
		return fmt.Errorf("encode %s: %w", container, err)
	}
	return nil
}

// EncodeFile writes pcm to path, overwriting it. Writing to a file lets
// ffmpeg seek back and finalize wav and m4a headers.
func (c *Codec) EncodeFile(ctx context.Context, pcm PCM, path, container string) error {
	args, err := c.encodeArgs(pcm, container)
	if err != nil {
		return err
	}
	args = append(args, "-y", path)

	if err := c.run(ctx, 0, args, bytes.NewReader(pcm.Data), io.Discard); err != nil {
		return fmt.Errorf("encode %s: %w", container, err)
	}
	return nil
}

func (c *Codec) encodeArgs(pcm PCM, container string) ([]string, error) {
	container = strings.ToLower(container)
	encoder, ok := outputArgs[container]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedContainer, container)
	}
	if err := pcm.Format.Validate(); err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(pcm.Format.SampleRate),
		"-ac", strconv.Itoa(pcm.Format.Channels),
		"-i", "pipe:0",
	}
	args = append(args, encoder...)
	if !lossless[container] {
		args = append(args, "-b:a", c.bitrate)
	}
	return args, nil
}

// run executes ffmpeg; a zero timeout leaves ctx as the only bound.
func (c *Codec) run(ctx context.Context, timeout time.Duration, args []string, stdin io.Reader, stdout io.Writer) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log.Debug("ffmpeg executed", "args", strings.Join(args, " "), "duration", time.Since(start), "error", err)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg timeout: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
