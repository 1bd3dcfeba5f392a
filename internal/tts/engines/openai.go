package engines

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srttts/internal/tts"
	"github.com/sashabaranov/go-openai"
)

// OpenAI speech API limits
const (
	openAIMaxTextSize = 4096
	openAIMinSpeed    = 0.25
	openAIMaxSpeed    = 4.0
)

// OpenAIEngine implements tts.Synthesizer using the OpenAI speech endpoint.
type OpenAIEngine struct {
	client    *openai.Client
	model     string
	speed     float64
	container string
	timeout   time.Duration
}

// OpenAIConfig holds configuration for the OpenAI engine.
type OpenAIConfig struct {
	// APIKey is required; it is never read from the environment here
	APIKey string

	// Model is the speech model (defaults to "tts-1")
	Model string

	// Speed is the speaking rate, 0.25 to 4.0 (defaults to 1.0)
	Speed float64

	// ResponseFormat is the container requested from the API (defaults to "pcm")
	ResponseFormat string

	// BaseURL overrides the API endpoint, e.g. for a proxy
	BaseURL string

	// Timeout bounds a single request (defaults to 90s)
	Timeout time.Duration
}

// NewOpenAIEngine creates a new OpenAI TTS engine.
func NewOpenAIEngine(config OpenAIConfig) (*OpenAIEngine, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, tts.NewError(tts.ErrorCodeAuthentication, "OpenAI API key is required", nil)
	}
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if config.Speed < openAIMinSpeed || config.Speed > openAIMaxSpeed {
		return nil, tts.NewError(tts.ErrorCodeInvalidInput,
			fmt.Sprintf("speed must be between %.2f and %.1f, got %.2f", openAIMinSpeed, openAIMaxSpeed, config.Speed), nil)
	}
	if config.ResponseFormat == "" {
		config.ResponseFormat = "pcm"
	}
	if config.Timeout == 0 {
		config.Timeout = 90 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIEngine{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     config.Model,
		speed:     config.Speed,
		container: strings.ToLower(config.ResponseFormat),
		timeout:   config.Timeout,
	}, nil
}

// Synthesize converts text to audio with one speech request.
func (e *OpenAIEngine) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, tts.NewError(tts.ErrorCodeInvalidInput, "nothing to synthesize", tts.ErrEmptyText)
	}
	if n := utf8.RuneCountInString(text); n > openAIMaxTextSize {
		return nil, tts.NewError(tts.ErrorCodeInvalidInput,
			fmt.Sprintf("%d characters (max %d)", n, openAIMaxTextSize), tts.ErrTextTooLong)
	}
	voice := req.Voice
	if voice == "" {
		voice = tts.DefaultVoice
	}

	start := time.Now()
	log.Debug("OpenAI: requesting speech", "model", e.model, "voice", voice, "format", e.container, "textLen", len(text))

	resp, err := e.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(e.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(e.container),
		Speed:          e.speed,
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, tts.NewError(tts.ErrorCodeSynthesis, "failed to read audio response", err)
	}
	if len(data) == 0 {
		return nil, tts.NewError(tts.ErrorCodeSynthesis, "empty audio response", nil)
	}

	log.Debug("OpenAI: speech received", "bytes", len(data), "duration", time.Since(start))
	return &tts.Clip{Data: data, Container: e.container}, nil
}

// classify maps client errors onto TTS error codes.
func classify(ctx context.Context, err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return tts.NewError(tts.ErrorCodeAuthentication, "OpenAI rejected the API key", err).
			WithContext("status", status)
	case ctx.Err() != nil:
		return tts.NewError(tts.ErrorCodeCanceled, "speech request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return tts.NewError(tts.ErrorCodeTimeout, "speech request timed out", err)
	default:
		return tts.NewError(tts.ErrorCodeSynthesis, "speech request failed", err).
			WithContext("status", status)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Info returns engine capabilities and configuration.
func (e *OpenAIEngine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:        string(tts.EngineOpenAI),
		Model:       e.model,
		Speed:       e.speed,
		Container:   e.container,
		MaxTextSize: openAIMaxTextSize,
		IsOnline:    true,
	}
}

// Ensure OpenAIEngine implements the Synthesizer interface
var _ tts.Synthesizer = (*OpenAIEngine)(nil)
