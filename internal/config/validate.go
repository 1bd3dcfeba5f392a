package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgnsrekt/srttts/internal/audio"
	"github.com/dgnsrekt/srttts/internal/tts"
)

// Validate ensures the configuration is usable. A missing API key for the
// openai engine is reported as an authentication error.
func (c *Config) Validate() error {
	engine, err := tts.ParseEngine(c.Engine)
	if err != nil {
		return err
	}
	if engine == tts.EngineOpenAI && c.APIKey == "" {
		return tts.NewError(tts.ErrorCodeAuthentication,
			"OpenAI API key must be provided either via --api-key or the OPENAI_API_KEY environment variable", nil)
	}
	if _, err := tts.ParseVoice(c.Voice); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	return c.validateCache()
}

func (c *Config) validateSpeech() error {
	if c.Speed < 0.25 || c.Speed > 4.0 {
		return fmt.Errorf("speed must be between 0.25 and 4.0, got %.2f", c.Speed)
	}
	if !slices.Contains(audio.ResponseContainers(), c.ResponseFormat) {
		return fmt.Errorf("response_format %q is not supported: use one of %s",
			c.ResponseFormat, strings.Join(audio.ResponseContainers(), ", "))
	}
	if c.RequestInterval < 0 {
		return errors.New("interval must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must be set")
	}
	if strings.TrimSpace(c.FFmpeg) == "" {
		return errors.New("ffmpeg must be set")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.MaxSizeMB < 1 || c.Cache.MaxSizeMB > 10000 {
		return fmt.Errorf("cache max_size must be between 1 and 10000 MB, got %d", c.Cache.MaxSizeMB)
	}
	return nil
}
