package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultEngine          = "openai"
	defaultVoice           = "alloy"
	defaultModel           = "tts-1"
	defaultSpeed           = 1.0
	defaultResponseFormat  = "pcm"
	defaultRequestInterval = 500 * time.Millisecond
	defaultRequestTimeout  = 90 * time.Second
	defaultFFmpeg          = "ffmpeg"
	defaultBitrate         = "192k"
	defaultCacheEnabled    = true
	defaultCacheMaxSizeMB  = 512
)

// Default returns a Config populated with repository defaults. The cache
// directory is left empty and resolved per user at load time.
func Default() Config {
	return Config{
		Engine:          defaultEngine,
		Voice:           defaultVoice,
		Model:           defaultModel,
		Speed:           defaultSpeed,
		ResponseFormat:  defaultResponseFormat,
		RequestInterval: defaultRequestInterval,
		RequestTimeout:  defaultRequestTimeout,
		FFmpeg:          defaultFFmpeg,
		Bitrate:         defaultBitrate,
		Cache: Cache{
			Enabled:   defaultCacheEnabled,
			MaxSizeMB: defaultCacheMaxSizeMB,
		},
	}
}

// SetDefaults registers every key with v so that environment overrides
// reach Unmarshal even when no config file sets them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("engine", d.Engine)
	v.SetDefault("voice", d.Voice)
	v.SetDefault("model", d.Model)
	v.SetDefault("speed", d.Speed)
	v.SetDefault("response_format", d.ResponseFormat)
	v.SetDefault("interval", d.RequestInterval)
	v.SetDefault("timeout", d.RequestTimeout)
	v.SetDefault("ffmpeg", d.FFmpeg)
	v.SetDefault("bitrate", d.Bitrate)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", d.Cache.MaxSizeMB)
}

// Bind registers defaults and SRTTTS_* environment lookups on v. Nested
// keys map to underscores, so cache.dir reads SRTTTS_CACHE_DIR.
func Bind(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
