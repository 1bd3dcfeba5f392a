package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName names the config file, env prefix and per-user directories.
const AppName = "srttts"

//go:embed sample.yml
var sampleConfig string

// Config is the resolved run configuration.
type Config struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Engine          string        `mapstructure:"engine"`
	Voice           string        `mapstructure:"voice"`
	Model           string        `mapstructure:"model"`
	Speed           float64       `mapstructure:"speed"`
	ResponseFormat  string        `mapstructure:"response_format"`
	RequestInterval time.Duration `mapstructure:"interval"`
	RequestTimeout  time.Duration `mapstructure:"timeout"`
	FFmpeg          string        `mapstructure:"ffmpeg"`
	Bitrate         string        `mapstructure:"bitrate"`
	Cache           Cache         `mapstructure:"cache"`
}

// Cache contains configuration for the clip cache.
type Cache struct {
	Enabled   bool   `mapstructure:"enabled"`
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int    `mapstructure:"max_size"`
}

// credentials are read straight from the environment, the way the OpenAI
// SDKs do, and win over any key stored in the config file.
type credentials struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL"`
}

// Sample returns the commented default config file.
func Sample() string {
	return sampleConfig
}

// Load resolves configuration from v (defaults, config file, SRTTTS_*
// variables and bound flags), after loading dotenv files into the
// environment. Existing environment variables are never overwritten by a
// dotenv file. With no files given, ".env" in the working directory is used
// when present.
func Load(v *viper.Viper, dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Could not load dotenv file", "path", path, "error", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode configuration: %w", err)
	}

	creds, err := env.ParseAs[credentials]()
	if err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}
	if creds.APIKey != "" {
		cfg.APIKey = creds.APIKey
	}
	if creds.BaseURL != "" && cfg.BaseURL == "" {
		cfg.BaseURL = creds.BaseURL
	}

	cfg.normalize()
	if cfg.Cache.Dir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return Config{}, err
		}
		cfg.Cache.Dir = dir
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	c.Voice = strings.ToLower(strings.TrimSpace(c.Voice))
	c.ResponseFormat = strings.ToLower(strings.TrimSpace(c.ResponseFormat))
	if c.Cache.Dir != "" {
		c.Cache.Dir = ExpandPath(c.Cache.Dir)
	}
	if strings.ContainsRune(c.FFmpeg, os.PathSeparator) || strings.HasPrefix(c.FFmpeg, "~") {
		c.FFmpeg = ExpandPath(c.FFmpeg)
	}
}

// KeyWarning returns a non-empty message when key does not look like an
// OpenAI key. Unknown formats are allowed through.
func KeyWarning(key string) string {
	if key == "" || strings.HasPrefix(key, "sk-") || strings.HasPrefix(key, "org-") {
		return ""
	}
	return "API key does not start with sk- or org-; it may be rejected"
}

// ConfigDirs returns the directories searched for srttts.yml, highest
// priority first.
func ConfigDirs() ([]string, error) {
	dirs, err := gap.NewScope(gap.User, AppName).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv("SRTTTS_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// DefaultCacheDir returns the per-user clip cache directory.
func DefaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, AppName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find cache directory: %w", err)
	}
	return filepath.Join(dir, "clips"), nil
}

// LogFilePath returns the default debug log location.
func LogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, AppName).CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".log"), nil
}

// ExpandPath expands tilde and all environment variables from the given path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

// CreateSample writes the default config file to path unless it exists.
func CreateSample(path string) error {
	if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}
