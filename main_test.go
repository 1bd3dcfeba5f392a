package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dgnsrekt/srttts/internal/config"
	"github.com/dgnsrekt/srttts/internal/tts"
)

func TestNewSynthesizer(t *testing.T) {
	tests := []struct {
		name   string
		cache  bool
		cached bool // second identical request is a cache hit
	}{
		{"without cache", false, false},
		{"with cache", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Engine = "mock"
			cfg.RequestInterval = 0
			cfg.Cache.Enabled = tt.cache
			cfg.Cache.Dir = t.TempDir()

			synth, closer, err := newSynthesizer(cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer closer()

			if info := synth.Info(); info.Name != "mock" {
				t.Errorf("engine = %q, want mock", info.Name)
			}
			req := tts.Request{Text: "hello", Voice: tts.DefaultVoice}
			if _, err := synth.Synthesize(context.Background(), req); err != nil {
				t.Fatal(err)
			}
			clip, err := synth.Synthesize(context.Background(), req)
			if err != nil {
				t.Fatal(err)
			}
			if clip.Cached != tt.cached {
				t.Errorf("Cached = %v, want %v", clip.Cached, tt.cached)
			}
		})
	}
}

func TestNewSynthesizer_OpenAIRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = false

	_, _, err := newSynthesizer(cfg)
	if !tts.IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestCacheConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Dir = "/tmp/clips"
	cfg.Cache.MaxSizeMB = 3

	cc := cacheConfig(cfg)
	if cc.Dir != "/tmp/clips" || cc.DiskCapacity != 3*1024*1024 {
		t.Errorf("unexpected cache config %+v", cc)
	}
}

func TestManPage(t *testing.T) {
	var out bytes.Buffer
	manCmd.SetOut(&out)
	if err := manCmd.RunE(manCmd, nil); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"srttts", "convert", "OPENAI_API_KEY"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("man page missing %q", want)
		}
	}
}
