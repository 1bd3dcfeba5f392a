package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srttts/internal/audio"
	"github.com/dgnsrekt/srttts/internal/cache"
	"github.com/dgnsrekt/srttts/internal/config"
	"github.com/dgnsrekt/srttts/internal/convert"
	"github.com/dgnsrekt/srttts/internal/tts"
	"github.com/dgnsrekt/srttts/internal/tts/engines"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	inputPath   string
	outputPath  string
	apiKey      string
	noCache     bool
	watch       bool
	play        bool
	showSummary bool

	convertCmd = &cobra.Command{
		Use:   "convert --input FILE.srt --output FILE.mp3",
		Short: "Convert a subtitle file to speech",
		Long: paragraph(fmt.Sprintf("\n%s every subtitle with the OpenAI speech API and write one track, "+
			"with each line starting at its subtitle's start time and silence in between. "+
			"Speech that runs past its subtitle is kept whole and reported.", keyword("Speak"))),
		Example: paragraph("srttts convert -i movie.srt -o movie.mp3\n" +
			"srttts convert -i movie.srt -o movie.wav --voice nova --summary\n" +
			"srttts convert -i movie.srt -o preview.mp3 --engine mock --watch --play"),
		Args: cobra.NoArgs,
		RunE: runConvert,
	}
)

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "subtitle file to read (.srt)")
	f.StringVarP(&outputPath, "output", "o", "", "audio file to write ("+strings.Join(audio.OutputContainers(), ", ")+")")
	f.StringP("voice", "v", "alloy", "voice: "+joinVoices())
	f.StringVar(&apiKey, "api-key", "", "OpenAI API key (default $OPENAI_API_KEY)")
	f.String("model", "tts-1", "speech model")
	f.Float64("speed", 1.0, "speaking rate, 0.25 to 4.0")
	f.String("engine", "openai", "speech engine: openai or mock")
	f.Duration("interval", tts.DefaultInterval, "minimum time between speech requests")
	f.String("response-format", "pcm", "container requested from the speech API")
	f.BoolVar(&noCache, "no-cache", false, "do not read or write the clip cache")
	f.BoolVarP(&watch, "watch", "w", false, "convert again whenever the input changes")
	f.BoolVarP(&play, "play", "p", false, "play the track after converting")
	f.BoolVarP(&showSummary, "summary", "s", false, "print a summary table after converting")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")

	// Config bindings
	_ = viper.BindPFlag("voice", f.Lookup("voice"))
	_ = viper.BindPFlag("model", f.Lookup("model"))
	_ = viper.BindPFlag("speed", f.Lookup("speed"))
	_ = viper.BindPFlag("engine", f.Lookup("engine"))
	_ = viper.BindPFlag("interval", f.Lookup("interval"))
	_ = viper.BindPFlag("response_format", f.Lookup("response-format"))
}

func joinVoices() string {
	names := make([]string, 0, len(tts.Voices()))
	for _, v := range tts.Voices() {
		names = append(names, v.String())
	}
	return strings.Join(names, ", ")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec := audio.NewCodec(audio.CodecConfig{
		Binary:  cfg.FFmpeg,
		Bitrate: cfg.Bitrate,
	})
	if _, err := codec.LookFFmpeg(); err != nil {
		return err
	}

	synth, closer, err := newSynthesizer(cfg)
	if err != nil {
		return err
	}
	defer closer()

	voice, _ := tts.ParseVoice(cfg.Voice)
	conv := convert.New(synth, codec,
		convert.WithVoice(voice),
		convert.WithObserver(convert.NewLogObserver(log.Default())),
	)
	opts := convert.Options{Input: inputPath, Output: outputPath}

	var player *audio.Player
	if play {
		if player, err = audio.NewPlayer(codec.Format()); err != nil {
			return fmt.Errorf("unable to open audio device: %w", err)
		}
	}

	if watch {
		return conv.Watch(ctx, opts, func(res *convert.Result, err error) {
			if err != nil {
				log.Error("Conversion failed", "err", err)
				return
			}
			finish(ctx, cmd, res, player)
		})
	}

	res, err := conv.Run(ctx, opts)
	if err != nil {
		return err
	}
	finish(ctx, cmd, res, player)
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, err
	}
	if apiKey != "" {
		cfg.APIKey = strings.TrimSpace(apiKey)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if msg := config.KeyWarning(cfg.APIKey); msg != "" && cfg.Engine == string(tts.EngineOpenAI) {
		log.Warn(msg)
	}
	return cfg, nil
}

// newSynthesizer builds engine -> cache -> rate gate. The gate sits inside
// the cache so repeated lines are served without waiting.
func newSynthesizer(cfg config.Config) (tts.Synthesizer, func(), error) {
	engineType, _ := tts.ParseEngine(cfg.Engine)

	var engine tts.Synthesizer
	switch engineType {
	case tts.EngineMock:
		mock := engines.NewMockEngine()
		mock.SetSpeed(cfg.Speed)
		engine = mock
	default:
		openai, err := engines.NewOpenAIEngine(engines.OpenAIConfig{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			Speed:          cfg.Speed,
			ResponseFormat: cfg.ResponseFormat,
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.RequestTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		engine = openai
	}

	var synth tts.Synthesizer = tts.NewGate(engine, cfg.RequestInterval)
	if !cfg.Cache.Enabled {
		log.Debug("Clip cache disabled")
		return synth, func() {}, nil
	}

	store, err := cache.Open(cacheConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		s := store.Summary()
		log.Debug("Clip cache", "memory_hits", s.MemoryHits, "disk_hits", s.DiskHits, "misses", s.Misses)
		if err := store.Close(); err != nil {
			log.Warn("Could not close clip cache", "err", err)
		}
	}
	return tts.NewCached(synth, store), closer, nil
}

func cacheConfig(cfg config.Config) cache.Config {
	cc := cache.DefaultConfig(cfg.Cache.Dir)
	cc.DiskCapacity = int64(cfg.Cache.MaxSizeMB) * 1024 * 1024
	return cc
}

func finish(ctx context.Context, cmd *cobra.Command, res *convert.Result, player *audio.Player) {
	if showSummary {
		fmt.Fprint(cmd.OutOrStdout(), convert.Summary(res))
	}
	if player == nil {
		return
	}
	log.Info("Playing", "output", res.Output, "duration", res.Duration)
	if err := player.Play(ctx, res.Track); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Playback failed", "err", err)
	}
}
