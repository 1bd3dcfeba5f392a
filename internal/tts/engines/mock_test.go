package engines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/srttts/internal/audio"
	"github.com/dgnsrekt/srttts/internal/tts"
)

func TestMockSynthesize(t *testing.T) {
	engine := NewMockEngine()

	clip, err := engine.Synthesize(context.Background(), tts.Request{Text: "one two three four five"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if clip.Container != audio.ContainerPCM {
		t.Errorf("container = %q", clip.Container)
	}

	// five words at 150 wpm is two seconds
	pcm, err := audio.NewPCM(audio.DefaultFormat(), clip.Data)
	if err != nil {
		t.Fatal(err)
	}
	if pcm.Duration() != 2*time.Second {
		t.Errorf("duration = %v, want 2s", pcm.Duration())
	}
	if engine.CallCount() != 1 {
		t.Errorf("CallCount = %d", engine.CallCount())
	}
}

func TestMockFailure(t *testing.T) {
	engine := NewMockEngine()
	boom := errors.New("boom")
	engine.SetFailure(boom)

	if _, err := engine.Synthesize(context.Background(), tts.Request{Text: "hi"}); !errors.Is(err, boom) {
		t.Errorf("expected injected failure, got %v", err)
	}

	engine.SetFailure(nil)
	if _, err := engine.Synthesize(context.Background(), tts.Request{Text: "hi"}); err != nil {
		t.Errorf("expected recovery, got %v", err)
	}
}

func TestMockDelayHonorsContext(t *testing.T) {
	engine := NewMockEngine()
	engine.SetDelay(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := engine.Synthesize(ctx, tts.Request{Text: "hi"})
	if err == nil {
		t.Fatal("expected cancellation")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Synthesize ignored the context")
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		text  string
		speed float64
		want  time.Duration
	}{
		{"", 1, 400 * time.Millisecond},
		{"hello", 1, 400 * time.Millisecond},
		{"one two three four five", 1, 2 * time.Second},
		{"one two three four five", 2, time.Second},
		{"one two three four five", 0, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := EstimateDuration(tt.text, tt.speed); got != tt.want {
			t.Errorf("EstimateDuration(%q, %v) = %v, want %v", tt.text, tt.speed, got, tt.want)
		}
	}
}

func TestMockInfo(t *testing.T) {
	engine := NewMockEngine()
	engine.SetSpeed(1.5)
	info := engine.Info()
	if info.Name != "mock" || info.IsOnline || info.Speed != 1.5 {
		t.Errorf("unexpected info %+v", info)
	}
}
