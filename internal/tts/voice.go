package tts

import (
	"fmt"
	"strings"
)

// Voice is an OpenAI speech voice.
type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceNova    Voice = "nova"
	VoiceShimmer Voice = "shimmer"
)

// DefaultVoice is used when none is configured.
const DefaultVoice = VoiceAlloy

// Voices lists every supported voice.
func Voices() []Voice {
	return []Voice{VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceNova, VoiceShimmer}
}

// ParseVoice validates a voice name, case-insensitively.
func ParseVoice(name string) (Voice, error) {
	v := Voice(strings.ToLower(strings.TrimSpace(name)))
	if v == "" {
		return DefaultVoice, nil
	}
	for _, known := range Voices() {
		if v == known {
			return v, nil
		}
	}
	names := make([]string, 0, len(Voices()))
	for _, known := range Voices() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("%w %q: valid voices are %s", ErrInvalidVoice, name, strings.Join(names, ", "))
}

func (v Voice) String() string {
	return string(v)
}
