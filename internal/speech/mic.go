package speech

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"time"

	"herald/internal/audio"
)

// Capturer records one phrase of mono 16 kHz PCM.
type Capturer interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error)
}

// Mic listens on a capture device and transcribes what it hears.
type Mic struct {
	capture Capturer
	tr      Transcriber
}

func NewMic(capture Capturer, tr Transcriber) *Mic {
	return &Mic{capture: capture, tr: tr}
}

func (m *Mic) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	pcm, err := m.capture.Listen(ctx, timeout, phraseLimit)
	if errors.Is(err, audio.ErrSilence) {
		return "", ErrNoSpeech
	}
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}

	log.Debug("Recorded", "samples", len(pcm))

	text, err := m.tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", err
	}

	text = Clean(text)
	if text == "" {
		return "", ErrUnrecognized
	}

	log.Info("Transcribed", "text", text)
	return text, nil
}

// whisper annotates non-speech as [BLANK_AUDIO], (music), *coughs* etc.
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// Clean strips transcriber annotations, collapses whitespace and
// lowercases.
func Clean(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
