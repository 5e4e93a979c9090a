// Package speech holds the speech input and output collaborators used by
// the session loop: microphone and console listeners, transcribers and
// speakers.
package speech

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoSpeech: nothing was said before the listen timeout.
	ErrNoSpeech = errors.New("no speech")
	// ErrUnrecognized: audio was captured but could not be transcribed.
	ErrUnrecognized = errors.New("speech not recognized")
	// ErrConnectivity: the recognition backend could not be reached.
	ErrConnectivity = errors.New("speech backend unreachable")
	// ErrClosed: the input source is gone for good.
	ErrClosed = errors.New("speech input closed")
)

type Listener interface {
	// Listen returns one lowercase utterance. timeout bounds the wait for
	// speech to begin (0 = unbounded), phraseLimit bounds its length.
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
}

type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Transcriber turns mono 16 kHz PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Serial wraps a Transcriber so that calls never overlap. The whisper
// context is shared by every caller of one model.
type Serial struct {
	mu sync.Mutex
	tr Transcriber
}

func NewSerial(tr Transcriber) *Serial {
	return &Serial{tr: tr}
}

func (s *Serial) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.tr.Transcribe(ctx, pcm)
}
