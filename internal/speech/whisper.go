package speech

import (
	"context"
	"fmt"

	"herald/pkg/stt"
)

// Whisper transcribes locally with whisper.cpp.
type Whisper struct {
	tr   *stt.Transcriber
	opts stt.Options
}

func NewWhisper(tr *stt.Transcriber, language string) *Whisper {
	return &Whisper{tr: tr, opts: stt.Options{Language: language, InitialPrompt: stt.CommandPrompt}}
}

func (w *Whisper) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	res, err := w.tr.TranscribePCM(ctx, pcm, w.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	return res.Text, nil
}
