package speech

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"

	openai "github.com/openai/openai-go/v3"

	"herald/pkg/audioconv"
)

// Remote transcribes through the OpenAI audio API. Network failures are
// reported as ErrConnectivity so the session can drop to passive.
type Remote struct {
	api      *openai.Client
	model    openai.AudioModel
	language string
}

func NewRemote(api *openai.Client, language string) *Remote {
	return &Remote{api: api, model: openai.AudioModelWhisper1, language: language}
}

func (r *Remote) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	f, err := os.CreateTemp("", "herald-*.wav")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := audioconv.EncodeWAV16k(f, pcm); err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "speech.wav", "audio/wav"),
		Model: r.model,
	}
	if r.language != "" && r.language != "auto" {
		params.Language = openai.String(r.language)
	}

	res, err := r.api.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	return res.Text, nil
}

// classify maps API-level failures (quota, bad audio) to ErrUnrecognized
// and everything else, the transport failures, to ErrConnectivity.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		log.Warn("Transcription rejected", "status", apiErr.StatusCode, "err", err)
		return fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnectivity, err)
}
