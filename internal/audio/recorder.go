package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

// ErrSilence is returned when no speech starts before the listen timeout.
var ErrSilence = errors.New("no speech before timeout")

type RecorderConfig struct {
	SilenceThreshRMS float64       // frames above this count as speech
	TrailingSilence  time.Duration // silence that ends a phrase
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SilenceThreshRMS: 0.015,
		TrailingSilence:  600 * time.Millisecond,
	}
}

type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) *Recorder { return &Recorder{cfg: cfg} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Listen records one phrase from the default input device. It waits up to
// timeout for speech to begin (0 waits until ctx is done), then records
// until trailing silence or phraseLimit. Output is mono 16 kHz float32.
func (r *Recorder) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		frameDur      = time.Second * frameSize / SampleRate
		silenceFrames = int(r.cfg.TrailingSilence / frameDur)
		waitFrames    = int(timeout / frameDur)
		phraseFrames  = int(phraseLimit / frameDur)
		speaking      bool
		quiet         int
		spoken        int
	)

	for waited := 0; ; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		loud := frameRMS(buf) > r.cfg.SilenceThreshRMS

		if !speaking {
			if !loud {
				waited++
				if timeout > 0 && waited >= waitFrames {
					return nil, ErrSilence
				}
				continue
			}
			speaking = true
		}

		out = append(out, buf...)
		spoken++

		if loud {
			quiet = 0
		} else {
			quiet++
			if quiet >= silenceFrames {
				break
			}
		}

		if phraseLimit > 0 && spoken >= phraseFrames {
			break
		}
	}

	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
