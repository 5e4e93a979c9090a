package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus"

	"herald/internal/audio"
	"herald/internal/bridge"
	"herald/internal/bus"
	"herald/internal/config"
	"herald/internal/ipc"
	"herald/internal/jokes"
	"herald/internal/metrics"
	"herald/internal/notify"
	"herald/internal/opener"
	"herald/internal/proxy"
	"herald/internal/session"
	"herald/internal/skills"
	"herald/internal/speech"
	"herald/internal/tts"
	"herald/pkg/audioconv"
	"herald/pkg/stt"
)

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      opts.Level(),
		TimeFormat: time.TimeOnly,
	})))

	log.Info("Booting up")

	if err := opts.LoadEnv(); err != nil {
		log.Error("Failed to load env", "err", err)
		os.Exit(1)
	}

	var pb *config.Phrasebook
	if opts.Phrasebook != "" {
		pb, err = config.LoadPhrasebook(opts.Phrasebook)
		if err != nil {
			log.Error("Failed to load phrasebook", "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded phrasebook", "path", opts.Phrasebook)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := openAIClient(opts)
	if err != nil {
		log.Error("Failed to set up OpenAI client", "err", err)
		os.Exit(1)
	}
	if api == nil {
		if opts.STT == config.STTOpenAI {
			log.Error("OPENAI_API_KEY not set, required by --stt openai")
			os.Exit(1)
		}
		log.Warn("OPENAI_API_KEY not set, open questions will not be answered")
	}

	ai := bridge.New(api, pb.BridgeConfig(opts.Model))

	rec := audio.NewRecorder(audio.DefaultRecorderConfig())
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	var tr speech.Transcriber
	switch opts.STT {
	case config.STTOpenAI:
		tr = speech.NewRemote(api, opts.Language)
	default:
		w, err := stt.NewTranscriber(opts.WhisperModel)
		if err != nil {
			log.Error("Failed to init whisper", "model", opts.WhisperModel, "err", err)
			os.Exit(1)
		}
		defer w.Close()
		tr = speech.NewWhisper(w, opts.Language)
	}

	log.Debug("Loaded speech recognition", "backend", opts.STT)

	// The mic and the feed command share one recognizer.
	tr = speech.NewSerial(tr)
	mux := speech.NewMux(speech.NewMic(rec, tr))

	sk := skills.New(opener.NewSystem(), jokes.NewSource(jokes.DefaultURL, nil))
	m, cfg, err := pb.Session(sk.Handlers(), ai, opts.KeepAlive)
	if err != nil {
		log.Error("Failed to build session machine", "err", err)
		os.Exit(1)
	}

	observers := []session.Observer{logTurns}

	if opts.Chime != "" {
		chime := notify.NewChime(opts.Chime)
		observers = append(observers, func(ev session.Event) {
			if ev.Kind == session.EventState && ev.To == session.Active {
				go chime.PlayQuietly()
			}
		})
	}

	if opts.Duck {
		observers = append(observers, duckObserver(ctx, audio.NewDucker([]string{"herald", "espeak-ng"}, 0.3, 5, 150*time.Millisecond)))
	}

	if opts.Bus != "" {
		pub, err := bus.NewPublisher(opts.Bus, 5*time.Second)
		if err != nil {
			log.Error("Failed to connect to bus", "url", opts.Bus, "err", err)
			os.Exit(1)
		}
		defer pub.Close()
		observers = append(observers, pub.Observer())
	}

	if opts.Metrics != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, metrics.New(reg).Observe)
		go func() {
			if err := metrics.Serve(ctx, opts.Metrics, reg); err != nil {
				log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv, err := ipc.Listen(ipc.SocketPath(opts.Socket), control(ctx, cancel, mux, tr))
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()
	go srv.Serve(ctx)

	log.Info("Boot up - successful")

	err = session.NewLoop(m, mux, tts.NewEspeak(opts.Voice, opts.Rate), cfg, observers...).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Session loop stopped", "err", err)
	}

	log.Info("Shutting down")
}

// openAIClient returns nil without an API key.
func openAIClient(opts *config.Options) (*openai.Client, error) {
	if opts.APIKey == "" {
		return nil, nil
	}

	ropts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.Proxy != "" {
		httpClient, err := proxy.NewSocksClient(opts.Proxy, 120*time.Second)
		if err != nil {
			return nil, err
		}
		ropts = append(ropts, option.WithHTTPClient(httpClient))
		log.Debug("Loaded proxy", "proxy", opts.Proxy)
	}

	client := openai.NewClient(ropts...)
	return &client, nil
}

func control(ctx context.Context, stop context.CancelFunc, mux *speech.Mux, tr speech.Transcriber) ipc.Handler {
	return func(msg ipc.ControlMessage) error {
		switch msg.Cmd {
		case ipc.CmdSay:
			if msg.Text == "" {
				return errors.New("say: empty text")
			}
			return mux.Inject(ctx, msg.Text)

		case ipc.CmdFeed:
			pcm, err := audioconv.DecodeFile(msg.Path, audioconv.Options{MaxSamples: audioconv.MaxFeedSamples})
			if err != nil {
				return fmt.Errorf("feed: %w", err)
			}
			text, err := tr.Transcribe(ctx, pcm)
			if err != nil {
				return fmt.Errorf("feed: %w", err)
			}
			text = speech.Clean(text)
			log.Info("Transcribed file", "path", msg.Path, "text", text)
			return mux.Inject(ctx, text)

		case ipc.CmdStop:
			log.Info("Stop requested over control socket")
			stop()
			return nil

		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return fmt.Errorf("unknown command %q", msg.Cmd)
		}
	}
}

func duckObserver(ctx context.Context, d *audio.Ducker) session.Observer {
	return func(ev session.Event) {
		if ev.Kind != session.EventState {
			return
		}

		var err error
		if ev.To == session.Active {
			err = d.Duck(ctx)
		} else {
			err = d.Restore(context.WithoutCancel(ctx))
		}
		if err != nil {
			log.Warn("Failed to adjust playback volume", "err", err)
		}
	}
}

func logTurns(ev session.Event) {
	switch ev.Kind {
	case session.EventState:
		log.Info("State changed", "from", ev.From, "to", ev.To, "session", ev.Session)
	case session.EventTurn:
		log.Info("Turn",
			"utterance", ev.Utterance,
			"intent", ev.Intent,
			"fallback", ev.Fallback,
			"failed", ev.Failed,
			"latency", ev.Latency.Round(time.Millisecond),
		)
	}
}
