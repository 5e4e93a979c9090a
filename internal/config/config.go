package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

const (
	STTWhisper = "whisper"
	STTOpenAI  = "openai"
)

var ErrUnknownSTT = errors.New("unknown speech-to-text backend")

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Options are the daemon's command line and environment settings.
type Options struct {
	EnvFile      string
	Proxy        string
	LogLevel     string
	Model        string
	STT          string
	WhisperModel string
	Language     string
	Chime        string
	Voice        string
	Rate         int
	Duck         bool
	Bus          string
	Metrics      string
	KeepAlive    bool
	Phrasebook   string
	Socket       string

	APIKey string // OPENAI_API_KEY
}

func Parse(args []string) (*Options, error) {
	var o Options

	fs := cli.NewFlagSet("herald-daemon", cli.ContinueOnError)
	fs.StringVarP(&o.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&o.Proxy, "proxy", "p", "", "Socks proxy address for the OpenAI API")
	fs.StringVarP(&o.LogLevel, "log", "l", "info", "Log level")
	fs.StringVarP(&o.Model, "model", "m", "gpt-4o-mini", "Chat model for open questions")
	fs.StringVar(&o.STT, "stt", STTWhisper, "Speech-to-text backend: whisper|openai")
	fs.StringVar(&o.WhisperModel, "whisper-model", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	fs.StringVar(&o.Language, "lang", "en", "Recognition language")
	fs.StringVar(&o.Chime, "chime", "", "mp3 played on activation")
	fs.StringVar(&o.Voice, "voice", "en", "espeak-ng voice")
	fs.IntVar(&o.Rate, "rate", 175, "Speech rate, words per minute")
	fs.BoolVar(&o.Duck, "duck", false, "Lower other playback while active")
	fs.StringVar(&o.Bus, "bus", "", "Websocket hub to publish events to")
	fs.StringVar(&o.Metrics, "metrics", "", "Address to serve /metrics on")
	fs.BoolVar(&o.KeepAlive, "keep-alive", false, "Return to passive on a stop word instead of exiting")
	fs.StringVar(&o.Phrasebook, "phrasebook", "", "YAML phrasebook overriding phrases and timeouts")
	fs.StringVar(&o.Socket, "socket", "", "Control socket path (default $HERALD_SOCKET or /tmp/herald.sock)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.STT = strings.ToLower(o.STT)
	if o.STT != STTWhisper && o.STT != STTOpenAI {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSTT, o.STT)
	}

	return &o, nil
}

// LoadEnv reads the env file, if any, and picks up OPENAI_API_KEY. A
// missing env file is not an error.
func (o *Options) LoadEnv() error {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.EnvFile, err)
		}
	}
	o.APIKey = os.Getenv("OPENAI_API_KEY")
	return nil
}

// Level maps --log to a slog level, defaulting to info.
func (o *Options) Level() log.Level {
	if lvl, ok := logLevelMap[strings.ToLower(o.LogLevel)]; ok {
		return lvl
	}
	return log.LevelInfo
}
