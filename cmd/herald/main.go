// Command herald runs the assistant on the terminal: typed lines stand in
// for speech and responses are printed.
package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	cli "github.com/spf13/pflag"

	"herald/internal/bridge"
	"herald/internal/config"
	"herald/internal/jokes"
	"herald/internal/opener"
	"herald/internal/session"
	"herald/internal/skills"
	"herald/internal/speech"
)

func main() {
	opts := config.Options{}
	cli.StringVarP(&opts.EnvFile, "env", "e", ".env", "Env file path")
	cli.StringVarP(&opts.LogLevel, "log", "l", "warn", "Log level")
	cli.StringVarP(&opts.Model, "model", "m", "gpt-4o-mini", "Chat model for open questions")
	cli.StringVar(&opts.Phrasebook, "phrasebook", "", "YAML phrasebook")
	cli.BoolVar(&opts.KeepAlive, "keep-alive", false, "Return to passive on a stop word instead of exiting")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      opts.Level(),
		TimeFormat: time.TimeOnly,
	})))

	if err := opts.LoadEnv(); err != nil {
		log.Error("Failed to load env", "err", err)
		os.Exit(1)
	}

	var (
		pb  *config.Phrasebook
		err error
	)
	if opts.Phrasebook != "" {
		if pb, err = config.LoadPhrasebook(opts.Phrasebook); err != nil {
			log.Error("Failed to load phrasebook", "err", err)
			os.Exit(1)
		}
	}

	var api *openai.Client
	if opts.APIKey != "" {
		c := openai.NewClient(option.WithAPIKey(opts.APIKey))
		api = &c
	}

	sk := skills.New(opener.NewSystem(), jokes.NewSource(jokes.DefaultURL, nil))
	m, cfg, err := pb.Session(sk.Handlers(), bridge.New(api, pb.BridgeConfig(opts.Model)), opts.KeepAlive)
	if err != nil {
		log.Error("Failed to build session machine", "err", err)
		os.Exit(1)
	}
	cfg.ActiveTimeout = 0 // typing is slow; wait for the next line

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in := speech.NewConsole(os.Stdin)
	out := speech.NewPrinter(os.Stdout, "Herald")

	if err := session.NewLoop(m, in, out, cfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Session loop stopped", "err", err)
		os.Exit(1)
	}
}
