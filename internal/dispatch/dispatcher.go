package dispatch

import (
	"context"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"time"

	"herald/internal/intent"
)

const (
	Farewell      = "Goodbye! Have a great day!"
	NotHeard      = "Sorry, I didn't catch that."
	Apology       = "Sorry, I had trouble executing that command."
	BridgeFailure = "I couldn't get a proper response from the AI. Maybe try rephrasing?"
)

var terminationRe = regexp.MustCompile(`\b(stop|exit|quit|bye|goodbye)\b`)

// Handler runs one intent. arg is the text after the trigger phrase and may
// be empty; the handler prompts for it in that case.
type Handler func(ctx context.Context, arg string) (string, error)

type Bridge interface {
	Complete(ctx context.Context, text string) (string, error)
}

// Outcome is the result of one dispatch cycle. Response is never empty.
type Outcome struct {
	Utterance string
	Intent    intent.Key
	Arg       string
	Response  string
	Terminate bool
	Fallback  bool
	Failed    bool
	Latency   time.Duration
}

type Option func(*Dispatcher)

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func WithHandlerTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.handlerTimeout = t }
}

func WithBridgeTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.bridgeTimeout = t }
}

// WithFarewell replaces the goodbye spoken on a stop word. Empty keeps
// the default.
func WithFarewell(text string) Option {
	return func(d *Dispatcher) {
		if text != "" {
			d.farewell = text
		}
	}
}

type Dispatcher struct {
	catalog  *intent.Catalog
	handlers map[intent.Key]Handler
	bridge   Bridge

	handlerTimeout time.Duration
	bridgeTimeout  time.Duration
	farewell       string

	log *log.Logger
}

func New(catalog *intent.Catalog, handlers map[intent.Key]Handler, bridge Bridge, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog:        catalog,
		handlers:       handlers,
		bridge:         bridge,
		handlerTimeout: 10 * time.Second,
		bridgeTimeout:  20 * time.Second,
		farewell:       Farewell,
		log:            log.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// IsTermination reports whether the utterance holds a stop word as a
// whole word.
func IsTermination(utterance string) bool {
	return terminationRe.MatchString(intent.Normalize(utterance))
}

func (d *Dispatcher) Dispatch(ctx context.Context, utterance string) Outcome {
	start := time.Now()
	out := d.dispatch(ctx, intent.Normalize(utterance))
	out.Latency = time.Since(start)
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, u string) Outcome {
	if IsTermination(u) {
		d.log.Info("Termination requested", "utterance", u)
		return Outcome{Utterance: u, Response: d.farewell, Terminate: true}
	}

	if u == "" {
		return Outcome{Utterance: u, Response: NotHeard}
	}

	m := d.catalog.Lookup(u)
	if !m.Matched {
		d.log.Info("No intent matched, asking AI", "utterance", u)
		resp, ok := d.askBridge(ctx, u)
		return Outcome{Utterance: u, Response: resp, Fallback: true, Failed: !ok}
	}

	out := Outcome{Utterance: u, Intent: m.Key, Arg: m.Arg}

	resp, err := d.runHandler(ctx, m)
	if err != nil {
		d.log.Error("Handler failed", "intent", m.Key, "arg", m.Arg, "err", err)
		out.Response = Apology
		out.Failed = true
		return out
	}

	if strings.TrimSpace(resp) == "" {
		d.log.Warn("Handler produced no response", "intent", m.Key)
		resp = Apology
	}
	out.Response = resp

	return out
}

func (d *Dispatcher) runHandler(ctx context.Context, m intent.Match) (string, error) {
	h, ok := d.handlers[m.Key]
	if !ok || h == nil {
		return "", fmt.Errorf("no handler bound for intent %q", m.Key)
	}

	return bounded(ctx, d.handlerTimeout, func(ctx context.Context) (string, error) {
		return h(ctx, m.Arg)
	})
}

func (d *Dispatcher) askBridge(ctx context.Context, u string) (string, bool) {
	if d.bridge == nil {
		d.log.Warn("No AI bridge configured")
		return BridgeFailure, false
	}

	text, err := bounded(ctx, d.bridgeTimeout, func(ctx context.Context) (string, error) {
		return d.bridge.Complete(ctx, u)
	})
	if err != nil {
		d.log.Error("AI bridge failed", "err", err)
		return BridgeFailure, false
	}

	if strings.TrimSpace(text) == "" {
		d.log.Warn("AI bridge returned empty text")
		return BridgeFailure, false
	}

	return text, true
}

type result struct {
	text string
	err  error
}

// bounded runs fn with a deadline. A call that outlives the deadline is
// abandoned and reported as failed; a panic is reported as an error.
func bounded(ctx context.Context, t time.Duration, fn func(context.Context) (string, error)) (string, error) {
	var cancel context.CancelFunc
	if t > 0 {
		ctx, cancel = context.WithTimeout(ctx, t)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := fn(ctx)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("gave up waiting: %w", ctx.Err())
	}
}
