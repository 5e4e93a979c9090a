package session

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"herald/internal/intent"
	"herald/internal/speech"
)

type Config struct {
	PassiveTimeout time.Duration // 0 = wait indefinitely for the wake word
	ActiveTimeout  time.Duration
	PhraseLimit    time.Duration
	RetryDelay     time.Duration // pause after a failed listen
	KeepAlive      bool          // a stop word returns to passive instead of ending Run
}

func DefaultConfig() Config {
	return Config{
		PassiveTimeout: 0,
		ActiveTimeout:  8 * time.Second,
		PhraseLimit:    10 * time.Second,
		RetryDelay:     500 * time.Millisecond,
	}
}

type EventKind string

const (
	EventState EventKind = "state"
	EventTurn  EventKind = "turn"
)

// Event is published to observers after each state change and each
// dispatched turn.
type Event struct {
	Kind      EventKind
	Session   string
	From, To  State
	Utterance string
	Intent    intent.Key
	Response  string
	Fallback  bool
	Failed    bool
	Terminate bool
	Latency   time.Duration
	At        time.Time
}

type Observer func(Event)

// Loop is the single consumer: listen, step the machine, speak, repeat.
type Loop struct {
	m         *Machine
	in        speech.Listener
	out       speech.Speaker
	cfg       Config
	observers []Observer
}

func NewLoop(m *Machine, in speech.Listener, out speech.Speaker, cfg Config, observers ...Observer) *Loop {
	return &Loop{m: m, in: in, out: out, cfg: cfg, observers: observers}
}

// Run returns nil when a stop word ends the session (unless KeepAlive) or
// the input closes, and ctx.Err() when cancelled. Callers release devices
// after it returns.
func (l *Loop) Run(ctx context.Context) error {
	log.Info("Listening for wake word")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		timeout := l.cfg.PassiveTimeout
		if l.m.State() == Active {
			timeout = l.cfg.ActiveTimeout
		}

		utterance, err := l.in.Listen(ctx, timeout, l.cfg.PhraseLimit)

		var step Step
		switch {
		case err == nil:
			log.Debug("Heard", "utterance", utterance, "state", l.m.State())
			step = l.m.Hear(ctx, utterance)
		case errors.Is(err, speech.ErrNoSpeech):
			step = l.m.Timeout()
		case errors.Is(err, speech.ErrConnectivity):
			log.Error("Speech backend unreachable", "err", err)
			step = l.m.Disconnect()
		case errors.Is(err, speech.ErrClosed):
			log.Info("Speech input closed")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			log.Warn("Recognition failed, retrying", "err", err)
			if !l.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		l.apply(ctx, step)

		if step.Terminate && !l.cfg.KeepAlive {
			log.Info("Session terminated by user")
			return nil
		}
	}
}

func (l *Loop) apply(ctx context.Context, step Step) {
	now := time.Now()

	if step.Dispatched {
		o := step.Outcome
		l.publish(Event{
			Kind:      EventTurn,
			Session:   step.Session,
			From:      step.From,
			To:        step.To,
			Utterance: o.Utterance,
			Intent:    o.Intent,
			Response:  o.Response,
			Fallback:  o.Fallback,
			Failed:    o.Failed,
			Terminate: o.Terminate,
			Latency:   o.Latency,
			At:        now,
		})
	}

	if step.From != step.To {
		l.publish(Event{Kind: EventState, Session: step.Session, From: step.From, To: step.To, At: now})
	}

	if step.Response == "" {
		return
	}
	if err := l.out.Say(ctx, step.Response); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

func (l *Loop) publish(ev Event) {
	for _, o := range l.observers {
		o(ev)
	}
}

func (l *Loop) pause(ctx context.Context) bool {
	if l.cfg.RetryDelay <= 0 {
		return true
	}
	t := time.NewTimer(l.cfg.RetryDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
