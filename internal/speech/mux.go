package speech

import (
	"context"
	"time"
)

// Mux wraps a listener and lets other goroutines inject typed utterances.
// An injected utterance preempts a listen in progress, so the session loop
// stays the only consumer. Listen must not be called concurrently.
type Mux struct {
	base   Listener
	inject chan string

	// injection deferred behind an utterance the base listener finished
	pending []string
}

func NewMux(base Listener) *Mux {
	return &Mux{base: base, inject: make(chan string, 8)}
}

func (m *Mux) Inject(ctx context.Context, text string) error {
	select {
	case m.inject <- text:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type heard struct {
	text string
	err  error
}

func (m *Mux) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	if len(m.pending) > 0 {
		t := m.pending[0]
		m.pending = m.pending[1:]
		return injected(t)
	}

	select {
	case t := <-m.inject:
		return injected(t)
	default:
	}

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan heard, 1)
	go func() {
		t, err := m.base.Listen(lctx, timeout, phraseLimit)
		done <- heard{t, err}
	}()

	select {
	case h := <-done:
		return h.text, h.err
	case t := <-m.inject:
		cancel()
		// The base listener may have finished an utterance before it saw
		// the cancellation. That one goes first.
		if h := <-done; h.err == nil && h.text != "" {
			m.pending = append(m.pending, t)
			return h.text, nil
		}
		return injected(t)
	}
}

func injected(t string) (string, error) {
	t = Clean(t)
	if t == "" {
		return "", ErrUnrecognized
	}
	return t, nil
}
