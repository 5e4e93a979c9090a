package dispatch

import (
	"context"
	"errors"
	"io"
	log "log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/intent"
)

type fakeBridge struct {
	text  string
	err   error
	block bool
	calls []string
}

func (b *fakeBridge) Complete(ctx context.Context, text string) (string, error) {
	b.calls = append(b.calls, text)
	if b.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return b.text, b.err
}

type recorder struct {
	calls map[intent.Key][]string
}

func (r *recorder) handler(key intent.Key, resp string) Handler {
	return func(_ context.Context, arg string) (string, error) {
		r.calls[key] = append(r.calls[key], arg)
		return resp, nil
	}
}

func newDispatcher(t *testing.T, bridge Bridge, handlers map[intent.Key]Handler) *Dispatcher {
	t.Helper()
	quiet := log.New(log.NewTextHandler(io.Discard, nil))
	return New(intent.Default(), handlers, bridge,
		WithLogger(quiet),
		WithHandlerTimeout(200*time.Millisecond),
		WithBridgeTimeout(200*time.Millisecond),
	)
}

func TestIsTermination(t *testing.T) {
	for _, u := range []string{"stop", "please stop now", "exit", "quit it", "bye", "ok goodbye", "  STOP  "} {
		assert.True(t, IsTermination(u), u)
	}
	for _, u := range []string{"", "stopwatch", "exiting", "byebye", "nonstop music", "quite good", "goodbyes"} {
		assert.False(t, IsTermination(u), u)
	}
}

func TestDispatch_Termination(t *testing.T) {
	r := &recorder{calls: map[intent.Key][]string{}}
	b := &fakeBridge{text: "never"}
	d := newDispatcher(t, b, map[intent.Key]Handler{intent.Open: r.handler(intent.Open, "x")})

	for _, u := range []string{"bye", "open notepad and then exit", "Goodbye"} {
		out := d.Dispatch(context.Background(), u)
		assert.True(t, out.Terminate, u)
		assert.Equal(t, Farewell, out.Response, u)
	}

	assert.Empty(t, r.calls)
	assert.Empty(t, b.calls)
}

func TestDispatch_CustomFarewell(t *testing.T) {
	d := New(intent.Default(), nil, nil, WithFarewell("See you."))
	assert.Equal(t, "See you.", d.Dispatch(context.Background(), "quit").Response)

	d = New(intent.Default(), nil, nil, WithFarewell(""))
	assert.Equal(t, Farewell, d.Dispatch(context.Background(), "quit").Response)
}

func TestDispatch_MatchedHandler(t *testing.T) {
	r := &recorder{calls: map[intent.Key][]string{}}
	d := newDispatcher(t, nil, map[intent.Key]Handler{
		intent.Search: r.handler(intent.Search, "Searching for rust programming on Google."),
	})

	out := d.Dispatch(context.Background(), "search for rust programming")

	assert.False(t, out.Terminate)
	assert.False(t, out.Fallback)
	assert.Equal(t, intent.Search, out.Intent)
	assert.Equal(t, "rust programming", out.Arg)
	assert.Equal(t, "Searching for rust programming on Google.", out.Response)
	assert.Equal(t, []string{"rust programming"}, r.calls[intent.Search])
}

func TestDispatch_EmptyArgStillReachesHandler(t *testing.T) {
	r := &recorder{calls: map[intent.Key][]string{}}
	d := newDispatcher(t, nil, map[intent.Key]Handler{
		intent.Open: r.handler(intent.Open, "What application or website would you like me to open?"),
	})

	out := d.Dispatch(context.Background(), "open")

	assert.Equal(t, intent.Open, out.Intent)
	assert.Equal(t, "What application or website would you like me to open?", out.Response)
	assert.Equal(t, []string{""}, r.calls[intent.Open])
}

func TestDispatch_HandlerFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler Handler
	}{
		{"error", func(context.Context, string) (string, error) { return "", errors.New("boom") }},
		{"panic", func(context.Context, string) (string, error) { panic("kaput") }},
		{"empty response", func(context.Context, string) (string, error) { return "  ", nil }},
		{"ignores deadline", func(context.Context, string) (string, error) {
			time.Sleep(time.Second)
			return "late", nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, nil, map[intent.Key]Handler{intent.Joke: tt.handler})

			out := d.Dispatch(context.Background(), "tell me a joke")

			assert.Equal(t, intent.Joke, out.Intent)
			assert.Equal(t, Apology, out.Response)
		})
	}
}

func TestDispatch_UnboundIntent(t *testing.T) {
	d := newDispatcher(t, &fakeBridge{text: "ai"}, map[intent.Key]Handler{})

	out := d.Dispatch(context.Background(), "what time is it")

	assert.Equal(t, intent.Time, out.Intent)
	assert.Equal(t, Apology, out.Response)
	assert.True(t, out.Failed)
}

func TestDispatch_BridgeFallback(t *testing.T) {
	b := &fakeBridge{text: "The universe is also called the cosmos."}
	d := newDispatcher(t, b, nil)

	out := d.Dispatch(context.Background(), "Tell me another name of the universe")

	assert.True(t, out.Fallback)
	assert.False(t, out.Failed)
	assert.Equal(t, "The universe is also called the cosmos.", out.Response)
	require.Len(t, b.calls, 1)
	assert.Equal(t, "tell me another name of the universe", b.calls[0])
}

func TestDispatch_BridgeFailures(t *testing.T) {
	tests := []struct {
		name   string
		bridge Bridge
	}{
		{"no bridge", nil},
		{"error", &fakeBridge{err: errors.New("quota")}},
		{"empty text", &fakeBridge{text: ""}},
		{"timeout", &fakeBridge{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, tt.bridge, nil)

			out := d.Dispatch(context.Background(), "xyzzy plugh")

			assert.True(t, out.Fallback)
			assert.True(t, out.Failed)
			assert.Equal(t, BridgeFailure, out.Response)
		})
	}
}

func TestDispatch_EmptyUtterance(t *testing.T) {
	b := &fakeBridge{text: "ai"}
	d := newDispatcher(t, b, nil)

	out := d.Dispatch(context.Background(), "   ")

	assert.Equal(t, NotHeard, out.Response)
	assert.Empty(t, b.calls)
}
