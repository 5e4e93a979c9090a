package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/dispatch"
)

type fakeDispatcher struct {
	heard []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, u string) dispatch.Outcome {
	f.heard = append(f.heard, u)
	if dispatch.IsTermination(u) {
		return dispatch.Outcome{Utterance: u, Response: dispatch.Farewell, Terminate: true}
	}
	return dispatch.Outcome{Utterance: u, Response: "ok: " + u}
}

func newMachine(t *testing.T, d Dispatcher) *Machine {
	t.Helper()
	m, err := NewMachine(d, DefaultActivationPhrases())
	require.NoError(t, err)
	n := 0
	m.newID = func() string {
		n++
		return "session-" + string(rune('0'+n))
	}
	return m
}

func TestMachine_StartsPassive(t *testing.T) {
	m := newMachine(t, &fakeDispatcher{})
	assert.Equal(t, Passive, m.State())
	assert.Empty(t, m.SessionID())
}

func TestMachine_Activation(t *testing.T) {
	d := &fakeDispatcher{}
	m := newMachine(t, d)

	step := m.Hear(context.Background(), "hey there")

	assert.Equal(t, Step{From: Passive, To: Active, Session: "session-1", Response: Greeting}, step)
	assert.Equal(t, Active, m.State())
	assert.Equal(t, "session-1", m.SessionID())
	assert.Empty(t, d.heard)
}

func TestMachine_PassiveIgnoresNonActivation(t *testing.T) {
	d := &fakeDispatcher{}
	m := newMachine(t, d)

	for _, u := range []string{"what time is it", "this is history", "you know", "bye", ""} {
		step := m.Hear(context.Background(), u)
		assert.Equal(t, Step{From: Passive, To: Passive}, step, u)
	}
	assert.Equal(t, Passive, m.State())
	assert.Empty(t, d.heard)
}

func TestMachine_ActiveDispatches(t *testing.T) {
	d := &fakeDispatcher{}
	m := newMachine(t, d)
	m.Hear(context.Background(), "hello")

	step := m.Hear(context.Background(), "search for rust programming")

	assert.True(t, step.Dispatched)
	assert.Equal(t, Active, step.To)
	assert.Equal(t, "ok: search for rust programming", step.Response)
	assert.Equal(t, "session-1", step.Session)
	assert.Equal(t, []string{"search for rust programming"}, d.heard)

	// Activation phrases are plain commands once active.
	step = m.Hear(context.Background(), "hey")
	assert.True(t, step.Dispatched)
	assert.Equal(t, Active, m.State())
}

func TestMachine_TerminationReturnsToPassive(t *testing.T) {
	d := &fakeDispatcher{}
	m := newMachine(t, d)
	m.Hear(context.Background(), "hey")

	step := m.Hear(context.Background(), "ok goodbye")

	assert.True(t, step.Terminate)
	assert.Equal(t, Passive, step.To)
	assert.Equal(t, dispatch.Farewell, step.Response)
	assert.Equal(t, "session-1", step.Session)
	assert.Equal(t, Passive, m.State())

	// Commands need a fresh activation.
	step = m.Hear(context.Background(), "what time is it")
	assert.False(t, step.Dispatched)

	step = m.Hear(context.Background(), "hi")
	assert.Equal(t, "session-2", step.Session)
}

func TestMachine_Timeout(t *testing.T) {
	m := newMachine(t, &fakeDispatcher{})

	assert.Equal(t, Step{From: Passive, To: Passive}, m.Timeout())

	m.Hear(context.Background(), "hey")
	step := m.Timeout()
	assert.Equal(t, Step{From: Active, To: Passive, Session: "session-1"}, step)
	assert.Empty(t, step.Response)
	assert.Equal(t, Passive, m.State())
}

func TestMachine_DisconnectAnnouncesOncePerOutage(t *testing.T) {
	m := newMachine(t, &fakeDispatcher{})
	m.Hear(context.Background(), "hey")

	step := m.Disconnect()
	assert.Equal(t, Active, step.From)
	assert.Equal(t, Passive, step.To)
	assert.Equal(t, Disconnected, step.Response)

	step = m.Disconnect()
	assert.Empty(t, step.Response)

	// Any successful hear ends the outage.
	m.Hear(context.Background(), "mumble")
	step = m.Disconnect()
	assert.Equal(t, Disconnected, step.Response)
}

func TestMachine_IsActivationWholeWords(t *testing.T) {
	m := newMachine(t, &fakeDispatcher{})

	for _, u := range []string{"hey there", "Herald, are you there", "what's up", "wake up please", "oh hi"} {
		assert.True(t, m.IsActivation(u), u)
	}
	for _, u := range []string{"they said", "this", "your move", "helpful", "restart"} {
		assert.False(t, m.IsActivation(u), u)
	}
}

func TestNewMachine_Options(t *testing.T) {
	_, err := NewMachine(&fakeDispatcher{}, []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoActivationPhrases)

	m, err := NewMachine(&fakeDispatcher{}, []string{"computer"}, WithGreeting("Ready."))
	require.NoError(t, err)
	step := m.Hear(context.Background(), "Computer")
	assert.Equal(t, "Ready.", step.Response)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "passive", Passive.String())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "unknown", State(7).String())
}
