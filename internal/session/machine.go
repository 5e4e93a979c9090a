package session

import (
	"context"
	"errors"
	log "log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"herald/internal/dispatch"
	"herald/internal/intent"
)

type State int

const (
	Passive State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Passive:
		return "passive"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

const (
	Greeting     = "Yeah, I am here."
	Disconnected = "I'm having trouble reaching the speech service. Say the wake word to try again."
)

var ErrNoActivationPhrases = errors.New("no activation phrases")

func DefaultActivationPhrases() []string {
	return []string{
		"hey herald", "herald", "hello", "hey", "hi", "hii", "yo", "sup",
		"what's up", "heya", "hiya", "assistant", "listen", "listening",
		"help", "wake up", "activate", "start", "how are you",
		"are you there", "are you awake", "are you listening",
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, utterance string) dispatch.Outcome
}

// Step describes one transition. An empty Response means stay silent.
// Session is the active period the step belongs to, if any.
type Step struct {
	From, To   State
	Session    string
	Response   string
	Terminate  bool
	Dispatched bool
	Outcome    dispatch.Outcome
}

// Machine is the passive/active activation state machine. It is not safe
// for concurrent use; the session loop is its only caller.
type Machine struct {
	state    State
	session  string
	degraded bool

	wake       *regexp.Regexp
	dispatcher Dispatcher
	greeting   string
	newID      func() string
}

type MachineOption func(*Machine)

func WithGreeting(g string) MachineOption {
	return func(m *Machine) {
		if g != "" {
			m.greeting = g
		}
	}
}

func NewMachine(d Dispatcher, phrases []string, opts ...MachineOption) (*Machine, error) {
	wake, err := wakeRegexp(phrases)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		state:      Passive,
		wake:       wake,
		dispatcher: d,
		greeting:   Greeting,
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// wakeRegexp matches any of the phrases as whole words.
func wakeRegexp(phrases []string) (*regexp.Regexp, error) {
	var quoted []string
	for _, p := range phrases {
		p = intent.Normalize(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	if len(quoted) == 0 {
		return nil, ErrNoActivationPhrases
	}
	return regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func (m *Machine) State() State { return m.state }

// SessionID identifies the current active period; empty while passive.
func (m *Machine) SessionID() string { return m.session }

func (m *Machine) IsActivation(utterance string) bool {
	return m.wake.MatchString(intent.Normalize(utterance))
}

func (m *Machine) Hear(ctx context.Context, utterance string) Step {
	m.degraded = false

	if m.state == Passive {
		if !m.IsActivation(utterance) {
			log.Debug("Ignoring utterance while passive", "utterance", utterance)
			return Step{From: Passive, To: Passive}
		}
		m.state = Active
		m.session = m.newID()
		log.Info("Activated", "session", m.session)
		return Step{From: Passive, To: Active, Session: m.session, Response: m.greeting}
	}

	out := m.dispatcher.Dispatch(ctx, utterance)
	step := Step{From: Active, To: Active, Session: m.session, Response: out.Response, Dispatched: true, Outcome: out}

	if out.Terminate {
		m.toPassive("terminated")
		step.To = Passive
		step.Terminate = true
	}

	return step
}

// Timeout handles a listen window with no speech. It never speaks.
func (m *Machine) Timeout() Step {
	step := Step{From: m.state, To: Passive, Session: m.session}
	if m.state == Active {
		m.toPassive("timeout")
	}
	return step
}

// Disconnect forces passive when the speech backend is unreachable. The
// user is told once per outage.
func (m *Machine) Disconnect() Step {
	step := Step{From: m.state, To: Passive, Session: m.session}
	if m.state == Active {
		m.toPassive("speech backend unreachable")
	}

	if !m.degraded {
		step.Response = Disconnected
	}
	m.degraded = true
	return step
}

func (m *Machine) toPassive(reason string) {
	log.Info("Returning to passive", "session", m.session, "reason", reason)
	m.state = Passive
	m.session = ""
}
