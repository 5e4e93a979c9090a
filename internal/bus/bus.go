package bus

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"herald/internal/session"
)

const From = "herald"

type Message struct {
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	Kind      string `json:"kind"`
	Content   string `json:"content"`
	Session   string `json:"session,omitempty"`
	Utterance string `json:"utterance,omitempty"`
	Intent    string `json:"intent,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
}

// QueueSize bounds the events waiting for a slow or absent hub. Events
// beyond it are dropped.
const QueueSize = 64

// Publisher writes session events to a websocket hub. A broken connection
// is redialed once per write. Observer hands events to a background
// writer, so a dead hub never stalls the session loop.
type Publisher struct {
	url     string
	timeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn

	queue chan Message
	quit  chan struct{}
	done  chan struct{}
	closing sync.Once
}

func NewPublisher(url string, timeout time.Duration) (*Publisher, error) {
	p := newPublisher(url, timeout)
	if err := p.dial(); err != nil {
		return nil, err
	}
	go p.drain()

	log.Info("Connected to bus", "url", url)
	return p, nil
}

func newPublisher(url string, timeout time.Duration) *Publisher {
	return &Publisher{
		url:     url,
		timeout: timeout,
		queue:   make(chan Message, QueueSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *Publisher) drain() {
	defer close(p.done)

	for {
		select {
		case <-p.quit:
			return
		case m := <-p.queue:
			if err := p.Publish(m); err != nil {
				log.Warn("Failed to publish event", "kind", m.Kind, "err", err)
			}
		}
	}
}

func (p *Publisher) dial() error {
	d := *websocket.DefaultDialer
	if p.timeout > 0 {
		d.HandshakeTimeout = p.timeout
	}

	conn, _, err := d.Dial(p.url, nil)
	if err != nil {
		return fmt.Errorf("dial bus %s: %w", p.url, err)
	}
	p.conn = conn
	return nil
}

func (p *Publisher) Publish(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		if err = p.write(data); err == nil {
			return nil
		}
		log.Warn("Bus write failed, redialing", "err", err)
		p.conn.Close()
		p.conn = nil
	}

	if err := p.dial(); err != nil {
		return err
	}
	return p.write(data)
}

func (p *Publisher) write(data []byte) error {
	if p.timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// Observer queues every session event without blocking. Publish errors
// are logged by the background writer.
func (p *Publisher) Observer() session.Observer {
	return func(ev session.Event) {
		select {
		case p.queue <- FromEvent(ev):
		default:
			log.Warn("Bus queue full, dropping event", "kind", ev.Kind)
		}
	}
}

// Close stops the background writer, dropping queued events, and closes
// the connection. It waits at most for the write in flight.
func (p *Publisher) Close() error {
	p.closing.Do(func() { close(p.quit) })
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := p.conn.Close()
	p.conn = nil
	return err
}

func FromEvent(ev session.Event) Message {
	m := Message{
		From:    From,
		Kind:    string(ev.Kind),
		Session: ev.Session,
	}

	switch ev.Kind {
	case session.EventState:
		m.Content = ev.To.String()
	case session.EventTurn:
		m.Content = ev.Response
		m.Utterance = ev.Utterance
		m.Intent = string(ev.Intent)
		m.Fallback = ev.Fallback
		m.Failed = ev.Failed
	}
	return m
}
