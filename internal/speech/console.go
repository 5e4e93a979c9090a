package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Console reads typed utterances line by line, standing in for a
// microphone. Blank lines count as unrecognized speech.
type Console struct {
	lines chan string
	errc  chan error
	once  sync.Once
	in    io.Reader
}

func NewConsole(in io.Reader) *Console {
	return &Console{
		lines: make(chan string),
		errc:  make(chan error, 1),
		in:    in,
	}
}

func (c *Console) start() {
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			c.errc <- fmt.Errorf("%w: %v", ErrClosed, err)
		} else {
			c.errc <- ErrClosed
		}
	}()
}

func (c *Console) Listen(ctx context.Context, timeout, _ time.Duration) (string, error) {
	c.once.Do(c.start)

	var expire <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expire = t.C
	}

	select {
	case line := <-c.lines:
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			return "", ErrUnrecognized
		}
		return line, nil
	case err := <-c.errc:
		// Keep reporting closed to later callers.
		c.errc <- err
		return "", err
	case <-expire:
		return "", ErrNoSpeech
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Printer speaks by writing lines, prefixed with the assistant's name.
type Printer struct {
	mu   sync.Mutex
	out  io.Writer
	name string
}

func NewPrinter(out io.Writer, name string) *Printer {
	return &Printer{out: out, name: name}
}

func (p *Printer) Say(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.out, "%s: %s\n", p.name, text)
	return err
}
