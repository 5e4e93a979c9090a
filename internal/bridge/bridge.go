package bridge

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/sony/gobreaker"
)

const DefaultPersona = "You are Herald, a virtual assistant that can perform various tasks like Alexa and Google Assistant. " +
	"Your answers are spoken aloud, so keep them short and plain, without markdown."

var (
	// ErrUnavailable means the backend was never initialised.
	ErrUnavailable = errors.New("ai backend unavailable")
	// ErrEmpty covers empty, refused and content-filtered completions.
	ErrEmpty = errors.New("ai backend returned no usable text")
)

type Config struct {
	Model     openai.ChatModel
	Persona   string
	MaxTokens int64
}

func DefaultConfig() Config {
	return Config{
		Model:     openai.ChatModelGPT4oMini,
		Persona:   DefaultPersona,
		MaxTokens: 100,
	}
}

type Client struct {
	api     *openai.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker
}

// New wraps an initialised OpenAI client. A nil api yields a client whose
// every call fails with ErrUnavailable.
func New(api *openai.Client, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.Persona == "" {
		cfg.Persona = DefaultPersona
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai-bridge",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// A refusal is an answer, not an outage.
			return err == nil || errors.Is(err, ErrEmpty)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{api: api, cfg: cfg, breaker: cb}
}

func (c *Client) Available() bool {
	return c != nil && c.api != nil
}

func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, text)
	})
	if err != nil {
		return "", err
	}

	return out.(string), nil
}

func (c *Client) complete(ctx context.Context, text string) (string, error) {
	log.Debug("Sending to AI", "text", text)

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.cfg.Persona),
			openai.UserMessage(text),
		},
		Model: c.cfg.Model,
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.cfg.MaxTokens)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmpty)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: content filtered", ErrEmpty)
	}
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: refused: %s", ErrEmpty, choice.Message.Refusal)
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrEmpty)
	}

	log.Debug("AI answered", "text", content)
	return content, nil
}
