package jokes

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultURL = "https://official-joke-api.appspot.com/jokes/programming/random"

var offline = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"There are 10 types of people: those who understand binary and those who don't.",
	"A SQL query walks into a bar, walks up to two tables and asks, can I join you?",
	"Why did the developer go broke? Because he used up all his cache.",
	"How many programmers does it take to change a light bulb? None, that's a hardware problem.",
	"Debugging is like being the detective in a crime movie where you are also the murderer.",
	"I would tell you a UDP joke, but you might not get it.",
	"Why do Java developers wear glasses? Because they don't C sharp.",
}

// Source fetches a joke over HTTP and falls back to a built-in list when
// the service is unreachable or returns something unusable.
type Source struct {
	url    string
	client *http.Client
	pick   func(n int) int
}

func NewSource(url string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Source{url: url, client: client, pick: rand.IntN}
}

func (s *Source) Joke(ctx context.Context) (string, error) {
	if s.url != "" {
		joke, err := s.fetch(ctx)
		if err == nil {
			return joke, nil
		}
		log.Warn("Joke service unavailable, using offline list", "err", err)
	}
	return offline[s.pick(len(offline))], nil
}

func (s *Source) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("joke service: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}

	return parse(body)
}

// parse accepts the shapes common joke APIs use: a single {setup,
// punchline} object, an array of them, or a flat {joke} object.
func parse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("joke service: invalid json")
	}

	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		doc = doc.Get("0")
	}

	if j := strings.TrimSpace(doc.Get("joke").String()); j != "" {
		return j, nil
	}

	setup := strings.TrimSpace(doc.Get("setup").String())
	punch := strings.TrimSpace(doc.Get("punchline").String())
	if setup == "" || punch == "" {
		return "", errors.New("joke service: no joke in response")
	}

	return setup + " " + punch, nil
}
