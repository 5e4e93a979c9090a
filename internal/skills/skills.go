package skills

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"strings"
	"time"

	"herald/internal/dispatch"
	"herald/internal/intent"
)

const (
	TimeLayout = "03:04 PM"
	DateLayout = "Monday, January 02, 2006"
)

// Opener launches and stops local applications and opens URLs.
type Opener interface {
	OpenApp(ctx context.Context, name string) bool
	OpenURL(ctx context.Context, url string) error
	CloseApp(ctx context.Context, name string) bool
}

type JokeSource interface {
	Joke(ctx context.Context) (string, error)
}

// URLs holds the endpoints handlers send the browser to.
type URLs struct {
	Search string // query is appended, e.g. https://www.google.com/search?q=
	Video  string
	News   string
}

func DefaultURLs() URLs {
	return URLs{
		Search: "https://www.google.com/search?q=",
		Video:  "https://www.youtube.com/results?search_query=",
		News:   "https://news.google.com",
	}
}

type Skills struct {
	Opener Opener
	Jokes  JokeSource
	URLs   URLs
	Now    func() time.Time
}

func New(opener Opener, jokes JokeSource) *Skills {
	return &Skills{
		Opener: opener,
		Jokes:  jokes,
		URLs:   DefaultURLs(),
		Now:    time.Now,
	}
}

// Handlers binds every intent of the default catalog.
func (s *Skills) Handlers() map[intent.Key]dispatch.Handler {
	return map[intent.Key]dispatch.Handler{
		intent.Open:    s.Open,
		intent.Close:   s.Close,
		intent.Search:  s.Search,
		intent.Play:    s.Play,
		intent.Weather: s.Weather,
		intent.Time:    s.Time,
		intent.Date:    s.Date,
		intent.News:    s.News,
		intent.Joke:    s.Joke,
	}
}

func (s *Skills) Open(ctx context.Context, target string) (string, error) {
	if target == "" {
		return "What application or website would you like me to open?", nil
	}

	if s.Opener.OpenApp(ctx, target) {
		return fmt.Sprintf("Opening %s application for you.", target), nil
	}

	if looksLikeDomain(target) {
		if err := s.Opener.OpenURL(ctx, "https://"+target); err != nil {
			log.Error("Failed to open website", "target", target, "err", err)
			return fmt.Sprintf("Sorry, I had trouble opening the website %s.", target), nil
		}
		return fmt.Sprintf("Opening %s website for you.", target), nil
	}

	if err := s.Opener.OpenURL(ctx, s.URLs.Search+url.QueryEscape(target)); err != nil {
		log.Error("Failed to open search fallback", "target", target, "err", err)
		return fmt.Sprintf("Sorry, I couldn't open %s.", target), nil
	}
	return fmt.Sprintf("I couldn't find an app or direct website for '%s'. Searching it on Google.", target), nil
}

func (s *Skills) Close(ctx context.Context, target string) (string, error) {
	if target == "" {
		return "Which application would you like me to close?", nil
	}

	if s.Opener.CloseApp(ctx, target+".exe") || s.Opener.CloseApp(ctx, target) {
		return fmt.Sprintf("Closing %s application for you.", target), nil
	}

	return fmt.Sprintf("Could not find or close the process '%s'. It might not be running or the name is incorrect.", target), nil
}

func (s *Skills) Search(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "What would you like me to search for?", nil
	}

	if err := s.Opener.OpenURL(ctx, s.URLs.Search+url.QueryEscape(query)); err != nil {
		log.Error("Failed to open search", "query", query, "err", err)
		return fmt.Sprintf("Sorry, I had trouble searching for %s.", query), nil
	}
	return fmt.Sprintf("Searching for %s on Google.", query), nil
}

func (s *Skills) Play(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "What song or video would you like me to play?", nil
	}

	if err := s.Opener.OpenURL(ctx, s.URLs.Video+url.QueryEscape(query)); err != nil {
		log.Error("Failed to open video search", "query", query, "err", err)
		return fmt.Sprintf("Sorry, I had trouble searching for %s on YouTube.", query), nil
	}
	return fmt.Sprintf("Searching for %s on YouTube.", query), nil
}

func (s *Skills) Weather(ctx context.Context, location string) (string, error) {
	if location == "" {
		return "Which location's weather are you interested in? Like 'weather in London'.", nil
	}

	if err := s.Opener.OpenURL(ctx, s.URLs.Search+url.QueryEscape("weather "+location)); err != nil {
		log.Error("Failed to open weather search", "location", location, "err", err)
		return fmt.Sprintf("Sorry, I had trouble fetching the weather for %s.", location), nil
	}
	return fmt.Sprintf("Fetching weather information for %s.", location), nil
}

func (s *Skills) Time(context.Context, string) (string, error) {
	return fmt.Sprintf("The current time is %s.", s.Now().Format(TimeLayout)), nil
}

func (s *Skills) Date(context.Context, string) (string, error) {
	return fmt.Sprintf("Today's date is %s.", s.Now().Format(DateLayout)), nil
}

func (s *Skills) News(ctx context.Context, _ string) (string, error) {
	if err := s.Opener.OpenURL(ctx, s.URLs.News); err != nil {
		log.Error("Failed to open news", "err", err)
		return "Sorry, I couldn't open the news right now.", nil
	}
	return "Fetching the latest news for you on Google News.", nil
}

func (s *Skills) Joke(ctx context.Context, _ string) (string, error) {
	if s.Jokes == nil {
		return "", errors.New("no joke source")
	}
	return s.Jokes.Joke(ctx)
}

// looksLikeDomain accepts single tokens with a dot, e.g. "google.com".
func looksLikeDomain(s string) bool {
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " \t")
}
