package skills

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/intent"
)

type fakeOpener struct {
	apps    map[string]bool
	running map[string]bool
	urlErr  error

	opened []string
	urls   []string
	closed []string
}

func (f *fakeOpener) OpenApp(_ context.Context, name string) bool {
	f.opened = append(f.opened, name)
	return f.apps[name]
}

func (f *fakeOpener) OpenURL(_ context.Context, url string) error {
	f.urls = append(f.urls, url)
	return f.urlErr
}

func (f *fakeOpener) CloseApp(_ context.Context, name string) bool {
	f.closed = append(f.closed, name)
	return f.running[name]
}

type fakeJokes struct {
	joke string
	err  error
}

func (j fakeJokes) Joke(context.Context) (string, error) { return j.joke, j.err }

func newSkills(o *fakeOpener) *Skills {
	s := New(o, fakeJokes{joke: "A SQL query walks into a bar..."})
	s.Now = func() time.Time { return time.Date(2026, time.October, 15, 15, 4, 5, 0, time.UTC) }
	return s
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name   string
		target string
		apps   map[string]bool
		resp   string
		urls   []string
	}{
		{
			name:   "missing target",
			target: "",
			resp:   "What application or website would you like me to open?",
		},
		{
			name:   "application",
			target: "firefox",
			apps:   map[string]bool{"firefox": true},
			resp:   "Opening firefox application for you.",
		},
		{
			name:   "website",
			target: "github.com",
			resp:   "Opening github.com website for you.",
			urls:   []string{"https://github.com"},
		},
		{
			name:   "search fallback",
			target: "my tax documents",
			resp:   "I couldn't find an app or direct website for 'my tax documents'. Searching it on Google.",
			urls:   []string{"https://www.google.com/search?q=my+tax+documents"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeOpener{apps: tt.apps}
			resp, err := newSkills(o).Open(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.resp, resp)
			assert.Equal(t, tt.urls, o.urls)
			if tt.target == "" {
				assert.Empty(t, o.opened)
			}
		})
	}
}

func TestOpen_WebsiteFailure(t *testing.T) {
	o := &fakeOpener{urlErr: errors.New("no browser")}

	resp, err := newSkills(o).Open(context.Background(), "github.com")

	require.NoError(t, err)
	assert.Equal(t, "Sorry, I had trouble opening the website github.com.", resp)
}

func TestClose(t *testing.T) {
	o := &fakeOpener{running: map[string]bool{"chrome": true}}
	s := newSkills(o)

	resp, err := s.Close(context.Background(), "chrome")
	require.NoError(t, err)
	assert.Equal(t, "Closing chrome application for you.", resp)
	assert.Equal(t, []string{"chrome.exe", "chrome"}, o.closed)

	o.closed = nil
	resp, err = s.Close(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "Could not find or close the process 'ghost'. It might not be running or the name is incorrect.", resp)

	o.closed = nil
	resp, err = s.Close(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Which application would you like me to close?", resp)
	assert.Empty(t, o.closed)
}

func TestSearchPlayWeather(t *testing.T) {
	o := &fakeOpener{}
	s := newSkills(o)
	ctx := context.Background()

	resp, _ := s.Search(ctx, "rust programming")
	assert.Equal(t, "Searching for rust programming on Google.", resp)

	resp, _ = s.Play(ctx, "despacito remix")
	assert.Equal(t, "Searching for despacito remix on YouTube.", resp)

	resp, _ = s.Weather(ctx, "new york")
	assert.Equal(t, "Fetching weather information for new york.", resp)

	assert.Equal(t, []string{
		"https://www.google.com/search?q=rust+programming",
		"https://www.youtube.com/results?search_query=despacito+remix",
		"https://www.google.com/search?q=weather+new+york",
	}, o.urls)
}

func TestPrompts_NoSideEffect(t *testing.T) {
	o := &fakeOpener{}
	s := newSkills(o)
	ctx := context.Background()

	resp, _ := s.Search(ctx, "")
	assert.Equal(t, "What would you like me to search for?", resp)
	resp, _ = s.Play(ctx, "")
	assert.Equal(t, "What song or video would you like me to play?", resp)
	resp, _ = s.Weather(ctx, "")
	assert.Equal(t, "Which location's weather are you interested in? Like 'weather in London'.", resp)

	assert.Empty(t, o.urls)
}

func TestEscaping(t *testing.T) {
	o := &fakeOpener{}

	_, _ = newSkills(o).Search(context.Background(), "c++ & go?")

	require.Len(t, o.urls, 1)
	assert.Equal(t, "https://www.google.com/search?q=c%2B%2B+%26+go%3F", o.urls[0])
}

func TestTimeAndDate(t *testing.T) {
	s := newSkills(&fakeOpener{})

	resp, err := s.Time(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "The current time is 03:04 PM.", resp)

	resp, err = s.Date(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Today's date is Thursday, October 15, 2026.", resp)
}

func TestTime_FormatAcrossClock(t *testing.T) {
	s := newSkills(&fakeOpener{})
	timeRe := regexp.MustCompile(`^The current time is (0[1-9]|1[0-2]):[0-5]\d (AM|PM)\.$`)
	dateRe := regexp.MustCompile(`^Today's date is (Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday), [A-Z][a-z]+ \d{2}, \d{4}\.$`)

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		at := base.Add(time.Duration(i)*37*time.Minute + time.Duration(i)*24*time.Hour)
		s.Now = func() time.Time { return at }

		resp, _ := s.Time(context.Background(), "")
		assert.Regexp(t, timeRe, resp)
		resp, _ = s.Date(context.Background(), "")
		assert.Regexp(t, dateRe, resp)
	}
}

func TestNews(t *testing.T) {
	o := &fakeOpener{}
	resp, _ := newSkills(o).News(context.Background(), "")
	assert.Equal(t, "Fetching the latest news for you on Google News.", resp)
	assert.Equal(t, []string{"https://news.google.com"}, o.urls)

	o = &fakeOpener{urlErr: errors.New("no browser")}
	resp, _ = newSkills(o).News(context.Background(), "")
	assert.Equal(t, "Sorry, I couldn't open the news right now.", resp)
}

func TestJoke(t *testing.T) {
	resp, err := newSkills(&fakeOpener{}).Joke(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "A SQL query walks into a bar...", resp)

	s := New(&fakeOpener{}, fakeJokes{err: errors.New("offline")})
	_, err = s.Joke(context.Background(), "")
	assert.Error(t, err)
}

func TestHandlers_CoverCatalog(t *testing.T) {
	h := newSkills(&fakeOpener{}).Handlers()
	for _, k := range intent.Default().Keys() {
		assert.NotNil(t, h[k], k)
	}
}
