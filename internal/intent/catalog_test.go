package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Default(t *testing.T) {
	c := Default()

	tests := []struct {
		name      string
		utterance string
		key       Key
		phrase    string
		arg       string
	}{
		{"open app", "open notepad", Open, "open", "notepad"},
		{"open without target", "open", Open, "open", ""},
		{"close app", "close chrome", Close, "close", "chrome"},
		{"search for", "search for cats", Search, "search for", "cats"},
		{"bare search", "search", Search, "search", ""},
		{"search without for", "search golang generics", Search, "search", "golang generics"},
		{"play", "play despacito", Play, "play", "despacito"},
		{"weather in", "weather in Bengaluru", Weather, "weather in", "bengaluru"},
		{"bare weather", "weather", Weather, "weather", ""},
		{"weather in without location", "weather in", Weather, "weather in", ""},
		{"time question", "what time is it", Time, "what time is it", ""},
		{"time word", "time please", Time, "time", "please"},
		{"todays date", "what is today's date", Date, "today's date", ""},
		{"news", "read me the news", News, "news", ""},
		{"joke", "tell me a joke", Joke, "tell me a joke", ""},
		{"trimmed and lowercased", "   OPEN   Firefox  ", Open, "open", "firefox"},
		{"first occurrence split", "search for search for cats", Search, "search for", "search for cats"},
		{"earlier rule wins over later", "open the news", Open, "open", "the news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.Lookup(tt.utterance)
			require.True(t, m.Matched)
			assert.Equal(t, tt.key, m.Key)
			assert.Equal(t, tt.phrase, m.Phrase)
			assert.Equal(t, tt.arg, m.Arg)
		})
	}
}

func TestLookup_NoMatch(t *testing.T) {
	c := Default()

	for _, u := range []string{"", "   ", "xyzzy plugh", "tell me about the universe"} {
		m := c.Lookup(u)
		assert.False(t, m.Matched, u)
		assert.Equal(t, Match{}, m, u)
	}
}

func TestLookup_SearchForBeforeSearch(t *testing.T) {
	c, err := NewCatalog(Rule{Key: Search, Phrases: []string{"search for", "search"}, NeedsArg: true})
	require.NoError(t, err)

	m := c.Lookup("search for cats")
	assert.Equal(t, "search for", m.Phrase)
	assert.Equal(t, "cats", m.Arg)
}

func TestLookup_Pure(t *testing.T) {
	c := Default()

	first := c.Lookup("weather in paris")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Lookup("weather in paris"))
	}
}

func TestLookup_NoPunctuationStripping(t *testing.T) {
	c := Default()

	m := c.Lookup("open google.com!")
	require.True(t, m.Matched)
	assert.Equal(t, "google.com!", m.Arg)
}

func TestNewCatalog_Shadowed(t *testing.T) {
	_, err := NewCatalog(Rule{Key: Search, Phrases: []string{"search", "search for"}})
	assert.ErrorIs(t, err, ErrShadowed)

	_, err = NewCatalog(
		Rule{Key: Weather, Phrases: []string{"weather"}},
		Rule{Key: News, Phrases: []string{"weather news"}},
	)
	assert.ErrorIs(t, err, ErrShadowed)
}

func TestNewCatalog_Invalid(t *testing.T) {
	_, err := NewCatalog(Rule{Key: Open, Phrases: []string{"  "}})
	assert.ErrorIs(t, err, ErrEmptyPhrase)

	_, err = NewCatalog(
		Rule{Key: Open, Phrases: []string{"open"}},
		Rule{Key: Open, Phrases: []string{"launch"}},
	)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestCatalog_RuleAndKeys(t *testing.T) {
	c := Default()

	assert.Equal(t, []Key{Open, Close, Search, Play, Weather, Time, Date, News, Joke}, c.Keys())

	r, ok := c.Rule(Weather)
	require.True(t, ok)
	assert.True(t, r.NeedsArg)
	assert.Equal(t, []string{"weather in", "weather"}, r.Phrases)

	_, ok = c.Rule("dance")
	assert.False(t, ok)
}
