package intent

// DefaultRules is the built-in command table. Keep "search for" ahead of
// "search", "weather in" ahead of "weather" and so on; NewCatalog refuses
// the reverse order.
func DefaultRules() []Rule {
	return []Rule{
		{Key: Open, Phrases: []string{"open"}, NeedsArg: true},
		{Key: Close, Phrases: []string{"close"}, NeedsArg: true},
		{Key: Search, Phrases: []string{"search for", "search"}, NeedsArg: true},
		{Key: Play, Phrases: []string{"play"}, NeedsArg: true},
		{Key: Weather, Phrases: []string{"weather in", "weather"}, NeedsArg: true},
		{Key: Time, Phrases: []string{"what time is it", "time"}},
		{Key: Date, Phrases: []string{"today's date", "what's the date", "date"}},
		{Key: News, Phrases: []string{"news"}},
		{Key: Joke, Phrases: []string{"tell me a joke", "joke"}},
	}
}

func Default() *Catalog {
	c, err := NewCatalog(DefaultRules()...)
	if err != nil {
		panic("intent: default catalog: " + err.Error())
	}
	return c
}
