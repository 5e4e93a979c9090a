package intent

import (
	"errors"
	"fmt"
	"strings"
)

type Key string

const (
	Open    Key = "open"
	Close   Key = "close"
	Search  Key = "search"
	Play    Key = "play"
	Weather Key = "weather"
	Time    Key = "time"
	Date    Key = "date"
	News    Key = "news"
	Joke    Key = "joke"
)

var (
	ErrEmptyPhrase  = errors.New("empty trigger phrase")
	ErrDuplicateKey = errors.New("duplicate intent key")
	ErrShadowed     = errors.New("trigger phrase shadowed by an earlier phrase")
)

// Rule is one intent with its trigger phrases, tried in order.
type Rule struct {
	Key      Key
	Phrases  []string
	NeedsArg bool
}

type Match struct {
	Key     Key
	Phrase  string
	Arg     string
	Matched bool
}

// Catalog is an ordered list of rules. Order is significant: the first
// phrase found in an utterance wins, so specific phrases must come first.
type Catalog struct {
	rules []Rule
}

// Normalize lowercases and trims. No other cleanup is done.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func NewCatalog(rules ...Rule) (*Catalog, error) {
	var (
		seenKeys = make(map[Key]bool, len(rules))
		earlier  []string
		out      = make([]Rule, 0, len(rules))
	)

	for _, r := range rules {
		if seenKeys[r.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
		}
		seenKeys[r.Key] = true

		phrases := make([]string, 0, len(r.Phrases))
		for _, p := range r.Phrases {
			p = Normalize(p)
			if p == "" {
				return nil, fmt.Errorf("%w: intent %s", ErrEmptyPhrase, r.Key)
			}
			for _, prev := range earlier {
				if strings.Contains(p, prev) {
					return nil, fmt.Errorf("%w: %q (intent %s) contains %q", ErrShadowed, p, r.Key, prev)
				}
			}
			earlier = append(earlier, p)
			phrases = append(phrases, p)
		}

		out = append(out, Rule{Key: r.Key, Phrases: phrases, NeedsArg: r.NeedsArg})
	}

	return &Catalog{rules: out}, nil
}

// Lookup finds the first rule whose phrase occurs in the utterance and
// returns the text following the first occurrence of that phrase.
func (c *Catalog) Lookup(utterance string) Match {
	u := Normalize(utterance)
	if u == "" {
		return Match{}
	}

	for _, r := range c.rules {
		for _, p := range r.Phrases {
			_, after, found := strings.Cut(u, p)
			if !found {
				continue
			}
			return Match{
				Key:     r.Key,
				Phrase:  p,
				Arg:     strings.TrimSpace(after),
				Matched: true,
			}
		}
	}

	return Match{}
}

// Rule returns the rule registered for key.
func (c *Catalog) Rule(key Key) (Rule, bool) {
	for _, r := range c.rules {
		if r.Key == key {
			return r, true
		}
	}
	return Rule{}, false
}

func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.rules))
	for _, r := range c.rules {
		keys = append(keys, r.Key)
	}
	return keys
}
