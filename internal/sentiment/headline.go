package sentiment

import (
	"context"
	"strings"
	"time"
)

// DefaultMaxHeadlines bounds how many headlines one classification sees.
const DefaultMaxHeadlines = 10

// Headline is one news item fed to a provider.
type Headline struct {
	Title     string
	Summary   string
	Source    string
	Link      string
	Published time.Time
}

// Text joins title and summary for scoring.
func (h Headline) Text() string {
	if h.Summary == "" || strings.EqualFold(h.Summary, h.Title) {
		return h.Title
	}
	return h.Title + ". " + h.Summary
}

// HeadlineSource returns recent headlines for a display symbol.
type HeadlineSource interface {
	Headlines(ctx context.Context, symbol string) ([]Headline, error)
}

// StaticSource serves fixed headlines per symbol. Unknown symbols get none.
type StaticSource struct {
	Items map[string][]Headline
	Err   error
}

func (s *StaticSource) Headlines(_ context.Context, symbol string) ([]Headline, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Items[symbol], nil
}

// DefaultSearchTerms maps a display symbol to news search queries.
var DefaultSearchTerms = map[string][]string{
	"US30":   {"dow jones", "dow 30", "djia"},
	"NAS100": {"nasdaq 100", "nasdaq", "ndx"},
	"SPX500": {"s&p 500", "sp 500", "spx"},
	"EURUSD": {"euro dollar", "eur usd", "forex"},
	"GBPUSD": {"pound dollar", "gbp usd", "forex"},
	"GOLD":   {"gold price", "gold futures", "xau"},
	"CRUDE":  {"oil price", "crude oil", "wti"},
}

// SearchTermsFor returns configured terms, falling back to the lowercased symbol.
func SearchTermsFor(terms map[string][]string, symbol string) []string {
	if t, ok := terms[symbol]; ok && len(t) > 0 {
		return t
	}
	if t, ok := DefaultSearchTerms[symbol]; ok {
		return t
	}
	return []string{strings.ToLower(symbol)}
}
