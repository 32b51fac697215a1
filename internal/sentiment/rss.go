package sentiment

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultFeedURL is a Google News RSS search; %s receives the escaped query.
const DefaultFeedURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
			Description string `xml:"description"`
			Source      struct {
				Text string `xml:",chardata"`
			} `xml:"source"`
		} `xml:"item"`
	} `xml:"channel"`
}

// RSSOptions configures an RSSSource.
type RSSOptions struct {
	FeedURL        string
	SearchTerms    map[string][]string
	MaxHeadlines   int
	RequestsPerSec float64
	Client         *http.Client
}

// RSSSource searches an RSS news feed once per search term of a symbol.
type RSSSource struct {
	feedURL string
	terms   map[string][]string
	max     int
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// maxFeedBytes caps one RSS response body.
const maxFeedBytes = 4 << 20

// NewRSSSource creates an RSS headline source.
func NewRSSSource(opts RSSOptions) *RSSSource {
	if opts.FeedURL == "" {
		opts.FeedURL = DefaultFeedURL
	}
	if opts.MaxHeadlines <= 0 {
		opts.MaxHeadlines = DefaultMaxHeadlines
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 1
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RSSSource{
		feedURL: opts.FeedURL,
		terms:   opts.SearchTerms,
		max:     opts.MaxHeadlines,
		client:  opts.Client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		logger:  log.With().Str("component", "rss_source").Logger(),
	}
}

// Headlines collects up to the configured maximum of distinct headlines. A
// failing term is skipped; the call fails only when every term failed.
func (s *RSSSource) Headlines(ctx context.Context, symbol string) ([]Headline, error) {
	terms := SearchTermsFor(s.terms, symbol)
	seen := make(map[string]struct{})
	out := make([]Headline, 0, s.max)
	var errs []error

	for _, term := range terms {
		if len(out) >= s.max {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		items, err := s.search(ctx, term)
		if err != nil {
			s.logger.Warn().Err(err).Str("term", term).Msg("RSS search failed")
			errs = append(errs, fmt.Errorf("%s: %w", term, err))
			continue
		}
		for _, h := range items {
			key := strings.ToLower(h.Title)
			if _, dup := seen[key]; dup || h.Title == "" {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, h)
			if len(out) >= s.max {
				break
			}
		}
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	s.logger.Debug().Str("symbol", symbol).Int("count", len(out)).Msg("Fetched headlines")
	return out, nil
}

func (s *RSSSource) search(ctx context.Context, term string) ([]Headline, error) {
	u := s.feedURL
	if strings.Contains(u, "%s") {
		u = fmt.Sprintf(u, url.QueryEscape(term))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch RSS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RSS feed returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read RSS: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse RSS: %w", err)
	}

	items := make([]Headline, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		title, source := splitTitle(item.Title)
		if item.Source.Text != "" {
			source = item.Source.Text
		}
		published, _ := time.Parse(time.RFC1123Z, item.PubDate)
		items = append(items, Headline{
			Title:     title,
			Summary:   stripHTML(item.Description),
			Source:    source,
			Link:      item.Link,
			Published: published,
		})
	}
	return items, nil
}

// splitTitle separates Google News' "Headline - Publisher" suffix.
func splitTitle(title string) (string, string) {
	title = strings.TrimSpace(title)
	if idx := strings.LastIndex(title, " - "); idx > 0 && idx < len(title)-3 {
		return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
	}
	return title, ""
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
