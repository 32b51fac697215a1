package sentiment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func rssBody(titles ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><rss><channel>`)
	for _, t := range titles {
		fmt.Fprintf(&sb, `<item><title>%s - Reuters</title><link>https://example.com</link>`+
			`<pubDate>Tue, 02 Jan 2024 15:04:05 +0000</pubDate>`+
			`<description>&lt;a href="x"&gt;%s&lt;/a&gt;&amp;nbsp;&lt;font&gt;Reuters&lt;/font&gt;</description></item>`, t, t)
	}
	sb.WriteString(`</channel></rss>`)
	return sb.String()
}

func TestRSSSource_Headlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "dow jones":
			fmt.Fprint(w, rssBody("Dow rallies", "Dow slips late"))
		case "dow 30":
			fmt.Fprint(w, rssBody("Dow rallies", "Blue chips firm"))
		default:
			http.Error(w, "blocked", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	src := NewRSSSource(RSSOptions{FeedURL: srv.URL + "/rss?q=%s", RequestsPerSec: 1000})
	got, err := src.Headlines(context.Background(), "US30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct headlines, got %d: %+v", len(got), got)
	}
	h := got[0]
	if h.Title != "Dow rallies" || h.Source != "Reuters" {
		t.Errorf("title/source not split: %+v", h)
	}
	if strings.Contains(h.Summary, "<") {
		t.Errorf("summary still has HTML: %q", h.Summary)
	}
	if h.Published.IsZero() {
		t.Error("pubDate not parsed")
	}
}

func TestRSSSource_MaxHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		fmt.Fprint(w, rssBody(q+" one", q+" two", q+" three", q+" four"))
	}))
	defer srv.Close()

	src := NewRSSSource(RSSOptions{FeedURL: srv.URL + "/rss?q=%s", MaxHeadlines: 5, RequestsPerSec: 1000})
	got, err := src.Headlines(context.Background(), "NAS100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 headlines, got %d", len(got))
	}
}

func TestRSSSource_AllTermsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewRSSSource(RSSOptions{FeedURL: srv.URL + "/rss?q=%s", RequestsPerSec: 1000})
	if _, err := src.Headlines(context.Background(), "GOLD"); err == nil {
		t.Fatal("expected error when every term fails")
	}
}

func TestRSSSource_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody())
	}))
	defer srv.Close()

	src := NewRSSSource(RSSOptions{FeedURL: srv.URL + "/rss?q=%s", RequestsPerSec: 1000})
	got, err := src.Headlines(context.Background(), "XYZ")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no headlines and no error, got %d / %v", len(got), err)
	}
}

func TestSearchTermsFor(t *testing.T) {
	custom := map[string][]string{"US30": {"custom"}}
	if got := SearchTermsFor(custom, "US30"); len(got) != 1 || got[0] != "custom" {
		t.Errorf("override ignored: %v", got)
	}
	if got := SearchTermsFor(nil, "GOLD"); got[0] != "gold price" {
		t.Errorf("default terms: %v", got)
	}
	if got := SearchTermsFor(nil, "BTCUSD"); got[0] != "btcusd" {
		t.Errorf("fallback: %v", got)
	}
}

func TestRSSSource_OversizedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss><channel><item><title>Dow rallies</title><description>`)
		fmt.Fprint(w, strings.Repeat("x", maxFeedBytes+1024))
		fmt.Fprint(w, `</description></item></channel></rss>`)
	}))
	defer srv.Close()

	src := NewRSSSource(RSSOptions{FeedURL: srv.URL + "/rss?q=%s", SearchTerms: map[string][]string{"US30": {"dow"}}, RequestsPerSec: 1000})
	if _, err := src.Headlines(context.Background(), "US30"); err == nil || !strings.Contains(err.Error(), "parse RSS") {
		t.Fatalf("expected truncated feed to fail parsing, got %v", err)
	}
}
