package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/model"
)

// restBarLimit covers a full trading day of hourly bars plus the prior close.
const restBarLimit = 30

// RESTFetcher implements Fetcher against a generic JSON bar API:
//
//	GET {base}/api/v1/bars/hourly?symbol=X&limit=N -> [{timestamp,open,high,low,close}]
//
// The session range is taken from the bars of the last bar's UTC day.
type RESTFetcher struct {
	BaseURL      string
	APIKey       string
	Client       *http.Client
	MaxRetryTime time.Duration
	logger       zerolog.Logger
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey string, opts HTTPOptions) *RESTFetcher {
	return &RESTFetcher{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Client:       newHTTPClient(opts),
		MaxRetryTime: opts.MaxRetryTime,
		logger:       log.With().Str("component", "rest_fetcher").Logger(),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API. Pointers let a
// missing field surface as non-numeric data instead of a silent zero.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
}

func (f *RESTFetcher) FetchHourlyBars(ctx context.Context, symbol string) ([]model.Bar, model.DailyRange, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/hourly?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), restBarLimit)
	f.logger.Debug().Str("symbol", symbol).Msg("Fetching hourly bars")

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := getWithRetry(ctx, f.Client, endpoint, header, f.MaxRetryTime)
	if err != nil {
		return nil, model.DailyRange{}, fmt.Errorf("fetch bars: %w", err)
	}

	var raw []restBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, model.DailyRange{}, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.Bar, len(raw))
	for i, rb := range raw {
		if rb.Open == nil || rb.High == nil || rb.Low == nil || rb.Close == nil {
			return nil, model.DailyRange{}, fmt.Errorf("bar at %d has missing OHLC values", rb.Timestamp)
		}
		bars[i] = model.Bar{
			Time:  time.Unix(rb.Timestamp, 0).UTC(),
			Open:  *rb.Open,
			High:  *rb.High,
			Low:   *rb.Low,
			Close: *rb.Close,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	r, err := lastSessionRange(bars, time.UTC)
	if err != nil {
		return nil, model.DailyRange{}, fmt.Errorf("session range: %w", err)
	}
	return bars, r, nil
}
