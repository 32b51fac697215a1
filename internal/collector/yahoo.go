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

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	BaseURL      string
	Client       *http.Client
	MaxRetryTime time.Duration
	logger       zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts HTTPOptions) *YahooFetcher {
	return &YahooFetcher{
		BaseURL:      yahooBaseURL,
		Client:       newHTTPClient(opts),
		MaxRetryTime: opts.MaxRetryTime,
		logger:       log.With().Str("component", "yahoo_fetcher").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
// Quote values are pointers because Yahoo emits null for missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string   `json:"symbol"`
				GMTOffset            int      `json:"gmtoffset"`
				RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHourlyBars fetches five days of hourly bars. The session range comes
// from the chart meta when Yahoo provides it, otherwise from the last
// trading day's bars.
func (f *YahooFetcher) FetchHourlyBars(ctx context.Context, symbol string) ([]model.Bar, model.DailyRange, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1h&range=5d", f.BaseURL, url.PathEscape(symbol))
	f.logger.Debug().Str("symbol", symbol).Msg("Fetching hourly bars")

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0")
	body, err := getWithRetry(ctx, f.Client, u, header, f.MaxRetryTime)
	if err != nil {
		return nil, model.DailyRange{}, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, model.DailyRange{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, model.DailyRange{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, model.DailyRange{}, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) < n || len(quote.High) < n || len(quote.Low) < n || len(quote.Close) < n {
		return nil, model.DailyRange{}, fmt.Errorf("yahoo: quote arrays shorter than timestamps")
	}

	bars := make([]model.Bar, 0, n)
	for i, ts := range result.Timestamp {
		o, h, l, c := quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i]
		if o == nil && h == nil && l == nil && c == nil {
			continue // skip null bars (holidays, pre-open placeholders)
		}
		if o == nil || h == nil || l == nil || c == nil {
			return nil, model.DailyRange{}, fmt.Errorf("yahoo: bar at %d has missing OHLC values", ts)
		}
		bars = append(bars, model.Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  *o,
			High:  *h,
			Low:   *l,
			Close: *c,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	meta := result.Meta
	if meta.RegularMarketDayHigh != nil && meta.RegularMarketDayLow != nil {
		return bars, model.DailyRange{High: *meta.RegularMarketDayHigh, Low: *meta.RegularMarketDayLow}, nil
	}

	loc := time.FixedZone(symbol, meta.GMTOffset)
	r, err := lastSessionRange(bars, loc)
	if err != nil {
		return nil, model.DailyRange{}, fmt.Errorf("yahoo session range: %w", err)
	}
	return bars, r, nil
}
