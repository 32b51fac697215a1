package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"SignalFusion/internal/calculator"
	"SignalFusion/internal/httpclient"
	"SignalFusion/internal/model"
)

// Fetcher defines the interface for fetching hourly market data.
type Fetcher interface {
	// FetchHourlyBars returns recent hourly bars in chronological order and
	// the current session's high/low.
	FetchHourlyBars(ctx context.Context, symbol string) ([]model.Bar, model.DailyRange, error)
	Name() string
}

// HTTPOptions configures the HTTP adapters.
type HTTPOptions struct {
	ProxyURL       string
	RequestTimeout time.Duration
	MaxRetryTime   time.Duration
}

func newHTTPClient(opts HTTPOptions) *http.Client {
	return httpclient.New(opts.ProxyURL, opts.RequestTimeout)
}

// StatusError is a non-200 response from a market data provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// getWithRetry performs a GET and returns the body. Transport errors, 429 and
// 5xx are retried with exponential backoff until ctx or maxElapsed runs out;
// other statuses fail immediately.
func getWithRetry(ctx context.Context, client *http.Client, endpoint string, header http.Header, maxElapsed time.Duration) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(b), 200)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		body = b
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = 250 * time.Millisecond
	strategy.MaxElapsedTime = maxElapsed
	if strategy.MaxElapsedTime == 0 {
		strategy.MaxElapsedTime = 8 * time.Second
	}

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// lastSessionRange derives the session high/low from the bars that share the
// last bar's calendar day in loc.
func lastSessionRange(bars []model.Bar, loc *time.Location) (model.DailyRange, error) {
	if len(bars) == 0 {
		return model.DailyRange{}, fmt.Errorf("no bars provided")
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := bars[len(bars)-1].Time.In(loc).Date()
	start := len(bars) - 1
	for start > 0 {
		py, pm, pd := bars[start-1].Time.In(loc).Date()
		if py != y || pm != m || pd != d {
			break
		}
		start--
	}
	return calculator.SessionRange(bars[start:])
}
