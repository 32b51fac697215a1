package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/model"
)

// DefaultFetchTimeout bounds one bar feed call.
const DefaultFetchTimeout = 10 * time.Second

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar
	Range *model.DailyRange
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHourlyBars(_ context.Context, _ string) ([]model.Bar, model.DailyRange, error) {
	if m.Err != nil {
		return nil, model.DailyRange{}, m.Err
	}
	bars := m.Bars
	if bars == nil {
		bars = generateMockBars(m.Price, 8)
	}
	if m.Range != nil {
		return bars, *m.Range, nil
	}
	r, err := lastSessionRange(bars, time.UTC)
	if err != nil {
		return nil, model.DailyRange{}, err
	}
	return bars, r, nil
}

func generateMockBars(basePrice float64, count int) []model.Bar {
	start := time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  p * 0.999,
			High:  p * 1.002,
			Low:   p * 0.998,
			Close: p,
		}
	}
	return bars
}

// Collector enforces the bar feed contract on top of a Fetcher.
type Collector struct {
	Fetcher Fetcher
	Timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Collector{
		Fetcher: fetcher,
		Timeout: timeout,
		now:     time.Now,
		logger:  log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect returns the two most recent hourly bars and the session range for
// feedSymbol. Every failure wraps model.ErrDataUnavailable.
func (c *Collector) Collect(ctx context.Context, feedSymbol string) (*model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	bars, r, err := c.Fetcher.FetchHourlyBars(ctx, feedSymbol)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", feedSymbol).Msg("Bar fetch failed")
		return nil, fmt.Errorf("%w: %s: %v", model.ErrDataUnavailable, feedSymbol, err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: %s: got %d bars, need 2", model.ErrDataUnavailable, feedSymbol, len(bars))
	}

	prev, cur := bars[len(bars)-2], bars[len(bars)-1]
	if cur.Time.Before(prev.Time) {
		prev, cur = cur, prev
	}
	for _, b := range []model.Bar{prev, cur} {
		if err := validateBar(b); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrDataUnavailable, feedSymbol, err)
		}
	}
	if !finitePositive(r.High) || !finitePositive(r.Low) {
		return nil, fmt.Errorf("%w: %s: invalid session range %+v", model.ErrDataUnavailable, feedSymbol, r)
	}
	if r.High < r.Low {
		return nil, fmt.Errorf("%w: %s: session high %.4f below low %.4f", model.ErrDataUnavailable, feedSymbol, r.High, r.Low)
	}

	return &model.Snapshot{
		Symbol:    feedSymbol,
		Previous:  prev,
		Current:   cur,
		Range:     r,
		Source:    c.Fetcher.Name(),
		FetchedAt: c.now().UTC(),
	}, nil
}

func validateBar(b model.Bar) error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if !finitePositive(v) {
			return fmt.Errorf("bar at %s has non-numeric OHLC value %v", b.Time.Format(time.RFC3339), v)
		}
	}
	return nil
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
