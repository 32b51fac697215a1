package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"SignalFusion/internal/model"
	"SignalFusion/internal/sentiment"
	"SignalFusion/internal/strategy"
)

// ErrUnknownSymbol is returned for a symbol missing from the instrument map.
var ErrUnknownSymbol = errors.New("unknown symbol")

// BarFeed supplies the snapshot for a feed ticker.
type BarFeed interface {
	Collect(ctx context.Context, feedSymbol string) (*model.Snapshot, error)
}

// SentimentClassifier scores recent news for a display symbol.
type SentimentClassifier interface {
	Classify(ctx context.Context, symbol string, bias model.Bias) (*model.SentimentResult, sentiment.Outcome, error)
}

// Observer receives generation events. metrics.Recorder implements it.
type Observer interface {
	ObserveSignal(sig *model.Signal, d time.Duration)
	ObserveFailure(symbol, kind string)
}

type nopObserver struct{}

func (nopObserver) ObserveSignal(*model.Signal, time.Duration) {}
func (nopObserver) ObserveFailure(string, string)              {}

// Request asks for one signal.
type Request struct {
	Symbol      string
	IncludeNews bool
}

// Result pairs a symbol with its signal or error.
type Result struct {
	Symbol string
	Signal *model.Signal
	Err    error
}

// Options configures an Engine.
type Options struct {
	Instruments []Instrument
	Calibration strategy.Calibration
	// Concurrency bounds GenerateAll; zero means one goroutine per symbol.
	Concurrency int
	Observer    Observer
}

// Engine assembles signals from a bar feed and an optional classifier.
type Engine struct {
	feed        BarFeed
	classifier  SentimentClassifier
	instruments map[string]Instrument
	order       []string
	cal         strategy.Calibration
	concurrency int
	observer    Observer
	logger      zerolog.Logger
}

// New creates an engine. classifier may be nil, in which case every signal is
// technical-only.
func New(feed BarFeed, classifier SentimentClassifier, opts Options) (*Engine, error) {
	if err := opts.Calibration.Validate(); err != nil {
		return nil, err
	}
	insts := opts.Instruments
	if len(insts) == 0 {
		insts = DefaultInstruments
	}
	e := &Engine{
		feed:        feed,
		classifier:  classifier,
		instruments: make(map[string]Instrument, len(insts)),
		cal:         opts.Calibration,
		concurrency: opts.Concurrency,
		observer:    opts.Observer,
		logger:      log.With().Str("component", "engine").Logger(),
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	for _, inst := range insts {
		key := normalizeSymbol(inst.Symbol)
		if key == "" || inst.FeedSymbol == "" {
			return nil, fmt.Errorf("instrument %q needs a symbol and a feed symbol", inst.Symbol)
		}
		if _, dup := e.instruments[key]; dup {
			return nil, fmt.Errorf("duplicate instrument %q", inst.Symbol)
		}
		inst.Symbol = key
		inst.DisplayName = DisplayName(inst)
		e.instruments[key] = inst
		e.order = append(e.order, key)
	}
	return e, nil
}

// Symbols returns the configured symbols in configuration order.
func (e *Engine) Symbols() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Instrument looks up a configured instrument.
func (e *Engine) Instrument(symbol string) (Instrument, bool) {
	inst, ok := e.instruments[normalizeSymbol(symbol)]
	return inst, ok
}

// Generate produces one signal. A bar feed failure aborts with
// model.ErrDataUnavailable; a sentiment failure degrades to technical-only.
func (e *Engine) Generate(ctx context.Context, req Request) (*model.Signal, error) {
	start := time.Now()
	inst, ok := e.Instrument(req.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, req.Symbol)
	}
	logger := e.logger.With().Str("symbol", inst.Symbol).Logger()

	snap, err := e.feed.Collect(ctx, inst.FeedSymbol)
	if err != nil {
		e.observer.ObserveFailure(inst.Symbol, "data_unavailable")
		return nil, fmt.Errorf("generate %s: %w", inst.Symbol, err)
	}

	tech, err := strategy.Analyze(snap, e.cal)
	if err != nil {
		e.observer.ObserveFailure(inst.Symbol, "data_unavailable")
		return nil, fmt.Errorf("generate %s: %w: %v", inst.Symbol, model.ErrDataUnavailable, err)
	}

	var sent *model.SentimentResult
	if req.IncludeNews && e.classifier != nil {
		res, outcome, err := e.classifier.Classify(ctx, inst.Symbol, tech.Bias)
		if err != nil {
			e.observer.ObserveFailure(inst.Symbol, "sentiment_unavailable")
			logger.Warn().Err(err).Msg("Sentiment unavailable, using technical-only probability")
		} else {
			if outcome == sentiment.OutcomeFallbackScored {
				e.observer.ObserveFailure(inst.Symbol, "llm_fallback")
			}
			sent = res
		}
	}

	prob := strategy.Fuse(tech, sent, e.cal)
	sig := Assemble(inst, tech, prob, sent)

	e.observer.ObserveSignal(sig, time.Since(start))
	logger.Info().
		Str("bias", string(sig.Bias)).
		Float64("cv_position", sig.CVPosition).
		Float64("probability", sig.ProbabilityPercentage).
		Str("model_used", sig.ModelUsed).
		Msg("Signal generated")
	return sig, nil
}

// GenerateAll evaluates symbols in parallel. Results keep the input order;
// one symbol's failure never cancels the others.
func (e *Engine) GenerateAll(ctx context.Context, symbols []string, includeNews bool) []Result {
	if len(symbols) == 0 {
		symbols = e.order
	}
	results := make([]Result, len(symbols))

	var g errgroup.Group
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, sym := range symbols {
		g.Go(func() error {
			sig, err := e.Generate(ctx, Request{Symbol: sym, IncludeNews: includeNews})
			results[i] = Result{Symbol: normalizeSymbol(sym), Signal: sig, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Assemble builds the immutable signal. It is pure: equal inputs give equal
// signals. A nil sentiment yields the technical-only defaults.
func Assemble(inst Instrument, tech *model.Technical, prob model.Probability, s *model.SentimentResult) *model.Signal {
	sig := &model.Signal{
		Symbol:                inst.Symbol,
		DisplayName:           DisplayName(inst),
		Bias:                  tech.Bias,
		BiasText:              tech.BiasText,
		CVPosition:            tech.CVPosition,
		CurrentValue:          tech.CurrentValue,
		PreviousClose:         tech.PreviousClose,
		NetChange:             tech.NetChange,
		ChangePct:             tech.ChangePct,
		TodayHigh:             tech.TodayHigh,
		TodayLow:              tech.TodayLow,
		Ladder:                tech.Ladder,
		ProbabilityPercentage: prob.Percentage,
		ProbabilityLabel:      prob.Label,
		SentimentLabel:        model.SentimentNeutral,
		ModelUsed:             model.ModelTechnicalOnly,
	}
	if s != nil {
		sig.SentimentLabel = s.Label
		sig.SentimentScore = s.Score
		sig.SentimentConfidence = s.Confidence
		sig.NewsCount = s.TotalArticles
		sig.ModelUsed = s.ModelUsed
		if sample := s.Sample(); len(sample) > 0 {
			sig.Headlines = sample
		}
	}
	return sig
}
