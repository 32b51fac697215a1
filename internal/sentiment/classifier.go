package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/model"
)

// ErrSentimentUnavailable marks a sentiment step that produced no result.
// Callers degrade to the technical-only path.
var ErrSentimentUnavailable = errors.New("sentiment unavailable")

const (
	DefaultHeadlineTimeout   = 10 * time.Second
	DefaultClassifierTimeout = 30 * time.Second
)

// Options configures a Classifier.
type Options struct {
	LLM               LLMOptions
	HeadlineTimeout   time.Duration
	ClassifierTimeout time.Duration
}

// Outcome records which terminal state a classification reached.
type Outcome string

const (
	OutcomeLLMScored      Outcome = "llm_scored"
	OutcomeFallbackScored Outcome = "fallback_scored"
	OutcomeNoData         Outcome = "no_data"
)

// Classifier fetches headlines and scores them with a provider chain. The
// first provider is primary; the last is the fallback and must not fail.
type Classifier struct {
	source            HeadlineSource
	providers         []Provider
	headlineTimeout   time.Duration
	classifierTimeout time.Duration
	logger            zerolog.Logger
}

// NewClassifier picks the provider chain once: no API key means lexicon
// only, otherwise the LLM with the lexicon behind it.
func NewClassifier(source HeadlineSource, opts Options) *Classifier {
	providers := []Provider{LexiconProvider{}}
	if opts.LLM.APIKey != "" {
		providers = []Provider{NewLLMProvider(opts.LLM), LexiconProvider{}}
	}
	return NewClassifierWithProviders(source, providers, opts)
}

// NewClassifierWithProviders builds a classifier over an explicit chain.
func NewClassifierWithProviders(source HeadlineSource, providers []Provider, opts Options) *Classifier {
	if opts.HeadlineTimeout <= 0 {
		opts.HeadlineTimeout = DefaultHeadlineTimeout
	}
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = DefaultClassifierTimeout
	}
	if len(providers) == 0 {
		providers = []Provider{LexiconProvider{}}
	}
	return &Classifier{
		source:            source,
		providers:         providers,
		headlineTimeout:   opts.HeadlineTimeout,
		classifierTimeout: opts.ClassifierTimeout,
		logger:            log.With().Str("component", "sentiment").Logger(),
	}
}

// Providers returns the provider names in chain order.
func (c *Classifier) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Classify runs one invocation: fetch headlines, then score them with the
// first provider that succeeds. No step is retried.
func (c *Classifier) Classify(ctx context.Context, symbol string, bias model.Bias) (*model.SentimentResult, Outcome, error) {
	headlines, err := c.fetch(ctx, symbol)
	if err != nil {
		return nil, "", fmt.Errorf("%w: headlines for %s: %v", ErrSentimentUnavailable, symbol, err)
	}

	titles := make([]string, len(headlines))
	for i, h := range headlines {
		titles[i] = h.Title
	}
	if len(headlines) == 0 {
		c.logger.Info().Str("symbol", symbol).Msg("No headlines found")
		return model.NewSentimentResult(0, 0, model.ModelNoData, nil), OutcomeNoData, nil
	}

	req := Request{Symbol: symbol, Bias: bias, Headlines: headlines}
	var lastErr error
	for i, p := range c.providers {
		score, err := c.score(ctx, p, req)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("symbol", symbol).Str("provider", p.Name()).Msg("Sentiment provider failed, falling back")
			continue
		}
		outcome := OutcomeLLMScored
		if i > 0 || p.Name() == model.ModelLexicon {
			outcome = OutcomeFallbackScored
		}
		result := model.NewSentimentResult(score.Value, score.Confidence, p.Name(), titles)
		c.logger.Debug().
			Str("symbol", symbol).
			Str("model", p.Name()).
			Float64("score", result.Score).
			Float64("confidence", result.Confidence).
			Int("articles", result.TotalArticles).
			Msg("Sentiment classified")
		return result, outcome, nil
	}
	return nil, "", fmt.Errorf("%w: all providers failed for %s: %v", ErrSentimentUnavailable, symbol, lastErr)
}

func (c *Classifier) fetch(ctx context.Context, symbol string) ([]Headline, error) {
	ctx, cancel := context.WithTimeout(ctx, c.headlineTimeout)
	defer cancel()
	return c.source.Headlines(ctx, symbol)
}

func (c *Classifier) score(ctx context.Context, p Provider, req Request) (Score, error) {
	ctx, cancel := context.WithTimeout(ctx, c.classifierTimeout)
	defer cancel()
	return p.Classify(ctx, req)
}
