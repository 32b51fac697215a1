package sentiment

import (
	"context"

	"SignalFusion/internal/model"
)

// Request is what a provider scores.
type Request struct {
	Symbol    string
	Bias      model.Bias
	Headlines []Headline
}

// Score is a provider's raw verdict: Value in [-1,1], Confidence in [0,100].
type Score struct {
	Value      float64
	Confidence float64
}

// Provider scores headlines. Name is recorded as model_used.
type Provider interface {
	Name() string
	Classify(ctx context.Context, req Request) (Score, error)
}
