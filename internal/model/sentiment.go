package model

import "iter"

// SentimentLabel is the coarse direction of a news sentiment score.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "BULLISH"
	SentimentBearish SentimentLabel = "BEARISH"
	SentimentNeutral SentimentLabel = "NEUTRAL"
)

// Provenance tags stored in model_used.
const (
	ModelTechnicalOnly = "technical-only"
	ModelNoData        = "no-data"
	ModelLexicon       = "lexicon"
)

// labelThreshold separates a directional label from NEUTRAL.
const labelThreshold = 0.2

// HeadlineSampleSize is how many headlines are exposed for display.
const HeadlineSampleSize = 3

// LabelFor maps a score in [-1,1] to a label.
func LabelFor(score float64) SentimentLabel {
	switch {
	case score > labelThreshold:
		return SentimentBullish
	case score < -labelThreshold:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// SentimentResult is the outcome of one classification run.
type SentimentResult struct {
	Label         SentimentLabel `json:"sentiment_label"`
	Score         float64        `json:"sentiment_score"`
	Confidence    float64        `json:"confidence"`
	TotalArticles int            `json:"total_articles"`
	ModelUsed     string         `json:"model_used"`

	headlines []string
}

// NewSentimentResult builds a result. The headline slice is copied.
func NewSentimentResult(score, confidence float64, modelUsed string, headlines []string) *SentimentResult {
	hs := make([]string, len(headlines))
	copy(hs, headlines)
	return &SentimentResult{
		Label:         LabelFor(score),
		Score:         score,
		Confidence:    confidence,
		TotalArticles: len(hs),
		ModelUsed:     modelUsed,
		headlines:     hs,
	}
}

// Headlines yields the raw headlines in the order they were fetched.
func (r *SentimentResult) Headlines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, h := range r.headlines {
			if !yield(h) {
				return
			}
		}
	}
}

// Sample returns at most HeadlineSampleSize headlines for display.
func (r *SentimentResult) Sample() []string {
	out := make([]string, 0, HeadlineSampleSize)
	for h := range r.Headlines() {
		if len(out) == HeadlineSampleSize {
			break
		}
		out = append(out, h)
	}
	return out
}
