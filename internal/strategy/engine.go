package strategy

import (
	"math"

	"SignalFusion/internal/calculator"
	"SignalFusion/internal/model"
)

const (
	baseProbability = 50.0
	maxProbability  = 95.0
)

// Labels maps a probability to a label, highest threshold first.
var Labels = []struct {
	MinProbability float64
	Label          string
}{
	{75, "High"},
	{60, "Medium"},
}

// DefaultLabel applies below the lowest threshold.
const DefaultLabel = "Low"

// mapLabel maps a probability percentage to its label.
func mapLabel(p float64) string {
	for _, l := range Labels {
		if p >= l.MinProbability {
			return l.Label
		}
	}
	return DefaultLabel
}

// TechnicalStrength is 0 at the middle of the range and 1 at either extreme.
func TechnicalStrength(cvPosition float64) float64 {
	return calculator.Clamp(math.Abs(cvPosition-0.5)*2, 0, 1)
}

// alignmentOf compares the sentiment sign with the bias. A nil result means
// sentiment was not requested.
func alignmentOf(bias model.Bias, s *model.SentimentResult) model.Alignment {
	if s == nil || s.Score == 0 {
		return model.AlignmentNeutral
	}
	if (bias == model.BiasLong) == (s.Score > 0) {
		return model.AlignmentAligned
	}
	return model.AlignmentContradicting
}

// Fuse blends technical strength with sentiment into one probability.
// Sentiment only moves the probability; the bias stays technical.
func Fuse(tech *model.Technical, s *model.SentimentResult, cal Calibration) model.Probability {
	strength := TechnicalStrength(tech.CVPosition)
	base := baseProbability + strength*cal.StrengthScale

	p := model.Probability{
		TechnicalStrength: strength,
		Base:              base,
		Alignment:         alignmentOf(tech.Bias, s),
	}

	if s != nil {
		confidence := calculator.Clamp(s.Confidence, 0, 100)
		score := calculator.Clamp(s.Score, -1, 1)
		p.Adjustment = confidence / 100 * math.Abs(score) * cal.SentimentScale
	}

	final := base
	switch p.Alignment {
	case model.AlignmentAligned:
		final += p.Adjustment
	case model.AlignmentContradicting:
		final -= p.Adjustment
	}

	p.Percentage = calculator.Clamp(final, baseProbability, maxProbability)
	p.Label = mapLabel(p.Percentage)
	return p
}
