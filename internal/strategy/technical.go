package strategy

import (
	"fmt"
	"math"

	"SignalFusion/internal/calculator"
	"SignalFusion/internal/model"
)

const (
	longBiasText  = "Near daily low — reversal long setup"
	shortBiasText = "Near daily high — reversal short setup"
)

// Analyze computes range position, bias and the price ladder from a snapshot.
func Analyze(snap *model.Snapshot, cal Calibration) (*model.Technical, error) {
	cv := snap.Current.Close
	net, pct := calculator.NetChange(snap.Previous.Close, cv)

	pos, err := calculator.RangePosition(cv, snap.Range)
	if err != nil {
		return nil, fmt.Errorf("range position: %w", err)
	}

	bias, text := biasFor(pos)
	return &model.Technical{
		CurrentValue:  cv,
		PreviousClose: snap.Previous.Close,
		NetChange:     net,
		ChangePct:     pct,
		TodayHigh:     snap.Range.High,
		TodayLow:      snap.Range.Low,
		CVPosition:    pos,
		Bias:          bias,
		BiasText:      text,
		Ladder:        buildLadder(bias, cv, snap.Range, cal),
	}, nil
}

// biasFor applies mean reversion on the intraday range: the lower half
// (inclusive of the midpoint) is a long setup, the upper half a short one.
func biasFor(cvPosition float64) (model.Bias, string) {
	if cvPosition <= 0.5 {
		return model.BiasLong, longBiasText
	}
	return model.BiasShort, shortBiasText
}

// buildLadder derives entries, targets and stops from the session range.
// Stops are anchored beyond both the session extreme and entry1 so the ladder
// stays strictly ordered even when the current value sits outside the range.
// A degenerate session borrows a width of MinRangeFraction of the price.
func buildLadder(bias model.Bias, cv float64, r model.DailyRange, cal Calibration) model.Ladder {
	width := r.Width()
	if r.Degenerate() {
		width = cal.MinRangeFraction * math.Abs(cv)
	}

	if bias == model.BiasLong {
		entry1 := cv - cal.EntryOffset*width
		anchor := math.Min(r.Low, entry1)
		return model.Ladder{
			Entry1:  entry1,
			Entry2:  cv,
			TP1:     entry1 + cal.TP1*width,
			TP2:     entry1 + cal.TP2*width,
			SLTight: anchor - cal.SLTight*width,
			SLWide:  anchor - cal.SLWide*width,
		}
	}

	entry1 := cv + cal.EntryOffset*width
	anchor := math.Max(r.High, entry1)
	return model.Ladder{
		Entry1:  entry1,
		Entry2:  cv,
		TP1:     entry1 - cal.TP1*width,
		TP2:     entry1 - cal.TP2*width,
		SLTight: anchor + cal.SLTight*width,
		SLWide:  anchor + cal.SLWide*width,
	}
}

// LadderOrdered reports whether the ladder respects the ordering for its bias:
// LONG sl_wide < sl_tight < entry1 < entry2 <= tp1 < tp2, SHORT mirrored.
func LadderOrdered(bias model.Bias, l model.Ladder) bool {
	if bias == model.BiasLong {
		return l.SLWide < l.SLTight && l.SLTight < l.Entry1 && l.Entry1 < l.Entry2 &&
			l.Entry2 <= l.TP1 && l.TP1 < l.TP2
	}
	return l.SLWide > l.SLTight && l.SLTight > l.Entry1 && l.Entry1 > l.Entry2 &&
		l.Entry2 >= l.TP1 && l.TP1 > l.TP2
}
