package calculator

import (
	"errors"
	"math"

	"SignalFusion/internal/model"
)

// SessionRange scans the bars and returns the highest high and lowest low.
func SessionRange(bars []model.Bar) (model.DailyRange, error) {
	if len(bars) == 0 {
		return model.DailyRange{}, errors.New("no bars provided")
	}
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return model.DailyRange{High: high, Low: low}, nil
}

// RangePosition returns where current sits within the range (0.0~1.0).
// A degenerate range (high == low) yields 0.5.
func RangePosition(current float64, r model.DailyRange) (float64, error) {
	if r.High == r.Low {
		return 0.5, nil
	}
	if r.High < r.Low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - r.Low) / (r.High - r.Low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// NetChange returns the absolute and percentage change from previous to current.
// The percentage is 0 when previous is 0.
func NetChange(previous, current float64) (net, pct float64) {
	net = current - previous
	if previous != 0 {
		pct = net / previous * 100
	}
	return net, pct
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
