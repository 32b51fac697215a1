package strategy

import "fmt"

// Calibration holds the tunable constants of the price ladder and the
// probability blend. Multipliers are fractions of the session range.
type Calibration struct {
	EntryOffset      float64 `yaml:"entry_offset" default:"0.10"`
	TP1              float64 `yaml:"tp1" default:"0.50"`
	TP2              float64 `yaml:"tp2" default:"1.00"`
	SLTight          float64 `yaml:"sl_tight" default:"0.05"`
	SLWide           float64 `yaml:"sl_wide" default:"0.15"`
	MinRangeFraction float64 `yaml:"min_range_fraction" default:"0.0005"`
	StrengthScale    float64 `yaml:"strength_scale" default:"45"`
	SentimentScale   float64 `yaml:"sentiment_scale" default:"10"`
}

// DefaultCalibration returns the stock calibration.
func DefaultCalibration() Calibration {
	return Calibration{
		EntryOffset:      0.10,
		TP1:              0.50,
		TP2:              1.00,
		SLTight:          0.05,
		SLWide:           0.15,
		MinRangeFraction: 0.0005,
		StrengthScale:    45,
		SentimentScale:   10,
	}
}

// Validate rejects constants that would break ladder ordering or push the
// base probability outside [50, 95].
func (c Calibration) Validate() error {
	if c.EntryOffset <= 0 {
		return fmt.Errorf("calibration.entry_offset must be positive")
	}
	if c.TP1 <= c.EntryOffset {
		return fmt.Errorf("calibration.tp1 (%.3f) must exceed entry_offset (%.3f)", c.TP1, c.EntryOffset)
	}
	if c.TP2 <= c.TP1 {
		return fmt.Errorf("calibration.tp2 (%.3f) must exceed tp1 (%.3f)", c.TP2, c.TP1)
	}
	if c.SLTight <= 0 || c.SLWide <= c.SLTight {
		return fmt.Errorf("calibration requires 0 < sl_tight < sl_wide, got %.3f / %.3f", c.SLTight, c.SLWide)
	}
	if c.MinRangeFraction <= 0 {
		return fmt.Errorf("calibration.min_range_fraction must be positive")
	}
	if c.StrengthScale < 0 || c.StrengthScale > maxProbability-baseProbability {
		return fmt.Errorf("calibration.strength_scale must be within [0, %.0f]", maxProbability-baseProbability)
	}
	if c.SentimentScale < 0 {
		return fmt.Errorf("calibration.sentiment_scale must not be negative")
	}
	return nil
}
