package model

import (
	"errors"
	"time"
)

// ErrDataUnavailable is returned when a bar feed cannot supply two usable bars
// and a valid session range. It is the only failure that prevents a signal.
var ErrDataUnavailable = errors.New("market data unavailable")

// Bar represents a single hourly candlestick.
type Bar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// DailyRange is the current session's high and low. High >= Low.
type DailyRange struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// Width returns High - Low.
func (r DailyRange) Width() float64 { return r.High - r.Low }

// Degenerate reports whether the session has no range at all.
func (r DailyRange) Degenerate() bool { return r.High == r.Low }

// Snapshot is what a bar feed hands to the technical analyzer: the previous
// and the current bar (in that order) plus the session range.
type Snapshot struct {
	Symbol    string     `json:"symbol"`
	Previous  Bar        `json:"previous"`
	Current   Bar        `json:"current"`
	Range     DailyRange `json:"range"`
	Source    string     `json:"source"`
	FetchedAt time.Time  `json:"fetched_at"`
}
