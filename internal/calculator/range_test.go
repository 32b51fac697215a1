package calculator

import (
	"math"
	"testing"

	"SignalFusion/internal/model"
)

func TestRangePosition(t *testing.T) {
	r := model.DailyRange{High: 110, Low: 100}
	tests := []struct {
		name    string
		current float64
		want    float64
	}{
		{"at low", 100, 0},
		{"at high", 110, 1},
		{"middle", 105, 0.5},
		{"below low clamps", 95, 0},
		{"above high clamps", 120, 1},
		{"quarter", 102.5, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RangePosition(tt.current, r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RangePosition(%.2f) = %.4f, want %.4f", tt.current, got, tt.want)
			}
		})
	}
}

func TestRangePosition_Degenerate(t *testing.T) {
	for _, current := range []float64{50, 100, 150} {
		got, err := RangePosition(current, model.DailyRange{High: 100, Low: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0.5 {
			t.Errorf("degenerate range: got %.4f, want 0.5", got)
		}
	}
}

func TestRangePosition_Inverted(t *testing.T) {
	if _, err := RangePosition(100, model.DailyRange{High: 90, Low: 110}); err == nil {
		t.Error("expected error for high < low")
	}
}

func TestSessionRange(t *testing.T) {
	bars := []model.Bar{
		{High: 105, Low: 99},
		{High: 108, Low: 101},
		{High: 104, Low: 97},
	}
	r, err := SessionRange(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.High != 108 || r.Low != 97 {
		t.Errorf("got %+v, want high=108 low=97", r)
	}
	if _, err := SessionRange(nil); err == nil {
		t.Error("expected error for empty bars")
	}
}

func TestNetChange(t *testing.T) {
	net, pct := NetChange(200, 210)
	if net != 10 || math.Abs(pct-5) > 1e-9 {
		t.Errorf("got net=%.2f pct=%.2f, want 10 / 5", net, pct)
	}
	if _, pct := NetChange(0, 10); pct != 0 {
		t.Errorf("zero previous close: pct = %.2f, want 0", pct)
	}
}
