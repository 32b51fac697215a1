package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"SignalFusion/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "signals.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleSignal(symbol string, prob float64) *model.Signal {
	return &model.Signal{
		Symbol:                symbol,
		DisplayName:           symbol + " index",
		Bias:                  model.BiasShort,
		BiasText:              "below mid-range",
		CVPosition:            0.25,
		CurrentValue:          100,
		TodayHigh:             110,
		TodayLow:              98,
		Ladder:                model.Ladder{Entry1: 101, Entry2: 102, TP1: 96, TP2: 90, SLTight: 111.5, SLWide: 112.5},
		ProbabilityPercentage: prob,
		ProbabilityLabel:      "Medium",
		SentimentLabel:        model.SentimentBearish,
		SentimentScore:        -0.4,
		SentimentConfidence:   70,
		NewsCount:             5,
		ModelUsed:             model.ModelLexicon,
		Headlines:             []string{"Stocks slide", "Yields jump"},
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ids := make([]string, 0, 3)
	for i, prob := range []float64{60, 65, 70} {
		id, err := r.RecordSignal(ctx, sampleSignal("US30", prob))
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	if _, err := r.RecordSignal(ctx, sampleSignal("GOLD", 55)); err != nil {
		t.Fatalf("record GOLD: %v", err)
	}

	got, err := r.Recent(ctx, "us30", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Errorf("rows not newest first: %s, %s", got[0].ID, got[1].ID)
	}
	if !got[0].CreatedAt.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("created_at = %v", got[0].CreatedAt)
	}

	sig := got[0].Signal
	if sig.ProbabilityPercentage != 70 || sig.Bias != model.BiasShort || sig.SentimentLabel != model.SentimentBearish {
		t.Errorf("fields not restored: %+v", sig)
	}
	if sig.SLWide != 112.5 || sig.TP2 != 90 {
		t.Errorf("ladder not restored: %+v", sig.Ladder)
	}
	if len(sig.Headlines) != 2 || sig.Headlines[1] != "Yields jump" {
		t.Errorf("headlines = %v", sig.Headlines)
	}
}

func TestSQLiteRecorder_NoHeadlines(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	sig := sampleSignal("NAS100", 50)
	sig.Headlines = nil
	sig.ModelUsed = model.ModelTechnicalOnly
	if _, err := r.RecordSignal(ctx, sig); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := r.Recent(ctx, "NAS100", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Signal.Headlines != nil {
		t.Errorf("unexpected rows: %+v", got)
	}
}

func TestSQLiteRecorder_UnknownSymbol(t *testing.T) {
	r := openTestRecorder(t)
	got, err := r.Recent(context.Background(), "NONE", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}
