package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"SignalFusion/internal/model"
)

func testSignal() *model.Signal {
	return &model.Signal{
		Symbol:        "US30",
		DisplayName:   "Dow Jones",
		Bias:          model.BiasLong,
		BiasText:      "Price is holding the upper half of the session range",
		CVPosition:    0.75,
		CurrentValue:  44100,
		PreviousClose: 44000,
		NetChange:     100,
		ChangePct:     0.23,
		TodayHigh:     44150,
		TodayLow:      43950,
		Ladder: model.Ladder{
			Entry1: 44090, Entry2: 44080, TP1: 44190, TP2: 44290, SLTight: 43940, SLWide: 43920,
		},
		ProbabilityPercentage: 77.3,
		ProbabilityLabel:      "High",
		SentimentLabel:        model.SentimentBullish,
		SentimentScore:        0.6,
		SentimentConfidence:   80,
		NewsCount:             7,
		ModelUsed:             "llm:gemini-2.0-flash",
		Headlines:             []string{"Stocks rally on earnings", "Dow hits record"},
	}
}

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal(testSignal())
	for _, want := range []string{
		"**Dow Jones** (US30) | **LONG**",
		"Position: 75%",
		"Entry    44090.00    44080.00",
		"Probability: **77.3%** (High)",
		"BULLISH +0.60 (conf 80, 7 articles, llm:gemini-2.0-flash)",
		"> Dow hits record",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatSignal_Provenance(t *testing.T) {
	tests := []struct {
		modelUsed string
		want      string
	}{
		{model.ModelTechnicalOnly, "Sentiment: not used"},
		{model.ModelNoData, "Sentiment: no recent headlines"},
		{model.ModelLexicon, "(conf 80, 7 articles, lexicon)"},
	}
	for _, tt := range tests {
		t.Run(tt.modelUsed, func(t *testing.T) {
			sig := testSignal()
			sig.ModelUsed = tt.modelUsed
			if msg := FormatSignal(sig); !strings.Contains(msg, tt.want) {
				t.Errorf("message missing %q:\n%s", tt.want, msg)
			}
		})
	}
}

func TestDiscordNotifier_Send(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL, "SignalFusion", "")
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "hello" || got.Username != "SignalFusion" {
		t.Errorf("payload = %+v", got)
	}
}

func TestDiscordNotifier_ClipsLongContent(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL, "", "")
	if err := n.Send(context.Background(), strings.Repeat("x", 3000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l := len([]rune(got.Content)); l != discordContentLimit {
		t.Errorf("content length = %d, want %d", l, discordContentLimit)
	}
}

func TestDiscordNotifier_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL, "", "")
	n.MaxRetryTime = 5 * time.Second
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestDiscordNotifier_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message": "Unknown Webhook"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(srv.URL, "", "")
	err := n.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFormatFailure(t *testing.T) {
	msg := FormatFailure("GOLD", errors.New("data unavailable"))
	if !strings.Contains(msg, "**GOLD**") || !strings.Contains(msg, "data unavailable") {
		t.Errorf("unexpected message %q", msg)
	}
}
