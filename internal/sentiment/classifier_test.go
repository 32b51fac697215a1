package sentiment

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"SignalFusion/internal/model"
)

// stubProvider returns a fixed score, an error, or blocks until ctx ends.
type stubProvider struct {
	name  string
	score Score
	err   error
	block bool
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Classify(ctx context.Context, _ Request) (Score, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return Score{}, ctx.Err()
	}
	return s.score, s.err
}

func fiveHeadlines() *StaticSource {
	return &StaticSource{Items: map[string][]Headline{
		"US30": headlines(
			"Dow rallies on strong earnings",
			"Stocks climb as yields ease",
			"Fed officials signal patience",
			"Industrial shares gain",
			"Oil prices slip",
		),
	}}
}

func TestNewClassifier_ProviderSelection(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"", []string{"lexicon"}},
		{"k", []string{"llm:" + DefaultLLMModel, "lexicon"}},
	}
	for _, tt := range tests {
		c := NewClassifier(&StaticSource{}, Options{LLM: LLMOptions{APIKey: tt.key}})
		if got := c.Providers(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("key %q: providers %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestClassify_LLMScored(t *testing.T) {
	llm := &stubProvider{name: "llm:test", score: Score{Value: -0.6, Confidence: 80}}
	c := NewClassifierWithProviders(fiveHeadlines(), []Provider{llm, LexiconProvider{}}, Options{})

	res, outcome, err := c.Classify(context.Background(), "US30", model.BiasShort)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeLLMScored || res.ModelUsed != "llm:test" {
		t.Errorf("got outcome %s model %s", outcome, res.ModelUsed)
	}
	if res.Label != model.SentimentBearish || res.TotalArticles != 5 {
		t.Errorf("got label %s articles %d", res.Label, res.TotalArticles)
	}
	if got := res.Sample(); len(got) != 3 || got[0] != "Dow rallies on strong earnings" {
		t.Errorf("sample = %v", got)
	}
	if n := len(slices.Collect(res.Headlines())); n != 5 {
		t.Errorf("headlines = %d, want 5", n)
	}
}

func TestClassify_TimeoutFallsBackToLexicon(t *testing.T) {
	llm := &stubProvider{name: "llm:slow", block: true}
	c := NewClassifierWithProviders(fiveHeadlines(), []Provider{llm, LexiconProvider{}},
		Options{ClassifierTimeout: 20 * time.Millisecond})

	res, outcome, err := c.Classify(context.Background(), "US30", model.BiasLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeFallbackScored {
		t.Errorf("outcome = %s, want fallback", outcome)
	}
	if res.ModelUsed != model.ModelLexicon {
		t.Errorf("model_used = %s, want lexicon", res.ModelUsed)
	}
	if res.TotalArticles != 5 {
		t.Errorf("total_articles = %d, want 5", res.TotalArticles)
	}
	if llm.calls != 1 {
		t.Errorf("primary called %d times, want exactly 1", llm.calls)
	}
	if res.Score <= 0 {
		t.Errorf("lexicon should read these headlines as bullish, got %.3f", res.Score)
	}
}

func TestClassify_MalformedFallsBack(t *testing.T) {
	llm := &stubProvider{name: "llm:test", err: errors.New("decode reply: unexpected end")}
	c := NewClassifierWithProviders(fiveHeadlines(), []Provider{llm, LexiconProvider{}}, Options{})
	res, _, err := c.Classify(context.Background(), "US30", model.BiasLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ModelUsed != model.ModelLexicon {
		t.Errorf("model_used = %s, want lexicon", res.ModelUsed)
	}
}

func TestClassify_NoData(t *testing.T) {
	llm := &stubProvider{name: "llm:test"}
	c := NewClassifierWithProviders(fiveHeadlines(), []Provider{llm, LexiconProvider{}}, Options{})

	res, outcome, err := c.Classify(context.Background(), "GOLD", model.BiasLong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeNoData || res.ModelUsed != model.ModelNoData {
		t.Errorf("got outcome %s model %s", outcome, res.ModelUsed)
	}
	if res.Label != model.SentimentNeutral || res.Score != 0 || res.Confidence != 0 || res.TotalArticles != 0 {
		t.Errorf("no-data result not neutral: %+v", res)
	}
	if llm.calls != 0 {
		t.Error("providers must not run without headlines")
	}
}

func TestClassify_HeadlineSourceFailure(t *testing.T) {
	c := NewClassifier(&StaticSource{Err: errors.New("feed down")}, Options{})
	res, _, err := c.Classify(context.Background(), "US30", model.BiasLong)
	if !errors.Is(err, ErrSentimentUnavailable) {
		t.Fatalf("expected ErrSentimentUnavailable, got %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
}

func TestClassify_AllProvidersFail(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("boom")}
	b := &stubProvider{name: "b", err: errors.New("bang")}
	c := NewClassifierWithProviders(fiveHeadlines(), []Provider{a, b}, Options{})
	if _, _, err := c.Classify(context.Background(), "US30", model.BiasLong); !errors.Is(err, ErrSentimentUnavailable) {
		t.Fatalf("expected ErrSentimentUnavailable, got %v", err)
	}
}
