package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"SignalFusion/internal/calculator"
)

const (
	// DefaultLLMBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultLLMModel   = "gemini-2.0-flash"

	summaryPreviewLen = 200
)

// LLMOptions configures an LLMProvider.
type LLMOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LLMProvider scores headlines with an OpenAI-compatible chat completion.
type LLMProvider struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewLLMProvider creates the generative provider.
func NewLLMProvider(opts LLMOptions) *LLMProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Model == "" {
		opts.Model = DefaultLLMModel
	}
	return &LLMProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
		logger: log.With().Str("component", "llm_provider").Str("model", opts.Model).Logger(),
	}
}

func (p *LLMProvider) Name() string { return "llm:" + p.model }

// Classify sends one completion request. Any transport, quota or parse
// failure is returned as is; the caller owns the fallback.
func (p *LLMProvider) Classify(ctx context.Context, req Request) (Score, error) {
	prompt := buildPrompt(req)
	p.logger.Debug().Str("symbol", req.Symbol).Int("headlines", len(req.Headlines)).Msg("Sending sentiment prompt")

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a financial news sentiment analyst. Reply with JSON only."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return Score{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Score{}, errors.New("chat completion returned no choices")
	}
	return parseReply(resp.Choices[0].Message.Content)
}

func buildPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze these financial news headlines for %s trading sentiment:\n\n", req.Symbol)
	for i, h := range req.Headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h.Title)
		if h.Summary != "" && len(h.Summary) > len(h.Title) {
			summary := h.Summary
			if len(summary) > summaryPreviewLen {
				summary = summary[:summaryPreviewLen] + "..."
			}
			fmt.Fprintf(&sb, "   Summary: %s\n", summary)
		}
	}
	sb.WriteString(`
Return ONLY a JSON object with this exact format:
{"sentiment_score": <number between -1.0 and 1.0>, "confidence": <number between 0 and 100>}

Where:
- sentiment_score: -1.0 (very bearish) to +1.0 (very bullish)
- confidence: 0-100 based on news clarity and consistency
`)
	return sb.String()
}

type llmReply struct {
	SentimentScore *float64 `json:"sentiment_score"`
	Sentiment      *float64 `json:"sentiment"`
	Confidence     *float64 `json:"confidence"`
}

// parseReply extracts the JSON verdict, tolerating markdown fences and
// surrounding prose. Out-of-range numbers are clamped.
func parseReply(content string) (Score, error) {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return Score{}, fmt.Errorf("no JSON object in reply %q", truncate(content, 120))
	}

	var r llmReply
	if err := json.Unmarshal([]byte(body[start:end+1]), &r); err != nil {
		return Score{}, fmt.Errorf("decode reply: %w", err)
	}
	score := r.SentimentScore
	if score == nil {
		score = r.Sentiment
	}
	if score == nil || r.Confidence == nil {
		return Score{}, fmt.Errorf("reply missing sentiment_score or confidence: %q", truncate(content, 120))
	}

	confidence := *r.Confidence
	// Some models answer on a 0-1 scale despite the prompt.
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}
	return Score{
		Value:      calculator.Clamp(*score, -1, 1),
		Confidence: calculator.Clamp(confidence, 0, 100),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
