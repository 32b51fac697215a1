package model

// Bias is the directional call for the next session.
type Bias string

const (
	BiasLong  Bias = "LONG"
	BiasShort Bias = "SHORT"
)

// Ladder holds the suggested entries, targets and stops.
type Ladder struct {
	Entry1  float64 `json:"entry1"`
	Entry2  float64 `json:"entry2"`
	TP1     float64 `json:"tp1"`
	TP2     float64 `json:"tp2"`
	SLTight float64 `json:"sl_tight"`
	SLWide  float64 `json:"sl_wide"`
}

// Technical is the output of the technical analyzer.
type Technical struct {
	CurrentValue  float64
	PreviousClose float64
	NetChange     float64
	ChangePct     float64
	TodayHigh     float64
	TodayLow      float64
	CVPosition    float64 // 0.0 ~ 1.0
	Bias          Bias
	BiasText      string
	Ladder        Ladder
}

// Alignment describes how sentiment relates to the technical bias.
type Alignment string

const (
	AlignmentAligned       Alignment = "aligned"
	AlignmentContradicting Alignment = "contradicting"
	AlignmentNeutral       Alignment = "neutral"
)

// Probability is the fused outcome of technical strength and sentiment.
type Probability struct {
	TechnicalStrength float64
	Base              float64
	Adjustment        float64
	Alignment         Alignment
	Percentage        float64
	Label             string
}

// Signal is the final, immutable output of the engine. Collaborators may read
// and serialize it but the engine never touches it after construction.
type Signal struct {
	Symbol        string  `json:"symbol"`
	DisplayName   string  `json:"display_name"`
	Bias          Bias    `json:"bias"`
	BiasText      string  `json:"bias_text"`
	CVPosition    float64 `json:"cv_position"`
	CurrentValue  float64 `json:"current_value"`
	PreviousClose float64 `json:"previous_close"`
	NetChange     float64 `json:"net_change"`
	ChangePct     float64 `json:"change_pct"`
	TodayHigh     float64 `json:"today_high"`
	TodayLow      float64 `json:"today_low"`
	Ladder

	ProbabilityPercentage float64 `json:"probability_percentage"`
	ProbabilityLabel      string  `json:"probability_label"`

	SentimentLabel      SentimentLabel `json:"sentiment_label"`
	SentimentScore      float64        `json:"sentiment_score"`
	SentimentConfidence float64        `json:"sentiment_confidence"`
	NewsCount           int            `json:"news_count"`
	ModelUsed           string         `json:"model_used"`
	Headlines           []string       `json:"headlines,omitempty"`
}
