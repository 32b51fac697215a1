package notifier

import (
	"fmt"
	"strings"
	"time"

	"SignalFusion/internal/model"
)

// FormatSignal renders a signal as a Discord markdown message.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder

	arrow := "🟢"
	if sig.Bias == model.BiasShort {
		arrow = "🔴"
	}
	fmt.Fprintf(&b, "%s **%s** (%s) | **%s**\n", arrow, sig.DisplayName, sig.Symbol, sig.Bias)
	fmt.Fprintf(&b, "_%s_\n\n", sig.BiasText)

	fmt.Fprintf(&b, "Price: %.2f (%+.2f, %+.2f%%) | Prev close: %.2f\n",
		sig.CurrentValue, sig.NetChange, sig.ChangePct, sig.PreviousClose)
	fmt.Fprintf(&b, "Range: %.2f - %.2f | Position: %.0f%%\n\n",
		sig.TodayLow, sig.TodayHigh, sig.CVPosition*100)

	b.WriteString("```\n")
	fmt.Fprintf(&b, "Entry  %10.2f  %10.2f\n", sig.Entry1, sig.Entry2)
	fmt.Fprintf(&b, "TP     %10.2f  %10.2f\n", sig.TP1, sig.TP2)
	fmt.Fprintf(&b, "SL     %10.2f  %10.2f\n", sig.SLTight, sig.SLWide)
	b.WriteString("```\n")

	fmt.Fprintf(&b, "Probability: **%.1f%%** (%s)\n", sig.ProbabilityPercentage, sig.ProbabilityLabel)

	switch sig.ModelUsed {
	case model.ModelTechnicalOnly:
		b.WriteString("Sentiment: not used\n")
	case model.ModelNoData:
		b.WriteString("Sentiment: no recent headlines\n")
	default:
		fmt.Fprintf(&b, "Sentiment: %s %+.2f (conf %.0f, %d articles, %s)\n",
			sig.SentimentLabel, sig.SentimentScore, sig.SentimentConfidence, sig.NewsCount, sig.ModelUsed)
	}
	for _, h := range sig.Headlines {
		fmt.Fprintf(&b, "> %s\n", h)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatFailure renders a per-symbol generation error.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("⚠️ **%s**: signal unavailable (%v)", symbol, err)
}

// FormatRunHeader opens a scheduled batch message.
func FormatRunHeader(at time.Time, generated, failed int) string {
	return fmt.Sprintf("📊 **Session signals** | %s | %d ok, %d failed",
		at.Format("2006-01-02 15:04 MST"), generated, failed)
}
