package engine

import "strings"

// Instrument ties a display symbol to its market feed ticker.
type Instrument struct {
	Symbol      string
	FeedSymbol  string
	DisplayName string
}

// DefaultInstruments is used when no symbols are configured.
var DefaultInstruments = []Instrument{
	{Symbol: "US30", FeedSymbol: "^DJI"},
	{Symbol: "NAS100", FeedSymbol: "^NDX"},
	{Symbol: "SPX500", FeedSymbol: "^GSPC"},
	{Symbol: "GOLD", FeedSymbol: "GC=F"},
}

var displayNames = map[string]string{
	"^NDX":  "NAS100",
	"NDX":   "NAS100",
	"^IXIC": "NAS100",
	"^DJI":  "US30",
	"DJI":   "US30",
	"US30":  "US30",
	"^GSPC": "SPX500",
	"SPX":   "SPX500",
	"GC=F":  "GOLD",
}

// DisplayName resolves the human-facing name of an instrument: an explicit
// name wins, then the known aliases of the symbol and of its feed ticker.
func DisplayName(inst Instrument) string {
	if inst.DisplayName != "" {
		return inst.DisplayName
	}
	for _, key := range []string{inst.Symbol, inst.FeedSymbol} {
		if name, ok := displayNames[strings.ToUpper(key)]; ok {
			return name
		}
	}
	return inst.Symbol
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
