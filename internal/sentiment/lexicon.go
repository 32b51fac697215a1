package sentiment

import (
	"context"
	"math"
	"slices"
	"strings"
	"unicode"

	"SignalFusion/internal/model"
)

const (
	// lexiconAlpha normalises the summed valence into (-1, 1) the way VADER's
	// compound score does.
	lexiconAlpha = 15.0
	// negationScalar flips and dampens a negated term.
	negationScalar = -0.74
	// boosterIncrement is added to the magnitude of a boosted term.
	boosterIncrement = 0.293
	// negationWindow is how many preceding tokens can negate a term.
	negationWindow = 3

	lexiconBaseConfidence   = 50.0
	lexiconSignalWeight     = 5.0
	lexiconHighImpactWeight = 10.0
	lexiconMaxConfidence    = 95.0
)

// Valences of market vocabulary. Positive is bullish.
var valences = map[string]float64{
	// bullish
	"rally": 3, "surge": 3, "soar": 3, "breakout": 3, "bull market": 3, "earnings beat": 3,
	"record high": 3, "rallies": 3, "rallied": 3,
	"bullish": 2, "gain": 2, "rise": 2, "rising": 2, "rose": 2, "climb": 2, "advance": 2,
	"boost": 2, "strong": 2, "upgrade": 2, "growth": 2, "recovery": 2, "rebound": 2,
	"momentum": 2, "buying": 2, "uptrend": 2, "profit": 2, "jump": 2, "revenue growth": 2,
	"positive": 1, "optimistic": 1, "support": 1, "expansion": 1, "merger": 1,
	"acquisition": 1, "dividend": 1, "buyback": 1, "investment": 1, "partnership": 1,
	// bearish
	"crash": -3, "plunge": -3, "tumble": -3, "breakdown": -3, "recession": -3, "crisis": -3,
	"bear market": -3, "earnings miss": -3, "bankruptcy": -3,
	"bearish": -2, "fall": -2, "falling": -2, "fell": -2, "drop": -2, "decline": -2,
	"slump": -2, "sell-off": -2, "selloff": -2, "weak": -2, "downgrade": -2, "selling": -2,
	"downtrend": -2, "loss": -2, "layoffs": -2, "revenue decline": -2, "contraction": -2,
	"negative": -1, "pessimistic": -1, "resistance": -1, "concern": -1, "risk": -1,
	"debt": -1, "fear": -1, "profit-taking": -1,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "neither": {}, "nor": {},
	"isn't": {}, "aren't": {}, "wasn't": {}, "don't": {}, "doesn't": {}, "didn't": {},
	"won't": {}, "can't": {}, "hardly": {}, "fails": {}, "failed": {},
}

var boosters = map[string]struct{}{
	"very": {}, "sharply": {}, "strongly": {}, "significantly": {}, "massive": {},
	"huge": {}, "deeply": {}, "extremely": {}, "big": {}, "steep": {},
}

// HighImpactTerms raise confidence when present.
var HighImpactTerms = []string{
	"federal reserve", "fed", "inflation", "interest rates", "gdp", "unemployment",
	"earnings", "guidance", "forecast", "outlook", "economic data", "trade war",
	"geopolitical", "oil prices", "cryptocurrency", "nasdaq", "dow jones",
	"sp 500", "s&p 500",
}

// lexiconTerm is a tokenised valence entry.
type lexiconTerm struct {
	tokens  []string
	valence float64
}

var (
	lexiconTerms    = compileTerms()
	highImpactTerms = compilePhrases(HighImpactTerms)
)

func compileTerms() []lexiconTerm {
	phrases := make([]string, 0, len(valences))
	for phrase := range valences {
		phrases = append(phrases, phrase)
	}
	slices.Sort(phrases)
	terms := make([]lexiconTerm, len(phrases))
	for i, phrase := range phrases {
		terms[i] = lexiconTerm{tokens: tokenize(phrase), valence: valences[phrase]}
	}
	return terms
}

func compilePhrases(phrases []string) [][]string {
	out := make([][]string, len(phrases))
	for i, p := range phrases {
		out[i] = tokenize(p)
	}
	return out
}

// LexiconProvider is the deterministic fallback scorer. It never fails.
type LexiconProvider struct{}

func (LexiconProvider) Name() string { return model.ModelLexicon }

// Classify scores all headlines together. Confidence starts at 50 and grows
// with each sentiment hit and each high-impact term, capped at 95.
func (LexiconProvider) Classify(_ context.Context, req Request) (Score, error) {
	var sum float64
	var signals, highImpact int
	for _, h := range req.Headlines {
		tokens := tokenize(h.Text())
		v, n := scoreTokens(tokens)
		sum += v
		signals += n
		highImpact += countPhrases(tokens, highImpactTerms)
	}

	confidence := math.Min(lexiconBaseConfidence+float64(signals)*lexiconSignalWeight, lexiconMaxConfidence)
	if highImpact > 0 {
		confidence = math.Min(confidence+float64(highImpact)*lexiconHighImpactWeight, lexiconMaxConfidence)
	}
	return Score{Value: normalize(sum), Confidence: confidence}, nil
}

// scoreTokens sums the valence of every matched term, applying negation and
// booster rules, and reports the number of matches.
func scoreTokens(tokens []string) (float64, int) {
	var sum float64
	var hits int
	for i := 0; i < len(tokens); i++ {
		if _, isBooster := boosters[tokens[i]]; isBooster {
			continue
		}
		term, ok := matchTerm(tokens, i)
		if !ok {
			continue
		}
		v := term.valence
		if i > 0 {
			if _, boosted := boosters[tokens[i-1]]; boosted {
				v += math.Copysign(boosterIncrement, v)
			}
		}
		if negated(tokens, i) {
			v *= negationScalar
		}
		sum += v
		hits++
		i += len(term.tokens) - 1
	}
	return sum, hits
}

// matchTerm returns the longest term starting at tokens[i].
func matchTerm(tokens []string, i int) (lexiconTerm, bool) {
	var best lexiconTerm
	found := false
	for _, t := range lexiconTerms {
		if len(t.tokens) <= len(best.tokens) {
			continue
		}
		if matchesAt(tokens, i, t.tokens) {
			best, found = t, true
		}
	}
	return best, found
}

func negated(tokens []string, i int) bool {
	for j := max(0, i-negationWindow); j < i; j++ {
		if _, ok := negations[tokens[j]]; ok {
			return true
		}
	}
	return false
}

func countPhrases(tokens []string, phrases [][]string) int {
	n := 0
	for _, p := range phrases {
		for i := range tokens {
			if matchesAt(tokens, i, p) {
				n++
				break
			}
		}
	}
	return n
}

// matchesAt compares a phrase against tokens starting at i. The last word of
// a phrase of four or more letters also matches its regular inflections
// ("gain" matches "gains" and "gained", not "gainsay").
func matchesAt(tokens []string, i int, phrase []string) bool {
	if i+len(phrase) > len(tokens) {
		return false
	}
	for k, w := range phrase {
		tok := tokens[i+k]
		if tok == w {
			continue
		}
		if k == len(phrase)-1 && len(w) >= 4 && isInflection(tok, w) {
			continue
		}
		return false
	}
	return true
}

var inflectionSuffixes = []string{"s", "es", "ed", "ing"}

// isInflection reports whether tok is w with a plural, past or progressive
// suffix, allowing a dropped final "e" and a doubled final consonant.
func isInflection(tok, w string) bool {
	stems := []string{w}
	if strings.HasSuffix(w, "e") {
		stems = append(stems, strings.TrimSuffix(w, "e"))
	} else {
		stems = append(stems, w+w[len(w)-1:])
	}
	for _, stem := range stems {
		rest, ok := strings.CutPrefix(tok, stem)
		if !ok {
			continue
		}
		if slices.Contains(inflectionSuffixes, rest) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '&' && r != '\''
	})
}

func normalize(sum float64) float64 {
	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+lexiconAlpha)
}
