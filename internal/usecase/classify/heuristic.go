package classify

import (
	"context"
	"strings"

	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
)

// Phrases that mark a request for alternatives to a known grant.
var similarityPhrases = []string{
	"similar",
	"other grant",
	"recommend",
	"alternative",
	"more grants",
	"like this",
}

// Words that make a short query descriptive rather than a name lookup.
var descriptiveWords = map[string]bool{
	"i": true, "we": true, "my": true, "our": true, "need": true, "want": true,
	"looking": true, "find": true, "help": true, "funding": true, "fund": true,
	"for": true, "to": true, "with": true, "about": true, "how": true, "what": true,
	"which": true, "support": true,
}

// maxKeywordWords is the longest query still treated as a keyword lookup.
const maxKeywordWords = 3

// IsSimilarityRequest reports whether the query asks for alternatives.
func IsSimilarityRequest(query string) bool {
	q := strings.ToLower(query)
	for _, p := range similarityPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// Heuristic classifies with fixed vocabularies and no external calls.
type Heuristic struct{}

// NewHeuristic creates the vocabulary classifier.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Classify implements Classifier.
func (h *Heuristic) Classify(_ context.Context, query string) (mode.Decision, error) {
	q, err := ValidateQuery(query)
	if err != nil {
		return mode.Decision{}, err
	}
	d := heuristicDecision(q)
	metrics.ClassifierDecisionsTotal.WithLabelValues(StrategyHeuristic, string(d.Mode)).Inc()
	return d, nil
}

func heuristicDecision(q string) mode.Decision {
	if IsSimilarityRequest(q) {
		return mode.Decision{Mode: mode.Similar}
	}
	words := strings.Fields(strings.ToLower(q))
	if len(words) > maxKeywordWords {
		return mode.SemanticDecision("", "")
	}
	for _, w := range words {
		if descriptiveWords[strings.Trim(w, ".,!?;:'\"")] {
			return mode.SemanticDecision("", "")
		}
	}
	return mode.FilterDecision(normalizeKeyword(q))
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
