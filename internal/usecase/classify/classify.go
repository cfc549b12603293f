// Package classify decides per query between structured filtering and semantic retrieval.
package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/grantmatch/internal/domain"
)

// Strategy names selectable from configuration.
const (
	StrategyHeuristic = "heuristic"
	StrategyLLM       = "llm"
)

// MinQueryLength is the shortest accepted trimmed query, in runes.
const MinQueryLength = 2

// New builds the classifier for a strategy. The llm strategy requires chat.
func New(strategy string, chat ChatClient, timeout time.Duration) (Classifier, error) {
	switch strategy {
	case StrategyHeuristic, "":
		return NewHeuristic(), nil
	case StrategyLLM:
		if chat == nil {
			return nil, fmt.Errorf("llm classifier without chat client: %w", domain.ErrConfiguration)
		}
		return NewToolRouting(chat, timeout), nil
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q: %w", strategy, domain.ErrConfiguration)
	}
}

// ValidateQuery trims the query and rejects anything shorter than MinQueryLength.
func ValidateQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < MinQueryLength {
		return "", domain.NewValidationError("query", fmt.Sprintf("must be at least %d characters", MinQueryLength))
	}
	return q, nil
}
