package classify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/grantmatch/internal/logger"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
)

// ToolRouting lets a chat model pick between the keyword filter and semantic search tools.
// Any inference failure falls back to semantic mode.
type ToolRouting struct {
	chat    ChatClient
	timeout time.Duration
}

// NewToolRouting creates the tool-calling classifier. A zero timeout disables the deadline.
func NewToolRouting(chat ChatClient, timeout time.Duration) *ToolRouting {
	return &ToolRouting{chat: chat, timeout: timeout}
}

// Classify implements Classifier.
func (t *ToolRouting) Classify(ctx context.Context, query string) (mode.Decision, error) {
	q, err := ValidateQuery(query)
	if err != nil {
		return mode.Decision{}, err
	}
	// Alternatives requests never reach the model.
	if IsSimilarityRequest(q) {
		metrics.ClassifierDecisionsTotal.WithLabelValues(StrategyLLM, string(mode.Similar)).Inc()
		return mode.Decision{Mode: mode.Similar}, nil
	}

	d := t.route(ctx, q)
	metrics.ClassifierDecisionsTotal.WithLabelValues(StrategyLLM, string(d.Mode)).Inc()
	return d, nil
}

func (t *ToolRouting) route(ctx context.Context, q string) mode.Decision {
	log := logger.FromContext(ctx)

	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	call, err := t.chat.ChooseTool(callCtx, q)
	if err != nil {
		log.Warn("tool routing failed, using semantic search", zap.Error(err))
		metrics.ClassifierFallbacksTotal.Inc()
		return mode.SemanticDecision("", "")
	}

	switch call.Name {
	case mode.ToolFilterByKeyword:
		var args struct {
			Keyword string `json:"keyword"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			log.Debug("bad keyword tool arguments", zap.Error(err))
		}
		kw := normalizeKeyword(args.Keyword)
		if kw == "" {
			kw = normalizeKeyword(q)
		}
		return mode.FilterDecision(kw)
	case mode.ToolSearchWithRAG:
		var args struct {
			Category string `json:"category"`
			Agency   string `json:"agency"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			log.Debug("bad rag tool arguments", zap.Error(err))
		}
		category := args.Category
		if !grant.Category(category).IsValid() {
			category = ""
		}
		return mode.SemanticDecision(category, args.Agency)
	default:
		log.Warn("unknown routing tool, using semantic search", zap.String("tool", call.Name))
		metrics.ClassifierFallbacksTotal.Inc()
		return mode.SemanticDecision("", "")
	}
}
