package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
)

// GuardedEmbedder enforces a token budget around a provider embedder.
// Transport metrics live in transport/openai; this layer owns budget metrics only.
type GuardedEmbedder struct {
	inner    domain.Embedder
	provider string
	budget   *Budget
	logger   *zap.Logger
}

// NewGuardedEmbedder wraps inner with budget enforcement.
func NewGuardedEmbedder(inner domain.Embedder, provider string, budget *Budget, logger *zap.Logger) *GuardedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardedEmbedder{inner: inner, provider: provider, budget: budget, logger: logger}
}

// Embed checks the budget, delegates, and records token usage.
func (g *GuardedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := g.budget.Check(ctx); err != nil {
		if errors.Is(err, domain.ErrEmbeddingBudgetExceeded) {
			metrics.EmbeddingBudgetRejectionsTotal.WithLabelValues(g.provider).Inc()
		}
		g.logger.Warn("Embedding rejected by budget", zap.String("provider", g.provider), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
	}

	res, err := g.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	g.budget.Record(ctx, int64(res.TotalTokens))
	gauge := metrics.EmbeddingBudgetTokensRemaining
	gauge.WithLabelValues(g.provider, "daily").Set(float64(g.budget.RemainingDaily()))
	gauge.WithLabelValues(g.provider, "monthly").Set(float64(g.budget.RemainingMonthly()))
	return res, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (g *GuardedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
