package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/logger"
)

// SemanticStage is the background part of a search job: embed, then hybrid retrieval.
type SemanticStage struct {
	embed  Embedder
	engine HybridSearcher
}

// NewSemanticStage creates the job stage. embed may be nil.
func NewSemanticStage(embed Embedder, engine HybridSearcher) *SemanticStage {
	return &SemanticStage{embed: embed, engine: engine}
}

// Run implements usecase/job.Stage. An expired stage context or a retrieval
// failure on every index channel fails the job; a failed embedding falls back to lexical.
func (s *SemanticStage) Run(ctx context.Context, query string, _ job.Filters) ([]result.Scored, error) {
	vec := vectorize(ctx, s.embed, query)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("semantic stage: %w", err)
	}

	hybrid, err := s.engine.HybridSearch(ctx, query, vec, 0)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("semantic stage: %w", ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("semantic stage: %w", err)
	}

	out := make([]result.Scored, len(hybrid))
	for i, r := range hybrid {
		r.Source = result.RAG
		out[i] = r
	}
	return out, nil
}

// vectorize returns nil when no embedder is wired or the provider fails.
func vectorize(ctx context.Context, embed Embedder, text string) []float32 {
	if embed == nil {
		return nil
	}
	res, err := embed.Embed(ctx, text)
	if err != nil {
		logger.FromContext(ctx).Warn("query embedding failed, lexical only", zap.Error(err))
		return nil
	}
	return res.Embedding
}
