package discovery

import (
	"context"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/usecase/filter"
	jobuc "github.com/kailas-cloud/grantmatch/internal/usecase/job"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

// Classifier routes a query.
type Classifier interface {
	Classify(ctx context.Context, query string) (mode.Decision, error)
}

// FilterResolver maps free text to known filter values.
type FilterResolver interface {
	Resolve(ctx context.Context, term string) filter.Resolution
}

// GrantLister queries active grants in the structured store.
type GrantLister interface {
	ListActiveByCategory(ctx context.Context, category string) ([]grant.Grant, error)
	ListActiveByAgency(ctx context.Context, agency string) ([]grant.Grant, error)
	SearchActiveByName(ctx context.Context, keyword string) ([]grant.Grant, error)
}

// HybridSearcher runs fused lexical and vector retrieval.
// It errors only when every attempted channel failed.
type HybridSearcher interface {
	HybridSearch(ctx context.Context, query string, vector []float32, k int) ([]result.Scored, error)
}

// Embedder vectorizes text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// JobCreator starts async semantic jobs.
type JobCreator interface {
	Configured() bool
	CreateJob(ctx context.Context, req jobuc.CreateRequest) (jobuc.CreateResult, error)
}

// SimilarRecommender finds grants resembling a known grant.
type SimilarRecommender interface {
	Recommend(ctx context.Context, id string) (similar.Recommendation, error)
}
