package chi

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/grantmatch/internal/usecase/health"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

// Discovery answers search and recommendation queries.
type Discovery interface {
	Search(ctx context.Context, query string) (discovery.SearchResult, error)
	Recommend(ctx context.Context, query string, prefs discovery.Preferences) (discovery.RecommendResult, error)
}

// JobReader answers search job polls.
type JobReader interface {
	GetStatus(ctx context.Context, id uuid.UUID) (*job.SearchJob, error)
}

// SimilarRecommender ranks grants resembling a known grant.
type SimilarRecommender interface {
	Recommend(ctx context.Context, id string) (similar.Recommendation, error)
}

// HealthReporter aggregates dependency checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
