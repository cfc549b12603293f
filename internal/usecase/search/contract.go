package search

import (
	"context"

	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// Index exposes the two retrieval channels of the chunk index.
type Index interface {
	SearchLexical(ctx context.Context, query string, k int) ([]result.Hit, error)
	SearchVector(ctx context.Context, vector []float32, k int) ([]result.Hit, error)
}
