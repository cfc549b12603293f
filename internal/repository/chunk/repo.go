package chunk

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/grantmatch/internal/db"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// store is the consumer interface for chunk index queries (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Index over the NOFO chunk index.
type Repo struct {
	store     store
	indexName string
}

// New creates a chunk repository bound to one FT index.
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// SearchLexical runs the BM25 channel and returns raw, unnormalized scores.
func (r *Repo) SearchLexical(ctx context.Context, query string, k int) ([]result.Hit, error) {
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    r.indexName,
		TextField:    db.ChunkContentField,
		Query:        query,
		TopK:         k,
		ReturnFields: []string{db.ChunkSourceField},
	})
	if err != nil {
		return nil, fmt.Errorf("search bm25 %s: %w", r.indexName, err)
	}
	return toHits(sr), nil
}

// SearchVector runs the KNN channel; scores are cosine similarities.
func (r *Repo) SearchVector(ctx context.Context, vector []float32, k int) ([]result.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  db.ChunkVectorField,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{db.ChunkSourceField},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}
	return toHits(sr), nil
}

func toHits(sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.Hit{Location: e.Fields[db.ChunkSourceField], Score: e.Score})
	}
	return hits
}
