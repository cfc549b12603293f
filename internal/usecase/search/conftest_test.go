package search

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

type mockIndex struct {
	lexicalFn   func(ctx context.Context, query string, k int) ([]result.Hit, error)
	vectorFn    func(ctx context.Context, vector []float32, k int) ([]result.Hit, error)
	vectorCalls atomic.Int32
}

func (m *mockIndex) SearchLexical(ctx context.Context, query string, k int) ([]result.Hit, error) {
	if m.lexicalFn == nil {
		return nil, nil
	}
	return m.lexicalFn(ctx, query, k)
}

func (m *mockIndex) SearchVector(ctx context.Context, vector []float32, k int) ([]result.Hit, error) {
	m.vectorCalls.Add(1)
	if m.vectorFn == nil {
		return nil, nil
	}
	return m.vectorFn(ctx, vector, k)
}
