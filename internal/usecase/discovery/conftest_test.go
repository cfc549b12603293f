package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/usecase/filter"
	jobuc "github.com/kailas-cloud/grantmatch/internal/usecase/job"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

type mockResolver struct {
	resolveFn func(ctx context.Context, term string) filter.Resolution
}

func (m *mockResolver) Resolve(ctx context.Context, term string) filter.Resolution {
	if m.resolveFn == nil {
		return filter.Resolution{}
	}
	return m.resolveFn(ctx, term)
}

type mockGrants struct {
	byCategory map[string][]grant.Grant
	byAgency   map[string][]grant.Grant
	byName     map[string][]grant.Grant
	err        error
}

func (m *mockGrants) ListActiveByCategory(_ context.Context, c string) ([]grant.Grant, error) {
	return m.byCategory[c], m.err
}

func (m *mockGrants) ListActiveByAgency(_ context.Context, a string) ([]grant.Grant, error) {
	return m.byAgency[a], m.err
}

func (m *mockGrants) SearchActiveByName(_ context.Context, kw string) ([]grant.Grant, error) {
	return m.byName[kw], m.err
}

type mockEngine struct {
	mu       sync.Mutex
	results  []result.Scored
	err      error
	calls    int
	lastVec  []float32
	lastText string
}

func (m *mockEngine) HybridSearch(_ context.Context, q string, vec []float32, _ int) ([]result.Scored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastVec = vec
	m.lastText = q
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   atomic.Int32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.embedFn == nil {
		return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
	}
	return m.embedFn(ctx, text)
}

type mockJobs struct {
	configured bool
	lastReq    jobuc.CreateRequest
	result     jobuc.CreateResult
	err        error
}

func (m *mockJobs) Configured() bool { return m.configured }

func (m *mockJobs) CreateJob(_ context.Context, req jobuc.CreateRequest) (jobuc.CreateResult, error) {
	m.lastReq = req
	if m.err != nil {
		return jobuc.CreateResult{}, m.err
	}
	r := m.result
	r.FilteredGrants = req.Filtered
	return r, nil
}

type mockRecommender struct {
	recommendFn func(ctx context.Context, id string) (similar.Recommendation, error)
}

func (m *mockRecommender) Recommend(ctx context.Context, id string) (similar.Recommendation, error) {
	return m.recommendFn(ctx, id)
}

func mustGrant(t *testing.T, name, agency string, category grant.Category) grant.Grant {
	t.Helper()
	g, err := grant.New(name, grant.Active, false, agency, category, time.Time{})
	if err != nil {
		t.Fatalf("grant.New: %v", err)
	}
	return g
}
