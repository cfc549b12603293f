package chi

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/grantmatch/internal/usecase/health"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

// --- Mocks ---

type mockDiscovery struct {
	searchFn    func(ctx context.Context, query string) (discovery.SearchResult, error)
	recommendFn func(ctx context.Context, query string, prefs discovery.Preferences) (discovery.RecommendResult, error)
}

func (m *mockDiscovery) Search(ctx context.Context, query string) (discovery.SearchResult, error) {
	return m.searchFn(ctx, query)
}

func (m *mockDiscovery) Recommend(
	ctx context.Context, query string, prefs discovery.Preferences,
) (discovery.RecommendResult, error) {
	return m.recommendFn(ctx, query, prefs)
}

type mockJobs struct {
	getFn func(ctx context.Context, id uuid.UUID) (*job.SearchJob, error)
}

func (m *mockJobs) GetStatus(ctx context.Context, id uuid.UUID) (*job.SearchJob, error) {
	return m.getFn(ctx, id)
}

type mockSimilar struct {
	recommendFn func(ctx context.Context, id string) (similar.Recommendation, error)
}

func (m *mockSimilar) Recommend(ctx context.Context, id string) (similar.Recommendation, error) {
	return m.recommendFn(ctx, id)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }
