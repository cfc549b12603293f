// Package discovery orchestrates search and recommendation requests across the engine components.
package discovery

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/logger"
	"github.com/kailas-cloud/grantmatch/internal/usecase/classify"
	jobuc "github.com/kailas-cloud/grantmatch/internal/usecase/job"
	"github.com/kailas-cloud/grantmatch/internal/usecase/search"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

// Search methods reported by Recommend.
const (
	MethodFilter     = "filter"
	MethodSemantic   = "semantic"
	MethodSimilarity = "similarity"
)

// SearchResult is the synchronous answer of Search.
type SearchResult struct {
	Query   string
	Results []result.Scored
	Elapsed time.Duration
}

// Preferences refine a recommendation request.
type Preferences struct {
	Agency   string
	Category string
	NofoID   string
}

// RecommendResult is the answer of Recommend.
// JobID is set when semantic results arrive later through a search job.
type RecommendResult struct {
	Grants          []result.Scored
	SearchMethod    string
	ToolUsed        string
	Filters         job.Filters
	JobID           *uuid.UUID
	RagStatus       job.RagStatus
	TargetNofo      string
	Recommendations []similar.Recommended
}

// Deps are the collaborators of Service. Classifier and Engine are required.
type Deps struct {
	Classifier  Classifier
	Resolver    FilterResolver
	Grants      GrantLister
	Engine      HybridSearcher
	Embedder    Embedder
	Jobs        JobCreator
	Recommender SimilarRecommender
}

// Service serves /search and /recommendations.
type Service struct {
	d   Deps
	now func() time.Time
}

// New creates a discovery service.
func New(d Deps) *Service {
	return &Service{d: d, now: time.Now}
}

// Search classifies the query and answers synchronously with merged results.
func (s *Service) Search(ctx context.Context, query string) (SearchResult, error) {
	start := s.now()
	q, err := classify.ValidateQuery(query)
	if err != nil {
		return SearchResult{}, err
	}
	d, err := s.d.Classifier.Classify(ctx, q)
	if err != nil {
		return SearchResult{}, err
	}
	ctx = logger.With(ctx, zap.String("mode", string(d.Mode)))

	var results []result.Scored
	if d.Mode == mode.Filter {
		results, _, err = s.filterResults(ctx, d.Keyword, job.Filters{})
	} else {
		results, err = s.semanticResults(ctx, q, job.Filters{Category: d.Category, Agency: d.Agency})
	}
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Query: q, Results: results, Elapsed: s.now().Sub(start)}, nil
}

// Recommend routes a query to similarity, filter, or semantic recommendations.
// Semantic requests answer with filter matches and hand retrieval to a search job
// when a job store is configured.
func (s *Service) Recommend(ctx context.Context, query string, prefs Preferences) (RecommendResult, error) {
	q, err := classify.ValidateQuery(query)
	if err != nil {
		return RecommendResult{}, err
	}
	d, err := s.d.Classifier.Classify(ctx, q)
	if err != nil {
		return RecommendResult{}, err
	}
	ctx = logger.With(ctx, zap.String("mode", string(d.Mode)))

	if d.Mode == mode.Similar && prefs.NofoID != "" && s.d.Recommender != nil {
		rec, err := s.d.Recommender.Recommend(ctx, prefs.NofoID)
		if err != nil {
			return RecommendResult{}, err
		}
		return RecommendResult{
			Grants:          []result.Scored{},
			SearchMethod:    MethodSimilarity,
			TargetNofo:      rec.TargetNofo,
			Recommendations: rec.Recommendations,
		}, nil
	}

	override := job.Filters{Category: prefs.Category, Agency: prefs.Agency}
	if d.Mode == mode.Filter {
		grants, f, err := s.filterResults(ctx, d.Keyword, override)
		if err != nil {
			return RecommendResult{}, err
		}
		return RecommendResult{Grants: grants, SearchMethod: MethodFilter, ToolUsed: d.Tool, Filters: f}, nil
	}

	if override.Category == "" {
		override.Category = d.Category
	}
	if override.Agency == "" {
		override.Agency = d.Agency
	}
	tool := d.Tool
	if tool == "" {
		tool = mode.ToolSearchWithRAG
	}

	if s.d.Jobs == nil || !s.d.Jobs.Configured() {
		logger.FromContext(ctx).Debug("job store not configured, running semantic stage inline")
		grants, err := s.semanticResults(ctx, q, override)
		if err != nil {
			return RecommendResult{}, err
		}
		return RecommendResult{Grants: grants, SearchMethod: MethodSemantic, ToolUsed: tool, Filters: override}, nil
	}

	// Listing failures are tolerated here; the job's semantic stage still runs.
	f := s.resolveFilters(ctx, q, override)
	cat, agency := s.listMatches(ctx, f, nil)
	filtered := search.Merge(nil, cat, agency, f)

	created, err := s.d.Jobs.CreateJob(ctx, jobuc.CreateRequest{Query: q, Filters: f, Filtered: filtered})
	if err != nil {
		return RecommendResult{}, err
	}
	id := created.JobID
	return RecommendResult{
		Grants:       created.FilteredGrants,
		SearchMethod: MethodSemantic,
		ToolUsed:     tool,
		Filters:      f,
		JobID:        &id,
		RagStatus:    created.RagStatus,
	}, nil
}

// filterResults answers a keyword lookup from the structured store only.
func (s *Service) filterResults(ctx context.Context, keyword string, override job.Filters) ([]result.Scored, job.Filters, error) {
	f := s.resolveFilters(ctx, keyword, override)

	var (
		src                sources
		cat, agency, names []grant.Grant
		g                  errgroup.Group
	)
	g.Go(func() error {
		cat, agency = s.listMatches(ctx, f, &src)
		return nil
	})
	g.Go(func() error {
		names = s.nameMatches(ctx, keyword, &src)
		return nil
	})
	_ = g.Wait()
	if err := src.err("filter search"); err != nil {
		return nil, f, err
	}

	t := search.NewTable()
	for _, r := range search.Merge(nil, cat, agency, f) {
		t.Upsert(r)
	}
	search.AddGrants(t, names, result.DBFilter, "Name: "+keyword)
	return t.Ranked(), f, nil
}

// semanticResults embeds the query and resolves filters concurrently, then fuses.
func (s *Service) semanticResults(ctx context.Context, q string, override job.Filters) ([]result.Scored, error) {
	var (
		src sources
		vec []float32
		f   job.Filters
		g   errgroup.Group
	)
	g.Go(func() error {
		vec = vectorize(ctx, s.d.Embedder, q)
		return nil
	})
	g.Go(func() error {
		f = s.resolveFilters(ctx, q, override)
		return nil
	})
	_ = g.Wait()

	var (
		hybrid      []result.Scored
		cat, agency []grant.Grant
	)
	g = errgroup.Group{}
	g.Go(func() error {
		var err error
		hybrid, err = s.d.Engine.HybridSearch(ctx, q, vec, 0)
		src.record(err)
		return nil
	})
	g.Go(func() error {
		cat, agency = s.listMatches(ctx, f, &src)
		return nil
	})
	_ = g.Wait()
	if err := src.err("semantic search"); err != nil {
		return nil, err
	}

	return search.Merge(hybrid, cat, agency, f), nil
}

// resolveFilters resolves term against known values; non-empty override fields win.
func (s *Service) resolveFilters(ctx context.Context, term string, override job.Filters) job.Filters {
	f := override
	if s.d.Resolver == nil || (f.Category != "" && f.Agency != "") {
		return f
	}
	res := s.d.Resolver.Resolve(ctx, term)
	if f.Category == "" {
		f.Category = res.Category
	}
	if f.Agency == "" {
		f.Agency = res.Agency
	}
	return f
}

func (s *Service) listMatches(ctx context.Context, f job.Filters, src *sources) (cat, agency []grant.Grant) {
	if s.d.Grants == nil {
		return nil, nil
	}
	log := logger.FromContext(ctx)
	var g errgroup.Group
	if f.Category != "" {
		g.Go(func() error {
			var err error
			cat, err = s.d.Grants.ListActiveByCategory(ctx, f.Category)
			src.record(err)
			if err != nil {
				log.Warn("category listing failed", zap.String("category", f.Category), zap.Error(err))
				cat = nil
			}
			return nil
		})
	}
	if f.Agency != "" {
		g.Go(func() error {
			var err error
			agency, err = s.d.Grants.ListActiveByAgency(ctx, f.Agency)
			src.record(err)
			if err != nil {
				log.Warn("agency listing failed", zap.String("agency", f.Agency), zap.Error(err))
				agency = nil
			}
			return nil
		})
	}
	_ = g.Wait()
	return cat, agency
}

func (s *Service) nameMatches(ctx context.Context, keyword string, src *sources) []grant.Grant {
	if keyword == "" || s.d.Grants == nil {
		return nil
	}
	gs, err := s.d.Grants.SearchActiveByName(ctx, keyword)
	src.record(err)
	if err != nil {
		logger.FromContext(ctx).Warn("name search failed", zap.Error(err))
		return nil
	}
	return gs
}

// sources counts the retrieval calls of one request and how many failed.
// The embedder is not a source: without a vector the lexical channel still answers.
// A nil *sources records nothing.
type sources struct {
	attempted atomic.Int32
	failed    atomic.Int32
}

func (s *sources) record(err error) {
	if s == nil {
		return
	}
	s.attempted.Add(1)
	if err != nil {
		s.failed.Add(1)
	}
}

// err wraps domain.ErrDependency when every attempted source failed.
// Nothing attempted is an empty answer, not a failure.
func (s *sources) err(op string) error {
	n := s.attempted.Load()
	if n == 0 || s.failed.Load() < n {
		return nil
	}
	return fmt.Errorf("%s: all %d sources failed: %w", op, n, domain.ErrDependency)
}
