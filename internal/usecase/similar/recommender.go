package similar

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/logger"
)

// Ranking limits.
const (
	MinSimilarity       = 0.15
	MaxRecommendations  = 5
	MaxMatchingCriteria = 5
)

// Recommended is one similar grant.
type Recommended struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Similarity       float64  `json:"similarity"`
	MatchingCriteria []string `json:"matchingCriteria"`
}

// Recommendation is the ranked list of grants resembling a target grant.
type Recommendation struct {
	TargetNofo      string        `json:"targetNofo"`
	Recommendations []Recommended `json:"recommendations"`
}

// Recommender ranks grants by Jaccard similarity of their summary terms.
type Recommender struct {
	store SummaryStore
}

// NewRecommender creates a similarity recommender.
func NewRecommender(store SummaryStore) *Recommender {
	return &Recommender{store: store}
}

// Recommend returns up to MaxRecommendations grants more similar than MinSimilarity.
// An unreadable target is ErrGrantNotFound; unreadable candidates are skipped.
func (r *Recommender) Recommend(ctx context.Context, id string) (Recommendation, error) {
	if id == "" {
		return Recommendation{}, domain.NewValidationError("nofoId", "is required")
	}
	log := logger.FromContext(ctx)

	target, err := r.store.Get(ctx, id)
	if err != nil {
		return Recommendation{}, fmt.Errorf("read target %q: %w: %w", id, domain.ErrGrantNotFound, err)
	}
	targetTerms := ExtractTerms(target)

	ids, err := r.store.IDs(ctx)
	if err != nil {
		return Recommendation{}, fmt.Errorf("list summaries: %w: %w", domain.ErrDependency, err)
	}

	type scored struct {
		rec Recommended
		raw float64
	}
	var ranked []scored
	for _, cid := range ids {
		if cid == id {
			continue
		}
		cand, err := r.store.Get(ctx, cid)
		if err != nil {
			log.Debug("skipping unreadable candidate", zap.String("grant", cid), zap.Error(err))
			continue
		}
		if cand.Status == grant.Archived {
			continue
		}
		terms := ExtractTerms(cand)
		sim := Jaccard(targetTerms, terms)
		if sim <= MinSimilarity {
			continue
		}
		ranked = append(ranked, scored{
			rec: Recommended{
				ID:               cid,
				Name:             displayName(cand, cid),
				Similarity:       result.Round2(sim),
				MatchingCriteria: Shared(targetTerms, terms, MaxMatchingCriteria),
			},
			raw: sim,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].raw > ranked[j].raw })
	if len(ranked) > MaxRecommendations {
		ranked = ranked[:MaxRecommendations]
	}

	out := Recommendation{TargetNofo: displayName(target, id), Recommendations: make([]Recommended, len(ranked))}
	for i, s := range ranked {
		out.Recommendations[i] = s.rec
	}
	return out, nil
}

func displayName(s *grant.Summary, id string) string {
	if s.GrantName != "" {
		return s.GrantName
	}
	return id
}
