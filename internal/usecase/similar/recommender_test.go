package similar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
)

func TestRecommender_Recommend(t *testing.T) {
	store := &mapStore{
		docs: map[string]*grant.Summary{
			// 8 unique terms across target and twin, 2 shared
			"target": summary("Target Grant", "shared1 shared2 aaaa1 aaaa2 aaaa3"),
			"twin":   summary("Twin Grant", "shared1 shared2 bbbb1 bbbb2 bbbb3"),
			"close":  summary("", "shared1 shared2 aaaa1 aaaa2"),
			"far":    summary("Far", "zzzz1 zzzz2 shared1 zzzz3 zzzz4 zzzz5"),
			"old":    {GrantName: "Old", Status: grant.Archived, EligibilityCriteria: []grant.Criterion{{Item: "shared1 shared2 aaaa1"}}},
		},
		broken: map[string]bool{"corrupt": true},
	}
	rec, err := NewRecommender(store).Recommend(context.Background(), "target")
	require.NoError(t, err)

	assert.Equal(t, "Target Grant", rec.TargetNofo)
	require.Len(t, rec.Recommendations, 2)

	assert.Equal(t, "close", rec.Recommendations[0].ID)
	assert.Equal(t, "close", rec.Recommendations[0].Name)
	assert.Equal(t, 0.8, rec.Recommendations[0].Similarity)
	assert.Equal(t, []string{"shared1", "shared2", "aaaa1", "aaaa2"}, rec.Recommendations[0].MatchingCriteria)

	assert.Equal(t, "twin", rec.Recommendations[1].ID)
	assert.Equal(t, 0.25, rec.Recommendations[1].Similarity)
	assert.Equal(t, []string{"shared1", "shared2"}, rec.Recommendations[1].MatchingCriteria)

	for _, r := range rec.Recommendations {
		assert.NotEqual(t, "target", r.ID, "self-match excluded")
	}
}

func TestRecommender_Symmetric(t *testing.T) {
	store := &mapStore{docs: map[string]*grant.Summary{
		"a": summary("A", "shared1 shared2 aaaa1 aaaa2 aaaa3"),
		"b": summary("B", "shared1 shared2 bbbb1 bbbb2 bbbb3"),
	}}
	r := NewRecommender(store)

	fromA, err := r.Recommend(context.Background(), "a")
	require.NoError(t, err)
	fromB, err := r.Recommend(context.Background(), "b")
	require.NoError(t, err)

	require.Len(t, fromA.Recommendations, 1)
	require.Len(t, fromB.Recommendations, 1)
	assert.Equal(t, fromA.Recommendations[0].Similarity, fromB.Recommendations[0].Similarity)
}

func TestRecommender_CapsAtFive(t *testing.T) {
	docs := map[string]*grant.Summary{"target": summary("T", "alpha bravo charlie delta")}
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		docs[id] = summary(id, "alpha bravo charlie delta")
	}
	rec, err := NewRecommender(&mapStore{docs: docs}).Recommend(context.Background(), "target")
	require.NoError(t, err)
	assert.Len(t, rec.Recommendations, MaxRecommendations)
	assert.Equal(t, "c1", rec.Recommendations[0].ID, "ties keep store order")
}

func TestRecommender_EmptyTermsMatchNothing(t *testing.T) {
	store := &mapStore{docs: map[string]*grant.Summary{
		"target": summary("T"),
		"other":  summary("O"),
	}}
	rec, err := NewRecommender(store).Recommend(context.Background(), "target")
	require.NoError(t, err)
	assert.NotNil(t, rec.Recommendations)
	assert.Empty(t, rec.Recommendations)
}

func TestRecommender_TargetMissing(t *testing.T) {
	store := &mapStore{broken: map[string]bool{"bad": true}}
	r := NewRecommender(store)

	_, err := r.Recommend(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrGrantNotFound)

	_, err = r.Recommend(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrGrantNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecommender_Validation(t *testing.T) {
	_, err := NewRecommender(&mapStore{}).Recommend(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecommender_ListFailure(t *testing.T) {
	store := &mapStore{
		docs:   map[string]*grant.Summary{"target": summary("T", "alpha")},
		idsErr: errors.New("io"),
	}
	_, err := NewRecommender(store).Recommend(context.Background(), "target")
	assert.ErrorIs(t, err, domain.ErrDependency)
}
