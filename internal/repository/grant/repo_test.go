package grant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/grantmatch/internal/db/postgres/pgtest"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	grantrepo "github.com/kailas-cloud/grantmatch/internal/repository/grant"
)

func mustGrant(t *testing.T, name string, status grant.Status, pinned bool, agency string, category grant.Category) grant.Grant {
	t.Helper()
	g, err := grant.New(name, status, pinned, agency, category, time.Time{})
	require.NoError(t, err)
	return g
}

func seed(t *testing.T, r *grantrepo.Repo) {
	t.Helper()
	ctx := context.Background()
	for _, g := range []grant.Grant{
		mustGrant(t, "Rural Health Outreach", grant.Active, false, "HRSA", grant.Health),
		mustGrant(t, "Adolescent Health 100%", grant.Active, true, "HRSA", grant.Health),
		mustGrant(t, "Old Health Program", grant.Archived, true, "HRSA", grant.Health),
		mustGrant(t, "STEM Teacher Training", grant.Active, false, "NSF", grant.Training),
		mustGrant(t, "Uncategorized", grant.Active, false, "", ""),
	} {
		require.NoError(t, r.Upsert(ctx, g))
	}
}

func names(gs []grant.Grant) []string {
	out := make([]string, 0, len(gs))
	for i := range gs {
		out = append(out, gs[i].Name())
	}
	return out
}

func TestRepo_ListActiveByCategory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	r := grantrepo.New(pgtest.Setup(t))
	seed(t, r)

	got, err := r.ListActiveByCategory(context.Background(), string(grant.Health))
	require.NoError(t, err)
	// pinned first, archived excluded
	assert.Equal(t, []string{"Adolescent Health 100%", "Rural Health Outreach"}, names(got))
	assert.True(t, got[0].Pinned())
	assert.Equal(t, "HRSA", got[0].Agency())
}

func TestRepo_ListActiveByAgency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	r := grantrepo.New(pgtest.Setup(t))
	seed(t, r)

	got, err := r.ListActiveByAgency(context.Background(), "NSF")
	require.NoError(t, err)
	assert.Equal(t, []string{"STEM Teacher Training"}, names(got))

	got, err = r.ListActiveByAgency(context.Background(), "nsf")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepo_SearchActiveByName(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	r := grantrepo.New(pgtest.Setup(t))
	seed(t, r)
	ctx := context.Background()

	got, err := r.SearchActiveByName(ctx, "health")
	require.NoError(t, err)
	assert.Equal(t, []string{"Adolescent Health 100%", "Rural Health Outreach"}, names(got))

	// wildcards are literal
	got, err = r.SearchActiveByName(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{"Adolescent Health 100%"}, names(got))

	got, err = r.SearchActiveByName(ctx, "%")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRepo_Distinct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	r := grantrepo.New(pgtest.Setup(t))
	seed(t, r)
	ctx := context.Background()

	agencies, err := r.DistinctAgencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HRSA", "NSF"}, agencies)

	cats, err := r.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Training"}, cats)
}

func TestRepo_UpsertReplaces(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	r := grantrepo.New(pgtest.Setup(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, mustGrant(t, "G", grant.Active, false, "A", grant.Research)))
	require.NoError(t, r.Upsert(ctx, mustGrant(t, "G", grant.Archived, false, "A", grant.Research)))

	got, err := r.ListActiveByCategory(ctx, string(grant.Research))
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, r.Ping(ctx))
}
