package filter

import (
	"context"
	"time"
)

type mockSource struct {
	agenciesFn   func(ctx context.Context) ([]string, error)
	categoriesFn func(ctx context.Context) ([]string, error)
	agencyCalls  int
}

func (m *mockSource) DistinctAgencies(ctx context.Context) ([]string, error) {
	m.agencyCalls++
	if m.agenciesFn == nil {
		return nil, nil
	}
	return m.agenciesFn(ctx)
}

func (m *mockSource) DistinctCategories(ctx context.Context) ([]string, error) {
	if m.categoriesFn == nil {
		return nil, nil
	}
	return m.categoriesFn(ctx)
}

// fakeClock is advanced manually by tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
