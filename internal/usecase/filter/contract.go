package filter

import "context"

// ValueSource enumerates the distinct filter values held by the structured store.
type ValueSource interface {
	DistinctAgencies(ctx context.Context) ([]string, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}
