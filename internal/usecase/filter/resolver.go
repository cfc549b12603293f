package filter

import (
	"context"
	"strings"
)

// Resolution is the best-matching known agency and category for a term; empty means none.
type Resolution struct {
	Agency   string
	Category string
}

// Resolver maps free text to known filter values.
type Resolver struct {
	cache *Cache
}

// NewResolver creates a resolver over the cache.
func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// Resolve matches term against known agencies and categories.
func (r *Resolver) Resolve(ctx context.Context, term string) Resolution {
	return Resolution{
		Agency:   Match(r.cache.Values(ctx, Agency), term),
		Category: Match(r.cache.Values(ctx, Category), term),
	}
}

// Match returns the candidate equal to needle ignoring case, else the first
// candidate that contains or is contained in needle. Candidates are scanned in order.
func Match(candidates []string, needle string) string {
	n := strings.ToLower(strings.TrimSpace(needle))
	if n == "" {
		return ""
	}
	for _, c := range candidates {
		if strings.ToLower(c) == n {
			return c
		}
	}
	for _, c := range candidates {
		lc := strings.ToLower(strings.TrimSpace(c))
		if lc == "" {
			continue
		}
		if strings.Contains(n, lc) || strings.Contains(lc, n) {
			return c
		}
	}
	return ""
}
