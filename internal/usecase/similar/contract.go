package similar

import (
	"context"

	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
)

// SummaryStore reads per-grant summary documents keyed by grant folder.
type SummaryStore interface {
	IDs(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*grant.Summary, error)
}
