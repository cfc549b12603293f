package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// Store persists search jobs.
type Store interface {
	Create(ctx context.Context, j *job.SearchJob) error
	Get(ctx context.Context, id uuid.UUID) (*job.SearchJob, error)
	Update(ctx context.Context, j *job.SearchJob) error
	// FindInFlight returns the newest non-terminal job with the fingerprint created after since.
	FindInFlight(ctx context.Context, fingerprint string, since time.Time) (*job.SearchJob, bool, error)
}

// Stage computes the slow semantic results of a job.
type Stage interface {
	Run(ctx context.Context, query string, filters job.Filters) ([]result.Scored, error)
}

// Submitter hands a task to a worker without waiting for one to free up.
// A pool from NewPool satisfies it.
type Submitter interface {
	Submit(task func()) error
}

// NewPool creates a non-blocking ants pool: Submit fails with ants.ErrPoolOverload
// instead of parking the request path when every worker is busy.
func NewPool(size int) (*ants.Pool, error) {
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return pool, nil
}
