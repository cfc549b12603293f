// Package job creates search jobs, answers polls, and runs the semantic stage in the background.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/logger"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
	"github.com/kailas-cloud/grantmatch/internal/usecase/search"
)

// Defaults for the background stage.
const (
	DefaultStageTimeout = 120 * time.Second
	persistTimeout      = 10 * time.Second
)

// CreateRequest carries the synchronously computed part of a search.
type CreateRequest struct {
	Query    string
	Filters  job.Filters
	Filtered []result.Scored
}

// CreateResult is the immediate partial answer.
type CreateResult struct {
	JobID          uuid.UUID
	FilteredGrants []result.Scored
	RagStatus      job.RagStatus
	// Reused is set when an equivalent in-flight job was returned instead of a new one.
	Reused bool
}

// Coordinator owns the SearchJob lifecycle.
type Coordinator struct {
	store        Store
	stage        Stage
	pool         Submitter
	now          func() time.Time
	stageTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithStageTimeout bounds one background stage run.
func WithStageTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.stageTimeout = d
		}
	}
}

// WithLogger sets the logger used by background stages.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator. A nil store leaves the job path unconfigured;
// a nil pool runs each stage on its own goroutine.
func NewCoordinator(store Store, stage Stage, pool Submitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		stage:        stage,
		pool:         pool,
		now:          time.Now,
		stageTimeout: DefaultStageTimeout,
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether a job store is wired.
func (c *Coordinator) Configured() bool { return c.store != nil }

// CreateJob persists a partial job and dispatches its semantic stage.
//
// Equivalent in-flight jobs are looked up by fingerprint first. The lookup and the
// insert are not atomic, so two concurrent requests can both dispatch. Only jobs younger
// than the stage timeout count as in flight; older non-terminal rows were orphaned.
func (c *Coordinator) CreateJob(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if c.store == nil {
		return CreateResult{}, fmt.Errorf("job store: %w", domain.ErrConfiguration)
	}
	if req.Query == "" {
		return CreateResult{}, domain.NewValidationError("query", "is required")
	}
	log := logger.FromContext(ctx)

	fp := job.Fingerprint(req.Query, req.Filters)
	existing, ok, err := c.store.FindInFlight(ctx, fp, c.now().Add(-c.stageTimeout))
	switch {
	case err != nil:
		log.Warn("in-flight job lookup failed", zap.Error(err))
	case ok:
		log.Debug("reusing in-flight job", zap.String("job_id", existing.ID.String()))
		return CreateResult{
			JobID:          existing.ID,
			FilteredGrants: existing.FilteredGrants,
			RagStatus:      existing.RagStatus,
			Reused:         true,
		}, nil
	}

	j := job.New(req.Query, req.Filters, req.Filtered, c.now())
	if err := c.store.Create(ctx, j); err != nil {
		return CreateResult{}, fmt.Errorf("create job: %w", err)
	}
	metrics.JobTransitionsTotal.WithLabelValues(string(job.RagPending)).Inc()

	res := CreateResult{JobID: j.ID, FilteredGrants: j.FilteredGrants, RagStatus: j.RagStatus}

	if err := c.submit(func() { c.run(j) }); err != nil {
		log.Warn("job dispatch failed", zap.String("job_id", j.ID.String()), zap.Error(err))
		c.finish(j, nil, fmt.Errorf("dispatch: %w", err))
		res.RagStatus = j.RagStatus
	}
	return res, nil
}

func (c *Coordinator) submit(task func()) error {
	if c.pool == nil {
		go task()
		return nil
	}
	return c.pool.Submit(task)
}

// GetStatus returns the current job record.
func (c *Coordinator) GetStatus(ctx context.Context, id uuid.UUID) (*job.SearchJob, error) {
	if c.store == nil {
		return nil, fmt.Errorf("job store: %w", domain.ErrConfiguration)
	}
	j, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// run executes the semantic stage. It recovers panics and always leaves the job terminal.
func (c *Coordinator) run(j *job.SearchJob) {
	log := c.logger.With(zap.String("job_id", j.ID.String()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in search job stage", zap.Any("panic", r))
			c.finish(j, nil, fmt.Errorf("panic: %v", r))
		}
		metrics.JobStageDuration.Observe(time.Since(start).Seconds())
	}()

	if err := j.Start(); err != nil {
		log.Warn("job already terminal", zap.Error(err))
		return
	}
	c.persist(log, j)
	metrics.JobTransitionsTotal.WithLabelValues(string(job.RagInProgress)).Inc()

	ctx, cancel := context.WithTimeout(logger.ContextWithLogger(context.Background(), log), c.stageTimeout)
	defer cancel()

	rag, err := c.stage.Run(ctx, j.Query, j.Filters)
	c.finish(j, rag, err)
}

// finish moves the job to completed or error and persists it.
func (c *Coordinator) finish(j *job.SearchJob, rag []result.Scored, stageErr error) {
	log := c.logger.With(zap.String("job_id", j.ID.String()))
	if stageErr != nil {
		if err := j.Fail(stageErr, c.now()); err != nil {
			return
		}
		log.Warn("search job failed", zap.Error(stageErr))
	} else {
		if err := j.Complete(rag, mergeAll(rag, j.FilteredGrants), c.now()); err != nil {
			return
		}
	}
	metrics.JobTransitionsTotal.WithLabelValues(string(j.RagStatus)).Inc()
	c.persist(log, j)
}

func (c *Coordinator) persist(log *zap.Logger, j *job.SearchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.store.Update(ctx, j); err != nil {
		log.Error("persist search job", zap.String("rag_status", string(j.RagStatus)), zap.Error(err))
	}
}

// mergeAll builds the deduplicated union: semantic results first, filter matches added when absent.
func mergeAll(rag, filtered []result.Scored) []result.Scored {
	t := search.NewTable()
	for _, r := range rag {
		t.Upsert(r)
	}
	for _, r := range filtered {
		t.AddIfAbsent(r)
	}
	return t.Ranked()
}
