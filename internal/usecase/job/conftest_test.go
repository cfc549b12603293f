package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// memStore keeps copies of jobs; updates to terminal rows are rejected like the SQL store.
type memStore struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]job.SearchJob
	history  []job.RagStatus
	findErr  error
	createFn func(j *job.SearchJob) error
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[uuid.UUID]job.SearchJob)}
}

func (m *memStore) Create(_ context.Context, j *job.SearchJob) error {
	if m.createFn != nil {
		if err := m.createFn(j); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	m.history = append(m.history, j.RagStatus)
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*job.SearchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (m *memStore) Update(_ context.Context, j *job.SearchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[j.ID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if cur.RagStatus.IsTerminal() {
		return domain.ErrJobTerminal
	}
	m.jobs[j.ID] = *j
	m.history = append(m.history, j.RagStatus)
	return nil
}

func (m *memStore) FindInFlight(_ context.Context, fp string, since time.Time) (*job.SearchJob, bool, error) {
	if m.findErr != nil {
		return nil, false, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Fingerprint == fp && !j.RagStatus.IsTerminal() && j.CreatedAt.After(since) {
			cp := j
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *memStore) statuses() []job.RagStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]job.RagStatus(nil), m.history...)
}

type stageFunc func(ctx context.Context, query string, filters job.Filters) ([]result.Scored, error)

func (f stageFunc) Run(ctx context.Context, query string, filters job.Filters) ([]result.Scored, error) {
	return f(ctx, query, filters)
}

// inline runs tasks synchronously; held tasks are kept for later.
type inline struct {
	hold  bool
	tasks []func()
	err   error
}

func (s *inline) Submit(task func()) error {
	if s.err != nil {
		return s.err
	}
	if s.hold {
		s.tasks = append(s.tasks, task)
		return nil
	}
	task()
	return nil
}

func (s *inline) drain() {
	for _, t := range s.tasks {
		t()
	}
	s.tasks = nil
}

var errPoolClosed = errors.New("pool closed")
