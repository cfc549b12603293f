package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Polling contract defaults.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxPollAttempts = 30
)

// ResultSet is a client-side working set of grants kept in sync with a search job.
type ResultSet struct {
	mu     sync.Mutex
	grants []Grant
	seen   map[string]struct{}
}

// NewResultSet starts a working set from the immediate answer.
func NewResultSet(initial []Grant) *ResultSet {
	s := &ResultSet{seen: make(map[string]struct{})}
	s.add(initial)
	return s
}

// Apply folds a polled job into the set. A job carrying the complete merged
// result set replaces the working set wholesale; otherwise its grants are
// appended by name, never duplicating a name already present.
func (s *ResultSet) Apply(j *SearchJob) {
	if j == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.AllGrants != nil {
		s.grants = nil
		s.seen = make(map[string]struct{}, len(j.AllGrants))
		s.add(j.AllGrants)
		return
	}
	s.add(j.FilteredGrants)
	s.add(j.RagGrants)
}

// Grants returns a copy of the working set in insertion order.
func (s *ResultSet) Grants() []Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Grant, len(s.grants))
	copy(out, s.grants)
	return out
}

// Len returns the number of distinct grants.
func (s *ResultSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

func (s *ResultSet) add(gs []Grant) {
	for _, g := range gs {
		if _, ok := s.seen[g.Name]; ok {
			continue
		}
		s.seen[g.Name] = struct{}{}
		s.grants = append(s.grants, g)
	}
}

// PollSearchJob polls a search job until its rag status is terminal or the
// attempt budget is spent, applying every answer to set (which may be nil).
//
// Transient poll failures count as attempts. An unknown job stops polling at once.
// When the budget is spent the last seen job is returned with ErrPollExhausted.
func (c *Client) PollSearchJob(ctx context.Context, id uuid.UUID, set *ResultSet) (j *SearchJob, err error) {
	start := time.Now()
	attempts := 0
	defer func() {
		outcome := pollOutcome(err)
		if err == nil {
			outcome = j.RagStatus
		}
		c.obs.pollFinished(id, attempts, outcome, start)
	}()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var last *SearchJob
	for attempts < c.maxPollAttempts {
		select {
		case <-ctx.Done():
			return last, fmt.Errorf("poll search job %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
		attempts++

		polled, err := c.GetSearchJob(ctx, id)
		c.obs.pollAttempt(id, attempts, polled, err)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
				return last, fmt.Errorf("poll search job %s: %w", id, err)
			}
			continue
		}

		last = polled
		if set != nil {
			set.Apply(polled)
		}
		if polled.Terminal() {
			return polled, nil
		}
	}
	return last, fmt.Errorf("poll search job %s after %d attempts: %w", id, c.maxPollAttempts, ErrPollExhausted)
}
